package engine

import (
	"errors"
	"fmt"
)

// ErrNoTranscript is the terminal outcome when a platform exposes no
// transcript in any language. Not a failure: callers fall back to audio
// transcription when an audio asset exists, or to text-only processing.
var ErrNoTranscript = errors.New("no transcript available")

// FetchError wraps a failure retrieving a page. Recoverable by caller retry.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MediaResolutionError means a detected media reference could not be
// resolved into a downloadable URL. Fatal for the job.
type MediaResolutionError struct {
	Ref    MediaReference
	Reason string
	Err    error
}

func (e *MediaResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s media %s: %s: %v", e.Ref.Platform, e.Ref.SourceURL, e.Reason, e.Err)
	}
	return fmt.Sprintf("resolve %s media %s: %s", e.Ref.Platform, e.Ref.SourceURL, e.Reason)
}

func (e *MediaResolutionError) Unwrap() error { return e.Err }

// TranscriptionError is fatal for the whole item: a partial transcript
// would silently corrupt timestamp-based navigation downstream.
// ChunkIndex is -1 when the failure was not chunk-specific.
type TranscriptionError struct {
	ChunkIndex int
	Err        error
}

func (e *TranscriptionError) Error() string {
	if e.ChunkIndex >= 0 {
		return fmt.Sprintf("transcription failed at chunk %d: %v", e.ChunkIndex, e.Err)
	}
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// ServiceUnavailableError marks a transient network or remote-service
// failure that survived the bounded retry policy.
type ServiceUnavailableError struct {
	Service string
	Err     error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }
