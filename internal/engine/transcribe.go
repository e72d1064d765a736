package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Transcription orchestration: download a resolved media URL, chunk it
// when it exceeds the service's single-request limit, transcribe the
// chunks strictly sequentially, and stitch one time-ordered transcript.

// JobState tracks where a transcription job is in its lifecycle.
type JobState string

const (
	StatePending          JobState = "pending"
	StateDownloading      JobState = "downloading"
	StateDirectTranscribe JobState = "direct_transcribe"
	StateChunkPlanning    JobState = "chunk_planning"
	StateTranscribing     JobState = "transcribing"
	StateStitching        JobState = "stitching"
	StateComplete         JobState = "complete"
	StateFailed           JobState = "failed"
)

// Job is the explicit per-submission handle threaded through the
// pipeline. There is no global "currently processing" state; concurrent
// jobs for the same URL are serialized by the persistence collaborator,
// not here.
type Job struct {
	ID    uuid.UUID
	URL   string
	State JobState

	tempDir string
}

// NewJob creates a pending job handle for one submitted URL.
func NewJob(url string) *Job {
	return &Job{ID: uuid.New(), URL: url, State: StatePending}
}

// workDir lazily creates the job-scoped scratch directory.
func (j *Job) workDir() (string, error) {
	if j.tempDir != "" {
		return j.tempDir, nil
	}
	dir, err := os.MkdirTemp("", "ingest-"+j.ID.String()[:8]+"-")
	if err != nil {
		return "", fmt.Errorf("job workdir: %w", err)
	}
	j.tempDir = dir
	return dir, nil
}

// Cleanup removes all job-scoped files. Safe to call repeatedly.
func (j *Job) Cleanup() {
	if j.tempDir != "" {
		os.RemoveAll(j.tempDir)
		j.tempDir = ""
	}
}

func (j *Job) fail(err error) error {
	j.State = StateFailed
	return err
}

// TranscribeMedia produces the full ordered transcript for a resolved
// (non-YouTube) media URL, or fails with a typed error. No partial
// transcript is ever returned: a gap would silently corrupt downstream
// timestamp navigation, so any chunk failure is fatal for the item.
func TranscribeMedia(ctx context.Context, job *Job, mediaURL string) ([]TranscriptEntry, error) {
	metrics.TranscribeJobs.Add(1)

	job.State = StateDownloading
	path, size, err := downloadMedia(ctx, job, mediaURL)
	if err != nil {
		metrics.TranscribeErrors.Add(1)
		return nil, job.fail(err)
	}

	if size <= cfg.ChunkThresholdBytes {
		job.State = StateDirectTranscribe
		entries, err := cfg.Transcriber.Transcribe(ctx, path)
		if err != nil {
			metrics.TranscribeErrors.Add(1)
			return nil, job.fail(&TranscriptionError{ChunkIndex: -1, Err: err})
		}
		job.State = StateComplete
		return entries, nil
	}

	job.State = StateChunkPlanning
	totalDur, err := cfg.Splitter.ProbeDuration(ctx, path)
	if err != nil {
		metrics.TranscribeErrors.Add(1)
		return nil, job.fail(fmt.Errorf("probe duration: %w", err))
	}
	plan := PlanChunks(totalDur, cfg.ChunkDurationSecs)
	slog.Info("chunking oversized audio",
		slog.String("job", job.ID.String()),
		slog.Int64("bytes", size),
		slog.Float64("duration", totalDur),
		slog.Int("chunks", plan.ChunkCount))

	dir, err := job.workDir()
	if err != nil {
		metrics.TranscribeErrors.Add(1)
		return nil, job.fail(err)
	}
	chunkPaths, err := cfg.Splitter.Split(ctx, path, plan, dir)
	if err != nil {
		metrics.TranscribeErrors.Add(1)
		return nil, job.fail(fmt.Errorf("split audio: %w", err))
	}

	// Chunks run sequentially on purpose: it bounds peak memory for
	// decoded audio and keeps within per-account service rate limits.
	job.State = StateTranscribing
	var all []TranscriptEntry
	for i, chunkPath := range chunkPaths {
		entries, err := cfg.Transcriber.Transcribe(ctx, chunkPath)
		if err != nil {
			metrics.TranscribeErrors.Add(1)
			return nil, job.fail(&TranscriptionError{ChunkIndex: i, Err: err})
		}
		metrics.TranscribeChunks.Add(1)
		all = append(all, rebaseEntries(entries, float64(i)*plan.ChunkDuration)...)
	}

	job.State = StateStitching
	if !entriesOrdered(all) {
		metrics.TranscribeErrors.Add(1)
		return nil, job.fail(&TranscriptionError{ChunkIndex: -1,
			Err: fmt.Errorf("stitched entries out of order")})
	}

	job.State = StateComplete
	return all, nil
}

// rebaseEntries shifts chunk-local start times to global time.
func rebaseEntries(entries []TranscriptEntry, offset float64) []TranscriptEntry {
	out := make([]TranscriptEntry, len(entries))
	for i, e := range entries {
		e.Start += offset
		out[i] = e
	}
	return out
}

// entriesOrdered reports whether Start is non-decreasing.
func entriesOrdered(entries []TranscriptEntry) bool {
	for i := 1; i < len(entries); i++ {
		if entries[i].Start < entries[i-1].Start {
			return false
		}
	}
	return true
}

// downloadMedia streams the media URL into the job's scratch directory,
// retrying transient failures per the configured policy, and returns
// the local path plus the size discovered during download.
func downloadMedia(ctx context.Context, job *Job, mediaURL string) (string, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DownloadTimeout)
	defer cancel()

	dir, err := job.workDir()
	if err != nil {
		return "", 0, err
	}

	resp, err := RetryHTTP(ctx, cfg.Retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", UserAgentBot)
		return cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return "", 0, &ServiceUnavailableError{Service: "media download", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, &MediaResolutionError{
			Ref:    MediaReference{SourceURL: mediaURL},
			Reason: fmt.Sprintf("download returned HTTP %d", resp.StatusCode),
		}
	}

	ext := filepath.Ext(strings.SplitN(mediaURL, "?", 2)[0])
	if ext == "" || len(ext) > 5 {
		ext = ".media"
	}
	path := filepath.Join(dir, "source"+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	size, err := io.Copy(f, resp.Body)
	if err != nil {
		return "", 0, &ServiceUnavailableError{Service: "media download", Err: err}
	}
	metrics.DownloadBytes.Add(size)
	return path, size, nil
}
