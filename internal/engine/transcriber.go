package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"
)

// Transcriber converts one audio file into timed transcript entries.
// Implementations must treat each call independently; the orchestrator
// owns chunking and offset correction.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]TranscriptEntry, error)
}

const defaultTranscriptionAPIBase = "https://api.openai.com/v1"

// WhisperClient talks to an OpenAI-compatible /audio/transcriptions
// endpoint using verbose_json so segment timings come back.
type WhisperClient struct {
	apiBase    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter // nil = unpaced
}

// NewWhisperClient builds a client. rpm > 0 paces requests so bursts of
// small jobs still respect per-account limits.
func NewWhisperClient(apiBase, apiKey, model string, rpm int) *WhisperClient {
	if apiBase == "" {
		apiBase = defaultTranscriptionAPIBase
	}
	if model == "" {
		model = "whisper-1"
	}
	c := &WhisperClient{
		apiBase: apiBase,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
	if rpm > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
	return c
}

type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Error    *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Transcribe uploads one audio file and returns its timed entries.
// Transport-level failures go through the bounded retry policy; an error
// answer from the service itself is not retried; the service is the
// authority on whether the audio is transcribable.
func (c *WhisperClient) Transcribe(ctx context.Context, audioPath string) ([]TranscriptEntry, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, contentType, err := c.buildRequestBody(audioPath)
	if err != nil {
		return nil, err
	}

	resp, err := RetryHTTP(ctx, cfg.Retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.apiBase+"/audio/transcriptions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", contentType)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, &ServiceUnavailableError{Service: "transcription", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32*1024*1024))
	if err != nil {
		return nil, &ServiceUnavailableError{Service: "transcription", Err: err}
	}

	var parsed whisperResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("transcription service: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcription service: HTTP %d", resp.StatusCode)
	}

	return normalizeSegments(parsed), nil
}

// buildRequestBody assembles the multipart form for one upload.
func (c *WhisperClient) buildRequestBody(audioPath string) ([]byte, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	_ = w.WriteField("model", c.model)
	_ = w.WriteField("response_format", "verbose_json")
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// normalizeSegments converts service segments to TranscriptEntry values.
// A segment with no usable end gets duration 0 rather than being dropped.
func normalizeSegments(resp whisperResponse) []TranscriptEntry {
	if len(resp.Segments) == 0 {
		if resp.Text == "" {
			return nil
		}
		return []TranscriptEntry{{Start: 0, Duration: 0, Text: resp.Text}}
	}
	entries := make([]TranscriptEntry, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		dur := seg.End - seg.Start
		if dur < 0 {
			dur = 0
		}
		entries = append(entries, TranscriptEntry{
			Start:    seg.Start,
			Duration: dur,
			Text:     seg.Text,
		})
	}
	return entries
}
