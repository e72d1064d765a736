package engine

import (
	"net/http"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"

	"github.com/gkotak/automate-life-sub001/internal/records"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	// Remote transcription service (OpenAI-compatible audio endpoint).
	TranscriptionAPIBase string
	TranscriptionAPIKey  string
	TranscriptionModel   string
	TranscriptionRPM     int // requests per minute; 0 = no pacing

	// Single-request payload limit of the transcription service. Files
	// above this are chunked.
	ChunkThresholdBytes int64
	ChunkDurationSecs   float64

	// Duplicate resolution.
	DateToleranceDays int

	// Transcript language preference, most preferred first.
	TranscriptLangs []string

	MaxBodyChars    int
	FetchTimeout    time.Duration
	DownloadTimeout time.Duration

	HTTPClient    *http.Client
	BrowserClient *stealth.BrowserClient // nil = TLS-fingerprint fallback disabled

	// Collaborators. Fetcher and Transcriber get stdlib-backed defaults
	// in Init when left nil; Records may stay nil (duplicate checks skipped).
	Fetcher     Fetcher
	Transcriber Transcriber
	Splitter    AudioSplitter
	Records     records.Source

	Retry RetryConfig
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration and fills in
// defaults for anything unset.
func Init(c Config) {
	if c.TranscriptionModel == "" {
		c.TranscriptionModel = "whisper-1"
	}
	if c.ChunkThresholdBytes <= 0 {
		c.ChunkThresholdBytes = 25 * 1024 * 1024
	}
	if c.ChunkDurationSecs <= 0 {
		c.ChunkDurationSecs = 600
	}
	if c.DateToleranceDays <= 0 {
		c.DateToleranceDays = 1
	}
	if len(c.TranscriptLangs) == 0 {
		c.TranscriptLangs = []string{"en"}
	}
	if c.MaxBodyChars <= 0 {
		c.MaxBodyChars = 60000
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = 10 * time.Minute
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		}
	}
	if c.Retry == (RetryConfig{}) {
		c.Retry = DefaultRetryConfig
	}
	if c.Fetcher == nil {
		c.Fetcher = &HTTPFetcher{}
	}
	if c.Transcriber == nil {
		c.Transcriber = NewWhisperClient(c.TranscriptionAPIBase, c.TranscriptionAPIKey, c.TranscriptionModel, c.TranscriptionRPM)
	}
	if c.Splitter == nil {
		c.Splitter = ffmpegSplitter{}
	}
	cfg = c
	Cfg = &cfg
}
