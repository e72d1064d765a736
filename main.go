// automate-life-sub001: content ingestion pipeline.
//
// Takes submitted URLs, classifies the content (article, audio, video,
// mixed), checks for already-processed duplicates, and produces a timed
// transcript via platform captions, a published transcript document, or
// audio transcription, whichever is cheapest and available.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	stealth "github.com/anatolykoptev/go-stealth"

	"github.com/gkotak/automate-life-sub001/internal/engine"
	"github.com/gkotak/automate-life-sub001/internal/pipeline"
	"github.com/gkotak/automate-life-sub001/internal/records"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <url> [url...]\n", os.Args[0])
		os.Exit(2)
	}

	initEngine()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting ingestion", slog.String("version", version), slog.Int("urls", len(os.Args)-1))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	exitCode := 0
	for _, rawURL := range os.Args[1:] {
		res, err := pipeline.Process(ctx, engine.Submission{URL: rawURL})
		if err != nil {
			slog.Error("processing failed", slog.String("url", rawURL), slog.Any("error", err))
			exitCode = 1
			continue
		}
		if err := enc.Encode(res); err != nil {
			slog.Error("encode result", slog.Any("error", err))
			exitCode = 1
		}
	}

	slog.Info("done", slog.String("metrics", engine.FormatMetrics()))
	os.Exit(exitCode)
}

func initEngine() {
	c := engine.Config{
		TranscriptionAPIBase: env.Str("TRANSCRIPTION_API_BASE", "https://api.openai.com/v1"),
		TranscriptionAPIKey:  env.Str("TRANSCRIPTION_API_KEY", ""),
		TranscriptionModel:   env.Str("TRANSCRIPTION_MODEL", "whisper-1"),
		TranscriptionRPM:     env.Int("TRANSCRIPTION_RPM", 0),
		ChunkThresholdBytes:  int64(env.Int("CHUNK_THRESHOLD_BYTES", 25*1024*1024)),
		ChunkDurationSecs:    env.Float("CHUNK_DURATION_SECS", 600),
		DateToleranceDays:    env.Int("DATE_TOLERANCE_DAYS", 1),
		TranscriptLangs:      env.List("TRANSCRIPT_LANGS", "en"),
		MaxBodyChars:         env.Int("MAX_BODY_CHARS", 60000),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 15*time.Second),
		DownloadTimeout:      env.Duration("DOWNLOAD_TIMEOUT", 10*time.Minute),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	bc, err := stealth.NewClient(stealth.WithTimeout(15))
	if err != nil {
		slog.Warn("stealth client init failed, plain HTTP only", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
	}

	if dbPath := env.Str("RECORDS_DB", ""); dbPath != "" {
		src, err := records.OpenSQLite(dbPath)
		if err != nil {
			slog.Warn("records DB init failed, duplicate checks disabled", slog.Any("error", err))
		} else {
			c.Records = src
			slog.Info("records DB initialized", slog.String("path", dbPath))
		}
	}

	engine.Init(c)

	engine.InitCache(
		env.Str("REDIS_URL", ""),
		env.Duration("CACHE_TTL", 15*time.Minute),
		env.Int("CACHE_MAX_ENTRIES", 1000),
		env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
	)
}
