package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	FetchRequests      atomic.Int64
	FetchErrors        atomic.Int64
	ClassifyRequests   atomic.Int64
	MediaResolved      atomic.Int64
	MediaErrors        atomic.Int64
	DownloadBytes      atomic.Int64
	TranscribeJobs     atomic.Int64
	TranscribeChunks   atomic.Int64
	TranscribeErrors   atomic.Int64
	PlatformTranscript atomic.Int64
	PublishedDocs      atomic.Int64
	DuplicateChecks    atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"fetch_requests":               metrics.FetchRequests.Load(),
		"fetch_errors":                 metrics.FetchErrors.Load(),
		"classify_requests":            metrics.ClassifyRequests.Load(),
		"media_resolved":               metrics.MediaResolved.Load(),
		"media_errors":                 metrics.MediaErrors.Load(),
		"download_bytes":               metrics.DownloadBytes.Load(),
		"transcribe_jobs":              metrics.TranscribeJobs.Load(),
		"transcribe_chunks":            metrics.TranscribeChunks.Load(),
		"transcribe_errors":            metrics.TranscribeErrors.Load(),
		"platform_transcript_requests": metrics.PlatformTranscript.Load(),
		"published_doc_transcripts":    metrics.PublishedDocs.Load(),
		"duplicate_checks":             metrics.DuplicateChecks.Load(),
		"cache_hits":                   hits,
		"cache_misses":                 misses,
	}
}

// FormatMetrics returns metrics as a simple text format.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"fetch_requests", "fetch_errors",
		"classify_requests",
		"media_resolved", "media_errors", "download_bytes",
		"transcribe_jobs", "transcribe_chunks", "transcribe_errors",
		"platform_transcript_requests", "published_doc_transcripts",
		"duplicate_checks",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the sources/ sub-package.
func IncrPlatformTranscript() { metrics.PlatformTranscript.Add(1) }
func IncrPublishedDocs()      { metrics.PublishedDocs.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
