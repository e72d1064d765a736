// Package pipeline ties the engine stages together: fetch, classify,
// duplicate-check, locate media, and resolve a transcript for one
// submitted URL. Each submission gets its own job handle; nothing here
// is shared across submissions.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gkotak/automate-life-sub001/internal/engine"
	"github.com/gkotak/automate-life-sub001/internal/engine/sources"
)

// Process runs one submission through the full pipeline. The duplicate
// check runs before any media download: a prompt_user recommendation
// returns early with classification and verdicts but no transcript, so
// the caller can ask before paying for transcription.
func Process(ctx context.Context, sub engine.Submission) (*engine.Result, error) {
	var res *engine.Result
	err := engine.TrackOperation(ctx, "process_url", func(ctx context.Context) error {
		var err error
		res, err = process(ctx, sub)
		return err
	})
	return res, err
}

func process(ctx context.Context, sub engine.Submission) (*engine.Result, error) {
	if strings.TrimSpace(sub.URL) == "" {
		return nil, errors.New("submission has no URL")
	}

	job := engine.NewJob(sub.URL)
	defer job.Cleanup()

	log := slog.With(slog.String("job", job.ID.String()), slog.String("url", sub.URL))

	page, err := engine.Cfg.Fetcher.Fetch(ctx, sub.URL)
	if err != nil {
		return nil, err
	}
	body := string(page.Body)

	// Podcast feeds carry the audio asset directly; no page scraping needed.
	if sources.LooksLikeFeed(page.ContentType, body) {
		if ep, ok := sources.ParseFeedEpisode(body, sub.URL); ok {
			log.Info("resolved feed enclosure", slog.String("media", ep.EnclosureURL))
			return processFeedEpisode(ctx, job, sub, ep)
		}
	}

	class := engine.Classify(sub.URL, body)
	meta := engine.ExtractMeta(sub.URL, body)
	if sub.Title == "" {
		sub.Title = meta.Title
	}
	if sub.PublishedAt == nil {
		sub.PublishedAt = meta.PublishedAt
	}

	sourceName := engine.SourceName(sub.URL, engine.SourceMeta{
		PageTitle:   meta.Title,
		ChannelName: meta.ChannelName,
		Author:      meta.Author,
	})

	res := &engine.Result{
		URL:            sub.URL,
		Title:          sub.Title,
		SourceName:     sourceName,
		Classification: class,
	}

	res.Duplicate = checkDuplicates(ctx, sub, sourceName)
	if res.Duplicate.Recommendation != engine.RecommendProceed {
		log.Info("duplicate check stopped pipeline",
			slog.String("recommendation", string(res.Duplicate.Recommendation)),
			slog.String("confidence", res.Duplicate.Confidence))
		return res, nil
	}

	if class.Category == engine.CategoryTextOnly || class.Category == engine.CategoryMixed {
		title, article := engine.ExtractArticle(sub.URL, body)
		if res.Title == "" {
			res.Title = title
		}
		res.Body = article
	}
	if class.Category == engine.CategoryTextOnly {
		return res, nil
	}

	located, err := engine.Locate(ctx, class)
	if err != nil {
		return nil, err
	}

	entries, origin, err := resolveTranscript(ctx, job, sub.URL, body, located, log)
	if err != nil {
		return nil, err
	}
	res.Transcript = entries
	res.Origin = origin
	return res, nil
}

// processFeedEpisode handles a URL that resolved to an RSS/Atom item:
// the enclosure is the audio asset, and the item supplies title/date.
func processFeedEpisode(ctx context.Context, job *engine.Job, sub engine.Submission, ep *sources.FeedEpisode) (*engine.Result, error) {
	if sub.Title == "" {
		sub.Title = ep.Title
	}
	if sub.PublishedAt == nil {
		sub.PublishedAt = ep.PublishedAt
	}

	sourceName := engine.SourceName(sub.URL, engine.SourceMeta{PageTitle: sub.Title})
	res := &engine.Result{
		URL:        sub.URL,
		Title:      sub.Title,
		SourceName: sourceName,
		Classification: engine.ContentClassification{
			Category:   engine.CategoryAudio,
			MediaCount: 1,
			Signals:    []string{"feed enclosure"},
			Media: []engine.MediaReference{
				{Platform: engine.PlatformGenericAudio, SourceURL: ep.EnclosureURL},
			},
		},
	}

	res.Duplicate = checkDuplicates(ctx, sub, sourceName)
	if res.Duplicate.Recommendation != engine.RecommendProceed {
		return res, nil
	}

	entries, err := engine.TranscribeMedia(ctx, job, ep.EnclosureURL)
	if err != nil {
		return nil, err
	}
	res.Transcript = entries
	res.Origin = engine.OriginAudio
	return res, nil
}

// checkDuplicates consults the processing records, when configured.
// No records source means every submission proceeds.
func checkDuplicates(ctx context.Context, sub engine.Submission, sourceName string) engine.DuplicateReport {
	if engine.Cfg.Records == nil {
		return engine.DuplicateReport{Recommendation: engine.RecommendProceed}
	}
	candidates, err := engine.Cfg.Records.Candidates(ctx, sourceName, engine.NormalizeURL(sub.URL))
	if err != nil {
		// A broken records backend must not block ingestion.
		slog.Warn("duplicate candidate lookup failed", slog.Any("err", err))
		return engine.DuplicateReport{Recommendation: engine.RecommendProceed}
	}
	return engine.ResolveDuplicates(sub, candidates, engine.Cfg.DateToleranceDays)
}

// resolveTranscript tries the transcript paths in cost order:
//  1. platform transcript (YouTube captions, no download)
//  2. published transcript document linked from the page
//  3. download the audio and transcribe it
//
// A page whose video has no captions and links no document and exposes
// no downloadable asset yields an empty transcript, not an error.
func resolveTranscript(ctx context.Context, job *engine.Job, pageURL, html string, located []engine.LocatedMedia, log *slog.Logger) ([]engine.TranscriptEntry, engine.TranscriptOrigin, error) {
	if videoID, ok := engine.PickVideoID(located); ok {
		entries, err := sources.FetchYouTubeTranscript(ctx, videoID, engine.Cfg.TranscriptLangs)
		if err == nil {
			return entries, engine.OriginPlatform, nil
		}
		if !errors.Is(err, engine.ErrNoTranscript) {
			log.Warn("platform transcript unavailable", slog.String("video", videoID), slog.Any("err", err))
		}
	}

	if docURL, ok := sources.FindTranscriptDocURL(pageURL, html); ok {
		text, err := sources.FetchPublishedTranscript(ctx, docURL)
		if err == nil {
			return []engine.TranscriptEntry{{Text: text}}, engine.OriginPublished, nil
		}
		log.Warn("published transcript fetch failed", slog.String("doc", docURL), slog.Any("err", err))
	}

	audio, ok := engine.PickAudioSource(located)
	if !ok {
		log.Info("no transcript source available")
		return nil, "", nil
	}
	entries, err := engine.TranscribeMedia(ctx, job, audio.MediaURL)
	if err != nil {
		return nil, "", fmt.Errorf("transcribe %s: %w", audio, err)
	}
	return entries, engine.OriginAudio, nil
}
