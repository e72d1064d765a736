package engine

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Media location: resolve each detected reference into something the
// orchestrator can consume: a video ID for platforms with native
// transcripts, a direct downloadable URL for everything else.

// LocatedMedia is one resolved media asset.
type LocatedMedia struct {
	Ref      MediaReference
	MediaURL string // downloadable URL; empty when VideoID is set
	VideoID  string // platform-native transcript source (YouTube)
	Size     int64  // bytes; -1 when the host doesn't say
}

// mediaFileRe finds a direct media file URL inside an embed page.
// Slashes may arrive JSON-escaped (\/), so both forms are accepted.
var mediaFileRe = regexp.MustCompile(`https:(?:\\/\\/|//)(?:[^"'\s\\]|\\/)+\.(?:mp4|m4a|mp3|webm|ogg|mov)(?:\?(?:[^"'\s\\]|\\/)*)?`)

// Locate resolves every reference in a classification. YouTube resolves
// to a video ID with no download. Generic assets resolve to their own
// URL with the size probed via HEAD. Embed platforms need one fetch of
// the embed page to find the file URL behind the player.
func Locate(ctx context.Context, class ContentClassification) ([]LocatedMedia, error) {
	var out []LocatedMedia
	for _, ref := range class.Media {
		located, err := locateOne(ctx, ref)
		if err != nil {
			metrics.MediaErrors.Add(1)
			return nil, err
		}
		metrics.MediaResolved.Add(1)
		out = append(out, located)
	}
	return out, nil
}

func locateOne(ctx context.Context, ref MediaReference) (LocatedMedia, error) {
	switch ref.Platform {
	case PlatformYouTube:
		return LocatedMedia{Ref: ref, VideoID: ref.EmbedID, Size: -1}, nil

	case PlatformGenericAudio, PlatformGenericVideo:
		size := headContentLength(ctx, ref.SourceURL)
		return LocatedMedia{Ref: ref, MediaURL: ref.SourceURL, Size: size}, nil

	case PlatformVimeo, PlatformLoom, PlatformWistia, PlatformDailymotion:
		return resolveEmbed(ctx, ref)

	default:
		return LocatedMedia{}, &MediaResolutionError{Ref: ref, Reason: "unknown platform"}
	}
}

// embedPageURL builds the canonical player/config page for a platform ID.
func embedPageURL(ref MediaReference) string {
	switch ref.Platform {
	case PlatformVimeo:
		return "https://player.vimeo.com/video/" + ref.EmbedID
	case PlatformLoom:
		return "https://www.loom.com/share/" + ref.EmbedID
	case PlatformWistia:
		return "https://fast.wistia.net/embed/medias/" + ref.EmbedID + ".json"
	case PlatformDailymotion:
		return "https://www.dailymotion.com/embed/video/" + ref.EmbedID
	}
	return ref.SourceURL
}

// resolveEmbed fetches the platform's embed page and scans it for a
// direct media file URL.
func resolveEmbed(ctx context.Context, ref MediaReference) (LocatedMedia, error) {
	page, err := cfg.Fetcher.Fetch(ctx, embedPageURL(ref))
	if err != nil {
		return LocatedMedia{}, &MediaResolutionError{Ref: ref, Reason: "embed page fetch failed", Err: err}
	}

	match := mediaFileRe.FindString(string(page.Body))
	if match == "" {
		return LocatedMedia{}, &MediaResolutionError{Ref: ref, Reason: "no direct media URL in embed page"}
	}
	// JSON-embedded URLs carry escaped slashes.
	match = strings.ReplaceAll(match, `\/`, "/")

	size := headContentLength(ctx, match)
	return LocatedMedia{Ref: ref, MediaURL: match, Size: size}, nil
}

// headContentLength asks the host for the asset size. -1 means unknown;
// the orchestrator then discovers it during download.
func headContentLength(ctx context.Context, mediaURL string) int64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, mediaURL, nil)
	if err != nil {
		return -1
	}
	req.Header.Set("User-Agent", UserAgentBot)
	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return -1
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.ContentLength < 0 {
		return -1
	}
	return resp.ContentLength
}

// PickAudioSource chooses the asset to transcribe when a page exposes
// several: prefer plain audio (cheapest to download and decode), then
// any downloadable video.
func PickAudioSource(located []LocatedMedia) (LocatedMedia, bool) {
	for _, lm := range located {
		if lm.Ref.Platform == PlatformGenericAudio && lm.MediaURL != "" {
			return lm, true
		}
	}
	for _, lm := range located {
		if lm.MediaURL != "" {
			return lm, true
		}
	}
	return LocatedMedia{}, false
}

// PickVideoID returns the first platform-native transcript source.
func PickVideoID(located []LocatedMedia) (string, bool) {
	for _, lm := range located {
		if lm.VideoID != "" {
			return lm.VideoID, true
		}
	}
	return "", false
}

// String implements fmt.Stringer for logging.
func (lm LocatedMedia) String() string {
	if lm.VideoID != "" {
		return fmt.Sprintf("%s:%s", lm.Ref.Platform, lm.VideoID)
	}
	return fmt.Sprintf("%s:%s", lm.Ref.Platform, lm.MediaURL)
}
