package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	stealth "github.com/anatolykoptev/go-stealth"

	"github.com/gkotak/automate-life-sub001/internal/engine"
)

// YouTube transcript fetching: the direct transcript path that skips
// audio download entirely.
// Primary:  scrape watch page ytInitialPlayerResponse → caption XML
// Fallback: /next → engagement panel → /get_transcript
// Fallback: ANDROID Innertube /player → captionTracks
//
// A video with no captions in any language is a valid terminal outcome
// (engine.ErrNoTranscript), not a failure.

// errNoCaptions marks an affirmative "this video has no captions"
// answer from YouTube, as opposed to a transport failure.
var errNoCaptions = errors.New("video exposes no caption tracks")

// getTranscriptRE extracts the continuation token from a raw /next JSON response.
var getTranscriptRE = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

func extractTranscriptToken(data []byte) (string, error) {
	if m := getTranscriptRE.FindSubmatch(data); len(m) >= 2 {
		// The params value in the /next JSON response is URL-encoded.
		// /get_transcript expects the decoded (raw base64) form.
		decoded, err := url.QueryUnescape(string(m[1]))
		if err != nil {
			return string(m[1]), nil
		}
		return decoded, nil
	}
	return "", errors.New("getTranscriptEndpoint not found in engagement panels")
}

// parseTranscriptSegments converts a /get_transcript JSON response into
// timed entries. Segments carry millisecond bounds as strings.
func parseTranscriptSegments(resp ytGetTranscriptResp) []engine.TranscriptEntry {
	var entries []engine.TranscriptEntry
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		segs := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range segs {
			r := seg.TranscriptSegmentRenderer
			if r == nil {
				continue
			}
			var sb strings.Builder
			for _, run := range r.Snippet.Runs {
				if run.Text != "" {
					if sb.Len() > 0 {
						sb.WriteByte(' ')
					}
					sb.WriteString(run.Text)
				}
			}
			if sb.Len() == 0 {
				continue
			}
			startMs, _ := strconv.ParseFloat(r.StartMs, 64)
			endMs, _ := strconv.ParseFloat(r.EndMs, 64)
			dur := (endMs - startMs) / 1000
			if dur < 0 {
				dur = 0
			}
			entries = append(entries, engine.TranscriptEntry{
				Start:    startMs / 1000,
				Duration: dur,
				Text:     sb.String(),
			})
		}
	}
	return entries
}

// fetchViaEngagementPanel fetches a transcript via:
//  1. POST /next → get engagementPanels containing transcript continuation token
//  2. POST /get_transcript with the token → JSON segments
//
// This approach works from datacenter IPs where /player returns LOGIN_REQUIRED.
func fetchViaEngagementPanel(ctx context.Context, videoID string) ([]engine.TranscriptEntry, error) {
	visitorData := generateVisitorData()

	nextData, err := postInnerTubeWEB(ctx, ytNextURL, map[string]any{
		"videoId": videoID,
		"context": ytWebContext(visitorData),
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/next: %w", err)
	}

	token, err := extractTranscriptToken(nextData)
	if err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}

	transcriptData, err := postInnerTubeWEB(ctx, ytGetTranscriptURL, map[string]any{
		"params": token,
		"context": map[string]any{
			"client": ytWebClientCtx{
				ClientName:    "WEB",
				ClientVersion: ytWebVersion,
				VisitorData:   visitorData,
				Hl:            "en",
				Gl:            "US",
			},
		},
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/get_transcript: %w", err)
	}

	var transcriptResp ytGetTranscriptResp
	if err := json.Unmarshal(transcriptData, &transcriptResp); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	entries := parseTranscriptSegments(transcriptResp)
	if len(entries) == 0 {
		return nil, errNoCaptions
	}
	return entries, nil
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language
// preferences. Manually-authored tracks win over auto-generated ("asr") ones.
// Skips tracks that require PoToken; those only work in a browser.
func pickBestTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	// 1. Manual track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	// 2. Auto-generated track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	// 3. Any English track
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// parseTimedText converts timedtext caption XML into timed entries.
func parseTimedText(data []byte) ([]engine.TranscriptEntry, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}
	var entries []engine.TranscriptEntry
	for _, line := range tt.Lines {
		text := engine.CleanHTML(line.Text)
		if text == "" {
			continue
		}
		dur := line.Dur
		if dur < 0 {
			dur = 0
		}
		entries = append(entries, engine.TranscriptEntry{
			Start:    line.Start,
			Duration: dur,
			Text:     text,
		})
	}
	return entries, nil
}

// fetchTimedText fetches and parses a YouTube timedtext caption URL.
func fetchTimedText(ctx context.Context, baseURL string) ([]engine.TranscriptEntry, error) {
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}
	return parseTimedText(body)
}

// fetchViaPlayer uses the ANDROID Innertube /player endpoint.
// Works from non-blocked (residential/cloud) IP addresses.
func fetchViaPlayer(ctx context.Context, videoID string, langs []string) ([]engine.TranscriptEntry, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ytInnertubeURL+"?prettyPrint=false", strings.NewReader(string(reqBody)))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", ytAndroidUA)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}
	defer resp.Body.Close()

	var playerResp innertubePlayerResp
	if err := json.NewDecoder(resp.Body).Decode(&playerResp); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return tracksToEntries(ctx, playerResp, langs)
}

// tracksToEntries picks a caption track from a player response and
// fetches its timedtext. An affirmative caption-free answer maps to
// errNoCaptions.
func tracksToEntries(ctx context.Context, playerResp innertubePlayerResp, langs []string) ([]engine.TranscriptEntry, error) {
	if playerResp.Captions == nil {
		if playerResp.PlayabilityStatus != nil && playerResp.PlayabilityStatus.Reason != "" {
			return nil, fmt.Errorf("captions unavailable: %s", playerResp.PlayabilityStatus.Reason)
		}
		return nil, errNoCaptions
	}
	tracks := playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, errNoCaptions
	}
	track, ok := pickBestTrack(tracks, langs)
	if !ok {
		return nil, errors.New("all caption tracks require PoToken")
	}
	return fetchTimedText(ctx, track.BaseURL)
}

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// fetchViaPageScrape scrapes the YouTube watch page HTML and extracts
// the caption track XML URL from ytInitialPlayerResponse. Works from any IP.
func fetchViaPageScrape(ctx context.Context, videoID string, langs []string) ([]engine.TranscriptEntry, error) {
	watchURL := "https://www.youtube.com/watch?v=" + videoID

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", stealth.RandomUserAgent())
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}

	idx := strings.Index(string(body), ytInitialPlayerResponseMarker)
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return tracksToEntries(ctx, playerResp, langs)
}

// FetchYouTubeTranscript fetches the timed transcript for a YouTube video.
// Returns engine.ErrNoTranscript when the platform affirmatively reports
// no captions in any language; callers fall back to audio transcription
// or text-only processing.
func FetchYouTubeTranscript(ctx context.Context, videoID string, langs []string) ([]engine.TranscriptEntry, error) {
	engine.IncrPlatformTranscript()

	cacheKey := engine.CacheKey("yt-captions", videoID, strings.Join(langs, ","))
	if data, ok := engine.CacheGet(ctx, cacheKey); ok {
		var entries []engine.TranscriptEntry
		if json.Unmarshal(data, &entries) == nil && len(entries) > 0 {
			return entries, nil
		}
	}

	var sawNoCaptions bool
	var lastErr error

	for _, attempt := range []struct {
		name string
		fn   func() ([]engine.TranscriptEntry, error)
	}{
		{"page scrape", func() ([]engine.TranscriptEntry, error) { return fetchViaPageScrape(ctx, videoID, langs) }},
		{"engagement panel", func() ([]engine.TranscriptEntry, error) { return fetchViaEngagementPanel(ctx, videoID) }},
		{"android player", func() ([]engine.TranscriptEntry, error) { return fetchViaPlayer(ctx, videoID, langs) }},
	} {
		entries, err := attempt.fn()
		if err == nil && len(entries) > 0 {
			if data, merr := json.Marshal(entries); merr == nil {
				engine.CacheSet(ctx, cacheKey, data)
			}
			return entries, nil
		}
		if errors.Is(err, errNoCaptions) {
			sawNoCaptions = true
		} else if err != nil {
			lastErr = err
		}
		slog.Warn("youtube transcript attempt failed",
			slog.String("id", videoID), slog.String("via", attempt.name), slog.Any("err", err))
	}

	if sawNoCaptions {
		return nil, engine.ErrNoTranscript
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, engine.ErrNoTranscript
}
