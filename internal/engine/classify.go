package engine

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Content classification: scan fetched HTML for media embeds and decide
// the content category. Pure string/DOM matching, no I/O.

// platformPattern binds one platform to its embed-ID extraction rule.
// Adding a platform is one table entry plus one regexp.
type platformPattern struct {
	platform Platform
	re       *regexp.Regexp // first capture group = embed ID
	isAudio  bool
}

// Embed IDs are case-sensitive on every platform here, so the regexps
// stay case-sensitive; hostnames are lowercased before matching (see
// canonicalMediaURL).
var platformPatterns = []platformPattern{
	{PlatformYouTube, regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|embed/|shorts/|live/)|youtu\.be/)([A-Za-z0-9_-]{6,20})`), false},
	{PlatformVimeo, regexp.MustCompile(`(?:vimeo\.com/(?:video/)?|player\.vimeo\.com/video/)(\d+)`), false},
	{PlatformLoom, regexp.MustCompile(`loom\.com/(?:share|embed)/([A-Za-z0-9]{16,64})`), false},
	{PlatformWistia, regexp.MustCompile(`(?:wistia\.(?:com|net)/(?:medias|embed/(?:iframe|medias))/)([A-Za-z0-9]{6,16})`), false},
	{PlatformDailymotion, regexp.MustCompile(`(?:dailymotion\.com/(?:video|embed/video)/|dai\.ly/)([A-Za-z0-9]+)`), false},
}

// canonicalMediaURL lowercases the host portion of a candidate URL so
// "Youtube.com" and "youtube.com" match the same pattern. Path and query
// are left untouched: video IDs are case-sensitive.
func canonicalMediaURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return raw
	}
	u.Host = strings.ToLower(u.Host)
	u.Scheme = strings.ToLower(u.Scheme)
	return u.String()
}

// absoluteURL resolves a scraped src/href against the page it came
// from. Pages routinely reference their assets by relative path, and a
// relative path is useless to the downloader.
func absoluteURL(pageURL, src string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}

// matchPlatform runs a candidate URL through the dispatch table.
func matchPlatform(raw string) (MediaReference, bool) {
	canon := canonicalMediaURL(raw)
	for _, p := range platformPatterns {
		if m := p.re.FindStringSubmatch(canon); len(m) >= 2 {
			return MediaReference{Platform: p.platform, SourceURL: raw, EmbedID: m[1]}, true
		}
	}
	return MediaReference{}, false
}

var audioExtRe = regexp.MustCompile(`(?i)\.(mp3|m4a|aac|ogg|opus|wav|flac)(\?|$)`)

// looksLikeAudioURL reports whether a bare media src points at audio.
func looksLikeAudioURL(src string) bool {
	return audioExtRe.MatchString(src)
}

// Classify inspects a fetched document and returns exactly one
// ContentClassification. pageURL itself is also checked against the
// platform table, so a directly submitted watch URL classifies even when
// the fetched markup is a shell. Malformed HTML never raises: anything
// unparseable simply yields no media signals and degrades to text_only.
func Classify(pageURL, html string) ContentClassification {
	metrics.ClassifyRequests.Add(1)

	var (
		refs    []MediaReference
		signals []string
		seen    = map[string]bool{}
	)
	add := func(ref MediaReference, signal string) {
		key := string(ref.Platform) + "|" + ref.EmbedID + "|" + ref.SourceURL
		if seen[key] {
			return
		}
		seen[key] = true
		refs = append(refs, ref)
		signals = append(signals, signal)
	}

	if ref, ok := matchPlatform(pageURL); ok {
		add(ref, "url:"+string(ref.Platform))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		doc.Find("iframe[src]").Each(func(_ int, s *goquery.Selection) {
			src, _ := s.Attr("src")
			src = absoluteURL(pageURL, src)
			if ref, ok := matchPlatform(src); ok {
				add(ref, "iframe:"+string(ref.Platform))
			}
		})

		// Wistia commonly embeds via a classed div instead of an iframe.
		doc.Find("div[class*=wistia_async_]").Each(func(_ int, s *goquery.Selection) {
			class, _ := s.Attr("class")
			for _, c := range strings.Fields(class) {
				if h, ok := strings.CutPrefix(c, "wistia_async_"); ok && h != "" {
					add(MediaReference{Platform: PlatformWistia, SourceURL: pageURL, EmbedID: h}, "div:wistia")
				}
			}
		})

		collectSrc := func(s *goquery.Selection) string {
			if src, ok := s.Attr("src"); ok && src != "" {
				return src
			}
			var found string
			s.Find("source[src]").EachWithBreak(func(_ int, src *goquery.Selection) bool {
				found, _ = src.Attr("src")
				return found == ""
			})
			return found
		}

		doc.Find("audio").Each(func(_ int, s *goquery.Selection) {
			if src := collectSrc(s); src != "" {
				add(MediaReference{Platform: PlatformGenericAudio, SourceURL: absoluteURL(pageURL, src)}, "audio:src")
			}
		})
		doc.Find("video").Each(func(_ int, s *goquery.Selection) {
			if src := collectSrc(s); src != "" {
				src = absoluteURL(pageURL, src)
				if ref, ok := matchPlatform(src); ok {
					add(ref, "video:"+string(ref.Platform))
				} else if looksLikeAudioURL(src) {
					add(MediaReference{Platform: PlatformGenericAudio, SourceURL: src}, "video:audio-src")
				} else {
					add(MediaReference{Platform: PlatformGenericVideo, SourceURL: src}, "video:src")
				}
			}
		})

		// Podcast pages often link the episode audio directly.
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			if looksLikeAudioURL(href) {
				add(MediaReference{Platform: PlatformGenericAudio, SourceURL: absoluteURL(pageURL, href)}, "link:audio")
			}
		})
	}

	return ContentClassification{
		Category:   categoryFor(refs),
		MediaCount: len(refs),
		Signals:    signals,
		Media:      refs,
	}
}

// categoryFor folds detected references into one category.
func categoryFor(refs []MediaReference) ContentCategory {
	var hasAudio, hasVideo bool
	for _, r := range refs {
		if r.Platform == PlatformGenericAudio {
			hasAudio = true
		} else {
			hasVideo = true
		}
	}
	switch {
	case hasAudio && hasVideo:
		return CategoryMixed
	case hasAudio:
		return CategoryAudio
	case hasVideo:
		return CategoryVideo
	default:
		return CategoryTextOnly
	}
}
