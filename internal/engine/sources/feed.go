package sources

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSS/Atom handling. Podcast feeds carry the audio asset as an item
// enclosure, which beats scraping the episode page for a player URL.

// FeedEpisode is a single feed item resolved to its media enclosure.
type FeedEpisode struct {
	Title        string
	Link         string
	EnclosureURL string
	PublishedAt  *time.Time
}

// LooksLikeFeed reports whether the body is an RSS or Atom document.
func LooksLikeFeed(contentType string, body string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "rss") || strings.Contains(ct, "atom") || strings.Contains(ct, "application/xml") || strings.Contains(ct, "text/xml") {
		head := strings.TrimSpace(body)
		if len(head) > 512 {
			head = head[:512]
		}
		return strings.Contains(head, "<rss") || strings.Contains(head, "<feed")
	}
	head := strings.TrimSpace(body)
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<?xml") && (strings.Contains(head, "<rss") || strings.Contains(head, "<feed"))
}

// ParseFeedEpisode parses a feed document and picks the item matching
// episodeURL, falling back to the newest item. Returns false when the
// document is not a parseable feed or has no items.
func ParseFeedEpisode(body string, episodeURL string) (*FeedEpisode, bool) {
	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil || len(feed.Items) == 0 {
		return nil, false
	}

	item := feed.Items[0]
	if episodeURL != "" {
		for _, it := range feed.Items {
			if it.Link == episodeURL || strings.TrimSuffix(it.Link, "/") == strings.TrimSuffix(episodeURL, "/") {
				item = it
				break
			}
		}
	}

	ep := &FeedEpisode{
		Title:       item.Title,
		Link:        item.Link,
		PublishedAt: item.PublishedParsed,
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "audio/") || strings.HasPrefix(enc.Type, "video/") {
			ep.EnclosureURL = enc.URL
			break
		}
	}
	if ep.EnclosureURL == "" && len(item.Enclosures) > 0 {
		ep.EnclosureURL = item.Enclosures[0].URL
	}
	if ep.EnclosureURL == "" {
		return nil, false
	}
	return ep, true
}
