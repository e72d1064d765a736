package engine

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Source name derivation: a stable display label for where a piece of
// content came from, used for source-scoped duplicate filtering and
// shown to users. Rules apply in order: known-domain table, platform
// extraction, suffix stripping, bare-domain fallback.

// SourceMeta carries optional platform-specific hints scraped from the page.
type SourceMeta struct {
	PageTitle   string
	ChannelName string // video channel / podcast feed name
	Author      string
}

// sourceDomainNames maps known domains to their display names.
var sourceDomainNames = map[string]string{
	"nytimes.com":        "The New York Times",
	"wsj.com":            "The Wall Street Journal",
	"economist.com":      "The Economist",
	"theatlantic.com":    "The Atlantic",
	"newyorker.com":      "The New Yorker",
	"ft.com":             "Financial Times",
	"bloomberg.com":      "Bloomberg",
	"theverge.com":       "The Verge",
	"arstechnica.com":    "Ars Technica",
	"techcrunch.com":     "TechCrunch",
	"wired.com":          "Wired",
	"youtube.com":        "YouTube",
	"youtu.be":           "YouTube",
	"vimeo.com":          "Vimeo",
	"stratechery.com":    "Stratechery",
	"every.to":           "Every",
	"medium.com":         "Medium",
}

// newsletterHosts are hosted-newsletter platforms where the subdomain is
// the publication name.
var newsletterHosts = []string{
	".substack.com",
	".beehiiv.com",
	".ghost.io",
	".buttondown.email",
}

// strippedSuffixes are trailing words dropped from derived names,
// longest first so "Email Newsletter" wins over "Newsletter".
var strippedSuffixes = []string{
	"Email Newsletter",
	"Newsletter",
	"Podcast",
	"Journal",
	"Magazine",
}

var titleCaser = cases.Title(language.English)

// SourceName derives the display name for a content source.
func SourceName(rawURL string, meta SourceMeta) string {
	host := hostOf(rawURL)

	if name, ok := sourceDomainNames[host]; ok {
		// A channel name is more specific than the platform itself.
		if (host == "youtube.com" || host == "youtu.be" || host == "vimeo.com") && meta.ChannelName != "" {
			return stripSourceSuffix(strings.TrimSpace(meta.ChannelName))
		}
		return name
	}

	for _, suffix := range newsletterHosts {
		if strings.HasSuffix(host, suffix) {
			sub := strings.TrimSuffix(host, suffix)
			if sub != "" && sub != "www" {
				return titleCaser.String(strings.ReplaceAll(sub, "-", " "))
			}
		}
	}

	if meta.ChannelName != "" {
		return stripSourceSuffix(strings.TrimSpace(meta.ChannelName))
	}

	return bareDomainName(host)
}

// stripSourceSuffix removes a trailing "Newsletter"/"Podcast"/etc., plus
// the possessive immediately before it: "Example's Newsletter" → "Example".
func stripSourceSuffix(name string) string {
	for _, suffix := range strippedSuffixes {
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		base := strings.TrimSpace(strings.TrimSuffix(name, suffix))
		if base == "" {
			return name
		}
		base = strings.TrimSuffix(base, "'s")
		base = strings.TrimSuffix(base, "’s")
		return strings.TrimSpace(base)
	}
	return name
}

// bareDomainName turns "my-cool-blog.example.co.uk" into "My Cool Blog".
func bareDomainName(host string) string {
	if host == "" {
		return ""
	}
	// Registrable label: first label after stripping the TLD chain.
	parts := strings.Split(host, ".")
	label := parts[0]
	if len(parts) >= 2 {
		label = parts[len(parts)-2]
		// Two-letter second-level domains (co.uk, com.au) sit one deeper.
		if len(label) <= 3 && len(parts) >= 3 {
			label = parts[len(parts)-3]
		}
	}
	label = strings.ReplaceAll(label, "-", " ")
	label = strings.ReplaceAll(label, "_", " ")
	return titleCaser.String(label)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
