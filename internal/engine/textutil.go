package engine

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/anatolykoptev/go-kit/strutil"
)

// User-Agent strings used across HTTP clients.
const (
	UserAgentBot    = "LifeIngest/1.0"
	UserAgentChrome = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// CleanHTML strips HTML tags and trims whitespace.
func CleanHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Safe for UTF-8 (Cyrillic, CJK, emoji).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}

// NormalizeTitle lowercases a title, strips punctuation, and collapses
// whitespace. Both sides of a similarity comparison go through this.
func NormalizeTitle(s string) string {
	var b strings.Builder
	prevSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		case !prevSpace:
			b.WriteByte(' ')
			prevSpace = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// trackingParams are query parameters stripped during URL normalization.
// They identify campaigns, not content.
var trackingParams = map[string]bool{
	"fbclid":   true,
	"gclid":    true,
	"mc_cid":   true,
	"mc_eid":   true,
	"igshid":   true,
	"ref":      true,
	"_hsenc":   true,
	"_hsmi":    true,
	"mkt_tok":  true,
	"vero_id":  true,
	"trk":      true,
	"yclid":    true,
	"wickedid": true,
}

// NormalizeURL reduces a URL to a stable comparison key: scheme dropped,
// host lowercased with "www." removed, fragment and tracking query
// parameters stripped, trailing slash removed, remaining query sorted.
// Two URLs with equal keys refer to the same content.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.ToLower(strings.TrimSpace(raw)), "/")
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")

	path := strings.TrimRight(u.Path, "/")

	q := u.Query()
	kept := url.Values{}
	for key, vals := range q {
		lk := strings.ToLower(key)
		if trackingParams[lk] || strings.HasPrefix(lk, "utm_") {
			continue
		}
		kept[key] = vals
	}

	key := host + path
	if len(kept) > 0 {
		// Deterministic ordering so param order never splits a key.
		keys := make([]string, 0, len(kept))
		for k := range kept {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range keys {
			for _, v := range kept[k] {
				parts = append(parts, k+"="+v)
			}
		}
		key += "?" + strings.Join(parts, "&")
	}
	return key
}
