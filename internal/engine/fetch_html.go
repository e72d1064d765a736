package engine

import (
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
)

// PageMeta is what the pipeline scrapes from a fetched document beyond
// its classification: title, publish date candidate, channel/author hints.
type PageMeta struct {
	Title       string
	PublishedAt *time.Time
	ChannelName string
	Author      string
}

// ExtractMeta pulls title/date/author signals out of page HTML.
// Best-effort: anything missing stays zero.
func ExtractMeta(pageURL, html string) PageMeta {
	var meta PageMeta

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return meta
	}

	meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok && og != "" {
		meta.Title = strings.TrimSpace(og)
	}

	if site, ok := doc.Find(`meta[property="og:site_name"]`).First().Attr("content"); ok {
		meta.ChannelName = strings.TrimSpace(site)
	}
	if author, ok := doc.Find(`meta[name="author"]`).First().Attr("content"); ok {
		meta.Author = strings.TrimSpace(author)
	}

	for _, sel := range []string{
		`meta[property="article:published_time"]`,
		`meta[name="date"]`,
		`meta[itemprop="datePublished"]`,
		`time[datetime]`,
	} {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		raw, ok := s.Attr("content")
		if !ok {
			raw, _ = s.Attr("datetime")
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			meta.PublishedAt = &t
			break
		}
	}

	return meta
}

// ExtractArticle extracts the main text content of a page as markdown
// using go-readability, falling back to goquery text scraping when
// readability can't find an article.
func ExtractArticle(pageURL, html string) (title, body string) {
	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err == nil && article.Content != "" {
		md, mdErr := htmltomarkdown.ConvertString(article.Content)
		if mdErr != nil {
			md = article.TextContent
		}
		body = strings.TrimSpace(md)
		title = article.Title
	}
	if body == "" {
		title, body = extractWithGoquery(html)
	}
	return title, TruncateRunes(body, cfg.MaxBodyChars, "...")
}

// extractWithGoquery is the structured-parse fallback when readability fails.
func extractWithGoquery(html string) (title, content string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	removeSelectors := []string{
		"script", "style", "noscript", "iframe", "svg",
		"header", "footer", "nav", "aside",
		".advertisement", ".ad", ".sidebar", ".comments",
		"[role=navigation]", "[role=banner]", "[role=contentinfo]",
	}
	doc.Find(strings.Join(removeSelectors, ", ")).Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	contentSel := doc.Find("article, main, .content, .post-content, .article-content, #content").First()
	if contentSel.Length() == 0 {
		contentSel = doc.Find("body")
	}

	var lines []string
	for _, line := range strings.Split(contentSel.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return title, strings.Join(lines, "\n")
}
