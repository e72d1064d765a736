package engine

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractMeta(t *testing.T) {
	html := `<html><head>
		<title>Fallback Title | Site</title>
		<meta property="og:title" content="The Real Title">
		<meta property="og:site_name" content="Acme Blog">
		<meta name="author" content="Jordan Smith">
		<meta property="article:published_time" content="2026-03-05T10:30:00Z">
	</head><body></body></html>`

	meta := ExtractMeta("https://acme.example.com/post", html)
	if meta.Title != "The Real Title" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.ChannelName != "Acme Blog" {
		t.Errorf("ChannelName = %q", meta.ChannelName)
	}
	if meta.Author != "Jordan Smith" {
		t.Errorf("Author = %q", meta.Author)
	}
	if meta.PublishedAt == nil {
		t.Fatal("PublishedAt = nil")
	}
	if y, m, d := meta.PublishedAt.Date(); y != 2026 || int(m) != 3 || d != 5 {
		t.Errorf("PublishedAt = %v", meta.PublishedAt)
	}
}

func TestExtractMetaFallsBackToTitleTag(t *testing.T) {
	meta := ExtractMeta("https://example.com/p", `<html><head><title>  Only Title  </title></head></html>`)
	if meta.Title != "Only Title" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.PublishedAt != nil {
		t.Errorf("PublishedAt = %v, want nil", meta.PublishedAt)
	}
}

func TestExtractMetaTimeElement(t *testing.T) {
	meta := ExtractMeta("https://example.com/p",
		`<html><body><time datetime="2025-12-01">Dec 1</time></body></html>`)
	if meta.PublishedAt == nil {
		t.Fatal("PublishedAt = nil, want parsed from <time datetime>")
	}
}

func TestExtractArticle(t *testing.T) {
	Init(Config{})

	html := `<html><head><title>Go Concurrency Patterns</title></head><body>
		<nav>Home About Contact</nav>
		<article>
			<h1>Go Concurrency Patterns</h1>
			<p>Channels orchestrate; mutexes serialize. This piece walks through
			fan-out, fan-in, and cancellation as they appear in production services.
			The goal is code you can reason about under load.</p>
			<p>Second paragraph with more body text so extraction has enough
			material to consider this the main content region of the page.</p>
		</article>
		<footer>Copyright 2026</footer>
	</body></html>`

	_, body := ExtractArticle("https://example.com/concurrency", html)
	if !strings.Contains(body, "fan-out") {
		t.Errorf("body missing article text: %q", body)
	}
	if strings.Contains(body, "Copyright 2026") {
		t.Errorf("body should not include footer chrome: %q", body)
	}
}

func TestExtractArticleCapsLength(t *testing.T) {
	Init(Config{MaxBodyChars: 100})

	long := strings.Repeat("word ", 200)
	html := "<html><body><article><p>" + long + "</p></article></body></html>"
	_, body := ExtractArticle("https://example.com/long", html)
	if utf8.RuneCountInString(body) > 100+len("...") {
		t.Errorf("body runes = %d, want capped at 103", utf8.RuneCountInString(body))
	}

	// The cap is counted in runes, so multibyte text stays valid UTF-8.
	long = strings.Repeat("проверка ", 100)
	html = "<html><body><article><p>" + long + "</p></article></body></html>"
	_, body = ExtractArticle("https://example.com/long-ru", html)
	if !utf8.ValidString(body) {
		t.Error("truncated body is not valid UTF-8")
	}
	if utf8.RuneCountInString(body) > 100+len("...") {
		t.Errorf("body runes = %d, want capped at 103", utf8.RuneCountInString(body))
	}
}
