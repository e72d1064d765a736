package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"github.com/gkotak/automate-life-sub001/internal/engine"
)

// Published transcript documents. Some publishers link a full transcript
// (PDF or plain text) from the episode page. Using it is cheaper and more
// accurate than re-transcribing the audio.

const maxTranscriptDocBytes = 20 * 1024 * 1024

// FindTranscriptDocURL scans page HTML for a link to a published transcript
// document. Candidates are ranked:
//  1. anchor text mentions "transcript" and href looks like a document (.pdf/.txt)
//  2. href looks like a document
//  3. anchor text mentions "transcript"
//
// The returned URL is resolved against pageURL. ok is false when the page
// links no plausible document.
func FindTranscriptDocURL(pageURL, html string) (string, bool) {
	html = strings.TrimSpace(html)
	if html == "" {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	var high, medium, low []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		docLike := documentLikeHref(href)
		mentions := strings.Contains(strings.ToLower(strings.TrimSpace(sel.Text())), "transcript")
		switch {
		case docLike && mentions:
			high = append(high, href)
		case docLike:
			medium = append(medium, href)
		case mentions:
			low = append(low, href)
		}
	})

	for _, group := range [][]string{high, medium, low} {
		if len(group) > 0 {
			return resolveHref(pageURL, group[0]), true
		}
	}
	return "", false
}

func documentLikeHref(href string) bool {
	p := href
	if parsed, err := url.Parse(href); err == nil {
		p = parsed.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".pdf", ".txt":
		return true
	}
	return false
}

func resolveHref(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// FetchPublishedTranscript downloads a transcript document and extracts its
// plain text. PDFs go through ledongthuc/pdf; everything else is treated as
// plain text.
func FetchPublishedTranscript(ctx context.Context, docURL string) (string, error) {
	resp, err := engine.RetryHTTP(ctx, engine.Cfg.Retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return "", &engine.FetchError{URL: docURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTranscriptDocBytes))
	if err != nil {
		return "", &engine.FetchError{URL: docURL, Err: err}
	}
	if len(data) == 0 {
		return "", &engine.FetchError{URL: docURL, Err: errors.New("empty document")}
	}

	var text string
	if isPDF(resp.Header.Get("Content-Type"), docURL, data) {
		text, err = extractPDFText(data)
		if err != nil {
			return "", fmt.Errorf("extract pdf text: %w", err)
		}
	} else {
		text = string(data)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("transcript document contained no text")
	}
	engine.IncrPublishedDocs()
	return text, nil
}

func isPDF(contentType, docURL string, data []byte) bool {
	if strings.Contains(contentType, "application/pdf") {
		return true
	}
	if strings.EqualFold(path.Ext(strings.SplitN(docURL, "?", 2)[0]), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func extractPDFText(data []byte) (string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	textReader, err := doc.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", err
	}
	return buf.String(), nil
}
