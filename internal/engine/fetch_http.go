package engine

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/cenkalti/backoff/v5"
)

// Page is one fetched document.
type Page struct {
	URL         string
	Body        []byte
	ContentType string
}

// Fetcher retrieves pages. The production deployment swaps in the
// headless/authenticated retrieval collaborator; the engine treats
// whatever is configured as opaque.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// HTTPFetcher is the default Fetcher: plain HTTP with browser headers
// and bounded exponential-backoff retry, falling back to a Chrome
// TLS-fingerprint client for hosts that reject plain clients.
type HTTPFetcher struct{}

// Fetch retrieves a URL, consulting the page cache first. Failures are
// wrapped in FetchError so callers can distinguish them from pipeline
// errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	metrics.FetchRequests.Add(1)

	key := CacheKey("page", rawURL)
	if data, ok := CacheGet(ctx, key); ok {
		return &Page{URL: rawURL, Body: data, ContentType: "text/html"}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	resp, err := fetchWithRetry(ctx, rawURL, true)
	if err == nil {
		defer resp.Body.Close()
		body, readErr := readResponseBody(resp)
		if readErr == nil {
			CacheSet(ctx, key, body)
			return &Page{URL: rawURL, Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
		}
		err = readErr
	}

	// Sites behind TLS-fingerprint walls 403 plain clients; retry once
	// with the browser-profile client when one is configured.
	if cfg.BrowserClient != nil {
		body, _, status, berr := cfg.BrowserClient.Do(http.MethodGet, rawURL, stealth.ChromeHeaders(), nil)
		if berr == nil && status == http.StatusOK {
			CacheSet(ctx, key, body)
			return &Page{URL: rawURL, Body: body, ContentType: "text/html"}, nil
		}
	}

	metrics.FetchErrors.Add(1)
	return nil, &FetchError{URL: rawURL, Err: err}
}

// newFetchClient creates an HTTP client with proper settings for web scraping.
func newFetchClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 15 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return nil
		},
	}
}

// fetchWithRetry performs an HTTP GET with retry logic using exponential backoff.
// isHTML controls Accept headers: HTML for web pages, broad for media files.
func fetchWithRetry(ctx context.Context, fetchURL string, isHTML bool) (*http.Response, error) {
	client := newFetchClient()

	operation := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		req.Header.Set("User-Agent", stealth.RandomUserAgent())
		if isHTML {
			req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
			req.Header.Set("Accept-Language", "en-US,en;q=0.9")
			req.Header.Set("Accept-Encoding", "gzip, deflate")
		} else {
			req.Header.Set("Accept", "*/*")
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}

		if IsRetryableStatus(resp.StatusCode) {
			resp.Body.Close()
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}

		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 10 * time.Second

	return backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3), backoff.WithMaxElapsedTime(30*time.Second))
}

// readResponseBody reads the response body, handling gzip decompression if needed.
func readResponseBody(resp *http.Response) ([]byte, error) {
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return io.ReadAll(gz)
	}
	return io.ReadAll(resp.Body)
}
