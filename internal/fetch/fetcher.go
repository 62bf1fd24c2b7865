// Package fetch retrieves webmention source documents under strict
// resource caps. One attempt per call, no retries; every failure
// surfaces as a domain.FetchError for the caller to map.
package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bridgekit/mentiond/internal/domain"
)

// UserAgent identifies the daemon on every outbound request.
const UserAgent = "mentiond/1.0 (+https://github.com/bridgekit/mentiond)"

const maxRedirects = 5

// Fetcher is a constrained HTTP GET client.
type Fetcher struct {
	client  *http.Client
	maxSize int64
}

// New builds a Fetcher with the given per-request timeout and response
// size cap. TLS certificate and hostname verification stay at the
// net/http defaults, which is to say mandatory.
func New(timeout time.Duration, maxSize int64) *Fetcher {
	transport := &http.Transport{
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return domain.FetchError{URL: req.URL.String(), Reason: "too many redirects"}
				}
				return nil
			},
		},
		maxSize: maxSize,
	}
}

// Fetch retrieves url and returns at most the configured byte count.
// The caller has already validated scheme and host; Fetch only
// enforces the transport-level caps.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.FetchError{URL: url, Reason: err.Error()}
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.FetchError{URL: url, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.FetchError{URL: url, Reason: "HTTP " + http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, domain.FetchError{URL: url, Reason: err.Error()}
	}
	if int64(len(body)) > f.maxSize {
		return nil, domain.FetchError{URL: url, Reason: "response exceeds size limit"}
	}

	return body, nil
}
