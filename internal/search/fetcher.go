// Package search provides the two external-source collaborators the
// enrichment engine drives: a thin primary-URL HTTP fetch and a
// secondary general-search fallback backed by Typesense, degrading to a
// curated simulated extractor when Typesense is unavailable.
//
// An HTTP client wrapper is explicitly out of scope (spec §1); Fetcher
// is intentionally just a fetch-and-return-body boundary, not a client
// abstraction.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const primaryFetchTimeout = 10 * time.Second

// Fetcher performs the enrichment engine's primary-source GET.
type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: primaryFetchTimeout}}
}

// Fetch issues a GET against url and returns the body on any 2xx
// status. Non-2xx and transport errors are both reported as an error;
// the enrichment engine treats both as "primary source unavailable".
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, primaryFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("search: build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("search: fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("search: read body: %w", err)
	}
	return string(body), nil
}
