package tiktok

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Resolve turns a share link into the canonical address it redirects to.
// It issues a single request with redirects disabled and reads Location;
// a 200 without Location resolves to the request URL itself.
func (s *Scraper) Resolve(ctx context.Context, shareURL string) (string, error) {
	client := &http.Client{
		Jar:       s.client.Jar,
		Timeout:   s.client.Timeout,
		Transport: s.client.Transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := s.doRequest(ctx, client, shareURL, http.Header{
		"Accept": {"text/html,application/xhtml+xml,*/*;q=0.8"},
	})
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", shareURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if loc := resp.Header.Get("Location"); loc != "" {
		target, err := resp.Request.URL.Parse(loc)
		if err != nil {
			return "", fmt.Errorf("%w: bad location %q: %v", ErrInvalidResponse, loc, err)
		}
		return target.String(), nil
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolve %q: %w: %d", shareURL, ErrUnexpectedStatus, resp.StatusCode)
	}
	return resp.Request.URL.String(), nil
}
