//go:build unittest

package tiktok

import (
	"context"
	"fmt"
)

func (b *BrowserPageFetcher) FetchPage(_ context.Context, _ string) ([]byte, error) {
	return nil, fmt.Errorf("browser: %w (build tag: unittest)", ErrBrowserNotReady)
}

func (b *BrowserPageFetcher) launch() error {
	return fmt.Errorf("browser: %w (build tag: unittest)", ErrBrowserNotReady)
}

func (b *BrowserPageFetcher) blockResources() {}

func (b *BrowserPageFetcher) Close() error {
	b.page = nil
	b.browser = nil
	b.router = nil
	return nil
}
