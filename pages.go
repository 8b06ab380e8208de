package tiktok

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
)

// PageFetcher returns the HTML of a profile page.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) ([]byte, error)
}

// BrowserPageFetcher renders profile pages in a headless Chrome with
// stealth patches. The browser is launched on first use.
type BrowserPageFetcher struct {
	proxy   string
	timeout time.Duration

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
}

// NewBrowserPageFetcher creates a fetcher that routes the browser through
// proxy when non-empty.
func NewBrowserPageFetcher(proxy string) *BrowserPageFetcher {
	return &BrowserPageFetcher{proxy: proxy, timeout: 20 * time.Second}
}

// WithTimeout bounds a single page render.
func (b *BrowserPageFetcher) WithTimeout(d time.Duration) *BrowserPageFetcher {
	b.timeout = d
	return b
}
