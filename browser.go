//go:build !unittest

package tiktok

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// FetchPage navigates to pageURL and returns the rendered document.
func (b *BrowserPageFetcher) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.page == nil {
		if err := b.launch(); err != nil {
			return nil, err
		}
	}

	page := b.page.Context(ctx).Timeout(b.timeout)
	defer page.CancelTimeout()
	if err := page.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", pageURL, err)
	}
	if err := page.WaitStable(2 * time.Second); err != nil {
		return nil, fmt.Errorf("wait for page stable: %w", err)
	}

	doc, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	return []byte(doc), nil
}

func (b *BrowserPageFetcher) launch() error {
	l := launcher.New().Headless(true)
	if b.proxy != "" {
		l = l.Proxy(b.proxy)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		browser.Close()
		return fmt.Errorf("create stealth page: %w", err)
	}

	b.browser = browser
	b.page = page
	b.blockResources()
	return nil
}

// blockResources drops media and stylesheets; the stats live in the
// document and its inline scripts.
func (b *BrowserPageFetcher) blockResources() {
	router := b.browser.HijackRequests()
	blocked := []string{"*.css", "*.png", "*.jpg", "*.jpeg", "*.webp", "*.mp4", "*.woff*", "*.svg", "*analytics*"}
	for _, pattern := range blocked {
		router.MustAdd(pattern, func(ctx *rod.Hijack) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
	}
	go router.Run()
	b.router = router
}

// Close shuts the browser down. It is safe to call more than once.
func (b *BrowserPageFetcher) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.router != nil {
		_ = b.router.Stop()
		b.router = nil
	}
	if b.page != nil {
		if err := b.page.Close(); err != nil {
			return fmt.Errorf("close page: %w", err)
		}
		b.page = nil
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			return fmt.Errorf("close browser: %w", err)
		}
		b.browser = nil
	}
	return nil
}
