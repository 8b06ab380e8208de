package tiktok

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	acceptLanguage   = "en-US,en;q=0.9"
	acceptEncoding   = "gzip, deflate, zstd"

	// maxBodySize caps how much of a response is read; profile pages are
	// well under this.
	maxBodySize = 16 << 20
)

var tiktokURL, _ = url.Parse("https://www.tiktok.com")

// Scraper is the HTTP side of the fetcher: browser-like headers, proxy
// support, request pacing and body decompression.
type Scraper struct {
	client    *http.Client
	proxy     string
	userAgent string
	referer   string
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

// defaultTransport returns an http.Transport with connection pooling,
// keep-alive and TLS handshake caching.
func defaultTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
}

// New creates a Scraper with a 15s per-request timeout and one request
// per second.
func New() *Scraper {
	jar, _ := cookiejar.New(nil)
	return &Scraper{
		client: &http.Client{
			Jar:       jar,
			Timeout:   15 * time.Second,
			Transport: defaultTransport(),
		},
		userAgent: defaultUserAgent,
		referer:   "https://www.tiktok.com/",
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		logger:    zerolog.Nop(),
	}
}

// WithRequestInterval sets the minimum spacing between outbound requests.
// Zero disables pacing.
func (s *Scraper) WithRequestInterval(d time.Duration) *Scraper {
	if d <= 0 {
		s.limiter = rate.NewLimiter(rate.Inf, 1)
		return s
	}
	s.limiter = rate.NewLimiter(rate.Every(d), 1)
	return s
}

// WithTimeout sets the per-request timeout.
func (s *Scraper) WithTimeout(d time.Duration) *Scraper {
	s.client.Timeout = d
	return s
}

// WithUserAgent overrides the User-Agent header.
func (s *Scraper) WithUserAgent(ua string) *Scraper {
	if ua != "" {
		s.userAgent = ua
	}
	return s
}

// WithReferer overrides the Referer header.
func (s *Scraper) WithReferer(ref string) *Scraper {
	if ref != "" {
		s.referer = ref
	}
	return s
}

func (s *Scraper) WithLogger(l zerolog.Logger) *Scraper {
	s.logger = l
	return s
}

// SetProxy configures an HTTP/HTTPS or SOCKS5 proxy for the HTTP client.
// Connection pooling and keep-alive settings are preserved.
func (s *Scraper) SetProxy(proxyAddr string) error {
	if proxyAddr == "" {
		s.client.Transport = defaultTransport()
		s.proxy = ""
		return nil
	}

	u, err := url.Parse(proxyAddr)
	if err != nil {
		return fmt.Errorf("parse proxy url: %w", err)
	}

	base := defaultTransport()

	switch u.Scheme {
	case "http", "https":
		base.Proxy = http.ProxyURL(u)
	case "socks5":
		var auth *proxy.Auth
		if u.User != nil {
			pass, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pass}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return fmt.Errorf("socks5 proxy: %w", err)
		}
		dc, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return fmt.Errorf("socks5: context dialer not supported")
		}
		base.DialContext = dc.DialContext
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", u.Scheme)
	}

	s.client.Transport = base
	s.proxy = proxyAddr
	return nil
}

// Proxy returns the configured proxy address, if any.
func (s *Scraper) Proxy() string { return s.proxy }

// doRequest builds and executes a GET with the standard browser headers
// plus extra. It waits on the pacing limiter first. 429 and 404 map to
// ErrRateLimited and ErrNotFound; other statuses are left to the caller.
func (s *Scraper) doRequest(ctx context.Context, client *http.Client, urlStr string, extra http.Header) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for request slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Accept-Encoding", acceptEncoding)
	req.Header.Set("Referer", s.referer)
	for k, vs := range extra {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, ErrRateLimited
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	}

	return resp, nil
}

// get performs a following GET and returns the decoded body of a 200
// response.
func (s *Scraper) get(ctx context.Context, urlStr string, extra http.Header) ([]byte, error) {
	start := time.Now()
	resp, err := s.doRequest(ctx, s.client, urlStr, extra)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Str("url", urlStr).
		Int("bytes", len(body)).
		Dur("took", time.Since(start)).
		Msg("fetched")
	return body, nil
}

// FetchPage downloads profile HTML over plain HTTP.
func (s *Scraper) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	return s.get(ctx, pageURL, http.Header{
		"Accept": {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
	})
}

// FetchAPI calls a JSON endpoint with the XHR headers the web app sends.
func (s *Scraper) FetchAPI(ctx context.Context, apiURL string) ([]byte, error) {
	return s.get(ctx, apiURL, http.Header{
		"Accept":           {"application/json, text/plain, */*"},
		"X-Requested-With": {"XMLHttpRequest"},
	})
}

// readBody reads resp.Body, undoing any Content-Encoding. Setting
// Accept-Encoding by hand turns off net/http's transparent gzip, so every
// advertised encoding is handled here.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body

	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch enc {
	case "", "identity":
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrInvalidResponse, err)
		}
		defer gz.Close()
		r = gz
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: deflate: %v", ErrInvalidResponse, err)
		}
		defer zr.Close()
		r = zr
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrInvalidResponse, err)
		}
		defer zr.Close()
		r = zr
	default:
		return nil, fmt.Errorf("%w: unsupported content encoding %q", ErrInvalidResponse, enc)
	}

	body, err := io.ReadAll(io.LimitReader(r, maxBodySize))
	if err != nil {
		if enc != "" && enc != "identity" {
			return nil, fmt.Errorf("%w: read %s body: %v", ErrInvalidResponse, enc, err)
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Cookies returns the current session cookies for tiktok.com.
func (s *Scraper) Cookies() []*http.Cookie {
	return s.client.Jar.Cookies(tiktokURL)
}

// SetCookies seeds the session, e.g. with a msToken the API expects.
func (s *Scraper) SetCookies(cookies []*http.Cookie) {
	s.client.Jar.SetCookies(tiktokURL, cookies)
}

// SaveCookies writes session cookies to a JSON file.
func (s *Scraper) SaveCookies(path string) error {
	data, err := json.Marshal(s.Cookies())
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// LoadCookies reads cookies from a JSON file and sets them on the client.
func (s *Scraper) LoadCookies(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cookies file: %w", err)
	}
	var cookies []*http.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("unmarshal cookies: %w", err)
	}
	s.SetCookies(cookies)
	return nil
}
