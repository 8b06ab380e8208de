package tiktok

import (
	"fmt"
	"regexp"
	"strings"
)

// Profile holds every platform-specific detail the fetcher relies on.
// A markup or API change on the platform should only require editing a
// Profile, never the strategy chain.
type Profile struct {
	// ShortLinkHosts are hosts whose links must be resolved through a redirect.
	ShortLinkHosts []string

	// URLPatterns extract the identifier from a canonical URL; MarkupPatterns
	// from profile HTML. The first capture group of the first match wins.
	URLPatterns    []*regexp.Regexp
	MarkupPatterns []*regexp.Regexp

	// APIURL and ProfileURL are templates; "{id}" is replaced by the
	// query-escaped identifier.
	APIURL     string
	ProfileURL string
	Referer    string

	// API response layout.
	StatusKeys []string
	UserKeys   []string
	StatsKeys  []string

	// Field aliases, tried in order.
	FollowerKeys []string
	LikeKeys     []string
	VideoKeys    []string

	// ScriptIDs are ids of <script> tags carrying embedded JSON, in the
	// order they are tried.
	ScriptIDs []string
	// MaxDepth bounds the embedded JSON walk.
	MaxDepth int

	// Raw HTML patterns, each list tried independently.
	FollowerPatterns []*regexp.Regexp
	LikePatterns     []*regexp.Regexp
	VideoPatterns    []*regexp.Regexp
}

// DefaultMaxDepth is the embedded JSON walk bound used when a Profile
// leaves MaxDepth unset. MaxDepthLimit caps any configured bound.
const (
	DefaultMaxDepth = 10
	MaxDepthLimit   = 32
)

// DefaultProfile returns the TikTok web profile.
func DefaultProfile() Profile {
	return Profile{
		ShortLinkHosts: []string{"vm.tiktok.com", "vt.tiktok.com", "www.tiktok.com/t"},
		URLPatterns: compile(
			`/@([A-Za-z0-9_.]+)`,
			`[?&]uniqueId=([A-Za-z0-9_.]+)`,
			`[?&]unique_id=([A-Za-z0-9_.]+)`,
		),
		MarkupPatterns: compile(
			`"uniqueId"\s*:\s*"([A-Za-z0-9_.]+)"`,
			`"unique_id"\s*:\s*"([A-Za-z0-9_.]+)"`,
			`<link rel="canonical" href="https://www\.tiktok\.com/@([A-Za-z0-9_.]+)"`,
		),
		APIURL:     "https://www.tiktok.com/api/user/detail/?aid=1988&uniqueId={id}",
		ProfileURL: "https://www.tiktok.com/@{id}",
		Referer:    "https://www.tiktok.com/",

		StatusKeys: []string{"statusCode", "status_code"},
		UserKeys:   []string{"userInfo", "user_info"},
		StatsKeys:  []string{"stats", "statsV2"},

		FollowerKeys: []string{"followerCount", "follower_count"},
		LikeKeys:     []string{"heartCount", "heart_count", "heart", "total_favorited", "totalFavorited"},
		VideoKeys:    []string{"videoCount", "video_count", "aweme_count", "awemeCount"},

		ScriptIDs: []string{"__UNIVERSAL_DATA_FOR_REHYDRATION__", "SIGI_STATE", "RENDER_DATA"},
		MaxDepth:  DefaultMaxDepth,

		FollowerPatterns: compile(
			`"followerCount"\s*:\s*"?(\d+)`,
			`"follower_count"\s*:\s*"?(\d+)`,
			`data-e2e="followers-count"[^>]*>([\d,]+)<`,
		),
		LikePatterns: compile(
			`"heartCount"\s*:\s*"?(\d+)`,
			`"heart"\s*:\s*"?(\d+)`,
			`"total_favorited"\s*:\s*"?(\d+)`,
			`data-e2e="likes-count"[^>]*>([\d,]+)<`,
		),
		VideoPatterns: compile(
			`"videoCount"\s*:\s*"?(\d+)`,
			`"aweme_count"\s*:\s*"?(\d+)`,
		),
	}
}

// CompilePatterns compiles a pattern list, reporting the first bad entry.
func CompilePatterns(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for i, e := range exprs {
		re, err := regexp.Compile(e)
		if err != nil {
			return nil, fmt.Errorf("pattern %d %q: %w", i, e, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("pattern %d %q: needs a capture group", i, e)
		}
		out = append(out, re)
	}
	return out, nil
}

// PatternStrings is the inverse of CompilePatterns.
func PatternStrings(patterns []*regexp.Regexp) []string {
	out := make([]string, 0, len(patterns))
	for _, re := range patterns {
		out = append(out, re.String())
	}
	return out
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// isShortLink reports whether rawURL points at a short-link redirector.
// Entries with a path ("host/prefix") match on host and path prefix.
func (p Profile) isShortLink(host, path string) bool {
	for _, h := range p.ShortLinkHosts {
		prefixHost, prefixPath, hasPath := strings.Cut(h, "/")
		if !strings.EqualFold(host, prefixHost) {
			continue
		}
		if !hasPath || strings.HasPrefix(strings.TrimPrefix(path, "/"), prefixPath+"/") {
			return true
		}
	}
	return false
}

func (p Profile) maxDepth() int {
	switch {
	case p.MaxDepth <= 0:
		return DefaultMaxDepth
	case p.MaxDepth > MaxDepthLimit:
		return MaxDepthLimit
	}
	return p.MaxDepth
}

// expand substitutes the identifier into a URL template.
func expand(template, escapedID string) string {
	return strings.ReplaceAll(template, "{id}", escapedID)
}

// firstSubmatch runs patterns against s in order and returns the first
// non-empty capture group.
func firstSubmatch(patterns []*regexp.Regexp, s string) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(s)
		if len(m) > 1 && m[1] != "" {
			return m[1]
		}
	}
	return ""
}
