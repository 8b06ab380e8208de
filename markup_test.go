package tiktok

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexStats(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		page string
		want counts
	}{
		{
			name: "json fragments",
			page: `<script>x={"followerCount":120,"heartCount":"3400","videoCount":15}</script>`,
			want: counts{followers: 120, likes: 3400, videos: 15},
		},
		{
			name: "rendered counters",
			page: `<strong title="Followers" data-e2e="followers-count">12,345</strong>` +
				`<strong title="Likes" data-e2e="likes-count">1,000,000</strong>`,
			want: counts{followers: 12345, likes: 1000000},
		},
		{
			name: "snake case",
			page: `{"follower_count":9,"total_favorited":8,"aweme_count":7}`,
			want: counts{followers: 9, likes: 8, videos: 7},
		},
		{
			name: "zero skipped for later pattern",
			page: `{"followerCount":0,"follower_count":33,"heartCount":0,"heart":4}`,
			want: counts{followers: 33, likes: 4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := regexStats([]byte(tt.page), DefaultProfile())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegexStats_NoFollowers(t *testing.T) {
	t.Parallel()
	for _, page := range []string{
		"",
		`<html>private</html>`,
		`{"followerCount":0,"heartCount":50,"videoCount":2}`,
	} {
		_, err := regexStats([]byte(page), DefaultProfile())
		assert.ErrorIs(t, err, ErrNoMatch, "page %q", page)
	}
}

func TestParseCount(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"0", 0, true},
		{"42", 42, true},
		{"1,234,567", 1234567, true},
		{"", 0, false},
		{"-1", 0, false},
		{"1.5K", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseCount(tt.in)
		assert.Equal(t, tt.ok, ok, "parseCount(%q)", tt.in)
		assert.Equal(t, tt.want, got, "parseCount(%q)", tt.in)
	}
}
