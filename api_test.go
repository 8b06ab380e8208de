package tiktok

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAPIBody(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
		want counts
	}{
		{
			name: "web app layout",
			body: apiJSON(1500, 32000, 41),
			want: counts{followers: 1500, likes: 32000, videos: 41},
		},
		{
			name: "snake case",
			body: `{"status_code":0,"user_info":{"follower_count":10,"total_favorited":20,"aweme_count":30}}`,
			want: counts{followers: 10, likes: 20, videos: 30},
		},
		{
			name: "statsV2 strings",
			body: `{"statusCode":0,"userInfo":{"user":{},"statsV2":{"followerCount":"123456789012","heartCount":"5","videoCount":"6"}}}`,
			want: counts{followers: 123456789012, likes: 5, videos: 6},
		},
		{
			name: "counts on user object win",
			body: `{"statusCode":0,"userInfo":{"followerCount":7,"stats":{"followerCount":8}}}`,
			want: counts{followers: 7},
		},
		{
			name: "stats before statsV2",
			body: `{"statusCode":0,"userInfo":{"statsV2":{"followerCount":2},"stats":{"followerCount":1}}}`,
			want: counts{followers: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseAPIBody([]byte(tt.body), DefaultProfile())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAPIBody_Failures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		body     string
		wantKind FailureKind
	}{
		{"not utf8", "{\"statusCode\":0,\"x\":\"\xff\"}", KindDecode},
		{"malformed", `{"statusCode":0,`, KindDecode},
		{"array", `[1,2,3]`, KindDecode},
		{"status missing", `{"userInfo":{"stats":{"followerCount":1}}}`, KindSchema},
		{"status non-zero", `{"statusCode":10202,"userInfo":{"stats":{"followerCount":1}}}`, KindSchema},
		{"user missing", `{"statusCode":0}`, KindSchema},
		{"user not object", `{"statusCode":0,"userInfo":"none"}`, KindSchema},
		{"followers missing", `{"statusCode":0,"userInfo":{"stats":{"heartCount":1}}}`, KindSchema},
		{"followers zero", `{"statusCode":0,"userInfo":{"stats":{"followerCount":0,"heartCount":1}}}`, KindSchema},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parseAPIBody([]byte(tt.body), DefaultProfile())
			require.Error(t, err)

			var se *StrategyError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, StrategyAPI, se.Strategy)
			assert.Equal(t, tt.wantKind, se.Kind)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestAPIStats_EscapesIdentifier(t *testing.T) {
	t.Parallel()
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("uniqueId")
		w.Write([]byte(apiJSON(1, 2, 3)))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, NewMemoryStore(nil))
	c, err := f.apiStats(context.Background(), "a&b=c")
	require.NoError(t, err)
	assert.Equal(t, "a&b=c", gotQuery)
	assert.Equal(t, counts{followers: 1, likes: 2, videos: 3}, c)
}

func TestAPIStats_FailureKinds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind FailureKind
	}{
		{
			name:     "server error",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantKind: KindTransport,
		},
		{
			name:     "rate limited",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
			wantKind: KindTransport,
		},
		{
			name: "corrupt gzip",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", "gzip")
				w.Write([]byte("definitely not gzip"))
			},
			wantKind: KindDecode,
		},
		{
			name:     "html instead of json",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<html>captcha</html>")) },
			wantKind: KindDecode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestFetcher(srv.URL, NewMemoryStore(nil)).apiStats(context.Background(), "someone")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, kindOf(err))
		})
	}
}
