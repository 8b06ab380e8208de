package tiktok

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_AbsoluteLocation(t *testing.T) {
	t.Parallel()
	var followed bool
	mux := http.NewServeMux()
	mux.HandleFunc("/ZMabc/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://www.tiktok.com/@someone?_t=8k&_r=1")
		w.WriteHeader(http.StatusMovedPermanently)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { followed = true })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := newTestScraper().Resolve(context.Background(), srv.URL+"/ZMabc/")
	require.NoError(t, err)
	assert.Equal(t, "https://www.tiktok.com/@someone?_t=8k&_r=1", got)
	assert.False(t, followed)
}

func TestResolve_RelativeLocation(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/t/ZMabc/" {
			w.Header().Set("Location", "/@someone")
			w.WriteHeader(http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	got, err := newTestScraper().Resolve(context.Background(), srv.URL+"/t/ZMabc/")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/@someone", got)
}

func TestResolve_NoRedirect(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	got, err := newTestScraper().Resolve(context.Background(), srv.URL+"/@someone")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/@someone", got)
}

func TestResolve_Failures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ErrUnexpectedStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestScraper().Resolve(context.Background(), srv.URL+"/t/x/")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolve_Unreachable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newTestScraper().Resolve(context.Background(), addr+"/t/x/")
	require.Error(t, err)
	assert.Equal(t, KindTransport, classify(err))
}
