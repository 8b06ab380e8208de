package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tiktok "github.com/RavensCloud/tiktok-stats"
)

func TestRecorder_ObserveStrategy(t *testing.T) {
	r := NewRecorder()

	r.ObserveStrategy(tiktok.StrategyAPI, nil)
	r.ObserveStrategy(tiktok.StrategyAPI, &tiktok.StrategyError{
		Strategy: tiktok.StrategyAPI,
		Kind:     tiktok.KindSchema,
		Err:      errors.New("user object missing"),
	})
	r.ObserveStrategy(tiktok.StrategyAPI, &tiktok.StrategyError{
		Strategy: tiktok.StrategyAPI,
		Kind:     tiktok.KindSchema,
		Err:      errors.New("zero followers"),
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.strategies.WithLabelValues("api", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.strategies.WithLabelValues("api", "schema_failure")))
}

func TestRecorder_ObserveStrategy_PlainError(t *testing.T) {
	r := NewRecorder()
	r.ObserveStrategy(tiktok.StrategyResolve, errors.New("dial tcp: timeout"))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.strategies.WithLabelValues("resolve", "transport_failure")))
}

func TestRecorder_ObserveRecord(t *testing.T) {
	r := NewRecorder()
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	r.ObserveRecord(tiktok.StatsRecord{Followers: 10, Likes: 20, Videos: 3, Status: tiktok.StatusAPI})

	assert.Equal(t, 10.0, testutil.ToFloat64(r.followers))
	assert.Equal(t, 20.0, testutil.ToFloat64(r.likes))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.videos))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.lastRun))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.records.WithLabelValues("api_success")))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveRecord(tiktok.StatsRecord{Followers: 42, Status: tiktok.StatusCached})

	path := filepath.Join(t.TempDir(), "tiktok_stats.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tiktok_stats_followers 42")
	assert.Contains(t, string(data), `tiktok_stats_records_total{status="cached_data"} 1`)
}

func TestRecorder_WriteTextfile_BadDir(t *testing.T) {
	r := NewRecorder()
	err := r.WriteTextfile("/nonexistent/directory/metrics.prom")
	assert.Error(t, err)
}
