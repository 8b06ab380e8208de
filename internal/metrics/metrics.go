// Package metrics records fetch outcomes with Prometheus collectors and
// writes them out as a node-exporter textfile.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	tiktok "github.com/RavensCloud/tiktok-stats"
)

const outcomeSuccess = "success"

// Recorder implements tiktok.Observer.
type Recorder struct {
	registry   *prometheus.Registry
	strategies *prometheus.CounterVec
	records    *prometheus.CounterVec
	followers  prometheus.Gauge
	likes      prometheus.Gauge
	videos     prometheus.Gauge
	lastRun    prometheus.Gauge
	now        func() time.Time
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		strategies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiktok_stats_strategy_total",
			Help: "Strategy attempts by outcome",
		}, []string{"strategy", "outcome"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tiktok_stats_records_total",
			Help: "Records produced by status",
		}, []string{"status"}),
		followers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tiktok_stats_followers",
			Help: "Follower count of the last record",
		}),
		likes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tiktok_stats_likes",
			Help: "Like count of the last record",
		}),
		videos: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tiktok_stats_videos",
			Help: "Video count of the last record",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tiktok_stats_last_run_timestamp_seconds",
			Help: "Unix time of the last record",
		}),
		now: time.Now,
	}
	r.registry.MustRegister(r.strategies, r.records, r.followers, r.likes, r.videos, r.lastRun)
	return r
}

func (r *Recorder) ObserveStrategy(strategy tiktok.Strategy, err error) {
	r.strategies.WithLabelValues(string(strategy), outcome(err)).Inc()
}

func (r *Recorder) ObserveRecord(rec tiktok.StatsRecord) {
	r.records.WithLabelValues(string(rec.Status)).Inc()
	r.followers.Set(float64(rec.Followers))
	r.likes.Set(float64(rec.Likes))
	r.videos.Set(float64(rec.Videos))
	r.lastRun.Set(float64(r.now().Unix()))
}

// Registry exposes the collectors, e.g. for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile atomically writes all metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	var se *tiktok.StrategyError
	if errors.As(err, &se) {
		return string(se.Kind)
	}
	return string(tiktok.KindTransport)
}
