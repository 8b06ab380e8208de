package tiktok

import "time"

// TimeLayout is the format of StatsRecord.LastUpdate (local clock).
const TimeLayout = "2006-01-02 15:04:05"

// Status tells which strategy produced a record.
type Status string

const (
	StatusAPI          Status = "api_success"
	StatusEmbeddedJSON Status = "html_json_success"
	StatusHTMLRegex    Status = "html_regex_success"
	StatusCached       Status = "cached_data"
	StatusZero         Status = "zero_data"
	StatusForcedZero   Status = "real_zero_data"
	StatusTestData     Status = "test_data"
)

// IsLive reports whether the status marks data captured during this run.
func (s Status) IsLive() bool {
	switch s {
	case StatusAPI, StatusEmbeddedJSON, StatusHTMLRegex:
		return true
	}
	return false
}

// Source is a provenance label. It is diagnostic only.
type Source string

const (
	SourceAPI          Source = "web_api"
	SourceEmbeddedJSON Source = "embedded_json"
	SourceHTMLRegex    Source = "html_regex"
	SourceForced       Source = "forced_update"
	SourceManualTest   Source = "manual_test"
)

// Strategy names one step of the acquisition chain.
type Strategy string

const (
	StrategyResolve      Strategy = "resolve"
	StrategyIdentifier   Strategy = "identifier"
	StrategyAPI          Strategy = "api"
	StrategyEmbeddedJSON Strategy = "embedded_json"
	StrategyHTMLRegex    Strategy = "html_regex"
	StrategyFallback     Strategy = "fallback"
)

// StatsRecord is the persisted snapshot of an account's public stats.
type StatsRecord struct {
	Followers  int64  `json:"followers" bson:"followers"`
	Likes      int64  `json:"likes" bson:"likes"`
	Videos     int64  `json:"videos" bson:"videos"`
	LastUpdate string `json:"lastUpdate" bson:"lastUpdate"`
	Status     Status `json:"status" bson:"status"`
	Source     Source `json:"source" bson:"source"`
}

// Valid reports whether the record satisfies the persisted invariants.
func (r StatsRecord) Valid() bool {
	if r.Followers < 0 || r.Likes < 0 || r.Videos < 0 || r.LastUpdate == "" {
		return false
	}
	if r.Status.IsLive() && r.Followers == 0 {
		return false
	}
	return true
}

// counts is the raw output of a successful strategy.
type counts struct {
	followers int64
	likes     int64
	videos    int64
}

func (c counts) record(now time.Time, status Status, source Source) StatsRecord {
	return StatsRecord{
		Followers:  c.followers,
		Likes:      c.likes,
		Videos:     c.videos,
		LastUpdate: now.Format(TimeLayout),
		Status:     status,
		Source:     source,
	}
}

// ResetRecord returns an all-zero record marked as a forced update.
func ResetRecord(now time.Time) StatsRecord {
	return counts{}.record(now, StatusForcedZero, SourceForced)
}

// SampleRecord returns a fixed record for exercising displays without
// touching the network.
func SampleRecord(now time.Time) StatsRecord {
	return counts{followers: 888, likes: 12345, videos: 66}.record(now, StatusTestData, SourceManualTest)
}
