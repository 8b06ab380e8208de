package tiktok

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_IsLive(t *testing.T) {
	t.Parallel()
	live := []Status{StatusAPI, StatusEmbeddedJSON, StatusHTMLRegex}
	notLive := []Status{StatusCached, StatusZero, StatusForcedZero, StatusTestData, ""}

	for _, s := range live {
		assert.True(t, s.IsLive(), s)
	}
	for _, s := range notLive {
		assert.False(t, s.IsLive(), s)
	}
}

func TestStatsRecord_Valid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		rec  StatsRecord
		want bool
	}{
		{"live", StatsRecord{Followers: 1, LastUpdate: fixedStamp, Status: StatusAPI}, true},
		{"zero fallback", StatsRecord{LastUpdate: fixedStamp, Status: StatusZero}, true},
		{"live with zero followers", StatsRecord{LastUpdate: fixedStamp, Status: StatusHTMLRegex}, false},
		{"negative likes", StatsRecord{Followers: 1, Likes: -1, LastUpdate: fixedStamp, Status: StatusAPI}, false},
		{"negative videos", StatsRecord{Followers: 1, Videos: -1, LastUpdate: fixedStamp, Status: StatusCached}, false},
		{"no timestamp", StatsRecord{Followers: 1, Status: StatusAPI}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.rec.Valid(), tt.name)
	}
}

func TestResetAndSampleRecords(t *testing.T) {
	t.Parallel()
	assert.Equal(t, StatsRecord{
		LastUpdate: fixedStamp,
		Status:     StatusForcedZero,
		Source:     SourceForced,
	}, ResetRecord(fixedNow))

	assert.Equal(t, StatsRecord{
		Followers:  888,
		Likes:      12345,
		Videos:     66,
		LastUpdate: fixedStamp,
		Status:     StatusTestData,
		Source:     SourceManualTest,
	}, SampleRecord(fixedNow))
}

func TestStrategyError(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("wrapped: %w", fail(StrategyAPI, KindSchema, ErrInvalidResponse))

	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Equal(t, KindSchema, kindOf(err))
	assert.Equal(t, KindSchema, classify(err))
	assert.Contains(t, err.Error(), "api: schema_failure")

	assert.Equal(t, KindExhausted, kindOf(errors.New("plain")))
}

func TestClassify(t *testing.T) {
	t.Parallel()
	assert.Equal(t, KindDecode, classify(fmt.Errorf("x: %w", ErrInvalidResponse)))
	assert.Equal(t, KindExtraction, classify(ErrNoMatch))
	assert.Equal(t, KindExtraction, classify(ErrNoIdentifier))
	assert.Equal(t, KindTransport, classify(ErrRateLimited))
	assert.Equal(t, KindTransport, classify(errors.New("dial tcp: refused")))
}
