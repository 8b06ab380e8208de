package tiktok

import (
	"errors"
	"fmt"
)

var (
	ErrRateLimited      = errors.New("tiktok: rate limited")
	ErrNotFound         = errors.New("tiktok: not found")
	ErrInvalidResponse  = errors.New("tiktok: invalid response")
	ErrUnexpectedStatus = errors.New("tiktok: unexpected http status")
	ErrNoIdentifier     = errors.New("tiktok: no user identifier found")
	ErrNoMatch          = errors.New("tiktok: no stats found in markup")
	ErrBrowserNotReady  = errors.New("tiktok: browser not initialized")
)

// FailureKind classifies why a strategy did not produce a record.
type FailureKind string

const (
	KindTransport  FailureKind = "transport_failure"
	KindDecode     FailureKind = "decode_failure"
	KindSchema     FailureKind = "schema_failure"
	KindExtraction FailureKind = "extraction_failure"
	KindExhausted  FailureKind = "exhausted"
)

// StrategyError is returned by a single acquisition strategy. The fetcher
// never surfaces it to callers; it is logged and reported to the Observer.
type StrategyError struct {
	Strategy Strategy
	Kind     FailureKind
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Strategy, e.Kind, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

func fail(strategy Strategy, kind FailureKind, err error) *StrategyError {
	return &StrategyError{Strategy: strategy, Kind: kind, Err: err}
}

// kindOf returns the failure kind carried by err, or KindExhausted when err
// is not a StrategyError.
func kindOf(err error) FailureKind {
	var se *StrategyError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindExhausted
}
