package tiktok

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Resolved is what the identifier step learns about an account reference.
type Resolved struct {
	Canonical string `json:"canonical"`
	ID        string `json:"id"`
}

// IdentifierCache remembers resolved references between runs of a
// long-lived process so share links are not resolved every cycle.
type IdentifierCache interface {
	Get(reference string) (Resolved, bool)
	Set(reference string, r Resolved)
}

// Observer is told about every strategy outcome (err is nil on success)
// and about each record the fetcher produces.
type Observer interface {
	ObserveStrategy(strategy Strategy, err error)
	ObserveRecord(rec StatsRecord)
}

// Fetcher runs the acquisition chain for one account: redirect
// resolution, identifier extraction, profile API, embedded page JSON,
// page regex scan, then the previously stored record.
type Fetcher struct {
	scraper  *Scraper
	pages    PageFetcher
	store    Store
	profile  Profile
	cache    IdentifierCache
	observer Observer
	logger   zerolog.Logger
	now      func() time.Time
}

// NewFetcher wires a fetcher over scraper and store with the default
// TikTok profile. Pages are fetched over plain HTTP unless
// WithPageFetcher says otherwise.
func NewFetcher(s *Scraper, store Store) *Fetcher {
	return &Fetcher{
		scraper:  s,
		pages:    s,
		store:    store,
		profile:  DefaultProfile(),
		cache:    noopCache{},
		observer: noopObserver{},
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
}

func (f *Fetcher) WithProfile(p Profile) *Fetcher {
	f.profile = p
	return f
}

func (f *Fetcher) WithPageFetcher(p PageFetcher) *Fetcher {
	if p != nil {
		f.pages = p
	}
	return f
}

func (f *Fetcher) WithCache(c IdentifierCache) *Fetcher {
	if c != nil {
		f.cache = c
	}
	return f
}

func (f *Fetcher) WithObserver(o Observer) *Fetcher {
	if o != nil {
		f.observer = o
	}
	return f
}

func (f *Fetcher) WithLogger(l zerolog.Logger) *Fetcher {
	f.logger = l
	return f
}

// WithClock replaces time.Now, for tests.
func (f *Fetcher) WithClock(now func() time.Time) *Fetcher {
	f.now = now
	return f
}

// Run fetches a record for reference and persists it. The returned error
// only reports a failed write; the record is always well formed.
func (f *Fetcher) Run(ctx context.Context, reference string) (StatsRecord, error) {
	rec := f.Fetch(ctx, reference)
	if err := f.store.Write(ctx, rec); err != nil {
		return rec, fmt.Errorf("persist stats: %w", err)
	}
	return rec, nil
}

// Fetch returns the first record the chain produces for reference. It
// never fails: when every strategy does, the previous record's counts are
// carried forward, or a zero record is returned.
func (f *Fetcher) Fetch(ctx context.Context, reference string) StatsRecord {
	start := time.Now()
	c, status, source, err := f.acquire(ctx, reference)

	var rec StatsRecord
	if err == nil {
		rec = c.record(f.now(), status, source)
	} else {
		rec = f.fallback(ctx, err)
	}

	f.observer.ObserveRecord(rec)
	f.logger.Info().
		Int64("followers", rec.Followers).
		Int64("likes", rec.Likes).
		Int64("videos", rec.Videos).
		Str("status", string(rec.Status)).
		Str("source", string(rec.Source)).
		Dur("took", time.Since(start)).
		Msg("stats fetched")
	return rec
}

// target is an account the chain has identified.
type target struct {
	id      string
	pageURL string
	// markup is the profile page when identification already fetched it.
	markup []byte
}

func (f *Fetcher) acquire(ctx context.Context, reference string) (counts, Status, Source, error) {
	t, err := f.identify(ctx, reference)
	f.report(StrategyIdentifier, err)
	if err != nil {
		return counts{}, "", "", err
	}

	c, err := f.apiStats(ctx, t.id)
	f.report(StrategyAPI, err)
	if err == nil {
		return c, StatusAPI, SourceAPI, nil
	}

	markup := t.markup
	if markup == nil {
		markup, err = f.pages.FetchPage(ctx, t.pageURL)
		if err != nil {
			err = fail(StrategyEmbeddedJSON, classify(err), fmt.Errorf("fetch profile page: %w", err))
			f.report(StrategyEmbeddedJSON, err)
			return counts{}, "", "", err
		}
	}

	c, err = embeddedStats(markup, f.profile)
	if err != nil {
		err = fail(StrategyEmbeddedJSON, classify(err), err)
	}
	f.report(StrategyEmbeddedJSON, err)
	if err == nil {
		return c, StatusEmbeddedJSON, SourceEmbeddedJSON, nil
	}

	c, err = regexStats(markup, f.profile)
	if err != nil {
		err = fail(StrategyHTMLRegex, KindExtraction, err)
	}
	f.report(StrategyHTMLRegex, err)
	if err == nil {
		return c, StatusHTMLRegex, SourceHTMLRegex, nil
	}
	return counts{}, "", "", err
}

// identify turns reference into a user identifier. Bare identifiers are
// used as is; URLs are resolved when they are share links and then
// matched against the URL patterns, falling back to the page markup.
func (f *Fetcher) identify(ctx context.Context, reference string) (target, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return target{}, fail(StrategyIdentifier, KindExtraction, fmt.Errorf("%w: empty account reference", ErrNoIdentifier))
	}

	if !strings.Contains(ref, "://") && strings.Contains(ref, ".") && strings.Contains(ref, "/") {
		ref = "https://" + ref
	}

	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return f.targetFor(strings.TrimPrefix(ref, "@"), nil), nil
	}

	if r, ok := f.cache.Get(ref); ok && r.ID != "" {
		f.logger.Debug().Str("reference", ref).Str("id", r.ID).Msg("identifier cache hit")
		return f.targetFor(r.ID, nil), nil
	}

	canonical := ref
	if f.profile.isShortLink(u.Host, u.Path) {
		resolved, err := f.scraper.Resolve(ctx, ref)
		if err != nil {
			err = fail(StrategyResolve, classify(err), err)
		} else {
			canonical = resolved
			f.logger.Debug().Str("share_link", ref).Str("canonical", canonical).Msg("share link resolved")
		}
		f.report(StrategyResolve, err)
	}

	if id := firstSubmatch(f.profile.URLPatterns, canonical); id != "" {
		f.cache.Set(ref, Resolved{Canonical: canonical, ID: id})
		return f.targetFor(id, nil), nil
	}

	markup, err := f.pages.FetchPage(ctx, canonical)
	if err != nil {
		return target{}, fail(StrategyIdentifier, classify(err), fmt.Errorf("%w: fetch %s: %v", ErrNoIdentifier, canonical, err))
	}
	id := firstSubmatch(f.profile.MarkupPatterns, string(markup))
	if id == "" {
		return target{}, fail(StrategyIdentifier, KindExtraction, fmt.Errorf("%w: %s", ErrNoIdentifier, canonical))
	}
	f.cache.Set(ref, Resolved{Canonical: canonical, ID: id})
	return f.targetFor(id, markup), nil
}

func (f *Fetcher) targetFor(id string, markup []byte) target {
	return target{
		id:      id,
		pageURL: expand(f.profile.ProfileURL, url.PathEscape(id)),
		markup:  markup,
	}
}

// fallback builds the record used when no strategy succeeded. A previous
// record with a positive follower count is carried forward whatever
// produced it, so repeated failures never decay to zero. Sample records
// are never carried.
func (f *Fetcher) fallback(ctx context.Context, cause error) StatsRecord {
	source := Source(kindOf(cause))
	now := f.now()

	prev, ok, err := f.store.Read(ctx)
	if err != nil {
		f.logger.Warn().Err(err).Msg("previous record unreadable")
		ok = false
	}

	var rec StatsRecord
	if ok && prev.Valid() && prev.Followers > 0 && prev.Status != StatusTestData {
		rec = counts{followers: prev.Followers, likes: prev.Likes, videos: prev.Videos}.record(now, StatusCached, source)
	} else {
		rec = counts{}.record(now, StatusZero, source)
	}
	f.report(StrategyFallback, nil)
	return rec
}

func (f *Fetcher) report(strategy Strategy, err error) {
	f.observer.ObserveStrategy(strategy, err)
	if err == nil {
		return
	}
	ev := f.logger.Warn().Str("strategy", string(strategy)).Err(err)
	var se *StrategyError
	if errors.As(err, &se) {
		ev = ev.Str("kind", string(se.Kind))
	}
	ev.Msg("strategy failed")
}

// classify maps a collaborator error onto the failure taxonomy.
func classify(err error) FailureKind {
	var se *StrategyError
	switch {
	case errors.As(err, &se):
		return se.Kind
	case errors.Is(err, ErrInvalidResponse):
		return KindDecode
	case errors.Is(err, ErrNoMatch), errors.Is(err, ErrNoIdentifier):
		return KindExtraction
	default:
		return KindTransport
	}
}

type noopCache struct{}

func (noopCache) Get(string) (Resolved, bool) { return Resolved{}, false }
func (noopCache) Set(string, Resolved)        {}

type noopObserver struct{}

func (noopObserver) ObserveStrategy(Strategy, error) {}
func (noopObserver) ObserveRecord(StatsRecord)       {}
