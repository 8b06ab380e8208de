package tiktok

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"unicode/utf8"
)

// apiStats calls the profile API for id and reads the counts out of the
// user object. The returned error is always a *StrategyError.
func (f *Fetcher) apiStats(ctx context.Context, id string) (counts, error) {
	apiURL := expand(f.profile.APIURL, url.QueryEscape(id))

	body, err := f.scraper.FetchAPI(ctx, apiURL)
	if err != nil {
		if errors.Is(err, ErrInvalidResponse) {
			return counts{}, fail(StrategyAPI, KindDecode, err)
		}
		return counts{}, fail(StrategyAPI, KindTransport, err)
	}
	return parseAPIBody(body, f.profile)
}

func parseAPIBody(body []byte, p Profile) (counts, error) {
	if !utf8.Valid(body) {
		return counts{}, fail(StrategyAPI, KindDecode, fmt.Errorf("%w: body is not utf-8", ErrInvalidResponse))
	}
	root, err := ParseTree(body)
	if err != nil {
		return counts{}, fail(StrategyAPI, KindDecode, fmt.Errorf("%w: %v", ErrInvalidResponse, err))
	}
	top, ok := root.(Mapping)
	if !ok {
		return counts{}, fail(StrategyAPI, KindDecode, fmt.Errorf("%w: body is not a json object", ErrInvalidResponse))
	}

	code, ok := countOf(top, p.StatusKeys)
	if !ok {
		return counts{}, fail(StrategyAPI, KindSchema, fmt.Errorf("%w: status field missing", ErrInvalidResponse))
	}
	if code != 0 {
		return counts{}, fail(StrategyAPI, KindSchema, fmt.Errorf("%w: api status %d", ErrInvalidResponse, code))
	}

	user, ok := firstMapping(top, p.UserKeys)
	if !ok {
		return counts{}, fail(StrategyAPI, KindSchema, fmt.Errorf("%w: user object missing", ErrInvalidResponse))
	}

	// Counts sit on the user object or on one of its stats children.
	candidates := []Mapping{user}
	for _, k := range p.StatsKeys {
		if m, ok := firstMapping(user, []string{k}); ok {
			candidates = append(candidates, m)
		}
	}

	for _, m := range candidates {
		followers, ok := countOf(m, p.FollowerKeys)
		if !ok {
			continue
		}
		if followers <= 0 {
			return counts{}, fail(StrategyAPI, KindSchema, fmt.Errorf("%w: zero followers", ErrInvalidResponse))
		}
		c := counts{followers: followers}
		c.likes, _ = countOf(m, p.LikeKeys)
		c.videos, _ = countOf(m, p.VideoKeys)
		return c, nil
	}
	return counts{}, fail(StrategyAPI, KindSchema, fmt.Errorf("%w: follower count missing", ErrInvalidResponse))
}

func firstMapping(m Mapping, keys []string) (Mapping, bool) {
	for _, k := range keys {
		if child, ok := m.Get(k); ok {
			if cm, ok := child.(Mapping); ok {
				return cm, true
			}
		}
	}
	return Mapping{}, false
}
