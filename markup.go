package tiktok

import (
	"fmt"
	"regexp"
)

// regexStats scans raw HTML with the profile's pattern lists. Each count
// is taken from the first pattern that yields a positive integer.
// Followers are required; likes and videos default to zero.
func regexStats(htmlBody []byte, p Profile) (counts, error) {
	text := string(htmlBody)
	c := counts{
		followers: firstPositive(p.FollowerPatterns, text),
		likes:     firstPositive(p.LikePatterns, text),
		videos:    firstPositive(p.VideoPatterns, text),
	}
	if c.followers <= 0 {
		return counts{}, fmt.Errorf("%w: no follower pattern matched", ErrNoMatch)
	}
	return c, nil
}

func firstPositive(patterns []*regexp.Regexp, text string) int64 {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		if n, ok := parseCount(m[1]); ok && n > 0 {
			return n
		}
	}
	return 0
}
