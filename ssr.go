package tiktok

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// scriptPayloads returns the text content of every <script> whose id is
// in ids, keyed by id. The first occurrence of an id wins.
func scriptPayloads(htmlBody []byte, ids []string) map[string]string {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	found := make(map[string]string, len(ids))
	z := html.NewTokenizer(bytes.NewReader(htmlBody))
	current := ""
	for {
		switch z.Next() {
		case html.ErrorToken:
			return found
		case html.StartTagToken:
			current = ""
			name, hasAttr := z.TagName()
			if string(name) != "script" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "id" && want[string(val)] {
					if _, seen := found[string(val)]; !seen {
						current = string(val)
					}
				}
				if !more {
					break
				}
			}
		case html.TextToken:
			if current != "" {
				found[current] = string(z.Text())
				current = ""
			}
		case html.EndTagToken:
			if current != "" {
				found[current] = ""
			}
			current = ""
		}
	}
}

// decodePayload undoes the URL-encoding some pages apply to embedded JSON.
// Path unescaping keeps literal '+' intact. A payload that is not valid
// percent-encoding is returned unchanged.
func decodePayload(payload string) string {
	payload = strings.TrimSpace(payload)
	if !strings.Contains(payload, "%") {
		return payload
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return payload
	}
	return decoded
}

// parsePayload parses a script payload as JSON. The URL-decoded form is
// only tried when the raw payload does not parse, so escapes inside JSON
// strings survive.
func parsePayload(payload string) (Node, error) {
	raw := strings.TrimSpace(payload)
	root, err := ParseTree([]byte(raw))
	if err == nil {
		return root, nil
	}
	decoded := decodePayload(raw)
	if decoded == raw {
		return nil, err
	}
	if root, derr := ParseTree([]byte(decoded)); derr == nil {
		return root, nil
	}
	return nil, err
}

// embeddedStats looks through the script tags named by the profile, in
// order, for the first mapping that carries a follower count.
func embeddedStats(htmlBody []byte, p Profile) (counts, error) {
	payloads := scriptPayloads(htmlBody, p.ScriptIDs)
	if len(payloads) == 0 {
		return counts{}, fmt.Errorf("%w: no embedded data script found", ErrNoMatch)
	}

	var lastErr error
	for _, id := range p.ScriptIDs {
		payload, ok := payloads[id]
		if !ok || strings.TrimSpace(payload) == "" {
			continue
		}
		root, err := parsePayload(payload)
		if err != nil {
			lastErr = fmt.Errorf("%w: script %s: %v", ErrInvalidResponse, id, err)
			continue
		}
		node, ok := FindMapping(root, p.maxDepth(), func(m Mapping) bool {
			_, found := countOf(m, p.FollowerKeys)
			return found
		})
		if !ok {
			lastErr = fmt.Errorf("%w: no follower count in script %s", ErrNoMatch, id)
			continue
		}
		c := counts{}
		c.followers, _ = countOf(node, p.FollowerKeys)
		c.likes, _ = countOf(node, p.LikeKeys)
		c.videos, _ = countOf(node, p.VideoKeys)
		if c.followers <= 0 {
			return counts{}, fmt.Errorf("%w: zero followers in script %s", ErrNoMatch, id)
		}
		return c, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: embedded data scripts are empty", ErrNoMatch)
	}
	return counts{}, lastErr
}
