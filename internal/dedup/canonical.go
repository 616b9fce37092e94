// Package dedup filters already-seen stories out of a harvest batch. Two
// layers run in order: exact matching on canonicalized URLs, then embedding
// similarity between titles within the same category.
package dedup

import (
	"net/url"
	"strings"
)

// trackerPrefixes are query-parameter prefixes stripped during URL
// canonicalization. Matching is prefix-based so utm_source, utm_campaign and
// friends all fall under one entry.
var trackerPrefixes = []string{"utm_", "fbclid", "gclid"}

// CanonicalURL normalizes a link for exact-match deduplication: tracking
// parameters are dropped, the remaining query is re-encoded in sorted order,
// the fragment is removed and a trailing slash on a non-root path is
// trimmed. Unparseable input is returned trimmed but otherwise untouched so
// it still participates in exact matching. The function is idempotent.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	q := u.Query()
	for key := range q {
		if isTracker(key) {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)

	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
	}

	return u.String()
}

func isTracker(key string) bool {
	key = strings.ToLower(key)
	for _, p := range trackerPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
