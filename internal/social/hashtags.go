// Package social publishes finished stories to the outbound channels:
// Telegram, X and Bluesky. Each channel gets its own small client; shared
// text shaping (hashtags, length fitting) lives alongside them.
package social

import (
	"strings"
	"unicode"
)

// stopwords are title words too generic to make useful hashtags.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"he": {}, "her": {}, "his": {}, "in": {}, "is": {}, "it": {}, "its": {},
	"new": {}, "not": {}, "of": {}, "on": {}, "or": {}, "say": {}, "says": {},
	"she": {}, "that": {}, "the": {}, "their": {}, "they": {}, "this": {},
	"to": {}, "was": {}, "were": {}, "will": {}, "with": {}, "after": {},
	"over": {}, "more": {}, "than": {}, "into": {}, "about": {},
}

// Hashtags builds up to limit hashtags from a story: the category first,
// then meaningful title words in order. Words shorter than four letters,
// stopwords and non-alphanumeric tokens are skipped; duplicates collapse.
func Hashtags(category, title string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	tags := make([]string, 0, limit)
	seen := make(map[string]struct{})
	add := func(word string) {
		tag := tagify(word)
		if tag == "" {
			return
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		tags = append(tags, "#"+tag)
	}

	add(category)
	for _, word := range strings.Fields(title) {
		if len(tags) >= limit {
			break
		}
		clean := strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}))
		if len([]rune(clean)) < 4 {
			continue
		}
		if _, stop := stopwords[clean]; stop {
			continue
		}
		add(clean)
	}
	return tags
}

// tagify strips a word down to letters and digits and title-cases it.
func tagify(word string) string {
	var b strings.Builder
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
