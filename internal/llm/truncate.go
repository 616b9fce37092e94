package llm

import "strings"

// TruncateAtSentence shortens text to at most max runes, preferring to cut
// at the last sentence end within the limit so prompts never carry a
// half-sentence tail. When no sentence boundary lands in the final
// two-thirds of the window, the cut falls back to the last space, then to a
// hard cut.
func TruncateAtSentence(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	window := string(runes[:max])
	best := -1
	for _, end := range []string{". ", "! ", "? ", ".\n"} {
		if i := strings.LastIndex(window, end); i > best {
			best = i
		}
	}
	if best >= max/3 {
		return strings.TrimSpace(window[:best+1])
	}

	if i := strings.LastIndex(window, " "); i > 0 {
		return strings.TrimSpace(window[:i])
	}
	return window
}
