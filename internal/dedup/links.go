package dedup

// LinkSet tracks canonicalized URLs that already exist in the table so the
// harvester can drop exact repeats before any model call is spent on them.
type LinkSet struct {
	seen map[string]struct{}
}

// NewLinkSet builds a set from existing links. Empty strings are ignored.
func NewLinkSet(links []string) *LinkSet {
	s := &LinkSet{seen: make(map[string]struct{}, len(links))}
	for _, l := range links {
		s.Add(l)
	}
	return s
}

// Add records a link. The canonical form is stored.
func (s *LinkSet) Add(link string) {
	c := CanonicalURL(link)
	if c == "" {
		return
	}
	s.seen[c] = struct{}{}
}

// Seen reports whether the link's canonical form has been recorded.
func (s *LinkSet) Seen(link string) bool {
	c := CanonicalURL(link)
	if c == "" {
		return false
	}
	_, ok := s.seen[c]
	return ok
}

// Len returns the number of distinct canonical links recorded.
func (s *LinkSet) Len() int {
	return len(s.seen)
}
