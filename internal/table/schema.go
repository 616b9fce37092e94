package table

import "strings"

// Schema maps logical fields to 1-based column positions resolved from the
// header row. Headers may be renamed (alias table) or reordered; a header
// that cannot be found at all falls back to the canonical position so a
// drifted sheet degrades instead of breaking the whole pipeline.
type Schema struct {
	cols    map[Field]int
	width   int
	guessed []Field
}

// normalizeHeader lowercases and strips spaces so small header edits still
// match.
func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

// ResolveSchema builds a Schema from the sheet's header row.
func ResolveSchema(header []string) *Schema {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		n := normalizeHeader(h)
		if n == "" {
			continue
		}
		if _, ok := byName[n]; !ok {
			byName[n] = i + 1
		}
	}

	s := &Schema{cols: make(map[Field]int, len(canonicalColumns))}
	for pos, c := range canonicalColumns {
		if idx, ok := byName[normalizeHeader(c.header)]; ok {
			s.cols[c.field] = idx
			continue
		}
		found := false
		for _, alias := range c.aliases {
			if idx, ok := byName[normalizeHeader(alias)]; ok {
				s.cols[c.field] = idx
				found = true
				break
			}
		}
		if !found {
			// Tolerated degradation: guess the canonical position rather
			// than failing the run on schema drift.
			s.cols[c.field] = pos + 1
			s.guessed = append(s.guessed, c.field)
		}
	}

	s.width = len(canonicalColumns)
	for _, idx := range s.cols {
		if idx > s.width {
			s.width = idx
		}
	}
	if len(header) > s.width {
		s.width = len(header)
	}
	return s
}

// Col returns the 1-based column position for a field.
func (s *Schema) Col(f Field) int {
	return s.cols[f]
}

// Width returns the number of columns a new row should span.
func (s *Schema) Width() int {
	return s.width
}

// Guessed lists fields whose headers were missing and fell back to their
// canonical positions. Callers log these; they are not errors.
func (s *Schema) Guessed() []Field {
	return s.guessed
}
