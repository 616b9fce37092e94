// Package status encodes per-row pipeline progress as a small ledger of
// stage tokens. The spreadsheet cell value is newline-delimited tokens of the
// form "Stage <n> ok" or "Stage <n> failed"; internal logic only ever works
// with the structured Ledger, never with ad hoc string matching.
package status

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Outcome is the recorded result of one stage for one row.
type Outcome int

const (
	// OK marks a stage as completed successfully.
	OK Outcome = iota
	// Failed marks a stage as attempted and failed (or skipped for good,
	// e.g. a duplicate). A failed token still gates re-processing.
	Failed
)

const (
	okMarker     = "ok"
	failedMarker = "failed"
)

// tokenRe matches one canonical stage token.
var tokenRe = regexp.MustCompile(`^Stage\s+(\d+)\s+(ok|failed)$`)

// Token renders the canonical token for a stage outcome.
func Token(stage int, outcome Outcome) string {
	marker := okMarker
	if outcome == Failed {
		marker = failedMarker
	}
	return fmt.Sprintf("Stage %d %s", stage, marker)
}

// entry is one parsed line of the ledger cell.
type entry struct {
	stage   int
	outcome Outcome
	// raw preserves lines that are not stage tokens so a rewrite never
	// destroys operator annotations.
	raw string
}

// Ledger is the structured form of one row's status cell.
type Ledger struct {
	entries []entry
}

// Parse decodes a status cell value. Blank lines are dropped; lines that are
// not stage tokens are preserved verbatim. When the same stage appears more
// than once the last token wins.
func Parse(cell string) *Ledger {
	l := &Ledger{}
	for _, line := range strings.Split(cell, "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		m := tokenRe.FindStringSubmatch(s)
		if m == nil {
			l.entries = append(l.entries, entry{stage: -1, raw: s})
			continue
		}
		stage, _ := strconv.Atoi(m[1])
		outcome := OK
		if m[2] == failedMarker {
			outcome = Failed
		}
		l.set(stage, outcome)
	}
	return l
}

// set replaces the stage's entry in place, or appends a new one.
func (l *Ledger) set(stage int, outcome Outcome) {
	for i := range l.entries {
		if l.entries[i].stage == stage {
			l.entries[i].outcome = outcome
			return
		}
	}
	l.entries = append(l.entries, entry{stage: stage, outcome: outcome})
}

// Mark records the outcome for a stage, replacing only that stage's own
// token and preserving every other entry. This is what makes a row's
// progress resumable across independent stage runs.
func (l *Ledger) Mark(stage int, outcome Outcome) {
	l.set(stage, outcome)
}

// Has reports whether any token exists for the stage, regardless of outcome.
func (l *Ledger) Has(stage int) bool {
	for _, e := range l.entries {
		if e.stage == stage {
			return true
		}
	}
	return false
}

// OK reports whether the stage has an ok token.
func (l *Ledger) OK(stage int) bool {
	for _, e := range l.entries {
		if e.stage == stage {
			return e.outcome == OK
		}
	}
	return false
}

// String renders the ledger back to the cell format.
func (l *Ledger) String() string {
	lines := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		if e.stage < 0 {
			lines = append(lines, e.raw)
			continue
		}
		lines = append(lines, Token(e.stage, e.outcome))
	}
	return strings.Join(lines, "\n")
}
