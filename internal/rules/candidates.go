// Package rules is the deterministic extraction engine: candidate-page
// detection followed by per-field pattern extraction against a fixed,
// ordered pattern table. Identical text always yields identical fields.
package rules

import (
	"regexp"
	"strings"

	"github.com/solarplanninganalytics/docket/constants"
	"github.com/solarplanninganalytics/docket/internal/pdftext"
)

// CandidateBlock is a page whose text matched the topical keyword filter.
// Derived, never persisted.
type CandidateBlock struct {
	Page int
	Text string // whitespace-normalized page text
}

var (
	// topical filter: land-use permits and solar vocabulary, plus the
	// Virginia 2232 review designation
	reTopical = regexp.MustCompile(`(?i)(Conditional\s+Use\s+Permit|Special\s+Use\s+Permit|Solar\b|Photovoltaic|2232)`)

	reRunsOfBlank = regexp.MustCompile(`[ \t]+`)
)

// FindCandidates filters pages down to candidate blocks. Pages that do not
// match are discarded with no output.
func FindCandidates(pages []pdftext.Page) []CandidateBlock {
	var blocks []CandidateBlock
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		t := reRunsOfBlank.ReplaceAllString(p.Text, " ")
		if !reTopical.MatchString(t) {
			continue
		}
		blocks = append(blocks, CandidateBlock{Page: p.PageNumber, Text: t})
	}
	return blocks
}

// SplitPages reconstructs per-page text from a ledger text column, where
// pages are joined with the form-feed separator.
func SplitPages(text string) []pdftext.Page {
	parts := strings.Split(text, constants.PageSeparator)
	pages := make([]pdftext.Page, len(parts))
	for i, t := range parts {
		pages[i] = pdftext.Page{PageNumber: i + 1, Text: t}
	}
	return pages
}

// JoinPages is the inverse of SplitPages, used when persisting acquired text.
func JoinPages(pages []pdftext.Page) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, constants.PageSeparator)
}
