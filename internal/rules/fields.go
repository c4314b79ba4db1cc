package rules

import (
	"regexp"
	"strings"

	"github.com/solarplanninganalytics/docket/constants"
)

// Fields is the sparse field mapping extracted from one candidate block.
// Values are strings, except decision_factor_snippets which is []string.
// A missing key means "not found", never an error.
type Fields map[string]any

// fieldPattern is one entry in a field's ordered pattern list. group selects
// the submatch to keep (0 = whole match).
type fieldPattern struct {
	re    *regexp.Regexp
	group int
}

// fieldTable is the extraction contract: per field, patterns are tried in
// listed order and the FIRST pattern that matches anywhere wins — later
// patterns for the same field are never consulted. Within a pattern the
// leftmost occurrence wins.
var fieldTable = []struct {
	field    string
	patterns []fieldPattern
}{
	{constants.FieldProjectOrApplicant, []fieldPattern{
		{regexp.MustCompile(`(?i)\bApplicant\s*[:\-]\s*([A-Z0-9\-&.,' ]{5,120})`), 1},
		{regexp.MustCompile(`(?i)\bApplication\s*[:\-]\s*([A-Z0-9\-&.,' ]{5,120})`), 1},
		{regexp.MustCompile(`(?i)\bProject\s*[:\-]\s*([A-Z0-9\-&.,' ]{5,120})`), 1},
	}},
	{constants.FieldMW, []fieldPattern{
		{regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d+)?)\s*MW\b`), 1},
	}},
	{constants.FieldAcres, []fieldPattern{
		{regexp.MustCompile(`(?i)(\d{1,4}(?:\.\d+)?)\s*acres?\b`), 1},
	}},
	{constants.FieldLocation, []fieldPattern{
		{regexp.MustCompile(`(?i)\bLocation\s*[:\-]\s*([^\n]{5,160})`), 1},
		{regexp.MustCompile(`(?i)\bAddress\s*[:\-]\s*([^\n]{5,160})`), 1},
		{regexp.MustCompile(`(?i)\bParcel\s*[:\-]\s*([^\n]{5,160})`), 1},
		{regexp.MustCompile(`(?i)\bTax\s*Map\s*[:\-]\s*([^\n]{5,160})`), 1},
		{regexp.MustCompile(`(?i)\bGPIN\s*[:\-]\s*([^\n]{5,160})`), 1},
		{regexp.MustCompile(`(?i)\bPIN\s*[:\-]\s*([^\n]{5,160})`), 1},
	}},
	{constants.FieldOutcomePhrase, []fieldPattern{
		{regexp.MustCompile(`(?i)\b(approved|denied|recommend(?:ed)?\s+approval|recommend(?:ed)?\s+denial)\b`), 0},
	}},
	{constants.FieldVoteLine, []fieldPattern{
		{regexp.MustCompile(`(?i)(roll\s*call\s*vote|vote\s*(?:was\s*)?(?:taken)?(?:\s*and\s*the\s*results?\s*were)?)\s*[:\-]?\s*[^\n]{0,140}`), 0},
	}},
	{constants.FieldAyes, []fieldPattern{
		{regexp.MustCompile(`(?i)\bAyes?\s*[:\-]\s*([^\n]+)`), 1},
		{regexp.MustCompile(`(?i)\bYeas?\s*[:\-]\s*([^\n]+)`), 1},
	}},
	{constants.FieldNays, []fieldPattern{
		{regexp.MustCompile(`(?i)\bNays?\s*[:\-]\s*([^\n]+)`), 1},
		{regexp.MustCompile(`(?i)\bNos?\s*[:\-]\s*([^\n]+)`), 1},
	}},
}

// reDecisionFactor captures sentences containing reasoning vocabulary, with
// bounded context on both sides.
var reDecisionFactor = regexp.MustCompile(`(?i)([^.]{0,140}\b(concern|because|due to|reason|findings?(?: of fact)?)\b[^.]{0,140})\.`)

// ExtractFields applies the ordered pattern table to one candidate block's
// text. It consults no state and mutates nothing.
func ExtractFields(text string) Fields {
	fields := make(Fields)

	for _, entry := range fieldTable {
		for _, fp := range entry.patterns {
			m := fp.re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if v := strings.TrimSpace(m[fp.group]); v != "" {
				fields[entry.field] = v
			}
			break // first matching pattern wins
		}
	}

	if snippets := decisionFactorSnippets(text); len(snippets) > 0 {
		fields[constants.FieldDecisionFactorSnippets] = snippets
	}
	return fields
}

// decisionFactorSnippets collects sentences with reasoning vocabulary in
// document order, capped at MaxDecisionFactorSnippets.
func decisionFactorSnippets(text string) []string {
	matches := reDecisionFactor.FindAllString(text, constants.MaxDecisionFactorSnippets)
	snippets := make([]string, 0, len(matches))
	for _, m := range matches {
		snippets = append(snippets, strings.TrimSpace(m))
	}
	return snippets
}
