package rules

import "regexp"

var (
	// ISO-ish first (2024-03-12, 2024_3_12, 2024.03.12)
	reDateISO = regexp.MustCompile(`(\d{4}[-_/.]\d{1,2}[-_/.]\d{1,2})`)
	// then US-ish (3-12-24, 03_12_2024)
	reDateUS = regexp.MustCompile(`(\d{1,2}[-_/.]\d{1,2}[-_/.]\d{2,4})`)
)

// GuessMeetingDate derives a best-effort meeting date from a filename. It is
// a guess from naming conventions only, never from document content; the
// empty string means no date-like token was found.
func GuessMeetingDate(name string) string {
	if m := reDateISO.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if m := reDateUS.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return ""
}
