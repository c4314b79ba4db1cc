package llm

import "strings"

// StripCodeFence removes Markdown code fencing around a JSON payload.
// Models often wrap structured output in ```json ... ``` even when told not
// to; the payload inside is returned untouched.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop a language tag on the opening fence ("json", "JSON", ...)
	if i := strings.IndexAny(s, "\n{["); i > 0 {
		tag := strings.TrimSpace(s[:i])
		if len(tag) <= 10 && !strings.ContainsAny(tag, "{}[]") {
			s = s[i:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
