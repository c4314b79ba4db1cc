package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const routerPrompt = `Does the following text from a public document appear to contain a discussion, application, or vote related to a specific land use project, construction, solar project, or zoning change?
Answer only with the single word YES or NO.

---
%s
---`

// Router is the cheap relevance gate in front of full extraction. It fails
// safe: any failure of the underlying call resolves to "not relevant",
// because skipping a relevant document costs one rerun while extracting an
// irrelevant one costs a full model call.
type Router struct {
	gen      Generator
	maxChars int
	log      *slog.Logger
}

func NewRouter(gen Generator, maxChars int, logger *slog.Logger) *Router {
	if maxChars <= 0 {
		maxChars = 3000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{gen: gen, maxChars: maxChars, log: logger}
}

// IsRelevant classifies the first maxChars characters of text. The decision
// rule is a bare substring check for "YES" in the uppercased response; a
// response containing both YES and NO tokens therefore reads as relevant.
func (r *Router) IsRelevant(ctx context.Context, name, text string) bool {
	if len(text) > r.maxChars {
		text = text[:r.maxChars]
	}

	resp, err := r.gen.Generate(ctx, fmt.Sprintf(routerPrompt, text))
	if err != nil {
		r.log.Warn("llm.route.failed", "name", name, "error", err, "decision", "irrelevant")
		return false
	}

	relevant := strings.Contains(strings.ToUpper(resp), "YES")
	r.log.Info("llm.route.ok", "name", name, "relevant", relevant)
	return relevant
}

var _ RelevanceRouter = (*Router)(nil)
