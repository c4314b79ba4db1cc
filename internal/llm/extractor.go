package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const analysisPrompt = `Analyze the following text from a county public document (planning commission or board of supervisors minutes, staff reports, or permit applications) concerning land use.

Extract the following fields about any solar or land-use project discussed and return them as a single JSON object. Omit any field that is not present in the text; never output null.

- project_or_applicant: the applicant or project name
- mw: the project capacity in megawatts, digits only
- acres: the project acreage, digits only
- location: the address, parcel, tax map, GPIN or PIN reference
- outcome_phrase: the approval/denial/recommendation wording used
- vote_line: the roll-call or vote sentence
- ayes: who or how many voted in favor
- nays: who or how many voted against
- decision_factor_snippets: up to 3 short sentences giving the reasons behind the decision

Return ONLY the JSON object, no commentary.

---
Document: %s

%s
---`

// Extractor is the delegated extraction engine: it forwards document text to
// a generative service and parses one JSON object out of the response. It
// reports failure through an error envelope, never an error.
type Extractor struct {
	gen      Generator
	maxChars int // 0 = send full text
	log      *slog.Logger
}

func NewExtractor(gen Generator, maxChars int, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{gen: gen, maxChars: maxChars, log: logger}
}

// Analyze runs one delegated extraction. The response may wrap its JSON in
// fenced-code markup; the fencing is stripped before parsing and the parsed
// object is checked against the analysis schema.
func (e *Extractor) Analyze(ctx context.Context, name, text string) Outcome {
	start := time.Now()
	if e.maxChars > 0 && len(text) > e.maxChars {
		text = text[:e.maxChars]
	}

	resp, err := e.gen.Generate(ctx, fmt.Sprintf(analysisPrompt, name, text))
	if err != nil {
		e.log.Error("llm.extract.call_failed", "name", name, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return Fail(err.Error(), "")
	}

	payload := StripCodeFence(resp)
	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		e.log.Error("llm.extract.parse_failed", "name", name, "error", err,
			"response_len", len(resp))
		return Fail(fmt.Sprintf("parse response: %v", err), resp)
	}

	canonical, err := json.Marshal(obj)
	if err != nil {
		return Fail(fmt.Sprintf("re-encode response: %v", err), resp)
	}
	if err := ValidateJSONAgainstSchema(BuildAnalysisJSONSchema(), canonical); err != nil {
		e.log.Error("llm.extract.schema_validation_failed", "name", name, "error", err)
		return Fail(fmt.Sprintf("schema validation: %v", err), resp)
	}

	e.log.Info("llm.extract.ok",
		"name", name,
		"fields", len(obj),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Outcome{Result: canonical}
}

var _ DocumentAnalyzer = (*Extractor)(nil)
