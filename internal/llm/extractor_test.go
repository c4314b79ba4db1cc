package llm

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestExtractorAnalyzeSuccess(t *testing.T) {
	gen := &scriptedGenerator{resp: "```json\n{\"mw\": \"80\", \"ayes\": \"4\"}\n```"}
	e := NewExtractor(gen, 0, nil)

	outcome := e.Analyze(context.Background(), "doc.pdf", "some minutes text")
	if outcome.Failed() {
		t.Fatalf("unexpected failure: %+v", outcome.Envelope)
	}

	var got map[string]any
	if err := json.Unmarshal(outcome.Result, &got); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if got["mw"] != "80" || got["ayes"] != "4" {
		t.Errorf("result = %v", got)
	}
}

func TestExtractorAnalyzeUnparseableResponse(t *testing.T) {
	gen := &scriptedGenerator{resp: "I am unable to help with that."}
	e := NewExtractor(gen, 0, nil)

	outcome := e.Analyze(context.Background(), "doc.pdf", "text")
	if !outcome.Failed() {
		t.Fatal("expected failure outcome")
	}
	if !strings.Contains(outcome.Envelope.Error, "parse response") {
		t.Errorf("error = %q", outcome.Envelope.Error)
	}
	if outcome.Envelope.RawResponse != "I am unable to help with that." {
		t.Errorf("raw response = %q, want original text preserved", outcome.Envelope.RawResponse)
	}
}

func TestExtractorAnalyzeCallFailure(t *testing.T) {
	gen := &scriptedGenerator{err: context.DeadlineExceeded}
	e := NewExtractor(gen, 0, nil)

	outcome := e.Analyze(context.Background(), "doc.pdf", "text")
	if !outcome.Failed() {
		t.Fatal("expected failure outcome")
	}
	if outcome.Envelope.RawResponse != "No response" {
		t.Errorf("raw response = %q, want placeholder", outcome.Envelope.RawResponse)
	}
}

func TestExtractorAnalyzeSchemaViolation(t *testing.T) {
	// four snippets exceeds the bounded list
	gen := &scriptedGenerator{resp: `{"decision_factor_snippets": ["a", "b", "c", "d"]}`}
	e := NewExtractor(gen, 0, nil)

	outcome := e.Analyze(context.Background(), "doc.pdf", "text")
	if !outcome.Failed() {
		t.Fatal("expected failure outcome")
	}
	if !strings.Contains(outcome.Envelope.Error, "schema validation") {
		t.Errorf("error = %q", outcome.Envelope.Error)
	}
}

func TestExtractorTruncatesDocumentText(t *testing.T) {
	gen := &scriptedGenerator{resp: "{}"}
	e := NewExtractor(gen, 100, nil)

	e.Analyze(context.Background(), "doc.pdf", strings.Repeat("x", 94)+"@@IN@@"+"@@OUT@@")
	if len(gen.prompts) != 1 {
		t.Fatalf("expected one call, got %d", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "@@IN@@") || strings.Contains(gen.prompts[0], "@@OUT@@") {
		t.Errorf("truncation boundary wrong")
	}
}

func TestOutcomePayload(t *testing.T) {
	ok := Outcome{Result: json.RawMessage(`{"mw":"80"}`)}
	if string(ok.Payload()) != `{"mw":"80"}` {
		t.Errorf("success payload = %s", ok.Payload())
	}

	failed := Fail("boom", "raw text")
	var env ErrorEnvelope
	if err := json.Unmarshal(failed.Payload(), &env); err != nil {
		t.Fatalf("failure payload is not valid JSON: %v", err)
	}
	if env.Error != "boom" || env.RawResponse != "raw text" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestValidateJSONAgainstSchema(t *testing.T) {
	schema := BuildAnalysisJSONSchema()
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"empty object", `{}`, false},
		{"all strings", `{"mw": "80", "acres": "641"}`, false},
		{"extra field allowed", `{"county": "Augusta"}`, false},
		{"numeric field rejected", `{"mw": 80}`, true},
		{"snippets within bound", `{"decision_factor_snippets": ["a", "b", "c"]}`, false},
		{"snippets over bound", `{"decision_factor_snippets": ["a", "b", "c", "d"]}`, true},
		{"array root rejected", `[1, 2]`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSONAgainstSchema(schema, []byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
