package llm

import (
	"context"
	"encoding/json"
)

// Generator is the minimal text-generation surface the router and extractor
// depend on. Tests substitute scripted implementations.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RelevanceRouter gates expensive extraction with a cheap classification
// call. It always resolves to a boolean: any underlying failure reads as
// "not relevant".
type RelevanceRouter interface {
	IsRelevant(ctx context.Context, name, text string) bool
}

// DocumentAnalyzer turns document text into a structured result. It never
// returns an error past this boundary; failures surface as an error envelope
// inside the Outcome.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, name, text string) Outcome
}

// ErrorEnvelope reports a failed extraction attempt without raising.
type ErrorEnvelope struct {
	Error       string `json:"error"`
	RawResponse string `json:"raw_response"`
}

// Outcome is the tagged variant for one analysis: exactly one of Result or
// Envelope is set, decided once at parse time.
type Outcome struct {
	Result   json.RawMessage // validated JSON object on success
	Envelope *ErrorEnvelope  // set on service-call or parse failure
}

// Failed reports whether the outcome carries an error envelope.
func (o Outcome) Failed() bool {
	return o.Envelope != nil
}

// Payload serializes the outcome for the ledger: the result on success, the
// envelope on failure.
func (o Outcome) Payload() json.RawMessage {
	if o.Envelope != nil {
		b, _ := json.Marshal(o.Envelope)
		return b
	}
	return o.Result
}

// Fail builds a failure outcome, substituting a placeholder when the service
// produced no response at all.
func Fail(message, raw string) Outcome {
	if raw == "" {
		raw = "No response"
	}
	return Outcome{Envelope: &ErrorEnvelope{Error: message, RawResponse: raw}}
}
