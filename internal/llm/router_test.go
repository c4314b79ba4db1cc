package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// scriptedGenerator returns a canned response (or error) and records the
// prompt it was given.
type scriptedGenerator struct {
	resp    string
	err     error
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.resp, g.err
}

func TestRouterDecision(t *testing.T) {
	tests := []struct {
		name string
		resp string
		err  error
		want bool
	}{
		{"plain yes", "YES", nil, true},
		{"lowercase yes", "yes.", nil, true},
		{"yes in a sentence", "Yes, this discusses a solar project.", nil, true},
		{"plain no", "NO", nil, false},
		{"ambiguous reads as relevant", "YES and NO both apply", nil, true},
		{"empty response", "", nil, false},
		{"call failure fails safe", "", errors.New("deadline exceeded"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(&scriptedGenerator{resp: tt.resp, err: tt.err}, 0, nil)
			if got := r.IsRelevant(context.Background(), "doc.pdf", "some text"); got != tt.want {
				t.Errorf("IsRelevant = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRouterTruncatesPrompt(t *testing.T) {
	gen := &scriptedGenerator{resp: "NO"}
	r := NewRouter(gen, 3000, nil)

	long := strings.Repeat("x", 2994) + "@@IN@@" + "@@OUT@@"
	r.IsRelevant(context.Background(), "doc.pdf", long)

	if len(gen.prompts) != 1 {
		t.Fatalf("expected one call, got %d", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "@@IN@@") {
		t.Error("prompt lost text inside the character budget")
	}
	if strings.Contains(prompt, "@@OUT@@") {
		t.Error("prompt contains text past the character budget")
	}
}
