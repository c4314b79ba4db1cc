package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/solarplanninganalytics/docket/internal/export"
	"github.com/solarplanninganalytics/docket/internal/llm"
	"github.com/solarplanninganalytics/docket/internal/repository"
	"github.com/solarplanninganalytics/docket/internal/rules"
)

// Engine is one structured-extraction strategy applied to a ready document.
// Failures are reported through the outcome's error envelope, never raised.
type Engine interface {
	Name() string
	Analyze(ctx context.Context, doc *repository.Document) llm.Outcome
}

// RuleEngine runs the deterministic pattern extractor over each candidate
// page, streaming snippets and rows into the sink as they are produced.
type RuleEngine struct {
	sink   *export.Sink
	logger *slog.Logger
}

func NewRuleEngine(sink *export.Sink, logger *slog.Logger) *RuleEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleEngine{sink: sink, logger: logger}
}

func (e *RuleEngine) Name() string { return "rules" }

// candidateResult is the per-candidate shape persisted in the ledger result.
type candidateResult struct {
	Page   int          `json:"page"`
	Fields rules.Fields `json:"fields,omitempty"`
}

func (e *RuleEngine) Analyze(ctx context.Context, doc *repository.Document) llm.Outcome {
	var text string
	if doc.Text != nil {
		text = *doc.Text
	}

	blocks := rules.FindCandidates(rules.SplitPages(text))
	date := rules.GuessMeetingDate(doc.Name)

	results := make([]candidateResult, 0, len(blocks))
	for _, blk := range blocks {
		// every candidate gets an audit snippet, rows only when fields matched
		if err := e.sink.WriteSnippet(doc.Name, blk.Page, blk.Text); err != nil {
			e.logger.Warn("snippet write failed", "name", doc.Name, "page", blk.Page, "error", err)
		}

		fields := rules.ExtractFields(blk.Text)
		if len(fields) == 0 {
			continue
		}
		e.sink.AddRow(export.Row{
			Filename:         doc.Name,
			RelativePath:     doc.RelativePath,
			MeetingDateGuess: date,
			Page:             blk.Page,
			Fields:           fields,
		})
		results = append(results, candidateResult{Page: blk.Page, Fields: fields})
	}

	payload, err := json.Marshal(map[string]any{"candidates": results})
	if err != nil {
		return llm.Fail(err.Error(), "")
	}
	e.logger.Info("rules.analyze.ok", "name", doc.Name, "candidates", len(blocks), "rows", len(results))
	return llm.Outcome{Result: payload}
}

// DelegatedEngine forwards document text to an external analyzer (Gemini).
type DelegatedEngine struct {
	analyzer llm.DocumentAnalyzer
}

func NewDelegatedEngine(analyzer llm.DocumentAnalyzer) *DelegatedEngine {
	return &DelegatedEngine{analyzer: analyzer}
}

func (e *DelegatedEngine) Name() string { return "gemini" }

func (e *DelegatedEngine) Analyze(ctx context.Context, doc *repository.Document) llm.Outcome {
	var text string
	if doc.Text != nil {
		text = *doc.Text
	}
	return e.analyzer.Analyze(ctx, doc.Name, text)
}
