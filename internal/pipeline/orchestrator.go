// Package pipeline drives ready documents through routing and extraction,
// committing one ledger write per document so a crash at any point leaves a
// resumable state.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/solarplanninganalytics/docket/constants"
	"github.com/solarplanninganalytics/docket/internal/llm"
	"github.com/solarplanninganalytics/docket/internal/repository"
)

// Counts summarizes one analysis run.
type Counts struct {
	Relevant   int // analysis complete
	Irrelevant int // router declined
	Errored    int // recorded error, eligible for rerun
}

// Orchestrator is the single writer over the ledger's analysis phase.
// Execution is strictly sequential; the fixed delay after each document is a
// rate-limit policy toward the external services, applied whether or not the
// document succeeded.
type Orchestrator struct {
	docs   repository.DocumentRepository
	router llm.RelevanceRouter // nil runs ungated
	engine Engine
	delay  time.Duration
	sleep  func(time.Duration) // stubbed in tests
	logger *slog.Logger
}

func NewOrchestrator(docs repository.DocumentRepository, router llm.RelevanceRouter, engine Engine, delay time.Duration, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		docs:   docs,
		router: router,
		engine: engine,
		delay:  delay,
		sleep:  time.Sleep,
		logger: logger,
	}
}

// Run processes every ready document. A failure in one document is converted
// into an error status write and never aborts the rest of the batch.
func (o *Orchestrator) Run(ctx context.Context) (Counts, error) {
	runID := uuid.New().String()
	start := time.Now()

	ready, err := o.docs.ListReadyForAnalysis(ctx)
	if err != nil {
		return Counts{}, fmt.Errorf("list ready documents: %w", err)
	}
	o.logger.Info("pipeline.run.start",
		"run_id", runID, "ready", len(ready), "engine", o.engine.Name(), "routed", o.router != nil)

	var counts Counts
	for _, doc := range ready {
		status := o.processOne(ctx, doc)
		switch status {
		case constants.AnalysisComplete:
			counts.Relevant++
		case constants.AnalysisIrrelevant:
			counts.Irrelevant++
		default:
			counts.Errored++
		}
		o.sleep(o.delay)
	}

	o.logger.Info("pipeline.run.done",
		"run_id", runID,
		"relevant", counts.Relevant,
		"irrelevant", counts.Irrelevant,
		"errors", counts.Errored,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return counts, nil
}

// processOne routes and analyzes a single document and commits the outcome.
// The returned status is what was written to the ledger.
func (o *Orchestrator) processOne(ctx context.Context, doc *repository.Document) (status constants.AnalysisStatus) {
	defer func() {
		// an engine or ledger panic is isolated to this document
		if r := recover(); r != nil {
			o.logger.Error("pipeline.document.panic", "source_id", doc.SourceID, "panic", r)
			status = constants.AnalysisError
			o.commit(ctx, doc.SourceID, nil, status, fmt.Sprintf("panic: %v", r))
		}
	}()

	o.logger.Info("pipeline.document.start", "source_id", doc.SourceID, "name", doc.Name)

	if doc.Text == nil {
		o.commit(ctx, doc.SourceID, nil, constants.AnalysisError, "acquisition complete but text missing")
		return constants.AnalysisError
	}

	if o.router != nil && !o.router.IsRelevant(ctx, doc.Name, *doc.Text) {
		o.commit(ctx, doc.SourceID, nil, constants.AnalysisIrrelevant, "")
		return constants.AnalysisIrrelevant
	}

	outcome := o.engine.Analyze(ctx, doc)
	if outcome.Failed() {
		o.commit(ctx, doc.SourceID, nil, constants.AnalysisError, string(outcome.Payload()))
		return constants.AnalysisError
	}

	if err := o.docs.UpdateAnalysis(ctx, doc.SourceID, outcome.Result, constants.AnalysisComplete, ""); err != nil {
		o.logger.Error("pipeline.commit.failed", "source_id", doc.SourceID, "error", err)
		o.commit(ctx, doc.SourceID, nil, constants.AnalysisError, err.Error())
		return constants.AnalysisError
	}
	return constants.AnalysisComplete
}

// commit writes an analysis status, logging rather than propagating a ledger
// failure; the record stays eligible for the next run either way.
func (o *Orchestrator) commit(ctx context.Context, sourceID string, result json.RawMessage, status constants.AnalysisStatus, diagnostic string) {
	if err := o.docs.UpdateAnalysis(ctx, sourceID, result, status, diagnostic); err != nil {
		o.logger.Error("pipeline.status.write_failed",
			"source_id", sourceID, "status", status, "error", err)
	}
}
