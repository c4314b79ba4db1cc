package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/solarplanninganalytics/docket/constants"
	"github.com/solarplanninganalytics/docket/internal/common"
)

func newTestRepo(t *testing.T) DocumentRepository {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := OpenInMemory(context.Background(), logger)
	if err != nil {
		t.Fatalf("open in-memory ledger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewDocumentRepository(db, logger)
	if err := repo.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return repo
}

func mustAcquire(t *testing.T, repo DocumentRepository, p AcquireParams) *Document {
	t.Helper()
	doc, err := repo.UpsertOnAcquire(context.Background(), p)
	if err != nil {
		t.Fatalf("upsert %s: %v", p.SourceID, err)
	}
	return doc
}

func completeParams(sourceID, text string) AcquireParams {
	return AcquireParams{
		SourceID:     sourceID,
		Name:         sourceID,
		RelativePath: sourceID,
		Text:         text,
		Status:       constants.AcquisitionComplete,
	}
}

func TestUpsertAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustAcquire(t, repo, completeParams("minutes/2024-03-12.pdf", "page one\fpage two"))

	doc, err := repo.GetBySourceID(ctx, "minutes/2024-03-12.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.AcquisitionStatus != constants.AcquisitionComplete {
		t.Errorf("acquisition status = %s", doc.AcquisitionStatus)
	}
	if doc.Text == nil || *doc.Text != "page one\fpage two" {
		t.Errorf("text = %v", doc.Text)
	}
	if doc.AnalysisStatus != constants.AnalysisNone {
		t.Errorf("fresh document has analysis status %q", doc.AnalysisStatus)
	}
	if doc.Result != nil || doc.Diagnostic != nil {
		t.Errorf("fresh document carries result/diagnostic: %v %v", doc.Result, doc.Diagnostic)
	}

	if _, err := repo.GetBySourceID(ctx, "nope.pdf"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("missing document: err = %v, want ErrNotFound", err)
	}
}

func TestUpsertValidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name string
		p    AcquireParams
	}{
		{"missing source id", AcquireParams{Status: constants.AcquisitionComplete}},
		{"unknown status", AcquireParams{SourceID: "a.pdf", Status: "bogus"}},
		{"error without diagnostic", AcquireParams{SourceID: "a.pdf", Status: constants.AcquisitionError}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.UpsertOnAcquire(ctx, tt.p); !errors.Is(err, common.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestReacquireResetsAnalysis(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustAcquire(t, repo, completeParams("a.pdf", "old text"))
	if err := repo.UpdateAnalysis(ctx, "a.pdf", nil, constants.AnalysisIrrelevant, ""); err != nil {
		t.Fatalf("mark irrelevant: %v", err)
	}

	// re-acquisition overwrites the text and clears the analysis phase
	doc := mustAcquire(t, repo, completeParams("a.pdf", "new text"))
	if doc.Text == nil || *doc.Text != "new text" {
		t.Errorf("text = %v, want new text", doc.Text)
	}
	if doc.AnalysisStatus != constants.AnalysisNone {
		t.Errorf("analysis status = %q, want reset to none", doc.AnalysisStatus)
	}

	ready, err := repo.ListReadyForAnalysis(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ready) != 1 || ready[0].SourceID != "a.pdf" {
		t.Errorf("re-acquired document not ready again: %+v", ready)
	}
}

func TestErrorAcquisitionRecordsDiagnostic(t *testing.T) {
	repo := newTestRepo(t)

	doc := mustAcquire(t, repo, AcquireParams{
		SourceID:   "broken.pdf",
		Name:       "broken.pdf",
		Status:     constants.AcquisitionError,
		Diagnostic: "pdf parse: unexpected EOF",
	})
	if doc.AcquisitionStatus != constants.AcquisitionError {
		t.Errorf("status = %s", doc.AcquisitionStatus)
	}
	if doc.Diagnostic == nil || *doc.Diagnostic != "pdf parse: unexpected EOF" {
		t.Errorf("diagnostic = %v", doc.Diagnostic)
	}
	if doc.Text != nil {
		t.Errorf("error acquisition stored text: %v", *doc.Text)
	}
}

func TestListReadyForAnalysis(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustAcquire(t, repo, completeParams("b_fresh.pdf", "t"))
	mustAcquire(t, repo, completeParams("a_errored.pdf", "t"))
	mustAcquire(t, repo, completeParams("c_done.pdf", "t"))
	mustAcquire(t, repo, completeParams("d_irrelevant.pdf", "t"))
	mustAcquire(t, repo, AcquireParams{
		SourceID: "e_unacquired.pdf", Name: "e_unacquired.pdf",
		Status: constants.AcquisitionError, Diagnostic: "boom",
	})

	if err := repo.UpdateAnalysis(ctx, "a_errored.pdf", nil, constants.AnalysisError, "timeout"); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateAnalysis(ctx, "c_done.pdf", json.RawMessage(`{}`), constants.AnalysisComplete, ""); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateAnalysis(ctx, "d_irrelevant.pdf", nil, constants.AnalysisIrrelevant, ""); err != nil {
		t.Fatal(err)
	}

	ready, err := repo.ListReadyForAnalysis(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, d := range ready {
		ids = append(ids, d.SourceID)
	}
	want := []string{"a_errored.pdf", "b_fresh.pdf"}
	if len(ids) != len(want) || ids[0] != want[0] || ids[1] != want[1] {
		t.Errorf("ready = %v, want %v", ids, want)
	}
}

func TestUpdateAnalysisValidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustAcquire(t, repo, completeParams("a.pdf", "t"))

	tests := []struct {
		name       string
		result     json.RawMessage
		status     constants.AnalysisStatus
		diagnostic string
	}{
		{"complete without result", nil, constants.AnalysisComplete, ""},
		{"error without diagnostic", nil, constants.AnalysisError, ""},
		{"empty status", nil, constants.AnalysisNone, ""},
		{"unknown status", nil, "bogus", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.UpdateAnalysis(ctx, "a.pdf", tt.result, tt.status, tt.diagnostic)
			if !errors.Is(err, common.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}

	err := repo.UpdateAnalysis(ctx, "missing.pdf", json.RawMessage(`{}`), constants.AnalysisComplete, "")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("missing document: err = %v, want ErrNotFound", err)
	}
}

func TestAnalysisCompleteIsTerminal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustAcquire(t, repo, completeParams("a.pdf", "t"))

	if err := repo.UpdateAnalysis(ctx, "a.pdf", json.RawMessage(`{"mw":"80"}`), constants.AnalysisComplete, ""); err != nil {
		t.Fatal(err)
	}
	err := repo.UpdateAnalysis(ctx, "a.pdf", nil, constants.AnalysisError, "should not happen")
	if !errors.Is(err, common.ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestErrorThenCompleteClearsDiagnostic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	mustAcquire(t, repo, completeParams("a.pdf", "t"))

	if err := repo.UpdateAnalysis(ctx, "a.pdf", nil, constants.AnalysisError, "timeout"); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateAnalysis(ctx, "a.pdf", json.RawMessage(`{"mw":"80"}`), constants.AnalysisComplete, ""); err != nil {
		t.Fatal(err)
	}

	doc, err := repo.GetBySourceID(ctx, "a.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if doc.AnalysisStatus != constants.AnalysisComplete {
		t.Errorf("status = %s", doc.AnalysisStatus)
	}
	if string(doc.Result) != `{"mw":"80"}` {
		t.Errorf("result = %s", doc.Result)
	}
	if doc.Diagnostic != nil {
		t.Errorf("diagnostic survived the retry: %v", *doc.Diagnostic)
	}
}

func TestCountByStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustAcquire(t, repo, completeParams("a.pdf", "t"))
	mustAcquire(t, repo, completeParams("b.pdf", "t"))
	if err := repo.UpdateAnalysis(ctx, "b.pdf", json.RawMessage(`{}`), constants.AnalysisComplete, ""); err != nil {
		t.Fatal(err)
	}

	counts, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["acquisition:complete"] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if counts["acquisition:complete analysis:complete"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
