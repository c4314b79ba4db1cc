package ingest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/solarplanninganalytics/docket/constants"
	"github.com/solarplanninganalytics/docket/internal/common"
	"github.com/solarplanninganalytics/docket/internal/repository"
)

// fakeDocs records acquisition upserts and serves pre-seeded documents.
type fakeDocs struct {
	existing map[string]*repository.Document
	upserts  []repository.AcquireParams
}

func (f *fakeDocs) Bootstrap(context.Context) error { return nil }

func (f *fakeDocs) GetBySourceID(_ context.Context, sourceID string) (*repository.Document, error) {
	if d, ok := f.existing[sourceID]; ok {
		return d, nil
	}
	return nil, common.ErrNotFound
}

func (f *fakeDocs) UpsertOnAcquire(_ context.Context, p repository.AcquireParams) (*repository.Document, error) {
	f.upserts = append(f.upserts, p)
	return &repository.Document{SourceID: p.SourceID}, nil
}

func (f *fakeDocs) ListReadyForAnalysis(context.Context) ([]*repository.Document, error) {
	return nil, nil
}

func (f *fakeDocs) UpdateAnalysis(context.Context, string, json.RawMessage, constants.AnalysisStatus, string) error {
	return nil
}

func (f *fakeDocs) CountByStatus(context.Context) (map[string]int, error) { return nil, nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverPDFs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.pdf"), "x")
	writeFile(t, filepath.Join(root, "sub", "a.PDF"), "x")
	writeFile(t, filepath.Join(root, "notes.txt"), "x")
	writeFile(t, filepath.Join(root, ".hidden", "c.pdf"), "x")
	writeFile(t, filepath.Join(root, ".DS_Store"), "x")

	paths, stats, err := DiscoverPDFs(root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Matched != 2 {
		t.Errorf("matched = %d, want 2", stats.Matched)
	}
	want := []string{"b.pdf", filepath.Join("sub", "a.PDF")}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestDiscoverPDFsEmptyRoot(t *testing.T) {
	if _, _, err := DiscoverPDFs("  "); err == nil {
		t.Error("expected error for blank root")
	}

	paths, stats, err := DiscoverPDFs(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 0 || stats.Matched != 0 {
		t.Errorf("paths = %v, stats = %+v", paths, stats)
	}
}

func TestAcquireDirectoryRecordsParseFailure(t *testing.T) {
	root := t.TempDir()
	// a .pdf extension with no PDF structure behind it
	writeFile(t, filepath.Join(root, "broken.pdf"), "this is not a pdf")

	docs := &fakeDocs{}
	a := NewAcquirer(docs, nil, 0, testLogger())

	stats, err := a.AcquireDirectory(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Matched != 1 || stats.Failed != 1 || stats.Succeeded != 0 {
		t.Errorf("stats = %+v", stats)
	}

	if len(docs.upserts) != 1 {
		t.Fatalf("upserts = %+v", docs.upserts)
	}
	up := docs.upserts[0]
	if up.SourceID != "broken.pdf" || up.Status != constants.AcquisitionError {
		t.Errorf("upsert = %+v", up)
	}
	if up.Diagnostic == "" {
		t.Error("parse failure recorded without a diagnostic")
	}
}

func TestAcquireDirectorySkipsCompleted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "done.pdf"), "irrelevant bytes")

	docs := &fakeDocs{existing: map[string]*repository.Document{
		"done.pdf": {SourceID: "done.pdf", AcquisitionStatus: constants.AcquisitionComplete},
	}}
	a := NewAcquirer(docs, nil, 0, testLogger())

	stats, err := a.AcquireDirectory(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(docs.upserts) != 0 {
		t.Errorf("completed document was re-acquired: %+v", docs.upserts)
	}
}

func TestAcquireDirectoryRetriesErrored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "flaky.pdf"), "still not a pdf")

	docs := &fakeDocs{existing: map[string]*repository.Document{
		"flaky.pdf": {SourceID: "flaky.pdf", AcquisitionStatus: constants.AcquisitionError},
	}}
	a := NewAcquirer(docs, nil, 0, testLogger())

	stats, err := a.AcquireDirectory(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	// an errored record is re-read, not skipped
	if stats.Skipped != 0 || len(docs.upserts) != 1 {
		t.Errorf("stats = %+v, upserts = %+v", stats, docs.upserts)
	}
}
