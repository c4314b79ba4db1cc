// Package ingest discovers PDF documents under a root directory and drives
// the acquisition phase: native text extraction with an optional OCR
// fallback, committed to the ledger one document at a time.
package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/solarplanninganalytics/docket/constants"
	"github.com/solarplanninganalytics/docket/internal/ocr"
	"github.com/solarplanninganalytics/docket/internal/pdftext"
	"github.com/solarplanninganalytics/docket/internal/repository"
	"github.com/solarplanninganalytics/docket/internal/rules"
)

// DirStats aggregates one acquisition pass.
type DirStats struct {
	Scanned   int // directory entries visited
	Matched   int // PDF files found
	Skipped   int // already complete in the ledger
	Succeeded int
	Failed    int
}

// Acquirer fills the ledger's acquisition phase for every PDF under a root.
type Acquirer struct {
	docs          repository.DocumentRepository
	ocr           *ocr.Extractor // nil disables the OCR fallback
	textThreshold int            // native chars below this trigger OCR
	logger        *slog.Logger
}

func NewAcquirer(docs repository.DocumentRepository, ocrExtractor *ocr.Extractor, textThreshold int, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	if textThreshold <= 0 {
		textThreshold = 500
	}
	return &Acquirer{docs: docs, ocr: ocrExtractor, textThreshold: textThreshold, logger: logger}
}

// DiscoverPDFs walks root and returns the relative paths of every PDF, in
// sorted order. Hidden files and directories are skipped.
func DiscoverPDFs(root string) ([]string, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var paths []string
	var stats DirStats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return nil
		}
		if isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !constants.AllowedExt(constants.NormalizeExt(filepath.Ext(path))) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		paths = append(paths, rel)
		stats.Matched++
		return nil
	})
	if err != nil {
		return paths, stats, err
	}
	sort.Strings(paths)
	return paths, stats, nil
}

// AcquireDirectory discovers and acquires every PDF under root. Documents
// whose acquisition is already complete are not re-read; every other failure
// is recorded on the ledger and does not stop the pass.
func (a *Acquirer) AcquireDirectory(ctx context.Context, root string) (DirStats, error) {
	paths, stats, err := DiscoverPDFs(root)
	if err != nil {
		return stats, err
	}

	for _, rel := range paths {
		sourceID := filepath.ToSlash(rel)
		if existing, err := a.docs.GetBySourceID(ctx, sourceID); err == nil &&
			existing.AcquisitionStatus == constants.AcquisitionComplete {
			a.logger.Debug("already acquired, skipping", "source_id", sourceID)
			stats.Skipped++
			continue
		}

		if err := a.acquireOne(ctx, root, rel, sourceID); err != nil {
			a.logger.Error("acquisition failed", "source_id", sourceID, "error", err)
			stats.Failed++
			continue
		}
		stats.Succeeded++
	}
	return stats, nil
}

// acquireOne extracts one document's pages and commits the outcome. A text
// extraction failure is itself committed (status error) so the document is
// retried on the next run.
func (a *Acquirer) acquireOne(ctx context.Context, root, rel, sourceID string) error {
	abs := filepath.Join(root, rel)
	name := filepath.Base(rel)

	pages, err := a.extractPages(ctx, abs)
	if err != nil {
		_, uerr := a.docs.UpsertOnAcquire(ctx, repository.AcquireParams{
			SourceID:     sourceID,
			Name:         name,
			RelativePath: filepath.ToSlash(rel),
			Status:       constants.AcquisitionError,
			Diagnostic:   err.Error(),
		})
		if uerr != nil {
			return uerr
		}
		return err
	}

	_, err = a.docs.UpsertOnAcquire(ctx, repository.AcquireParams{
		SourceID:     sourceID,
		Name:         name,
		RelativePath: filepath.ToSlash(rel),
		Text:         rules.JoinPages(pages),
		Status:       constants.AcquisitionComplete,
	})
	return err
}

// extractPages prefers the native text layer and falls back to OCR when the
// document is scanned (too little native text) or unparseable. An OCR
// failure keeps whatever the native pass produced.
func (a *Acquirer) extractPages(ctx context.Context, abs string) ([]pdftext.Page, error) {
	pages, nativeErr := pdftext.ExtractFile(abs)

	weak := nativeErr != nil || pdftext.TotalChars(pages) < a.textThreshold
	if a.ocr != nil && weak {
		a.logger.Info("native text weak, running ocr",
			"path", abs, "native_chars", pdftext.TotalChars(pages))
		res, err := a.ocr.ExtractPages(ctx, abs)
		if err == nil {
			return res.Pages, nil
		}
		a.logger.Warn("ocr fallback failed, keeping native text", "path", abs, "error", err)
	}

	if nativeErr != nil {
		return nil, nativeErr
	}
	return pages, nil
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && base != ".." && strings.HasPrefix(base, ".")
}
