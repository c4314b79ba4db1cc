package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/solarplanninganalytics/docket/constants"
	"github.com/solarplanninganalytics/docket/internal/common"
)

// Document is one ledger row: a source document and its progress through the
// acquisition and analysis phases.
type Document struct {
	SourceID          string
	Name              string
	RelativePath      string
	Text              *string // page text joined with constants.PageSeparator; nil until acquired
	AcquisitionStatus constants.AcquisitionStatus
	AnalysisStatus    constants.AnalysisStatus // zero value when NULL
	Result            json.RawMessage          // present iff AnalysisStatus == complete
	Diagnostic        *string                  // present iff a status is error
}

// AcquireParams carries one acquisition outcome into the ledger.
type AcquireParams struct {
	SourceID     string
	Name         string
	RelativePath string
	Text         string // ignored unless Status == complete
	Status       constants.AcquisitionStatus
	Diagnostic   string // required when Status == error
}

type DocumentRepository interface {
	Bootstrap(ctx context.Context) error
	GetBySourceID(ctx context.Context, sourceID string) (*Document, error)
	// UpsertOnAcquire records an acquisition outcome, overwriting any existing
	// row with the same source id. Acquisition resets the analysis phase.
	UpsertOnAcquire(ctx context.Context, p AcquireParams) (*Document, error)
	// ListReadyForAnalysis returns documents with acquisition complete whose
	// analysis is NULL or error, in source-id order.
	ListReadyForAnalysis(ctx context.Context) ([]*Document, error)
	// UpdateAnalysis commits one analysis outcome. result must be non-nil iff
	// status is complete; diagnostic must be non-empty iff status is error.
	UpdateAnalysis(ctx context.Context, sourceID string, result json.RawMessage, status constants.AnalysisStatus, diagnostic string) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type documentRepo struct {
	db  *sql.DB
	log *slog.Logger
}

func NewDocumentRepository(db *sql.DB, log *slog.Logger) DocumentRepository {
	if log == nil {
		log = slog.Default()
	}
	return &documentRepo{db: db, log: log}
}

const documentsDDL = `
CREATE TABLE IF NOT EXISTS documents (
	source_id          TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	relative_path      TEXT NOT NULL DEFAULT '',
	text               TEXT,
	acquisition_status TEXT NOT NULL,
	analysis_status    TEXT,
	result             TEXT,
	diagnostic         TEXT,
	created_at         TIMESTAMP NOT NULL,
	updated_at         TIMESTAMP NOT NULL
)`

func (r *documentRepo) Bootstrap(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, documentsDDL); err != nil {
		r.log.Error("ledger bootstrap failed", "error", err)
		return common.WrapError(err, "create documents table")
	}
	return nil
}

func (r *documentRepo) GetBySourceID(ctx context.Context, sourceID string) (*Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT source_id, name, relative_path, text,
		       acquisition_status, analysis_status, result, diagnostic
		FROM documents WHERE source_id = $1`, sourceID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return doc, err
}

func (r *documentRepo) UpsertOnAcquire(ctx context.Context, p AcquireParams) (*Document, error) {
	if p.SourceID == "" {
		return nil, fmt.Errorf("source_id is required: %w", common.ErrInvalidInput)
	}
	if !constants.ValidAcquisitionStatus(p.Status) {
		return nil, fmt.Errorf("acquisition status %q: %w", p.Status, common.ErrInvalidInput)
	}
	if p.Status == constants.AcquisitionError && p.Diagnostic == "" {
		return nil, fmt.Errorf("error status requires a diagnostic: %w", common.ErrInvalidInput)
	}

	if existing, err := r.GetBySourceID(ctx, p.SourceID); err == nil {
		if !constants.CanTransitionAcquisition(existing.AcquisitionStatus, p.Status) {
			r.log.Warn("rejected acquisition transition",
				"source_id", p.SourceID, "from", existing.AcquisitionStatus, "to", p.Status)
			return nil, fmt.Errorf("acquisition %s -> %s: %w",
				existing.AcquisitionStatus, p.Status, common.ErrInvalidTransition)
		}
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	var text, diag any
	if p.Status == constants.AcquisitionComplete {
		text = p.Text
	}
	if p.Diagnostic != "" {
		diag = p.Diagnostic
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents
			(source_id, name, relative_path, text, acquisition_status,
			 analysis_status, result, diagnostic, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULL, NULL, $6, $7, $7)
		ON CONFLICT(source_id) DO UPDATE SET
			name = excluded.name,
			relative_path = excluded.relative_path,
			text = excluded.text,
			acquisition_status = excluded.acquisition_status,
			analysis_status = NULL,
			result = NULL,
			diagnostic = excluded.diagnostic,
			updated_at = excluded.updated_at`,
		p.SourceID, p.Name, p.RelativePath, text, string(p.Status), diag, now)
	if err != nil {
		r.log.Error("document upsert failed", "source_id", p.SourceID, "error", err)
		return nil, common.WrapError(err, "upsert document")
	}

	r.log.Info("document acquired", "source_id", p.SourceID, "name", p.Name, "status", p.Status)
	return r.GetBySourceID(ctx, p.SourceID)
}

func (r *documentRepo) ListReadyForAnalysis(ctx context.Context) ([]*Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source_id, name, relative_path, text,
		       acquisition_status, analysis_status, result, diagnostic
		FROM documents
		WHERE acquisition_status = $1
		  AND (analysis_status IS NULL OR analysis_status = $2)
		ORDER BY source_id`,
		string(constants.AcquisitionComplete), string(constants.AnalysisError))
	if err != nil {
		return nil, common.WrapError(err, "list ready documents")
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *documentRepo) UpdateAnalysis(ctx context.Context, sourceID string, result json.RawMessage, status constants.AnalysisStatus, diagnostic string) error {
	if !constants.ValidAnalysisStatus(status) || status == constants.AnalysisNone {
		return fmt.Errorf("analysis status %q: %w", status, common.ErrInvalidInput)
	}
	if status == constants.AnalysisComplete && len(result) == 0 {
		return fmt.Errorf("complete status requires a result: %w", common.ErrInvalidInput)
	}
	if status == constants.AnalysisError && diagnostic == "" {
		return fmt.Errorf("error status requires a diagnostic: %w", common.ErrInvalidInput)
	}

	existing, err := r.GetBySourceID(ctx, sourceID)
	if err != nil {
		return err
	}
	if !constants.CanTransitionAnalysis(existing.AnalysisStatus, status) {
		r.log.Warn("rejected analysis transition",
			"source_id", sourceID, "from", existing.AnalysisStatus, "to", status)
		return fmt.Errorf("analysis %s -> %s: %w", existing.AnalysisStatus, status, common.ErrInvalidTransition)
	}

	// result only persists alongside complete; diagnostic only on error
	var res, diag any
	if status == constants.AnalysisComplete {
		res = string(result)
	}
	if status == constants.AnalysisError {
		diag = diagnostic
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE documents
		SET analysis_status = $1, result = $2, diagnostic = $3, updated_at = $4
		WHERE source_id = $5`,
		string(status), res, diag, time.Now().UTC(), sourceID)
	if err != nil {
		r.log.Error("analysis update failed", "source_id", sourceID, "error", err)
		return common.WrapError(err, "update analysis")
	}

	r.log.Info("analysis recorded", "source_id", sourceID, "status", status)
	return nil
}

func (r *documentRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT acquisition_status, COALESCE(analysis_status, ''), COUNT(*)
		FROM documents
		GROUP BY acquisition_status, analysis_status`)
	if err != nil {
		return nil, common.WrapError(err, "count documents")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var acq, ana string
		var n int
		if err := rows.Scan(&acq, &ana, &n); err != nil {
			return nil, err
		}
		key := "acquisition:" + acq
		if ana != "" {
			key += " analysis:" + ana
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var d Document
	var text, analysis, result, diag sql.NullString
	err := row.Scan(&d.SourceID, &d.Name, &d.RelativePath, &text,
		(*string)(&d.AcquisitionStatus), &analysis, &result, &diag)
	if err != nil {
		return nil, err
	}
	if text.Valid {
		d.Text = &text.String
	}
	if analysis.Valid {
		d.AnalysisStatus = constants.AnalysisStatus(analysis.String)
	}
	if result.Valid {
		d.Result = json.RawMessage(result.String)
	}
	if diag.Valid {
		d.Diagnostic = &diag.String
	}
	return &d, nil
}
