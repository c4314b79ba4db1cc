// Package export materializes run output: a streaming JSONL audit log of
// candidate snippets and an XLSX workbook of extracted rows with a sparse
// union-of-fields column set.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/solarplanninganalytics/docket/constants"
	"github.com/solarplanninganalytics/docket/internal/rules"
)

// Row is one output record: a candidate block that yielded at least one field.
type Row struct {
	Filename         string
	RelativePath     string
	MeetingDateGuess string
	Page             int
	Fields           rules.Fields
}

// Snippet is one audit-log line, written for every candidate block whether or
// not it yielded fields.
type Snippet struct {
	Filename    string `json:"filename"`
	Page        int    `json:"page"`
	TextSnippet string `json:"text_snippet"`
}

// Sink streams snippets as they are produced and accumulates rows until the
// end of the run. Snippets already written survive a later failure.
type Sink struct {
	enc      *json.Encoder
	rows     []Row
	observed map[string]struct{}
	extras   []string // observed fields outside the fixed vocabulary, first-seen order
	snippets int
	logger   *slog.Logger
}

func NewSink(snippetW io.Writer, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		enc:      json.NewEncoder(snippetW),
		observed: make(map[string]struct{}),
		logger:   logger,
	}
}

// WriteSnippet appends one audit line immediately, truncating the text to the
// fixed snippet bound.
func (s *Sink) WriteSnippet(filename string, page int, text string) error {
	if len(text) > constants.MaxSnippetLength {
		text = text[:constants.MaxSnippetLength]
	}
	if err := s.enc.Encode(Snippet{Filename: filename, Page: page, TextSnippet: text}); err != nil {
		return fmt.Errorf("write snippet: %w", err)
	}
	s.snippets++
	return nil
}

// AddRow buffers one output row for the end-of-run workbook.
func (s *Sink) AddRow(row Row) {
	for k := range row.Fields {
		if _, ok := s.observed[k]; ok {
			continue
		}
		s.observed[k] = struct{}{}
		if !knownField(k) {
			s.extras = append(s.extras, k)
		}
	}
	s.rows = append(s.rows, row)
}

// RowCount and SnippetCount report sink totals for the run summary.
func (s *Sink) RowCount() int     { return len(s.rows) }
func (s *Sink) SnippetCount() int { return s.snippets }

// Header returns the workbook header: the fixed identification columns, then
// every observed field (fixed vocabulary order first, extras after).
func (s *Sink) Header() []string {
	header := []string{"filename", "relative_path", "meeting_date_guess", "page"}
	for _, f := range constants.FieldNames {
		if _, ok := s.observed[f]; ok {
			header = append(header, f)
		}
	}
	return append(header, s.extras...)
}

// WriteXLSX materializes the accumulated rows as a single-sheet workbook.
// Cells for fields a row did not yield are left blank.
func (s *Sink) WriteXLSX() ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Extractions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	header := s.Header()
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for rowIdx, row := range s.rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowIdx+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, row.Filename)
		write(2, row.RelativePath)
		write(3, row.MeetingDateGuess)
		write(4, row.Page)
		for i, field := range header[4:] {
			if v, ok := row.Fields[field]; ok {
				write(5+i, renderValue(v))
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 32) // filename
	_ = f.SetColWidth(sheet, "B", "B", 44) // relative path
	_ = f.SetColWidth(sheet, "C", "D", 14) // date, page
	if last, err := excelize.ColumnNumberToName(len(header)); err == nil && len(header) > 4 {
		_ = f.SetColWidth(sheet, "E", last, 28)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(s.rows),
		"columns", len(header),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func knownField(name string) bool {
	for _, f := range constants.FieldNames {
		if f == name {
			return true
		}
	}
	return false
}

// renderValue flattens short-list values for a single cell.
func renderValue(v any) any {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, " | ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, fmt.Sprintf("%v", e))
		}
		return strings.Join(parts, " | ")
	default:
		return v
	}
}
