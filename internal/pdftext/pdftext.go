// Package pdftext extracts the native (embedded) text layer of a PDF,
// one string per page. Scanned documents with no text layer come back
// mostly empty; the OCR fallback handles those.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ledongthuc/pdf"
)

// Page is one page's extracted text.
type Page struct {
	PageNumber int
	Text       string
}

// ExtractFile reads path and returns per-page text.
func ExtractFile(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return Extract(data)
}

// Extract parses a PDF from memory and returns per-page text. A corrupt
// document yields an error for the whole file, never a partial result.
func Extract(data []byte) (pages []Page, err error) {
	// the parser panics on some malformed cross-reference tables; confine
	// that to this document
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf parse failed: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf parse failed: %w", err)
	}

	total := reader.NumPage()
	pages = make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{PageNumber: i})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// keep the page slot so page numbers stay aligned
			pages = append(pages, Page{PageNumber: i})
			continue
		}
		pages = append(pages, Page{PageNumber: i, Text: text})
	}
	return pages, nil
}

// TotalChars sums the text length across pages; used to decide whether the
// native layer is substantial enough to skip OCR.
func TotalChars(pages []Page) int {
	n := 0
	for _, p := range pages {
		n += len(p.Text)
	}
	return n
}

// ReadAll is a small helper for callers holding an io.Reader.
func ReadAll(r io.Reader) ([]Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Extract(data)
}
