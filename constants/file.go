package constants

import "strings"

// AllowedExtensions holds the file extensions eligible for acquisition.
// Input documents are scanned meeting minutes and staff reports, PDF only.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// AllowedExt reports whether a normalized extension is accepted for ingestion.
func AllowedExt(ext string) bool {
	_, ok := AllowedExtensions[ext]
	return ok
}

// PageSeparator joins per-page text when a document is stored as a single
// ledger column. pdftotext uses the same form-feed convention.
const PageSeparator = "\f"
