package ingest

import (
	"path/filepath"
	"strings"
)

const (
	TypeCSV     = "csv"
	TypeUnknown = "unknown"
)

// DetectType classifies an uploaded file by extension. Only event-log CSVs are
// accepted by the graph service.
func DetectType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return TypeCSV
	default:
		return TypeUnknown
	}
}
