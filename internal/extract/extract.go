// Package extract turns one uploaded roster file into a header row and a
// rectangular matrix of data rows, regardless of whether the source is a
// spreadsheet or a scanned table recovered through OCR.
package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/habitra/import-server-go/internal/config"
	apperrors "github.com/habitra/import-server-go/internal/errors"
	"github.com/habitra/import-server-go/internal/model"
	"github.com/habitra/import-server-go/internal/ocr"
)

// Header heuristic bounds: scan at most headerScanLimit rows and accept the
// first one with at least headerMinCells non-empty cells.
const (
	headerScanLimit = 20
	headerMinCells  = 3
)

var spreadsheetExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
}

const scannedExtension = ".pdf"

// Recognizer is the OCR collaborator dependency of the scanned-document path.
type Recognizer interface {
	Recognize(ctx context.Context, filename string, data []byte) (*ocr.Result, error)
}

type Result struct {
	Format     model.SourceFormat
	Sheets     model.SheetCatalog
	SheetName  string
	Headers    []string
	Rows       [][]string
	TotalRows  int
	Confidence *float64
}

type Engine struct {
	recognizer Recognizer
}

func NewEngine(recognizer Recognizer) *Engine {
	return &Engine{recognizer: recognizer}
}

// FromFile extracts headers and data rows from one uploaded file. The size
// guard runs before any parsing; unsupported extensions are rejected without
// touching the payload.
func (e *Engine) FromFile(ctx context.Context, filename string, data []byte, selectedSheet string) (*Result, error) {
	if int64(len(data)) > config.MaxUploadFileSize {
		return nil, apperrors.FileTooLarge(config.MaxUploadFileSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case spreadsheetExtensions[ext]:
		return extractSpreadsheet(data, selectedSheet)
	case ext == scannedExtension:
		return e.extractScanned(ctx, filename, data)
	default:
		return nil, apperrors.UnsupportedFormat(filename)
	}
}

// locateHeader returns the index of the header row, or -1.
func locateHeader(rows [][]string) int {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		if countNonEmpty(rows[i]) >= headerMinCells {
			return i
		}
	}
	return -1
}

// dataRows drops rows that are entirely empty.
func dataRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if countNonEmpty(row) > 0 {
			out = append(out, row)
		}
	}
	return out
}

func countNonEmpty(row []string) int {
	n := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			n++
		}
	}
	return n
}
