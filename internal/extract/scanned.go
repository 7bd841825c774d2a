package extract

import (
	"context"
	"regexp"
	"strings"

	apperrors "github.com/habitra/import-server-go/internal/errors"
	"github.com/habitra/import-server-go/internal/model"
)

// Columns in OCR output are separated by a tab or a run of two or more
// whitespace characters; single spaces stay inside a cell.
var columnSeparator = regexp.MustCompile(`\t|\s{2,}`)

func (e *Engine) extractScanned(ctx context.Context, filename string, data []byte) (*Result, error) {
	recognized, err := e.recognizer.Recognize(ctx, filename, data)
	if err != nil {
		return nil, apperrors.ParseError("text recognition failed", err)
	}

	headers, rows := reconstructTable(recognized.Text)
	if headers == nil {
		return nil, apperrors.ParseError("no table structure recognized in document", nil)
	}

	confidence := recognized.MeanConfidence
	return &Result{
		Format:     model.SourceFormatScanned,
		Headers:    headers,
		Rows:       rows,
		TotalRows:  len(rows),
		Confidence: &confidence,
	}, nil
}

// reconstructTable rebuilds a header row and data rows from recognized text.
// The first line that splits into at least three tokens becomes the header;
// every later line with at least three tokens becomes a data row. Lines
// below that threshold are treated as OCR noise.
func reconstructTable(text string) (headers []string, rows [][]string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		tokens := splitColumns(line)
		if len(tokens) < headerMinCells {
			continue
		}

		if headers == nil {
			headers = tokens
			continue
		}
		rows = append(rows, tokens)
	}
	return headers, rows
}

func splitColumns(line string) []string {
	parts := columnSeparator.Split(line, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func trimCell(cell string) string {
	return strings.TrimSpace(cell)
}
