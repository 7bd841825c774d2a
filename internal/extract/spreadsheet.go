package extract

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/habitra/import-server-go/internal/errors"
	"github.com/habitra/import-server-go/internal/model"
)

func extractSpreadsheet(data []byte, selectedSheet string) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.ParseError("corrupt or unreadable workbook", err)
	}
	defer f.Close()

	sheetNames := f.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, apperrors.ParseError("workbook has no sheets", nil)
	}

	catalog := make(model.SheetCatalog, 0, len(sheetNames))
	for _, name := range sheetNames {
		rows, err := f.GetRows(name)
		if err != nil {
			rows = nil
		}
		catalog = append(catalog, model.SheetInfo{Name: name, RowCount: len(rows)})
	}

	active := sheetNames[0]
	if selectedSheet != "" {
		if !containsSheet(sheetNames, selectedSheet) {
			return nil, apperrors.InvalidInput("sheet", "no such sheet in workbook")
		}
		active = selectedSheet
	}

	rows, err := f.GetRows(active)
	if err != nil {
		return nil, apperrors.ParseError("could not read sheet", err)
	}

	headerIdx := locateHeader(rows)
	if headerIdx < 0 {
		return nil, apperrors.ParseError("no header row found in the first 20 rows", nil)
	}

	body := dataRows(rows[headerIdx+1:])
	return &Result{
		Format:    model.SourceFormatSpreadsheet,
		Sheets:    catalog,
		SheetName: active,
		Headers:   trimRow(rows[headerIdx]),
		Rows:      body,
		TotalRows: len(body),
	}, nil
}

func containsSheet(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func trimRow(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = trimCell(cell)
	}
	return out
}
