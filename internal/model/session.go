package model

import "time"

type SheetInfo struct {
	Name     string `json:"name"`
	RowCount int    `json:"rowCount"`
}

type ImportSession struct {
	ID             string         `db:"id" json:"id"`
	TenantID       string         `db:"tenant_id" json:"tenantId"`
	AccountID      string         `db:"account_id" json:"accountId"`
	SourceFormat   SourceFormat   `db:"source_format" json:"sourceFormat"`
	SourceFileName string         `db:"source_file_name" json:"sourceFileName"`
	SelectedSheet  *string        `db:"selected_sheet" json:"selectedSheet,omitempty"`
	Sheets         SheetCatalog   `db:"sheets" json:"sheets"`
	RawHeaders     StringList     `db:"raw_headers" json:"rawHeaders"`
	RawRows        RawRows        `db:"raw_rows" json:"-"`
	ColumnMapping  ColumnMapping  `db:"column_mapping" json:"columnMapping"`
	NormalizedRows NormalizedRows `db:"normalized_rows" json:"normalizedRows"`
	Diagnostics    Diagnostics    `db:"diagnostics" json:"diagnostics"`
	OCRConfidence  *float64       `db:"ocr_confidence" json:"ocrConfidence,omitempty"`
	Step           int            `db:"step" json:"step"`
	Status         SessionStatus  `db:"status" json:"status"`
	Version        int64          `db:"version" json:"version"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

type CreateImportSessionParams struct {
	TenantID       string
	AccountID      string
	SourceFormat   SourceFormat
	SourceFileName string
	SelectedSheet  *string
	Sheets         SheetCatalog
	RawHeaders     StringList
	RawRows        RawRows
	OCRConfidence  *float64
}

// NormalizedRow is one mapped and normalized roster row. Pointer fields are
// absent when the source column was unmapped or the cell was empty.
type NormalizedRow struct {
	UnitNumber       string   `json:"unitNumber"`
	UnitType         string   `json:"unitType,omitempty"`
	Block            string   `json:"block,omitempty"`
	Floor            *int     `json:"floor,omitempty"`
	Area             *float64 `json:"area,omitempty"`
	Rooms            *int     `json:"rooms,omitempty"`
	Occupants        int      `json:"occupants"`
	OwnershipQuota   *float64 `json:"ownershipQuota,omitempty"`
	CadastralNumber  string   `json:"cadastralNumber,omitempty"`
	OwnerName        string   `json:"ownerName,omitempty"`
	OwnerEmail       string   `json:"ownerEmail,omitempty"`
	OwnerPhone       string   `json:"ownerPhone,omitempty"`
	ColdMeterSerial  string   `json:"coldMeterSerial,omitempty"`
	ColdMeterReading *float64 `json:"coldMeterReading,omitempty"`
	HotMeterSerial   string   `json:"hotMeterSerial,omitempty"`
	HotMeterReading  *float64 `json:"hotMeterReading,omitempty"`
}

// Diagnostic is a single validation finding. Row-scoped diagnostics carry a
// 1-based RowNumber; batch-scoped diagnostics never do.
type Diagnostic struct {
	Severity  Severity        `json:"severity"`
	Scope     DiagnosticScope `json:"scope"`
	RowNumber int             `json:"rowNumber,omitempty"`
	Field     string          `json:"field,omitempty"`
	Code      DiagnosticCode  `json:"code"`
	Message   string          `json:"message"`
	RawValue  string          `json:"rawValue,omitempty"`
}

func RowError(rowNumber int, field string, message, rawValue string) Diagnostic {
	return Diagnostic{
		Severity:  SeverityError,
		Scope:     ScopeRow,
		RowNumber: rowNumber,
		Field:     field,
		Code:      DiagRowError,
		Message:   message,
		RawValue:  rawValue,
	}
}

func RowWarning(rowNumber int, field string, message, rawValue string) Diagnostic {
	return Diagnostic{
		Severity:  SeverityWarning,
		Scope:     ScopeRow,
		RowNumber: rowNumber,
		Field:     field,
		Code:      DiagRowWarning,
		Message:   message,
		RawValue:  rawValue,
	}
}

func BatchDiagnostic(severity Severity, code DiagnosticCode, field, message string) Diagnostic {
	return Diagnostic{
		Severity: severity,
		Scope:    ScopeBatch,
		Field:    field,
		Code:     code,
		Message:  message,
	}
}
