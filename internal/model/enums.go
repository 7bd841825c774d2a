package model

type SourceFormat string

const (
	SourceFormatSpreadsheet SourceFormat = "spreadsheet"
	SourceFormatScanned     SourceFormat = "scanned_document"
)

type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusMapping    SessionStatus = "mapping"
	SessionStatusValidating SessionStatus = "validating"
	SessionStatusReady      SessionStatus = "ready"
)

// Import wizard steps.
const (
	StepUploaded  = 1
	StepMapped    = 2
	StepValidated = 3
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// DiagnosticScope distinguishes findings about a single row from findings
// about the batch as a whole, instead of overloading a row index sentinel.
type DiagnosticScope string

const (
	ScopeRow   DiagnosticScope = "row"
	ScopeBatch DiagnosticScope = "batch"
)

type DiagnosticCode string

const (
	DiagRowError             DiagnosticCode = "ROW_VALIDATION_ERROR"
	DiagRowWarning           DiagnosticCode = "ROW_VALIDATION_WARNING"
	DiagDuplicateUnit        DiagnosticCode = "DUPLICATE_UNIT"
	DiagQuotaSumMismatch     DiagnosticCode = "QUOTA_SUM_MISMATCH"
	DiagMultiOwnerDetected   DiagnosticCode = "MULTI_OWNER_DETECTED"
	DiagExistingUnitConflict DiagnosticCode = "EXISTING_UNIT_CONFLICT"
)
