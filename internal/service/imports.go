package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/habitra/import-server-go/internal/audit"
	"github.com/habitra/import-server-go/internal/config"
	apperrors "github.com/habitra/import-server-go/internal/errors"
	"github.com/habitra/import-server-go/internal/extract"
	"github.com/habitra/import-server-go/internal/mapping"
	"github.com/habitra/import-server-go/internal/model"
	"github.com/habitra/import-server-go/internal/repository"
	"github.com/habitra/import-server-go/internal/validate"
)

// Extractor is the extraction engine dependency.
type Extractor interface {
	FromFile(ctx context.Context, filename string, data []byte, selectedSheet string) (*extract.Result, error)
}

type ImportService struct {
	sessions  repository.ImportSessionRepository
	units     repository.UnitRepository
	extractor Extractor
}

func NewImportService(
	sessions repository.ImportSessionRepository,
	units repository.UnitRepository,
	extractor Extractor,
) *ImportService {
	return &ImportService{
		sessions:  sessions,
		units:     units,
		extractor: extractor,
	}
}

type UploadResult struct {
	SessionID        string                   `json:"sessionId"`
	SourceFormat     model.SourceFormat       `json:"sourceFormat"`
	Sheets           model.SheetCatalog       `json:"sheets,omitempty"`
	SheetName        string                   `json:"sheetName,omitempty"`
	Headers          []string                 `json:"headers"`
	PreviewRows      [][]string               `json:"previewRows"`
	TotalRows        int                      `json:"totalRows"`
	SuggestedMapping map[string]mapping.Field `json:"suggestedMapping"`
	OCRConfidence    *float64                 `json:"ocrConfidence,omitempty"`
}

type ValidationSummary struct {
	Errors         model.Diagnostics   `json:"errors"`
	Warnings       model.Diagnostics   `json:"warnings"`
	ValidRowsCount int                 `json:"validRowsCount"`
	Status         model.SessionStatus `json:"status"`
}

// Upload runs the extraction engine over the uploaded file and creates a new
// import session for the caller. Extraction failures leave no session behind.
func (s *ImportService) Upload(ctx context.Context, account *model.Account, filename string, data []byte, selectedSheet string) (*UploadResult, error) {
	extracted, err := s.extractor.FromFile(ctx, filename, data, selectedSheet)
	if err != nil {
		return nil, err
	}

	var sheet *string
	if extracted.SheetName != "" {
		sheet = &extracted.SheetName
	}

	session, err := s.sessions.Create(ctx, model.CreateImportSessionParams{
		TenantID:       account.TenantID,
		AccountID:      account.ID,
		SourceFormat:   extracted.Format,
		SourceFileName: filename,
		SelectedSheet:  sheet,
		Sheets:         extracted.Sheets,
		RawHeaders:     extracted.Headers,
		RawRows:        extracted.Rows,
		OCRConfidence:  extracted.Confidence,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	audit.LogEvent(ctx, audit.Event{
		Type:      audit.EventImportUploaded,
		TenantID:  account.TenantID,
		AccountID: account.ID,
		SessionID: session.ID,
		Details: map[string]any{
			"fileName":  filename,
			"format":    string(extracted.Format),
			"totalRows": extracted.TotalRows,
		},
	})

	preview := extracted.Rows
	if len(preview) > config.PreviewRowCount {
		preview = preview[:config.PreviewRowCount]
	}

	return &UploadResult{
		SessionID:        session.ID,
		SourceFormat:     extracted.Format,
		Sheets:           extracted.Sheets,
		SheetName:        extracted.SheetName,
		Headers:          extracted.Headers,
		PreviewRows:      preview,
		TotalRows:        extracted.TotalRows,
		SuggestedMapping: mapping.Suggest(extracted.Headers),
		OCRConfidence:    extracted.Confidence,
	}, nil
}

// SetMapping stores a confirmed column mapping. Resubmission before the
// session is ready replaces the previous mapping and resets everything
// derived from it; a ready session only accepts cancel.
func (s *ImportService) SetMapping(ctx context.Context, account *model.Account, sessionID string, columnMapping map[string]string) (*model.ImportSession, error) {
	session, err := s.findOwned(ctx, account, sessionID)
	if err != nil {
		return nil, err
	}

	// Status never moves backwards: once READY the only way out is cancel.
	if session.Status == model.SessionStatusReady {
		return nil, apperrors.SessionAlreadyReady()
	}

	if !mapsRequiredField(columnMapping) {
		return nil, apperrors.MappingIncomplete(string(mapping.RequiredField))
	}

	updated, ok, err := s.sessions.UpdateMapping(ctx, session.ID, session.Version,
		columnMapping, model.SessionStatusMapping, model.StepMapped)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if !ok {
		return nil, s.conflictOrMissing(ctx, account, sessionID)
	}

	log.Info().
		Str("sessionId", session.ID).
		Int("mappedColumns", len(columnMapping)).
		Msg("column mapping confirmed")

	return updated, nil
}

// Validate recomputes normalized rows and diagnostics from scratch and
// persists them, replacing any previous run.
func (s *ImportService) Validate(ctx context.Context, account *model.Account, sessionID string) (*ValidationSummary, error) {
	session, err := s.findOwned(ctx, account, sessionID)
	if err != nil {
		return nil, err
	}

	if len(session.ColumnMapping) == 0 {
		return nil, apperrors.MappingIncomplete(string(mapping.RequiredField))
	}

	result, err := validate.Run(ctx, session.TenantID, session.RawHeaders, session.RawRows, session.ColumnMapping, s.units)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	status := model.SessionStatusValidating
	if result.Ready {
		status = model.SessionStatusReady
	}

	updated, ok, err := s.sessions.UpdateValidation(ctx, session.ID, session.Version,
		result.Rows, result.Diagnostics, status, model.StepValidated)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if !ok {
		return nil, s.conflictOrMissing(ctx, account, sessionID)
	}

	errs, warnings := splitBySeverity(result.Diagnostics)

	audit.LogEvent(ctx, audit.Event{
		Type:      audit.EventImportValidated,
		TenantID:  account.TenantID,
		AccountID: account.ID,
		SessionID: session.ID,
		Details: map[string]any{
			"status":    string(updated.Status),
			"errors":    len(errs),
			"warnings":  len(warnings),
			"validRows": result.ValidRows,
		},
	})

	return &ValidationSummary{
		Errors:         errs,
		Warnings:       warnings,
		ValidRowsCount: result.ValidRows,
		Status:         updated.Status,
	}, nil
}

// Get returns the caller's session.
func (s *ImportService) Get(ctx context.Context, account *model.Account, sessionID string) (*model.ImportSession, error) {
	return s.findOwned(ctx, account, sessionID)
}

// Cancel deletes the session. Only the owner within the owning tenant can;
// anyone else sees the same miss as for an unknown id.
func (s *ImportService) Cancel(ctx context.Context, account *model.Account, sessionID string) error {
	deleted, err := s.sessions.Delete(ctx, sessionID, account.TenantID, account.ID)
	if err != nil {
		return apperrors.Database(err)
	}
	if !deleted {
		return apperrors.SessionNotFound()
	}

	audit.LogEvent(ctx, audit.Event{
		Type:      audit.EventImportCancelled,
		TenantID:  account.TenantID,
		AccountID: account.ID,
		SessionID: sessionID,
	})
	return nil
}

// PurgeStale removes sessions untouched since the cutoff. Called by the
// cleanup job.
func (s *ImportService) PurgeStale(ctx context.Context, olderThan time.Time) (int64, error) {
	return s.sessions.DeleteStale(ctx, olderThan)
}

func (s *ImportService) findOwned(ctx context.Context, account *model.Account, sessionID string) (*model.ImportSession, error) {
	session, err := s.sessions.FindOwned(ctx, sessionID, account.TenantID, account.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		// Missing and foreign sessions are deliberately indistinguishable.
		return nil, apperrors.SessionNotFound()
	}
	return session, nil
}

// conflictOrMissing decides what a failed version-checked update means: the
// session was either modified concurrently or deleted under us.
func (s *ImportService) conflictOrMissing(ctx context.Context, account *model.Account, sessionID string) error {
	session, err := s.sessions.FindOwned(ctx, sessionID, account.TenantID, account.ID)
	if err != nil {
		return apperrors.Database(err)
	}
	if session == nil {
		return apperrors.SessionNotFound()
	}
	return apperrors.SessionConflict()
}

func mapsRequiredField(columnMapping map[string]string) bool {
	for _, fieldKey := range columnMapping {
		if fieldKey == string(mapping.RequiredField) {
			return true
		}
	}
	return false
}

func splitBySeverity(diagnostics model.Diagnostics) (errs, warnings model.Diagnostics) {
	errs = model.Diagnostics{}
	warnings = model.Diagnostics{}
	for _, d := range diagnostics {
		if d.Severity == model.SeverityError {
			errs = append(errs, d)
		} else {
			warnings = append(warnings, d)
		}
	}
	return errs, warnings
}
