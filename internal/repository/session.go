package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/habitra/import-server-go/internal/model"
)

type ImportSessionRepository interface {
	// FindOwned returns the session only when it belongs to the given
	// tenant and account; a foreign session reads as missing.
	FindOwned(ctx context.Context, id, tenantID, accountID string) (*model.ImportSession, error)
	Create(ctx context.Context, params model.CreateImportSessionParams) (*model.ImportSession, error)
	// UpdateMapping and UpdateValidation check the expected version and
	// report sql.ErrNoRows-like misses as (nil, false, nil): the caller
	// distinguishes a concurrent write from a vanished session.
	UpdateMapping(ctx context.Context, id string, version int64, columnMapping model.ColumnMapping, status model.SessionStatus, step int) (*model.ImportSession, bool, error)
	UpdateValidation(ctx context.Context, id string, version int64, rows model.NormalizedRows, diagnostics model.Diagnostics, status model.SessionStatus, step int) (*model.ImportSession, bool, error)
	Delete(ctx context.Context, id, tenantID, accountID string) (bool, error)
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
}

type importSessionRepo struct {
	db *sqlx.DB
}

func NewImportSessionRepository(db *sqlx.DB) ImportSessionRepository {
	return &importSessionRepo{db: db}
}

func (r *importSessionRepo) FindOwned(ctx context.Context, id, tenantID, accountID string) (*model.ImportSession, error) {
	var session model.ImportSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM import_sessions
		WHERE id = $1 AND tenant_id = $2 AND account_id = $3
	`, id, tenantID, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *importSessionRepo) Create(ctx context.Context, params model.CreateImportSessionParams) (*model.ImportSession, error) {
	var session model.ImportSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO import_sessions (
			id, tenant_id, account_id, source_format, source_file_name,
			selected_sheet, sheets, raw_headers, raw_rows, column_mapping,
			normalized_rows, diagnostics, ocr_confidence, step, status, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '{}', '[]', '[]', $10, $11, $12, 1)
		RETURNING *
	`, uuid.NewString(), params.TenantID, params.AccountID, params.SourceFormat,
		params.SourceFileName, params.SelectedSheet, params.Sheets, params.RawHeaders,
		params.RawRows, params.OCRConfidence, model.StepUploaded, model.SessionStatusPending)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *importSessionRepo) UpdateMapping(ctx context.Context, id string, version int64, columnMapping model.ColumnMapping, status model.SessionStatus, step int) (*model.ImportSession, bool, error) {
	var session model.ImportSession
	err := r.db.GetContext(ctx, &session, `
		UPDATE import_sessions SET
			column_mapping = $3,
			normalized_rows = '[]',
			diagnostics = '[]',
			status = $4,
			step = $5,
			version = version + 1,
			updated_at = $6
		WHERE id = $1 AND version = $2
		RETURNING *
	`, id, version, columnMapping, status, step, time.Now())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &session, true, nil
}

func (r *importSessionRepo) UpdateValidation(ctx context.Context, id string, version int64, rows model.NormalizedRows, diagnostics model.Diagnostics, status model.SessionStatus, step int) (*model.ImportSession, bool, error) {
	var session model.ImportSession
	err := r.db.GetContext(ctx, &session, `
		UPDATE import_sessions SET
			normalized_rows = $3,
			diagnostics = $4,
			status = $5,
			step = $6,
			version = version + 1,
			updated_at = $7
		WHERE id = $1 AND version = $2
		RETURNING *
	`, id, version, rows, diagnostics, status, step, time.Now())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &session, true, nil
}

func (r *importSessionRepo) Delete(ctx context.Context, id, tenantID, accountID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM import_sessions
		WHERE id = $1 AND tenant_id = $2 AND account_id = $3
	`, id, tenantID, accountID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *importSessionRepo) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM import_sessions WHERE updated_at < $1
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
