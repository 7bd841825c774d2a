package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/habitra/import-server-go/internal/config"
	apperrors "github.com/habitra/import-server-go/internal/errors"
	"github.com/habitra/import-server-go/internal/middleware"
	"github.com/habitra/import-server-go/internal/model"
	"github.com/habitra/import-server-go/internal/service"
	"github.com/habitra/import-server-go/internal/util"
)

type ImportHandler struct {
	importService *service.ImportService
}

func NewImportHandler(importService *service.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

func (h *ImportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Upload)
	r.Get("/{sessionID}", h.Get)
	r.Put("/{sessionID}/mapping", h.SetMapping)
	r.Post("/{sessionID}/validate", h.Validate)
	r.Delete("/{sessionID}", h.Cancel)

	return r
}

// POST /v1/imports
// Multipart upload of one roster file; creates an import session.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeError(w, apperrors.Unauthorized("Missing account"))
		return
	}

	if err := r.ParseMultipartForm(config.MaxRequestBodySize); err != nil {
		writeError(w, apperrors.InvalidInput("body", "expected multipart form data"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.MissingRequired("file"))
		return
	}
	defer file.Close()

	if header.Size > config.MaxUploadFileSize {
		writeError(w, apperrors.FileTooLarge(config.MaxUploadFileSize))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, config.MaxUploadFileSize+1))
	if err != nil {
		writeError(w, apperrors.Internal("Failed to read uploaded file"))
		return
	}

	result, err := h.importService.Upload(r.Context(), account, header.Filename, data, r.FormValue("sheet"))
	if err != nil {
		logServiceError(err, "upload failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// PUT /v1/imports/{sessionID}/mapping
func (h *ImportHandler) SetMapping(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeError(w, apperrors.Unauthorized("Missing account"))
		return
	}

	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Mapping map[string]string `json:"mapping"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}
	if len(req.Mapping) == 0 {
		writeError(w, apperrors.MissingRequired("mapping"))
		return
	}

	session, err := h.importService.SetMapping(r.Context(), account, sessionID, req.Mapping)
	if err != nil {
		logServiceError(err, "set mapping failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionSummary(session))
}

// POST /v1/imports/{sessionID}/validate
// No body: validation always recomputes from the stored mapping and rows.
func (h *ImportHandler) Validate(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeError(w, apperrors.Unauthorized("Missing account"))
		return
	}

	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	summary, err := h.importService.Validate(r.Context(), account, sessionID)
	if err != nil {
		logServiceError(err, "validation failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// GET /v1/imports/{sessionID}
func (h *ImportHandler) Get(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeError(w, apperrors.Unauthorized("Missing account"))
		return
	}

	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	session, err := h.importService.Get(r.Context(), account, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionSummary(session))
}

// DELETE /v1/imports/{sessionID}
func (h *ImportHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeError(w, apperrors.Unauthorized("Missing account"))
		return
	}

	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	if err := h.importService.Cancel(r.Context(), account, sessionID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sessionIDParam validates the path parameter. A malformed id maps to the
// same not-found error as an unknown one.
func sessionIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	if !util.IsValidUUID(sessionID) {
		writeError(w, apperrors.SessionNotFound())
		return "", false
	}
	return sessionID, true
}

func sessionSummary(session *model.ImportSession) map[string]any {
	return map[string]any{
		"id":             session.ID,
		"sourceFormat":   session.SourceFormat,
		"sourceFileName": session.SourceFileName,
		"selectedSheet":  session.SelectedSheet,
		"sheets":         session.Sheets,
		"headers":        session.RawHeaders,
		"columnMapping":  session.ColumnMapping,
		"normalizedRows": session.NormalizedRows,
		"diagnostics":    session.Diagnostics,
		"ocrConfidence":  session.OCRConfidence,
		"step":           session.Step,
		"status":         session.Status,
		"version":        session.Version,
		"createdAt":      session.CreatedAt,
		"updatedAt":      session.UpdatedAt,
	}
}

func logServiceError(err error, msg string) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		switch appErr.Code {
		case apperrors.ErrCodeInternal, apperrors.ErrCodeDatabase, apperrors.ErrCodeExternal:
			log.Error().Err(err).Msg(msg)
		default:
			log.Debug().Err(err).Msg(msg)
		}
		return
	}
	log.Error().Err(err).Msg(msg)
}
