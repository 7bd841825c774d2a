package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/habitra/import-server-go/internal/template"
)

// TemplateHandler serves downloadable roster templates. It has no
// dependency on the import pipeline.
type TemplateHandler struct{}

func NewTemplateHandler() *TemplateHandler {
	return &TemplateHandler{}
}

func (h *TemplateHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/roster", h.Download)
	return r
}

// GET /v1/templates/roster?variant=standard|compat
func (h *TemplateHandler) Download(w http.ResponseWriter, r *http.Request) {
	variant, err := template.ParseVariant(r.URL.Query().Get("variant"))
	if err != nil {
		writeError(w, err)
		return
	}

	data, filename, err := template.Generate(variant)
	if err != nil {
		log.Error().Err(err).Str("variant", string(variant)).Msg("template generation failed")
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
