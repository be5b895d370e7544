package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/copygen"
)

// GenerateCopyHandler produces copy variations for a brief. With a copy
// service configured the LLM writes them; otherwise the local template bank
// fills in.
func (s *Server) GenerateCopyHandler(w http.ResponseWriter, r *http.Request) {
	var brief copygen.Brief
	if err := json.NewDecoder(r.Body).Decode(&brief); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if brief.Product == "" {
		writeError(w, http.StatusBadRequest, "product is required")
		return
	}

	if s.Copy == nil {
		writeJSON(w, copygen.FillTemplates(brief))
		return
	}

	variations, err := s.Copy.Generate(r.Context(), brief)
	if err != nil {
		switch {
		case errors.Is(err, copygen.ErrOverloaded):
			writeError(w, http.StatusServiceUnavailable, "copy service is overloaded, try again shortly")
		case errors.Is(err, copygen.ErrInvalidKey):
			writeError(w, http.StatusBadGateway, "copy service rejected the configured key")
		default:
			s.Logger.Error("copy generation failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "copy generation failed")
		}
		return
	}
	writeJSON(w, variations)
}
