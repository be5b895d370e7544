package api

import (
	"net/http"

	"go.uber.org/zap"
)

// ListPagesHandler returns the pages the connected account manages, used by
// the editor to pick the page ads are published under.
func (s *Server) ListPagesHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := s.requireToken(w)
	if !ok {
		return
	}

	pages, err := s.Platform.ListPages(r.Context(), token)
	if err != nil {
		s.Logger.Error("list pages failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "could not list pages")
		return
	}
	writeJSON(w, pages)
}
