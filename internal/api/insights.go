package api

import (
	"net/http"
	"time"
)

// InsightsHandler returns one row per ledger record, joined with live
// platform status and metrics. Per-row fetch failures degrade the row, never
// the report.
func (s *Server) InsightsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "insights"
	const method = "GET"

	token, ok := s.requireToken(w)
	if !ok {
		s.Metrics.IncrementRequests(endpoint, method, "401")
		return
	}

	campaignID := r.URL.Query().Get("campaignId")
	views := s.Insights.Report(r.Context(), token, campaignID)
	writeJSON(w, views)

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
