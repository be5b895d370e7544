package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/meta"
	"github.com/ocohenran/adcraft/internal/models"
	"github.com/ocohenran/adcraft/internal/publish"
)

// BulkPublishHandler creates a paused campaign, ad set and one ad per
// template item. On any platform failure everything created so far is rolled
// back and the root cause is returned.
func (s *Server) BulkPublishHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "ads_bulk"
	const method = "POST"

	token, ok := s.requireToken(w)
	if !ok {
		s.Metrics.IncrementRequests(endpoint, method, "401")
		return
	}

	var tpl models.CampaignTemplate
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		s.Metrics.IncrementRequests(endpoint, method, "400")
		return
	}

	result, err := s.Orchestrator.Publish(r.Context(), token, tpl)
	if err != nil {
		status, body := publishErrorResponse(err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
		s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		return
	}

	s.Logger.Info("bulk publish succeeded",
		zap.String("campaign_id", result.CampaignID),
		zap.Int("ads", len(result.Ads)))
	writeJSON(w, result)
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}

// publishErrorResponse maps orchestration failures to HTTP responses. A
// validation error means nothing was attempted; anything else means the run
// failed and partial objects were rolled back.
func publishErrorResponse(err error) (int, errorResponse) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, errorResponse{Error: verr.Error()}
	}
	if errors.Is(err, publish.ErrLedgerWrite) {
		return http.StatusInternalServerError, errorResponse{
			Error: "ads were published but recording them failed; they stay live on the platform",
		}
	}
	msg := err.Error()
	if apiErr, ok := meta.AsAPIError(err); ok && apiErr.UserMessage != "" {
		msg = apiErr.UserMessage
	}
	return http.StatusBadGateway, errorResponse{
		Error:      msg + " (partially created objects were rolled back)",
		RolledBack: true,
	}
}
