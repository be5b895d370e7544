package insights

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/meta"
	"github.com/ocohenran/adcraft/internal/models"
	"github.com/ocohenran/adcraft/internal/observability"
)

// PlatformAPI is the slice of the ad platform client the aggregator needs.
type PlatformAPI interface {
	FetchAdStatus(ctx context.Context, token, adID string) (string, error)
	FetchInsights(ctx context.Context, token, adID string) (*meta.InsightsRow, error)
}

// LedgerLoader reads the publication history.
type LedgerLoader interface {
	Load() []models.PublicationRecord
}

// Aggregator joins ledger records with live platform state. Per-record
// fetches run concurrently; failure of any one fetch degrades that record
// instead of failing the report.
type Aggregator struct {
	platform PlatformAPI
	ledger   LedgerLoader
	logger   *zap.Logger
	metrics  observability.MetricsRegistry
}

// NewAggregator constructs the insights aggregator.
func NewAggregator(platform PlatformAPI, ledger LedgerLoader, logger *zap.Logger, metrics observability.MetricsRegistry) *Aggregator {
	return &Aggregator{platform: platform, ledger: ledger, logger: logger, metrics: metrics}
}

// Report returns one row per ledger record, filtered by campaignID when it is
// non-empty, in ledger order.
func (a *Aggregator) Report(ctx context.Context, token, campaignID string) []models.InsightsView {
	records := a.ledger.Load()
	if campaignID != "" {
		filtered := records[:0:0]
		for _, rec := range records {
			if rec.CampaignID == campaignID {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	views := make([]models.InsightsView, len(records))
	var wg sync.WaitGroup
	for i, rec := range records {
		wg.Add(1)
		go func(i int, rec models.PublicationRecord) {
			defer wg.Done()
			views[i] = a.fetchOne(ctx, token, rec)
		}(i, rec)
	}
	wg.Wait()
	return views
}

// fetchOne resolves live status and metrics for a single record. A failed
// status fetch means the object is gone on the platform side; a failed or
// empty insights fetch just leaves metrics absent.
func (a *Aggregator) fetchOne(ctx context.Context, token string, rec models.PublicationRecord) models.InsightsView {
	view := models.InsightsView{PublicationRecord: rec, Status: models.StatusUnknown}

	status, err := a.platform.FetchAdStatus(ctx, token, rec.AdID)
	if err != nil {
		a.logger.Debug("ad status unavailable, reporting deleted",
			zap.String("ad_id", rec.AdID), zap.Error(err))
		a.metrics.IncrementInsightFetches("status_error")
		view.Status = models.StatusDeleted
		return view
	}
	view.Status = mapStatus(status)

	row, err := a.platform.FetchInsights(ctx, token, rec.AdID)
	if err != nil {
		a.logger.Debug("insights unavailable for ad",
			zap.String("ad_id", rec.AdID), zap.Error(err))
		a.metrics.IncrementInsightFetches("metrics_error")
		return view
	}
	if row == nil {
		a.metrics.IncrementInsightFetches("no_data")
		return view
	}

	a.metrics.IncrementInsightFetches("success")
	view.Metrics = &models.AdMetrics{
		Impressions: parseInt(row.Impressions),
		Clicks:      parseInt(row.Clicks),
		Spend:       parseFloat(row.Spend),
		CTR:         parseFloat(row.CTR),
		Conversions: countConversions(row.Actions),
	}
	return view
}

func mapStatus(s string) models.AdStatus {
	switch s {
	case "ACTIVE":
		return models.StatusActive
	case "PAUSED", "ADSET_PAUSED", "CAMPAIGN_PAUSED":
		return models.StatusPaused
	case "DELETED", "ARCHIVED":
		return models.StatusDeleted
	default:
		return models.StatusUnknown
	}
}

// countConversions sums only offsite-conversion and lead actions; every other
// action type is ignored.
func countConversions(actions []meta.Action) int64 {
	var total int64
	for _, action := range actions {
		if strings.HasPrefix(action.ActionType, "offsite_conversion") || action.ActionType == "lead" {
			total += parseInt(action.Value)
		}
	}
	return total
}

// parseInt is deliberately forgiving: missing or malformed values count as 0
// and must never fail the row.
func parseInt(s string) int64 {
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return 0
}
