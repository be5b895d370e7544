package publish

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/meta"
	"github.com/ocohenran/adcraft/internal/models"
	"github.com/ocohenran/adcraft/internal/observability"
)

// PlatformAPI is the slice of the ad platform client the orchestrator needs.
type PlatformAPI interface {
	CreateCampaign(ctx context.Context, token, name string) (string, error)
	CreateAdSet(ctx context.Context, token string, spec meta.AdSetSpec) (string, error)
	CreateCreative(ctx context.Context, token string, spec meta.CreativeSpec) (string, error)
	CreateAd(ctx context.Context, token string, spec meta.AdSpec) (string, error)
	DeleteObject(ctx context.Context, token, id string) error
}

// ErrLedgerWrite marks a run whose ads were all created but whose ledger
// record could not be written. The ads are live on the platform and are not
// rolled back.
var ErrLedgerWrite = errors.New("publication ledger write failed")

// LedgerAppender records successful publications.
type LedgerAppender interface {
	Append(records []models.PublicationRecord) error
}

// AdResult links one published ad back to its input variation.
type AdResult struct {
	AdID        string `json:"adId"`
	CreativeID  string `json:"creativeId"`
	VariationID string `json:"variationId"`
}

// Result is the outcome of a fully successful bulk publish.
type Result struct {
	CampaignID    string     `json:"campaignId"`
	AdSetID       string     `json:"adSetId"`
	Ads           []AdResult `json:"ads"`
	ManagementURL string     `json:"managementUrl"`
}

// createdObjects tracks every platform object as it is created, so that the
// rollback scope is always accurate to what actually exists server-side.
type createdObjects struct {
	campaignID  string
	adSetID     string
	creativeIDs []string
	adIDs       []string
}

// Orchestrator drives the bulk publish sequence: one campaign, one ad set,
// then one creative and ad per input item, strictly in order. Every object is
// created paused, so a crash mid-sequence cannot cause spend even before
// rollback completes.
//
// The orchestrator is not idempotent: retrying a failed run from the top
// creates a second campaign. Callers must not auto-retry.
type Orchestrator struct {
	platform    PlatformAPI
	ledger      LedgerAppender
	adAccountID string
	logger      *zap.Logger
	metrics     observability.MetricsRegistry
	now         func() time.Time
}

// NewOrchestrator constructs the bulk publish orchestrator.
func NewOrchestrator(platform PlatformAPI, ledger LedgerAppender, adAccountID string, logger *zap.Logger, metrics observability.MetricsRegistry) *Orchestrator {
	return &Orchestrator{
		platform:    platform,
		ledger:      ledger,
		adAccountID: adAccountID,
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Publish runs the full creation sequence for one campaign template. On any
// failure it deletes everything created so far in reverse order and returns
// the original error; the ledger is only written after every object exists.
func (o *Orchestrator) Publish(ctx context.Context, token string, tpl models.CampaignTemplate) (*Result, error) {
	if err := tpl.Validate(); err != nil {
		o.metrics.IncrementPublishRuns("validation_error")
		return nil, err
	}

	opID := uuid.NewString()
	logger := o.logger.With(zap.String("publish_op", opID), zap.String("campaign_name", tpl.CampaignName))

	result, created, err := o.createAll(ctx, token, tpl, logger)
	if err != nil {
		logger.Error("publish failed, rolling back", zap.Error(err),
			zap.Int("ads_created", len(created.adIDs)),
			zap.Int("creatives_created", len(created.creativeIDs)))
		o.rollback(ctx, token, created, logger)
		o.metrics.IncrementPublishRuns("rolled_back")
		return nil, err
	}

	records := make([]models.PublicationRecord, 0, len(tpl.Items))
	publishedAt := o.now().UTC()
	for i, item := range tpl.Items {
		records = append(records, models.PublicationRecord{
			VariationID: item.VariationID,
			AdID:        result.Ads[i].AdID,
			CampaignID:  result.CampaignID,
			AdSetID:     result.AdSetID,
			Headline:    item.Headline,
			Body:        item.Body,
			CTAText:     item.CTAType,
			PublishedAt: publishedAt,
		})
	}
	if err := o.ledger.Append(records); err != nil {
		// The platform objects exist and stay; losing the ledger write is
		// reported but never triggers rollback of real ads.
		logger.Error("ads published but ledger write failed", zap.Error(err),
			zap.String("campaign_id", result.CampaignID))
		o.metrics.IncrementPublishRuns("ledger_error")
		return nil, fmt.Errorf("%w: %v", ErrLedgerWrite, err)
	}

	o.metrics.IncrementPublishRuns("success")
	o.metrics.AddAdsPublished(len(result.Ads))
	logger.Info("publish complete",
		zap.String("campaign_id", result.CampaignID),
		zap.String("ad_set_id", result.AdSetID),
		zap.Int("ads", len(result.Ads)))
	return result, nil
}

func (o *Orchestrator) createAll(ctx context.Context, token string, tpl models.CampaignTemplate, logger *zap.Logger) (*Result, *createdObjects, error) {
	created := &createdObjects{}

	campaignID, err := o.platform.CreateCampaign(ctx, token, tpl.CampaignName)
	if err != nil {
		return nil, created, fmt.Errorf("create campaign: %w", err)
	}
	created.campaignID = campaignID
	logger.Debug("campaign created", zap.String("campaign_id", campaignID))

	adSetID, err := o.platform.CreateAdSet(ctx, token, meta.AdSetSpec{
		CampaignID:       campaignID,
		Name:             tpl.CampaignName + " - Ad Set",
		DailyBudgetCents: int64(math.Round(tpl.DailyBudgetUSD * 100)),
		Countries:        tpl.TargetCountries,
		StartTime:        o.now().Add(24 * time.Hour),
	})
	if err != nil {
		return nil, created, fmt.Errorf("create ad set: %w", err)
	}
	created.adSetID = adSetID
	logger.Debug("ad set created", zap.String("ad_set_id", adSetID))

	ads := make([]AdResult, 0, len(tpl.Items))
	for i, item := range tpl.Items {
		ctaType := item.CTAType
		if ctaType == "" {
			ctaType = tpl.DefaultCTAType
		}

		creativeID, err := o.platform.CreateCreative(ctx, token, meta.CreativeSpec{
			Name:      fmt.Sprintf("%s - Creative %d", tpl.CampaignName, i+1),
			PageID:    tpl.PageID,
			LinkURL:   tpl.LinkURL,
			ImageHash: item.ImageHash,
			Headline:  item.Headline,
			Body:      item.Body,
			CTAType:   ctaType,
		})
		if err != nil {
			return nil, created, fmt.Errorf("create creative for variation %s: %w", item.VariationID, err)
		}
		created.creativeIDs = append(created.creativeIDs, creativeID)

		adID, err := o.platform.CreateAd(ctx, token, meta.AdSpec{
			Name:       fmt.Sprintf("%s - Ad %d", tpl.CampaignName, i+1),
			AdSetID:    adSetID,
			CreativeID: creativeID,
		})
		if err != nil {
			return nil, created, fmt.Errorf("create ad for variation %s: %w", item.VariationID, err)
		}
		created.adIDs = append(created.adIDs, adID)

		ads = append(ads, AdResult{AdID: adID, CreativeID: creativeID, VariationID: item.VariationID})
	}

	return &Result{
		CampaignID:    campaignID,
		AdSetID:       adSetID,
		Ads:           ads,
		ManagementURL: fmt.Sprintf("https://adsmanager.facebook.com/adsmanager/manage/campaigns?act=%s&selected_campaign_ids=%s", o.adAccountID, campaignID),
	}, created, nil
}

// rollback best-effort deletes everything in created, in strict reverse
// dependency order: ads, then creatives, then the ad set, then the campaign.
// Delete failures are logged and swallowed; cleanup always runs to completion
// and never masks the error that triggered it.
func (o *Orchestrator) rollback(ctx context.Context, token string, created *createdObjects, logger *zap.Logger) {
	var ids []string
	for i := len(created.adIDs) - 1; i >= 0; i-- {
		ids = append(ids, created.adIDs[i])
	}
	for i := len(created.creativeIDs) - 1; i >= 0; i-- {
		ids = append(ids, created.creativeIDs[i])
	}
	if created.adSetID != "" {
		ids = append(ids, created.adSetID)
	}
	if created.campaignID != "" {
		ids = append(ids, created.campaignID)
	}

	for _, id := range ids {
		if err := o.platform.DeleteObject(ctx, token, id); err != nil {
			logger.Warn("rollback delete failed", zap.String("object_id", id), zap.Error(err))
			o.metrics.IncrementRollbackDeletes("failure")
			continue
		}
		o.metrics.IncrementRollbackDeletes("success")
	}
	logger.Info("rollback finished", zap.Int("objects", len(ids)))
}
