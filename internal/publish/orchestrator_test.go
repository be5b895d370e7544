package publish

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/meta"
	"github.com/ocohenran/adcraft/internal/models"
	"github.com/ocohenran/adcraft/internal/observability"
)

// fakePlatform scripts the platform client: deterministic ids, optional
// injected failures, and a record of every call in order.
type fakePlatform struct {
	campaignCalls int
	adSetCalls    int
	creativeCalls int
	adCalls       int

	failCampaign   bool
	failAdSet      bool
	failCreativeAt int // 1-based index of the creative call that fails
	failAdAt       int // 1-based index of the ad call that fails

	deleted      []string
	deleteErrors map[string]error
}

var errInjected = errors.New("platform rejected the request")

func (f *fakePlatform) CreateCampaign(ctx context.Context, token, name string) (string, error) {
	f.campaignCalls++
	if f.failCampaign {
		return "", errInjected
	}
	return "cmp-1", nil
}

func (f *fakePlatform) CreateAdSet(ctx context.Context, token string, spec meta.AdSetSpec) (string, error) {
	f.adSetCalls++
	if f.failAdSet {
		return "", errInjected
	}
	return "set-1", nil
}

func (f *fakePlatform) CreateCreative(ctx context.Context, token string, spec meta.CreativeSpec) (string, error) {
	f.creativeCalls++
	if f.failCreativeAt == f.creativeCalls {
		return "", errInjected
	}
	return fmt.Sprintf("cr-%d", f.creativeCalls), nil
}

func (f *fakePlatform) CreateAd(ctx context.Context, token string, spec meta.AdSpec) (string, error) {
	f.adCalls++
	if f.failAdAt == f.adCalls {
		return "", errInjected
	}
	return fmt.Sprintf("ad-%d", f.adCalls), nil
}

func (f *fakePlatform) DeleteObject(ctx context.Context, token, id string) error {
	f.deleted = append(f.deleted, id)
	if err, ok := f.deleteErrors[id]; ok {
		return err
	}
	return nil
}

type fakeLedger struct {
	records   []models.PublicationRecord
	appendErr error
}

func (l *fakeLedger) Append(records []models.PublicationRecord) error {
	if l.appendErr != nil {
		return l.appendErr
	}
	l.records = append(l.records, records...)
	return nil
}

func template(items ...string) models.CampaignTemplate {
	tpl := models.CampaignTemplate{
		CampaignName:    "Summer Sale",
		DailyBudgetUSD:  10,
		LinkURL:         "https://example.com",
		PageID:          "page-1",
		DefaultCTAType:  "SHOP_NOW",
		TargetCountries: []string{"US"},
	}
	for _, id := range items {
		tpl.Items = append(tpl.Items, models.CreativeInput{
			VariationID: id,
			ImageHash:   "hash-" + id,
			Headline:    "Headline " + id,
			Body:        "Body " + id,
			CTAType:     "SHOP_NOW",
		})
	}
	return tpl
}

func newOrchestrator(platform *fakePlatform, ledger *fakeLedger) *Orchestrator {
	return NewOrchestrator(platform, ledger, "12345", zap.NewNop(), observability.NewNoOpRegistry())
}

func TestPublishSuccess(t *testing.T) {
	platform := &fakePlatform{}
	ledger := &fakeLedger{}
	o := newOrchestrator(platform, ledger)

	res, err := o.Publish(context.Background(), "tok", template("A", "B", "C"))
	require.NoError(t, err)

	assert.Equal(t, 1, platform.campaignCalls)
	assert.Equal(t, 1, platform.adSetCalls)
	assert.Equal(t, 3, platform.creativeCalls)
	assert.Equal(t, 3, platform.adCalls)
	assert.Empty(t, platform.deleted)

	assert.Equal(t, "cmp-1", res.CampaignID)
	assert.Equal(t, "set-1", res.AdSetID)
	require.Len(t, res.Ads, 3)
	assert.Contains(t, res.ManagementURL, "cmp-1")

	require.Len(t, ledger.records, 3)
	got := map[string]string{}
	for _, rec := range ledger.records {
		got[rec.VariationID] = rec.AdID
		assert.Equal(t, "cmp-1", rec.CampaignID)
		assert.Equal(t, "set-1", rec.AdSetID)
		assert.False(t, rec.PublishedAt.IsZero())
	}
	assert.Equal(t, map[string]string{"A": "ad-1", "B": "ad-2", "C": "ad-3"}, got)
}

func TestPublishRejectsItemBoundsWithoutPlatformCalls(t *testing.T) {
	for _, n := range []int{0, models.MaxBulkItems + 1} {
		platform := &fakePlatform{}
		ledger := &fakeLedger{}
		o := newOrchestrator(platform, ledger)

		var items []string
		for i := 0; i < n; i++ {
			items = append(items, fmt.Sprintf("v%d", i))
		}

		_, err := o.Publish(context.Background(), "tok", template(items...))
		require.Error(t, err)

		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Zero(t, platform.campaignCalls, "no platform calls for %d items", n)
		assert.Zero(t, platform.adSetCalls)
		assert.Zero(t, platform.creativeCalls)
		assert.Zero(t, platform.adCalls)
		assert.Empty(t, ledger.records)
	}
}

func TestPublishRollsBackInReverseOrderAfterAdFailure(t *testing.T) {
	// Ad creation for the third item fails: two complete ad/creative pairs
	// plus the third creative exist and must all be deleted, ads first
	// (most-recent-first), then creatives, then the ad set, then the campaign.
	platform := &fakePlatform{failAdAt: 3}
	ledger := &fakeLedger{}
	o := newOrchestrator(platform, ledger)

	_, err := o.Publish(context.Background(), "tok", template("A", "B", "C"))
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, []string{"ad-2", "ad-1", "cr-3", "cr-2", "cr-1", "set-1", "cmp-1"}, platform.deleted)
	assert.Empty(t, ledger.records, "no partial ledger entries")
}

func TestPublishRollsBackAfterCreativeFailure(t *testing.T) {
	// Failure after exactly k=1 complete pair: deletes are the one ad, the
	// one creative, the ad set and the campaign.
	platform := &fakePlatform{failCreativeAt: 2}
	ledger := &fakeLedger{}
	o := newOrchestrator(platform, ledger)

	_, err := o.Publish(context.Background(), "tok", template("A", "B"))
	require.ErrorIs(t, err, errInjected)

	assert.Equal(t, []string{"ad-1", "cr-1", "set-1", "cmp-1"}, platform.deleted)
	assert.Empty(t, ledger.records)
}

func TestPublishRollsBackCampaignOnlyWhenAdSetFails(t *testing.T) {
	platform := &fakePlatform{failAdSet: true}
	ledger := &fakeLedger{}
	o := newOrchestrator(platform, ledger)

	_, err := o.Publish(context.Background(), "tok", template("A"))
	require.ErrorIs(t, err, errInjected)
	assert.Equal(t, []string{"cmp-1"}, platform.deleted)
}

func TestPublishNothingToRollBackWhenCampaignFails(t *testing.T) {
	platform := &fakePlatform{failCampaign: true}
	ledger := &fakeLedger{}
	o := newOrchestrator(platform, ledger)

	_, err := o.Publish(context.Background(), "tok", template("A"))
	require.ErrorIs(t, err, errInjected)
	assert.Empty(t, platform.deleted)
}

func TestRollbackContinuesPastDeleteFailures(t *testing.T) {
	// A delete failing mid-rollback must not stop the remaining deletes, and
	// the surfaced error stays the original creation failure.
	platform := &fakePlatform{
		failAdAt: 2,
		deleteErrors: map[string]error{
			"ad-1": errors.New("delete refused"),
			"cr-2": errors.New("delete refused"),
		},
	}
	ledger := &fakeLedger{}
	o := newOrchestrator(platform, ledger)

	_, err := o.Publish(context.Background(), "tok", template("A", "B"))
	require.ErrorIs(t, err, errInjected)
	assert.NotContains(t, err.Error(), "delete refused")

	assert.Equal(t, []string{"ad-1", "cr-2", "cr-1", "set-1", "cmp-1"}, platform.deleted)
}

func TestPublishSurfacesLedgerWriteFailureWithoutRollback(t *testing.T) {
	platform := &fakePlatform{}
	ledger := &fakeLedger{appendErr: errors.New("disk full")}
	o := newOrchestrator(platform, ledger)

	_, err := o.Publish(context.Background(), "tok", template("A"))
	require.ErrorIs(t, err, ErrLedgerWrite)
	assert.Empty(t, platform.deleted, "published ads are never rolled back over a ledger write")
}

func TestPublishUsesDefaultCTAWhenItemOmitsIt(t *testing.T) {
	var gotCTA string
	platform := &fakePlatform{}
	ledger := &fakeLedger{}
	o := NewOrchestrator(&ctaRecorder{fakePlatform: platform, ctaOut: &gotCTA}, ledger, "12345", zap.NewNop(), observability.NewNoOpRegistry())

	tpl := template("A")
	tpl.Items[0].CTAType = ""
	_, err := o.Publish(context.Background(), "tok", tpl)
	require.NoError(t, err)
	assert.Equal(t, "SHOP_NOW", gotCTA)
}

type ctaRecorder struct {
	*fakePlatform
	ctaOut *string
}

func (r *ctaRecorder) CreateCreative(ctx context.Context, token string, spec meta.CreativeSpec) (string, error) {
	*r.ctaOut = spec.CTAType
	return r.fakePlatform.CreateCreative(ctx, token, spec)
}
