package insights

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/meta"
	"github.com/ocohenran/adcraft/internal/models"
	"github.com/ocohenran/adcraft/internal/observability"
)

type fakePlatform struct {
	mu         sync.Mutex
	statuses   map[string]string
	statusErrs map[string]error
	rows       map[string]*meta.InsightsRow
	rowErrs    map[string]error
}

func (f *fakePlatform) FetchAdStatus(ctx context.Context, token, adID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.statusErrs[adID]; ok {
		return "", err
	}
	return f.statuses[adID], nil
}

func (f *fakePlatform) FetchInsights(ctx context.Context, token, adID string) (*meta.InsightsRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.rowErrs[adID]; ok {
		return nil, err
	}
	return f.rows[adID], nil
}

type fakeLedger struct {
	records []models.PublicationRecord
}

func (l *fakeLedger) Load() []models.PublicationRecord { return l.records }

func record(variation, ad, campaign string) models.PublicationRecord {
	return models.PublicationRecord{VariationID: variation, AdID: ad, CampaignID: campaign, AdSetID: "s1"}
}

func newAggregator(p *fakePlatform, l *fakeLedger) *Aggregator {
	return NewAggregator(p, l, zap.NewNop(), observability.NewNoOpRegistry())
}

func TestReportDegradesOnlyTheFailingRecord(t *testing.T) {
	ledger := &fakeLedger{records: []models.PublicationRecord{
		record("A", "ad-1", "c1"),
		record("B", "ad-2", "c1"),
		record("C", "ad-3", "c1"),
	}}
	platform := &fakePlatform{
		statuses:   map[string]string{"ad-1": "ACTIVE", "ad-3": "PAUSED"},
		statusErrs: map[string]error{"ad-2": errors.New("object does not exist")},
		rows: map[string]*meta.InsightsRow{
			"ad-1": {Impressions: "100", Clicks: "5", Spend: "2.50", CTR: "5.0"},
			"ad-3": {Impressions: "40", Clicks: "1", Spend: "0.80", CTR: "2.5"},
		},
	}

	views := newAggregator(platform, ledger).Report(context.Background(), "tok", "")
	require.Len(t, views, 3)

	assert.Equal(t, models.StatusActive, views[0].Status)
	require.NotNil(t, views[0].Metrics)
	assert.Equal(t, int64(100), views[0].Metrics.Impressions)

	assert.Equal(t, models.StatusDeleted, views[1].Status)
	assert.Nil(t, views[1].Metrics)

	assert.Equal(t, models.StatusPaused, views[2].Status)
	require.NotNil(t, views[2].Metrics)
	assert.Equal(t, int64(40), views[2].Metrics.Impressions)
}

func TestReportPreservesLedgerOrder(t *testing.T) {
	ledger := &fakeLedger{records: []models.PublicationRecord{
		record("A", "ad-1", "c1"),
		record("B", "ad-2", "c1"),
		record("C", "ad-3", "c1"),
		record("D", "ad-4", "c1"),
	}}
	platform := &fakePlatform{statuses: map[string]string{
		"ad-1": "ACTIVE", "ad-2": "ACTIVE", "ad-3": "ACTIVE", "ad-4": "ACTIVE",
	}}

	views := newAggregator(platform, ledger).Report(context.Background(), "tok", "")
	var order []string
	for _, v := range views {
		order = append(order, v.VariationID)
	}
	assert.Equal(t, []string{"A", "B", "C", "D"}, order)
}

func TestReportFiltersByCampaign(t *testing.T) {
	ledger := &fakeLedger{records: []models.PublicationRecord{
		record("A", "ad-1", "c1"),
		record("B", "ad-2", "c2"),
	}}
	platform := &fakePlatform{statuses: map[string]string{"ad-1": "ACTIVE", "ad-2": "ACTIVE"}}

	views := newAggregator(platform, ledger).Report(context.Background(), "tok", "c2")
	require.Len(t, views, 1)
	assert.Equal(t, "B", views[0].VariationID)
}

func TestReportMetricsNilWhenInsightsFetchFails(t *testing.T) {
	ledger := &fakeLedger{records: []models.PublicationRecord{record("A", "ad-1", "c1")}}
	platform := &fakePlatform{
		statuses: map[string]string{"ad-1": "PAUSED"},
		rowErrs:  map[string]error{"ad-1": errors.New("insights backend timeout")},
	}

	views := newAggregator(platform, ledger).Report(context.Background(), "tok", "")
	require.Len(t, views, 1)
	assert.Equal(t, models.StatusPaused, views[0].Status)
	assert.Nil(t, views[0].Metrics)
}

func TestReportMetricsNilWhenNoDataRow(t *testing.T) {
	ledger := &fakeLedger{records: []models.PublicationRecord{record("A", "ad-1", "c1")}}
	platform := &fakePlatform{statuses: map[string]string{"ad-1": "PAUSED"}}

	views := newAggregator(platform, ledger).Report(context.Background(), "tok", "")
	require.Len(t, views, 1)
	assert.Nil(t, views[0].Metrics)
}

func TestConversionCounting(t *testing.T) {
	ledger := &fakeLedger{records: []models.PublicationRecord{record("A", "ad-1", "c1")}}
	platform := &fakePlatform{
		statuses: map[string]string{"ad-1": "ACTIVE"},
		rows: map[string]*meta.InsightsRow{"ad-1": {
			Impressions: "10",
			Actions: []meta.Action{
				{ActionType: "offsite_conversion.fb_pixel_purchase", Value: "2"},
				{ActionType: "offsite_conversion", Value: "1"},
				{ActionType: "lead", Value: "3"},
				{ActionType: "link_click", Value: "50"},
				{ActionType: "post_engagement", Value: "9"},
				{ActionType: "offsite_conversion.fb_pixel_add_to_cart", Value: "not-a-number"},
			},
		}},
	}

	views := newAggregator(platform, ledger).Report(context.Background(), "tok", "")
	require.NotNil(t, views[0].Metrics)
	assert.Equal(t, int64(6), views[0].Metrics.Conversions)
}

func TestDefensiveNumericParsing(t *testing.T) {
	ledger := &fakeLedger{records: []models.PublicationRecord{record("A", "ad-1", "c1")}}
	platform := &fakePlatform{
		statuses: map[string]string{"ad-1": "ACTIVE"},
		rows:     map[string]*meta.InsightsRow{"ad-1": {Impressions: "", Clicks: "oops", Spend: "1.5"}},
	}

	views := newAggregator(platform, ledger).Report(context.Background(), "tok", "")
	m := views[0].Metrics
	require.NotNil(t, m)
	assert.Zero(t, m.Impressions)
	assert.Zero(t, m.Clicks)
	assert.Equal(t, 1.5, m.Spend)
}

func TestUnknownStatusMapsToUnknown(t *testing.T) {
	ledger := &fakeLedger{records: []models.PublicationRecord{record("A", "ad-1", "c1")}}
	platform := &fakePlatform{statuses: map[string]string{"ad-1": "IN_PROCESS"}}

	views := newAggregator(platform, ledger).Report(context.Background(), "tok", "")
	assert.Equal(t, models.StatusUnknown, views[0].Status)
}
