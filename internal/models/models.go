package models

import (
	"fmt"
	"time"
)

const (
	// MaxBulkItems bounds a single bulk publish request. The platform objects
	// are created sequentially, so large batches would hold the request open
	// for a long time and widen the rollback window on failure.
	MaxBulkItems = 10

	// StateTTL is how long an issued OAuth CSRF state remains valid.
	StateTTL = 10 * time.Minute
)

// Credential is the single process-wide ad platform credential. ExpiresAt is
// epoch milliseconds to match what the browser client stores.
type Credential struct {
	AccessToken string `json:"accessToken"`
	DisplayName string `json:"displayName"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// Valid reports whether the credential holds an unexpired token at time now.
func (c Credential) Valid(now time.Time) bool {
	return c.AccessToken != "" && now.UnixMilli() <= c.ExpiresAt
}

// CreativeInput is one ad variation to publish: an already-uploaded image
// plus its copy.
type CreativeInput struct {
	VariationID string `json:"variationId"`
	ImageHash   string `json:"imageHash"`
	Headline    string `json:"headline"`
	Body        string `json:"body"`
	CTAType     string `json:"ctaType"`
}

// CampaignTemplate is the input to a bulk publish run: one campaign, one ad
// set and one ad per item.
type CampaignTemplate struct {
	CampaignName    string          `json:"campaignName"`
	DailyBudgetUSD  float64         `json:"dailyBudgetUSD"`
	LinkURL         string          `json:"linkUrl"`
	PageID          string          `json:"pageId"`
	DefaultCTAType  string          `json:"defaultCtaType"`
	TargetCountries []string        `json:"targetCountries"`
	Items           []CreativeInput `json:"items"`
}

// ValidationError marks input rejected before any platform call was made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the template bounds. It must pass before the orchestrator
// issues any platform call.
func (t *CampaignTemplate) Validate() error {
	if t.CampaignName == "" {
		return &ValidationError{Field: "campaignName", Reason: "required"}
	}
	if t.DailyBudgetUSD <= 0 {
		return &ValidationError{Field: "dailyBudgetUSD", Reason: "must be positive"}
	}
	if t.PageID == "" {
		return &ValidationError{Field: "pageId", Reason: "required"}
	}
	if t.LinkURL == "" {
		return &ValidationError{Field: "linkUrl", Reason: "required"}
	}
	if len(t.TargetCountries) == 0 {
		return &ValidationError{Field: "targetCountries", Reason: "must not be empty"}
	}
	if n := len(t.Items); n < 1 || n > MaxBulkItems {
		return &ValidationError{Field: "items", Reason: fmt.Sprintf("must contain between 1 and %d entries, got %d", MaxBulkItems, n)}
	}
	for i, item := range t.Items {
		if item.ImageHash == "" {
			return &ValidationError{Field: fmt.Sprintf("items[%d].imageHash", i), Reason: "required"}
		}
		if item.VariationID == "" {
			return &ValidationError{Field: fmt.Sprintf("items[%d].variationId", i), Reason: "required"}
		}
	}
	return nil
}

// PublicationRecord is one ledger entry: a variation that was successfully
// published as an ad. Records are immutable; the ledger only grows.
type PublicationRecord struct {
	VariationID string    `json:"variationId"`
	AdID        string    `json:"adId"`
	CampaignID  string    `json:"campaignId"`
	AdSetID     string    `json:"adSetId"`
	Headline    string    `json:"headline"`
	Body        string    `json:"body"`
	CTAText     string    `json:"ctaText"`
	PublishedAt time.Time `json:"publishedAt"`
}

// AdStatus is the live delivery status of a published ad.
type AdStatus string

const (
	StatusActive  AdStatus = "ACTIVE"
	StatusPaused  AdStatus = "PAUSED"
	StatusDeleted AdStatus = "DELETED"
	StatusUnknown AdStatus = "UNKNOWN"
)

// AdMetrics holds delivery metrics for one ad. Conversions counts only
// offsite-conversion and lead actions.
type AdMetrics struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Spend       float64 `json:"spend"`
	CTR         float64 `json:"ctr"`
	Conversions int64   `json:"conversions"`
}

// InsightsView joins a ledger record with live platform state. Metrics is nil
// whenever the platform had no data row for the ad.
type InsightsView struct {
	PublicationRecord
	Status  AdStatus   `json:"status"`
	Metrics *AdMetrics `json:"metrics"`
}
