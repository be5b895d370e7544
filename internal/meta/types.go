package meta

import "time"

// AdSetSpec describes the single ad set created under a bulk-published
// campaign. DailyBudgetCents is the platform's minor-unit integer.
type AdSetSpec struct {
	CampaignID       string
	Name             string
	DailyBudgetCents int64
	Countries        []string
	StartTime        time.Time
}

// CreativeSpec describes one ad creative: an uploaded image plus copy,
// attached to the shared page and link.
type CreativeSpec struct {
	Name      string
	PageID    string
	LinkURL   string
	ImageHash string
	Headline  string
	Body      string
	CTAType   string
}

// AdSpec links a creative into an ad set.
type AdSpec struct {
	Name       string
	AdSetID    string
	CreativeID string
}

// Page is one page the connected account manages.
type Page struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Action is one entry of an insights row's actions array. Values arrive as
// strings on the wire.
type Action struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// InsightsRow is the raw metrics row the platform returns for one ad. All
// numeric fields are strings on the wire and parsed defensively downstream.
type InsightsRow struct {
	Impressions string   `json:"impressions"`
	Clicks      string   `json:"clicks"`
	Spend       string   `json:"spend"`
	CTR         string   `json:"ctr"`
	Actions     []Action `json:"actions"`
}

// TokenResult is the outcome of an OAuth token exchange.
type TokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
