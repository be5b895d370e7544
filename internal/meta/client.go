package meta

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/observability"
)

const maxResponseBytes = 1 << 20

// Client is a typed wrapper over the ad platform's Graph-shaped HTTP API.
// Every call carries the caller's bearer credential; the client holds no
// token itself.
type Client struct {
	baseURL      string
	authorizeURL string
	appID        string
	appSecret    string
	adAccountID  string
	httpClient   *http.Client
	logger       *zap.Logger
	metrics      observability.MetricsRegistry
}

// NewClient creates a platform client. adAccountID is the numeric account id
// without the "act_" prefix.
func NewClient(baseURL, appID, appSecret, adAccountID string, timeout time.Duration, logger *zap.Logger, metrics observability.MetricsRegistry) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		authorizeURL: "https://www.facebook.com/v19.0/dialog/oauth",
		appID:        appID,
		appSecret:    appSecret,
		adAccountID:  adAccountID,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
		metrics:      metrics,
	}
}

// SetBaseURL overrides the API base URL (for testing).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// SetAuthorizeURL overrides the user-facing authorization dialog URL (for testing).
func (c *Client) SetAuthorizeURL(u string) {
	c.authorizeURL = u
}

// AuthorizeURL builds the provider authorization dialog URL with the given
// CSRF state embedded.
func (c *Client) AuthorizeURL(redirectURI, scopes, state string) string {
	q := url.Values{}
	q.Set("client_id", c.appID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", scopes)
	q.Set("state", state)
	q.Set("response_type", "code")
	return c.authorizeURL + "?" + q.Encode()
}

type errorEnvelope struct {
	Error *struct {
		Message     string `json:"message"`
		Type        string `json:"type"`
		Code        int    `json:"code"`
		Subcode     int    `json:"error_subcode"`
		UserMessage string `json:"error_user_msg"`
	} `json:"error"`
}

// do executes the request, decodes the platform error envelope and returns
// the raw body on success. A response carrying an error object never yields
// a success value, whatever the HTTP status was.
func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	start := time.Now()
	outcome := "success"
	defer func() {
		c.metrics.RecordPlatformLatency(op, time.Since(start))
		c.metrics.IncrementPlatformRequests(op, outcome)
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("%s: http request: %w", op, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil && c.logger != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		outcome = "failure"
		return nil, &APIError{
			Operation:   op,
			Message:     envelope.Error.Message,
			Type:        envelope.Error.Type,
			Code:        envelope.Error.Code,
			Subcode:     envelope.Error.Subcode,
			UserMessage: envelope.Error.UserMessage,
			HTTPStatus:  resp.StatusCode,
		}
	}
	if resp.StatusCode >= 300 {
		outcome = "failure"
		return nil, &APIError{
			Operation:  op,
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			HTTPStatus: resp.StatusCode,
		}
	}
	return body, nil
}

func (c *Client) postForm(ctx context.Context, op, path, token string, form url.Values) ([]byte, error) {
	form.Set("access_token", token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, op)
}

func (c *Client) getJSON(ctx context.Context, op, path, token string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	if token != "" {
		query.Set("access_token", token)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	return c.do(req, op)
}

type idResponse struct {
	ID string `json:"id"`
}

func decodeID(op string, body []byte) (string, error) {
	var out idResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("%s: response missing object id", op)
	}
	return out.ID, nil
}

// CreateCampaign creates a paused campaign with no special ad categories and
// no campaign-level budget (budget lives on the ad set).
func (c *Client) CreateCampaign(ctx context.Context, token, name string) (string, error) {
	const op = "create_campaign"
	form := url.Values{}
	form.Set("name", name)
	form.Set("objective", "OUTCOME_TRAFFIC")
	form.Set("status", "PAUSED")
	form.Set("special_ad_categories", "[]")
	body, err := c.postForm(ctx, op, "/act_"+c.adAccountID+"/campaigns", token, form)
	if err != nil {
		return "", err
	}
	return decodeID(op, body)
}

// CreateAdSet creates a paused ad set under the campaign with the given
// minor-unit daily budget and country targeting.
func (c *Client) CreateAdSet(ctx context.Context, token string, spec AdSetSpec) (string, error) {
	const op = "create_ad_set"

	targeting, err := json.Marshal(map[string]any{
		"geo_locations": map[string]any{"countries": spec.Countries},
	})
	if err != nil {
		return "", fmt.Errorf("%s: marshal targeting: %w", op, err)
	}

	form := url.Values{}
	form.Set("name", spec.Name)
	form.Set("campaign_id", spec.CampaignID)
	form.Set("daily_budget", strconv.FormatInt(spec.DailyBudgetCents, 10))
	form.Set("billing_event", "IMPRESSIONS")
	form.Set("optimization_goal", "LINK_CLICKS")
	form.Set("bid_strategy", "LOWEST_COST_WITHOUT_CAP")
	form.Set("targeting", string(targeting))
	form.Set("start_time", spec.StartTime.UTC().Format(time.RFC3339))
	form.Set("status", "PAUSED")

	body, err := c.postForm(ctx, op, "/act_"+c.adAccountID+"/adsets", token, form)
	if err != nil {
		return "", err
	}
	return decodeID(op, body)
}

// CreateCreative creates an ad creative referencing an uploaded image hash.
func (c *Client) CreateCreative(ctx context.Context, token string, spec CreativeSpec) (string, error) {
	const op = "create_creative"

	storySpec, err := json.Marshal(map[string]any{
		"page_id": spec.PageID,
		"link_data": map[string]any{
			"link":        spec.LinkURL,
			"image_hash":  spec.ImageHash,
			"name":        spec.Headline,
			"message":     spec.Body,
			"call_to_action": map[string]any{
				"type":  spec.CTAType,
				"value": map[string]any{"link": spec.LinkURL},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: marshal story spec: %w", op, err)
	}

	form := url.Values{}
	form.Set("name", spec.Name)
	form.Set("object_story_spec", string(storySpec))

	body, err := c.postForm(ctx, op, "/act_"+c.adAccountID+"/adcreatives", token, form)
	if err != nil {
		return "", err
	}
	return decodeID(op, body)
}

// CreateAd creates a paused ad linking a creative into an ad set.
func (c *Client) CreateAd(ctx context.Context, token string, spec AdSpec) (string, error) {
	const op = "create_ad"

	creative, err := json.Marshal(map[string]string{"creative_id": spec.CreativeID})
	if err != nil {
		return "", fmt.Errorf("%s: marshal creative ref: %w", op, err)
	}

	form := url.Values{}
	form.Set("name", spec.Name)
	form.Set("adset_id", spec.AdSetID)
	form.Set("creative", string(creative))
	form.Set("status", "PAUSED")

	body, err := c.postForm(ctx, op, "/act_"+c.adAccountID+"/ads", token, form)
	if err != nil {
		return "", err
	}
	return decodeID(op, body)
}

// DeleteObject deletes any platform object by id. The operation is
// best-effort from the caller's point of view: rollback logs failures and
// keeps going, it never propagates them.
func (c *Client) DeleteObject(ctx context.Context, token, id string) error {
	const op = "delete_object"
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/"+id+"?access_token="+url.QueryEscape(token), nil)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	_, err = c.do(req, op)
	return err
}

// ListPages returns the pages the connected account manages.
func (c *Client) ListPages(ctx context.Context, token string) ([]Page, error) {
	const op = "list_pages"
	q := url.Values{}
	q.Set("fields", "id,name,category")
	body, err := c.getJSON(ctx, op, "/me/accounts", token, q)
	if err != nil {
		return nil, err
	}
	var out struct {
		Data []Page `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return out.Data, nil
}

// FetchAdStatus returns the effective delivery status of an ad.
func (c *Client) FetchAdStatus(ctx context.Context, token, adID string) (string, error) {
	const op = "fetch_ad_status"
	q := url.Values{}
	q.Set("fields", "effective_status")
	body, err := c.getJSON(ctx, op, "/"+adID, token, q)
	if err != nil {
		return "", err
	}
	var out struct {
		EffectiveStatus string `json:"effective_status"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	return out.EffectiveStatus, nil
}

// FetchInsights returns the metrics row for an ad, or nil when the platform
// has no data for it yet (common for new or still-paused ads).
func (c *Client) FetchInsights(ctx context.Context, token, adID string) (*InsightsRow, error) {
	const op = "fetch_insights"
	q := url.Values{}
	q.Set("fields", "impressions,clicks,spend,ctr,actions")
	body, err := c.getJSON(ctx, op, "/"+adID+"/insights", token, q)
	if err != nil {
		return nil, err
	}
	var out struct {
		Data []InsightsRow `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	return &out.Data[0], nil
}

// UploadImage uploads raster image bytes to the ad account image library and
// returns the platform-assigned hash.
func (c *Client) UploadImage(ctx context.Context, token, filename string, data []byte) (string, error) {
	const op = "upload_image"
	form := url.Values{}
	form.Set("bytes", base64.StdEncoding.EncodeToString(data))
	form.Set("name", filename)
	body, err := c.postForm(ctx, op, "/act_"+c.adAccountID+"/adimages", token, form)
	if err != nil {
		return "", err
	}
	var out struct {
		Images map[string]struct {
			Hash string `json:"hash"`
		} `json:"images"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	for _, img := range out.Images {
		if img.Hash != "" {
			return img.Hash, nil
		}
	}
	return "", fmt.Errorf("%s: response missing image hash", op)
}

// ExchangeCode trades an authorization code for a short-lived user token.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResult, error) {
	const op = "exchange_code"
	q := url.Values{}
	q.Set("client_id", c.appID)
	q.Set("client_secret", c.appSecret)
	q.Set("redirect_uri", redirectURI)
	q.Set("code", code)
	body, err := c.getJSON(ctx, op, "/oauth/access_token", "", q)
	if err != nil {
		return nil, err
	}
	return decodeToken(op, body)
}

// ExtendToken trades a short-lived token for a long-lived one.
func (c *Client) ExtendToken(ctx context.Context, shortToken string) (*TokenResult, error) {
	const op = "extend_token"
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", c.appID)
	q.Set("client_secret", c.appSecret)
	q.Set("fb_exchange_token", shortToken)
	body, err := c.getJSON(ctx, op, "/oauth/access_token", "", q)
	if err != nil {
		return nil, err
	}
	return decodeToken(op, body)
}

func decodeToken(op string, body []byte) (*TokenResult, error) {
	var out TokenResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%s: response missing access token", op)
	}
	return &out, nil
}

// FetchProfile returns the display name of the token's account.
func (c *Client) FetchProfile(ctx context.Context, token string) (string, error) {
	const op = "fetch_profile"
	q := url.Values{}
	q.Set("fields", "name")
	body, err := c.getJSON(ctx, op, "/me", token, q)
	if err != nil {
		return "", err
	}
	var out struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	return out.Name, nil
}
