package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/config"
	"github.com/ocohenran/adcraft/internal/insights"
	"github.com/ocohenran/adcraft/internal/meta"
	"github.com/ocohenran/adcraft/internal/models"
	"github.com/ocohenran/adcraft/internal/observability"
	"github.com/ocohenran/adcraft/internal/store"
)

type ListPublicationsInput struct {
	CampaignID string `json:"campaign_id,omitempty"`
}

type ListPublicationsOutput struct {
	Publications []models.PublicationRecord `json:"publications"`
}

type GetInsightsInput struct {
	CampaignID string `json:"campaign_id,omitempty"`
}

type GetInsightsOutput struct {
	Rows []models.InsightsView `json:"rows"`
}

// MCPServer exposes the publication ledger and live insights to MCP clients.
type MCPServer struct {
	ledger      *store.Ledger
	credentials *store.CredentialStore
	aggregator  *insights.Aggregator
	logger      *zap.Logger
}

// ListPublications returns the recorded publication history, optionally
// filtered to one campaign.
func (s *MCPServer) ListPublications(ctx context.Context, req *mcp.CallToolRequest, input ListPublicationsInput) (*mcp.CallToolResult, ListPublicationsOutput, error) {
	records := s.ledger.Load()
	if input.CampaignID != "" {
		filtered := make([]models.PublicationRecord, 0, len(records))
		for _, rec := range records {
			if rec.CampaignID == input.CampaignID {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	if records == nil {
		records = []models.PublicationRecord{}
	}
	s.logger.Info("listed publications", zap.Int("count", len(records)), zap.String("campaign_id", input.CampaignID))
	return nil, ListPublicationsOutput{Publications: records}, nil
}

// GetInsights joins the ledger with live ad status and metrics. Requires a
// valid stored credential.
func (s *MCPServer) GetInsights(ctx context.Context, req *mcp.CallToolRequest, input GetInsightsInput) (*mcp.CallToolResult, GetInsightsOutput, error) {
	cred := s.credentials.Get()
	if !cred.Valid(time.Now()) {
		return nil, GetInsightsOutput{}, fmt.Errorf("no valid ad account connection, complete the OAuth flow first")
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows := s.aggregator.Report(ctx, cred.AccessToken, input.CampaignID)
	if rows == nil {
		rows = []models.InsightsView{}
	}
	return nil, GetInsightsOutput{Rows: rows}, nil
}

func main() {
	// stdout carries the MCP protocol, so all logging goes to stderr.
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.LevelKey = "level"
	zcfg.EncoderConfig.NameKey = "logger"
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.MessageKey = "msg"
	zcfg.EncoderConfig.StacktraceKey = "stacktrace"

	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("adcraft-mcp").With(zap.String("service", "adcraft-mcp"))

	cfg := config.Load()
	metrics := observability.NewNoOpRegistry()

	ledger := store.NewLedger(cfg.LedgerFile, logger)
	credentials := store.NewCredentialStore(cfg.CredentialFile, logger)
	platform := meta.NewClient(cfg.GraphBaseURL, cfg.AppID, cfg.AppSecret, cfg.AdAccountID, cfg.PlatformTimeout, logger, metrics)
	aggregator := insights.NewAggregator(platform, ledger, logger, metrics)

	srv := &MCPServer{
		ledger:      ledger,
		credentials: credentials,
		aggregator:  aggregator,
		logger:      logger,
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "adcraft",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_publications",
		Description: "List published ads recorded in the publication ledger",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"campaign_id": map[string]interface{}{
					"type":        "string",
					"description": "Limit results to one campaign (optional)",
				},
			},
		},
	}, srv.ListPublications)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_insights",
		Description: "Fetch live status and delivery metrics for published ads",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"campaign_id": map[string]interface{}{
					"type":        "string",
					"description": "Limit results to one campaign (optional)",
				},
			},
		},
	}, srv.GetInsights)

	logger.Info("MCP server running via stdio")

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
