package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/auth"
	"github.com/ocohenran/adcraft/internal/config"
	"github.com/ocohenran/adcraft/internal/copygen"
	"github.com/ocohenran/adcraft/internal/insights"
	"github.com/ocohenran/adcraft/internal/meta"
	"github.com/ocohenran/adcraft/internal/observability"
	"github.com/ocohenran/adcraft/internal/publish"
	"github.com/ocohenran/adcraft/internal/render"
)

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger       *zap.Logger
	Auth         *auth.Service
	Orchestrator *publish.Orchestrator
	Insights     *insights.Aggregator
	Platform     *meta.Client
	Copy         *copygen.Client // nil when no copy service is configured
	Renderer     *render.Client  // nil when no render service is configured
	Metrics      observability.MetricsRegistry
	Config       config.Config
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, authSvc *auth.Service, orchestrator *publish.Orchestrator, aggregator *insights.Aggregator, platform *meta.Client, copySvc *copygen.Client, renderer *render.Client, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	return &Server{
		Logger:       logger,
		Auth:         authSvc,
		Orchestrator: orchestrator,
		Insights:     aggregator,
		Platform:     platform,
		Copy:         copySvc,
		Renderer:     renderer,
		Metrics:      metrics,
		Config:       cfg,
	}
}

// Routes registers all HTTP handlers on the router.
func (s *Server) Routes(r *mux.Router) {
	r.HandleFunc("/auth/start", s.StartAuthHandler).Methods("GET")
	r.HandleFunc("/auth/callback", s.CallbackHandler).Methods("GET")
	r.HandleFunc("/status", s.StatusHandler).Methods("GET")
	r.HandleFunc("/disconnect", s.DisconnectHandler).Methods("POST")
	r.HandleFunc("/images", s.UploadImageHandler).Methods("POST")
	r.HandleFunc("/ads/bulk", s.BulkPublishHandler).Methods("POST")
	r.HandleFunc("/insights", s.InsightsHandler).Methods("GET")
	r.HandleFunc("/pages", s.ListPagesHandler).Methods("GET")
	r.HandleFunc("/copy/generate", s.GenerateCopyHandler).Methods("POST")
	r.HandleFunc("/health", s.HealthHandler).Methods("GET")
}

// helper function to write JSON response
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error      string `json:"error"`
	RolledBack bool   `json:"rolledBack,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

// requireToken resolves the stored platform credential or answers 401.
func (s *Server) requireToken(w http.ResponseWriter) (string, bool) {
	token, ok := s.Auth.Token()
	if !ok {
		writeError(w, http.StatusUnauthorized, "no connected ad account")
		return "", false
	}
	return token, true
}
