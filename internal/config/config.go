package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ServiceName  string

	// Flat-file persistence
	CredentialFile string
	LedgerFile     string

	// OAuth CSRF state storage: "memory" or "redis"
	StateStoreBackend string
	RedisAddr         string

	// Ad platform (Meta Graph API shaped)
	GraphBaseURL     string
	AppID            string
	AppSecret        string
	AdAccountID      string
	OAuthRedirectURL string
	OAuthScopes      string
	PlatformTimeout  time.Duration

	// Copy generation service
	CopyServiceURL     string
	CopyServiceKey     string
	CopyServiceTimeout time.Duration

	// Image rendering service
	RenderServiceURL     string
	RenderServiceTimeout time.Duration

	// Tracing configuration
	TracingEnabled    bool
	TracingEndpoint   string
	TracingSampleRate float64
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "8686")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 10*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 60*time.Second)
	cfg.ServiceName = getenv("SERVICE_NAME", "adcraft")

	cfg.CredentialFile = getenv("CREDENTIAL_FILE", "data/credential.json")
	cfg.LedgerFile = getenv("LEDGER_FILE", "data/publications.json")

	cfg.StateStoreBackend = getenv("STATE_STORE", "memory")
	cfg.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")

	cfg.GraphBaseURL = getenv("GRAPH_BASE_URL", "https://graph.facebook.com/v19.0")
	cfg.AppID = getenv("META_APP_ID", "")
	cfg.AppSecret = getenv("META_APP_SECRET", "")
	cfg.AdAccountID = getenv("META_AD_ACCOUNT_ID", "")
	cfg.OAuthRedirectURL = getenv("OAUTH_REDIRECT_URL", "http://localhost:8686/auth/callback")
	cfg.OAuthScopes = getenv("OAUTH_SCOPES", "ads_management,pages_show_list,business_management")
	cfg.PlatformTimeout = envDuration("PLATFORM_TIMEOUT", 30*time.Second)

	cfg.CopyServiceURL = getenv("COPY_SERVICE_URL", "")
	cfg.CopyServiceKey = getenv("COPY_SERVICE_KEY", "")
	cfg.CopyServiceTimeout = envDuration("COPY_SERVICE_TIMEOUT", 45*time.Second)

	cfg.RenderServiceURL = getenv("RENDER_SERVICE_URL", "")
	cfg.RenderServiceTimeout = envDuration("RENDER_SERVICE_TIMEOUT", 30*time.Second)

	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TracingEndpoint = getenv("TRACING_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)

	return cfg
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
