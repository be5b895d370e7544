package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/meta"
	"github.com/ocohenran/adcraft/internal/models"
	"github.com/ocohenran/adcraft/internal/observability"
	"github.com/ocohenran/adcraft/internal/store"
)

// PlatformAPI is the slice of the ad platform client the OAuth flow needs.
type PlatformAPI interface {
	AuthorizeURL(redirectURI, scopes, state string) string
	ExchangeCode(ctx context.Context, code, redirectURI string) (*meta.TokenResult, error)
	ExtendToken(ctx context.Context, shortToken string) (*meta.TokenResult, error)
	FetchProfile(ctx context.Context, token string) (string, error)
}

// CredentialRepo holds the single platform credential.
type CredentialRepo interface {
	Get() models.Credential
	Set(models.Credential) error
	Clear() error
}

var (
	// ErrMissingCode means the provider callback arrived without a code.
	ErrMissingCode = errors.New("authorization code missing")
	// ErrInvalidState means the callback state was never issued, already
	// consumed or expired. The code is never exchanged in that case.
	ErrInvalidState = errors.New("state invalid or expired")
)

// defaultTokenLifetime covers providers that omit expires_in on the
// long-lived grant; Meta long-lived user tokens last about 60 days.
const defaultTokenLifetime = 60 * 24 * time.Hour

// Service drives the OAuth authorization-code flow against the ad platform
// and owns the stored credential.
type Service struct {
	platform    PlatformAPI
	states      store.StateStore
	credentials CredentialRepo
	redirectURI string
	scopes      string
	logger      *zap.Logger
	metrics     observability.MetricsRegistry
	now         func() time.Time
}

// NewService constructs the OAuth session service.
func NewService(platform PlatformAPI, states store.StateStore, credentials CredentialRepo, redirectURI, scopes string, logger *zap.Logger, metrics observability.MetricsRegistry) *Service {
	return &Service{
		platform:    platform,
		states:      states,
		credentials: credentials,
		redirectURI: redirectURI,
		scopes:      scopes,
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Start issues a fresh CSRF state and returns the provider authorization URL
// with the state embedded.
func (s *Service) Start(ctx context.Context) (string, error) {
	state, err := randomState()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	if err := s.states.Put(ctx, state); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	s.metrics.IncrementOAuthFlows("started")
	return s.platform.AuthorizeURL(s.redirectURI, s.scopes, state), nil
}

// HandleCallback validates the provider callback, exchanges the code for a
// long-lived token and persists the credential. The state is consumed before
// any exchange is attempted; a bad state means the code is never sent to the
// provider.
func (s *Service) HandleCallback(ctx context.Context, code, state string) (string, error) {
	if code == "" {
		s.metrics.IncrementOAuthFlows("rejected")
		return "", ErrMissingCode
	}
	if state == "" {
		s.metrics.IncrementOAuthFlows("rejected")
		return "", ErrInvalidState
	}

	ok, err := s.states.Consume(ctx, state)
	if err != nil {
		return "", fmt.Errorf("consume state: %w", err)
	}
	if !ok {
		s.logger.Warn("oauth callback with unknown or expired state")
		s.metrics.IncrementOAuthFlows("rejected")
		return "", ErrInvalidState
	}

	short, err := s.platform.ExchangeCode(ctx, code, s.redirectURI)
	if err != nil {
		s.metrics.IncrementOAuthFlows("failed")
		return "", fmt.Errorf("exchange code: %w", err)
	}
	long, err := s.platform.ExtendToken(ctx, short.AccessToken)
	if err != nil {
		s.metrics.IncrementOAuthFlows("failed")
		return "", fmt.Errorf("extend token: %w", err)
	}
	name, err := s.platform.FetchProfile(ctx, long.AccessToken)
	if err != nil {
		s.metrics.IncrementOAuthFlows("failed")
		return "", fmt.Errorf("fetch profile: %w", err)
	}

	lifetime := defaultTokenLifetime
	if long.ExpiresIn > 0 {
		lifetime = time.Duration(long.ExpiresIn) * time.Second
	}
	cred := models.Credential{
		AccessToken: long.AccessToken,
		DisplayName: name,
		ExpiresAt:   s.now().Add(lifetime).UnixMilli(),
	}
	if err := s.credentials.Set(cred); err != nil {
		s.metrics.IncrementOAuthFlows("failed")
		return "", fmt.Errorf("persist credential: %w", err)
	}

	s.metrics.IncrementOAuthFlows("exchanged")
	s.logger.Info("platform account connected", zap.String("display_name", name))
	return name, nil
}

// StatusInfo describes the current connection.
type StatusInfo struct {
	Connected   bool   `json:"connected"`
	DisplayName string `json:"displayName,omitempty"`
	ExpiresAt   int64  `json:"expiresAt,omitempty"`
}

// Status reports connected only while a token is stored and unexpired.
func (s *Service) Status() StatusInfo {
	cred := s.credentials.Get()
	if !cred.Valid(s.now()) {
		return StatusInfo{Connected: false}
	}
	return StatusInfo{Connected: true, DisplayName: cred.DisplayName, ExpiresAt: cred.ExpiresAt}
}

// Token returns the stored access token when a valid session exists.
func (s *Service) Token() (string, bool) {
	cred := s.credentials.Get()
	if !cred.Valid(s.now()) {
		return "", false
	}
	return cred.AccessToken, true
}

// Disconnect clears the stored credential. Safe to call repeatedly.
func (s *Service) Disconnect() error {
	return s.credentials.Clear()
}

// SanitizeMessage strips HTML-significant characters from a failure message
// before it is relayed to the popup window, so a reflected platform error can
// never inject script into the opener's message handler.
func SanitizeMessage(msg string) string {
	replacer := strings.NewReplacer(
		"<", "",
		">", "",
		"&", "",
		`"`, "",
		"'", "",
		"`", "",
	)
	return replacer.Replace(msg)
}

func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
