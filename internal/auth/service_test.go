package auth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/meta"
	"github.com/ocohenran/adcraft/internal/models"
	"github.com/ocohenran/adcraft/internal/observability"
	"github.com/ocohenran/adcraft/internal/store"
)

type fakePlatform struct {
	exchangeCalls int
	exchangeErr   error
	extendErr     error
	profileErr    error
	longToken     string
	expiresIn     int64
}

func (f *fakePlatform) AuthorizeURL(redirectURI, scopes, state string) string {
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", scopes)
	q.Set("state", state)
	return "https://provider.example/dialog/oauth?" + q.Encode()
}

func (f *fakePlatform) ExchangeCode(ctx context.Context, code, redirectURI string) (*meta.TokenResult, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &meta.TokenResult{AccessToken: "short-" + code, ExpiresIn: 3600}, nil
}

func (f *fakePlatform) ExtendToken(ctx context.Context, shortToken string) (*meta.TokenResult, error) {
	if f.extendErr != nil {
		return nil, f.extendErr
	}
	tok := f.longToken
	if tok == "" {
		tok = "long-token"
	}
	return &meta.TokenResult{AccessToken: tok, ExpiresIn: f.expiresIn}, nil
}

func (f *fakePlatform) FetchProfile(ctx context.Context, token string) (string, error) {
	if f.profileErr != nil {
		return "", f.profileErr
	}
	return "Jordan Example", nil
}

type memCredentials struct {
	cred models.Credential
}

func (m *memCredentials) Get() models.Credential     { return m.cred }
func (m *memCredentials) Set(c models.Credential) error { m.cred = c; return nil }
func (m *memCredentials) Clear() error               { m.cred = models.Credential{}; return nil }

func newService(platform *fakePlatform) (*Service, *memCredentials, store.StateStore) {
	creds := &memCredentials{}
	states := store.NewMemoryStateStore()
	svc := NewService(platform, states, creds, "http://localhost/cb", "ads_management", zap.NewNop(), observability.NewNoOpRegistry())
	return svc, creds, states
}

func startAndExtractState(t *testing.T, svc *Service) string {
	t.Helper()
	authURL, err := svc.Start(context.Background())
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestStartIssuesUniqueStates(t *testing.T) {
	svc, _, _ := newService(&fakePlatform{})
	s1 := startAndExtractState(t, svc)
	s2 := startAndExtractState(t, svc)
	assert.NotEqual(t, s1, s2)
}

func TestCallbackHappyPath(t *testing.T) {
	platform := &fakePlatform{expiresIn: 5184000}
	svc, creds, _ := newService(platform)
	state := startAndExtractState(t, svc)

	name, err := svc.HandleCallback(context.Background(), "the-code", state)
	require.NoError(t, err)
	assert.Equal(t, "Jordan Example", name)

	assert.Equal(t, "long-token", creds.cred.AccessToken)
	assert.Equal(t, "Jordan Example", creds.cred.DisplayName)
	assert.Greater(t, creds.cred.ExpiresAt, time.Now().UnixMilli())

	status := svc.Status()
	assert.True(t, status.Connected)
	assert.Equal(t, "Jordan Example", status.DisplayName)
}

func TestCallbackMissingCode(t *testing.T) {
	platform := &fakePlatform{}
	svc, _, _ := newService(platform)
	state := startAndExtractState(t, svc)

	_, err := svc.HandleCallback(context.Background(), "", state)
	assert.ErrorIs(t, err, ErrMissingCode)
	assert.Zero(t, platform.exchangeCalls)
}

func TestCallbackUnknownStateNeverExchanges(t *testing.T) {
	platform := &fakePlatform{}
	svc, _, _ := newService(platform)

	_, err := svc.HandleCallback(context.Background(), "the-code", "never-issued")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Zero(t, platform.exchangeCalls)
}

func TestCallbackStateIsSingleUse(t *testing.T) {
	platform := &fakePlatform{}
	svc, _, _ := newService(platform)
	state := startAndExtractState(t, svc)

	_, err := svc.HandleCallback(context.Background(), "the-code", state)
	require.NoError(t, err)

	_, err = svc.HandleCallback(context.Background(), "the-code", state)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, platform.exchangeCalls)
}

func TestCallbackExchangeFailure(t *testing.T) {
	platform := &fakePlatform{exchangeErr: errors.New("invalid verification code")}
	svc, creds, _ := newService(platform)
	state := startAndExtractState(t, svc)

	_, err := svc.HandleCallback(context.Background(), "bad-code", state)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidState)
	assert.Empty(t, creds.cred.AccessToken)
}

func TestStatusDisconnectedWhenExpired(t *testing.T) {
	svc, creds, _ := newService(&fakePlatform{})
	creds.cred = models.Credential{
		AccessToken: "tok",
		DisplayName: "Jordan Example",
		ExpiresAt:   time.Now().Add(-time.Minute).UnixMilli(),
	}

	status := svc.Status()
	assert.False(t, status.Connected)

	_, ok := svc.Token()
	assert.False(t, ok)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	svc, creds, _ := newService(&fakePlatform{})
	creds.cred = models.Credential{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour).UnixMilli()}

	require.NoError(t, svc.Disconnect())
	require.NoError(t, svc.Disconnect())
	assert.False(t, svc.Status().Connected)
}

func TestDefaultLifetimeWhenProviderOmitsExpiry(t *testing.T) {
	platform := &fakePlatform{expiresIn: 0}
	svc, creds, _ := newService(platform)
	state := startAndExtractState(t, svc)

	_, err := svc.HandleCallback(context.Background(), "the-code", state)
	require.NoError(t, err)

	min := time.Now().Add(defaultTokenLifetime - time.Minute).UnixMilli()
	assert.Greater(t, creds.cred.ExpiresAt, min)
}

func TestSanitizeMessage(t *testing.T) {
	in := `<script>alert("x")</script> & 'quotes'`
	out := SanitizeMessage(in)
	assert.NotContains(t, out, "<")
	assert.NotContains(t, out, ">")
	assert.NotContains(t, out, `"`)
	assert.NotContains(t, out, "'")
	assert.NotContains(t, out, "&")
	assert.Contains(t, out, "alert")
}
