package bling

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vitrinelabs/vitrine-backend/pkg/config"
	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/errors"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

type fakeTokenRepo struct {
	token *models.IntegrationToken
}

func (r *fakeTokenRepo) GetByProvider(ctx context.Context, provider string) (*models.IntegrationToken, error) {
	if r.token == nil || r.token.Provider != provider {
		return nil, nil
	}
	copied := *r.token
	return &copied, nil
}

func (r *fakeTokenRepo) Upsert(ctx context.Context, token *models.IntegrationToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	copied := *token
	r.token = &copied
	return nil
}

func testTokenServer(t *testing.T, calls *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(calls, 1)
		require.Equal(t, http.MethodPost, r.Method)
		require.NotEmpty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh-token","refresh_token":"fresh-refresh","expires_in":21600,"token_type":"bearer"}`))
	}))
}

func testTokenSource(repo *fakeTokenRepo, tokenURL string) *TokenSource {
	cfg := config.BlingConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/api/bling/oauth/callback",
		TokenURL:     tokenURL,
		TokenTimeout: 5 * time.Second,
	}
	return NewTokenSource(cfg, repo, testLogger())
}

func storedToken(refresh string, expiresIn time.Duration, now time.Time) *models.IntegrationToken {
	expiresAt := now.Add(expiresIn)
	token := &models.IntegrationToken{
		ID:          uuid.New(),
		Provider:    Provider,
		AccessToken: "stored-token",
		ExpiresAt:   &expiresAt,
	}
	if refresh != "" {
		token.RefreshToken = &refresh
	}
	return token
}

func TestAccessTokenRefreshesWhenExpiringSoon(t *testing.T) {
	var calls int64
	server := testTokenServer(t, &calls)
	defer server.Close()

	now := time.Now()
	repo := &fakeTokenRepo{token: storedToken("stored-refresh", 30*time.Second, now)}
	source := testTokenSource(repo, server.URL)
	source.now = func() time.Time { return now }

	token, err := source.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "fresh-token", token)
	require.Equal(t, int64(1), atomic.LoadInt64(&calls))

	// Persisted in place with the new pair and expiry.
	require.Equal(t, "fresh-token", repo.token.AccessToken)
	require.Equal(t, "fresh-refresh", *repo.token.RefreshToken)
	require.NotNil(t, repo.token.ExpiresAt)
	require.True(t, repo.token.ExpiresAt.After(now.Add(5*time.Hour)))
}

func TestAccessTokenSkipsRefreshWhenFarFromExpiry(t *testing.T) {
	var calls int64
	server := testTokenServer(t, &calls)
	defer server.Close()

	now := time.Now()
	repo := &fakeTokenRepo{token: storedToken("stored-refresh", 10*time.Minute, now)}
	source := testTokenSource(repo, server.URL)
	source.now = func() time.Time { return now }

	token, err := source.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "stored-token", token)
	require.Equal(t, int64(0), atomic.LoadInt64(&calls))
}

func TestAccessTokenWithoutStoredTokenIsNotConfigured(t *testing.T) {
	source := testTokenSource(&fakeTokenRepo{}, "http://127.0.0.1:0")

	_, err := source.AccessToken(context.Background())
	require.Error(t, err)
	typed := errors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, errors.CodeNotConfigured, typed.Code())
}

func TestAccessTokenExpiredWithoutRefreshToken(t *testing.T) {
	now := time.Now()
	repo := &fakeTokenRepo{token: storedToken("", 10*time.Second, now)}
	source := testTokenSource(repo, "http://127.0.0.1:0")
	source.now = func() time.Time { return now }

	_, err := source.AccessToken(context.Background())
	require.Error(t, err)
	typed := errors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, errors.CodeUnauthorized, typed.Code())
}

func TestExchangePersistsFirstTokenPair(t *testing.T) {
	var calls int64
	server := testTokenServer(t, &calls)
	defer server.Close()

	repo := &fakeTokenRepo{}
	source := testTokenSource(repo, server.URL)

	token, err := source.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)
	require.Equal(t, "fresh-token", token.AccessToken)
	require.NotNil(t, repo.token)
	require.Equal(t, Provider, repo.token.Provider)

	_, err = source.Exchange(context.Background(), "")
	require.Error(t, err)
}

func TestTokenRequestFailureCarriesProviderBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	now := time.Now()
	repo := &fakeTokenRepo{token: storedToken("stored-refresh", 30*time.Second, now)}
	source := testTokenSource(repo, server.URL)
	source.now = func() time.Time { return now }

	_, err := source.AccessToken(context.Background())
	require.Error(t, err)
	typed := errors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, errors.CodeDependency, typed.Code())
	require.NotNil(t, typed.Details())
}

func TestStatusReportsConnection(t *testing.T) {
	now := time.Now()
	repo := &fakeTokenRepo{}
	source := testTokenSource(repo, "http://127.0.0.1:0")
	source.now = func() time.Time { return now }

	connected, _, err := source.Status(context.Background())
	require.NoError(t, err)
	require.False(t, connected)

	repo.token = storedToken("stored-refresh", time.Hour, now)
	connected, expiresAt, err := source.Status(context.Background())
	require.NoError(t, err)
	require.True(t, connected)
	require.NotNil(t, expiresAt)
}
