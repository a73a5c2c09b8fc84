package bling

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vitrinelabs/vitrine-backend/internal/integrations"
	"github.com/vitrinelabs/vitrine-backend/pkg/config"
	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/errors"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
)

// Provider is the token row key for this integration.
const Provider = "bling"

// refreshSkew refreshes tokens that expire within this window so an
// in-flight call does not race the expiry.
const refreshSkew = 60 * time.Second

// TokenSource loads, refreshes and persists the OAuth credential set used
// for every authenticated call to the ERP.
type TokenSource struct {
	cfg    config.BlingConfig
	tokens integrations.TokenRepository
	logg   *logger.Logger
	client *http.Client
	now    func() time.Time
}

func NewTokenSource(cfg config.BlingConfig, tokens integrations.TokenRepository, logg *logger.Logger) *TokenSource {
	return &TokenSource{
		cfg:    cfg,
		tokens: tokens,
		logg:   logg,
		client: &http.Client{Timeout: cfg.TokenTimeout},
		now:    time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// AccessToken returns a token valid for at least the refresh skew window,
// refreshing proactively when the stored one is about to expire.
func (s *TokenSource) AccessToken(ctx context.Context) (string, error) {
	if s.tokens == nil {
		return "", errors.New(errors.CodeNotConfigured, "no persistent store configured")
	}
	stored, err := s.tokens.GetByProvider(ctx, Provider)
	if err != nil {
		return "", fmt.Errorf("loading token: %w", err)
	}
	if stored == nil {
		return "", errors.New(errors.CodeNotConfigured, "Bling is not connected")
	}

	if s.needsRefresh(stored) {
		if stored.RefreshToken == nil || *stored.RefreshToken == "" {
			return "", errors.New(errors.CodeUnauthorized, "Bling token expired and no refresh token is stored")
		}
		refreshed, err := s.Refresh(ctx)
		if err != nil {
			return "", err
		}
		return refreshed.AccessToken, nil
	}
	return stored.AccessToken, nil
}

func (s *TokenSource) needsRefresh(token *models.IntegrationToken) bool {
	if token.ExpiresAt == nil {
		return false
	}
	return token.ExpiresAt.Before(s.now().Add(refreshSkew))
}

// Refresh exchanges the stored refresh token for a fresh pair and persists
// it before returning.
func (s *TokenSource) Refresh(ctx context.Context) (*models.IntegrationToken, error) {
	if s.tokens == nil {
		return nil, errors.New(errors.CodeNotConfigured, "no persistent store configured")
	}
	stored, err := s.tokens.GetByProvider(ctx, Provider)
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}
	if stored == nil || stored.RefreshToken == nil {
		return nil, errors.New(errors.CodeNotConfigured, "Bling is not connected")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", *stored.RefreshToken)

	s.logg.Debug(s.logg.WithProvider(ctx, Provider), "refreshing access token")
	return s.requestToken(ctx, form)
}

// Exchange trades an authorization code for the first token pair.
func (s *TokenSource) Exchange(ctx context.Context, code string) (*models.IntegrationToken, error) {
	if s.tokens == nil {
		return nil, errors.New(errors.CodeNotConfigured, "no persistent store configured")
	}
	if code == "" {
		return nil, errors.New(errors.CodeValidation, "authorization code is required")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", s.cfg.RedirectURL)

	return s.requestToken(ctx, form)
}

func (s *TokenSource) requestToken(ctx context.Context, form url.Values) (*models.IntegrationToken, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TokenTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+basicCredentials(s.cfg.ClientID, s.cfg.ClientSecret))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "Bling token endpoint unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "reading Bling token response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New(errors.CodeDependency, "Bling token request failed").
			WithDetails(map[string]any{"status": resp.StatusCode, "body": string(body)})
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "decoding Bling token response")
	}
	if parsed.AccessToken == "" {
		return nil, errors.New(errors.CodeDependency, "Bling token response carried no access token")
	}

	token := &models.IntegrationToken{
		Provider:    Provider,
		AccessToken: parsed.AccessToken,
	}
	if parsed.RefreshToken != "" {
		token.RefreshToken = &parsed.RefreshToken
	}
	if parsed.ExpiresIn > 0 {
		expiresAt := s.now().Add(time.Duration(parsed.ExpiresIn) * time.Second).UTC()
		token.ExpiresAt = &expiresAt
	}
	if parsed.Scope != "" {
		token.Scope = &parsed.Scope
	}

	if err := s.tokens.Upsert(ctx, token); err != nil {
		return nil, fmt.Errorf("persisting token: %w", err)
	}
	return token, nil
}

// Status reports whether the integration holds a usable credential set.
func (s *TokenSource) Status(ctx context.Context) (bool, *time.Time, error) {
	if s.tokens == nil {
		return false, nil, nil
	}
	stored, err := s.tokens.GetByProvider(ctx, Provider)
	if err != nil {
		return false, nil, err
	}
	if stored == nil {
		return false, nil, nil
	}
	if stored.ExpiresAt != nil && stored.ExpiresAt.Before(s.now()) && (stored.RefreshToken == nil || *stored.RefreshToken == "") {
		return false, stored.ExpiresAt, nil
	}
	return true, stored.ExpiresAt, nil
}

// AuthorizeURL builds the provider consent URL for the OAuth start redirect.
func (s *TokenSource) AuthorizeURL(state string) string {
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", s.cfg.ClientID)
	query.Set("state", state)
	if s.cfg.RedirectURL != "" {
		query.Set("redirect_uri", s.cfg.RedirectURL)
	}
	return s.cfg.AuthURL + "?" + query.Encode()
}

func basicCredentials(id, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(id + ":" + secret))
}
