package controllers

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vitrinelabs/vitrine-backend/api/responses"
	"github.com/vitrinelabs/vitrine-backend/api/validators"
	"github.com/vitrinelabs/vitrine-backend/internal/bling"
	"github.com/vitrinelabs/vitrine-backend/internal/integrations"
	"github.com/vitrinelabs/vitrine-backend/pkg/config"
	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	pkgerrors "github.com/vitrinelabs/vitrine-backend/pkg/errors"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
)

// pullLockScope keys the distributed lock that serializes catalog pulls.
const pullLockScope = "bling-pull"

// pullLockTTL caps how long a crashed pull can hold the lock.
const pullLockTTL = 10 * time.Minute

const stateCookieName = "bling_oauth_state"
const stateCookieTTL = 10 * time.Minute

// Locker serializes concurrent pulls across instances. Nil disables
// locking.
type Locker interface {
	AcquireLock(ctx context.Context, scope string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, scope string) error
}

// BlingController exposes the ERP integration surface: manual pull, status,
// and the OAuth connect flow.
type BlingController struct {
	importer *bling.Importer
	tokens   *bling.TokenSource
	syncLogs integrations.SyncLogRepository
	locker   Locker
	app      config.AppConfig
	logg     *logger.Logger
}

func NewBlingController(
	importer *bling.Importer,
	tokens *bling.TokenSource,
	syncLogs integrations.SyncLogRepository,
	locker Locker,
	app config.AppConfig,
	logg *logger.Logger,
) *BlingController {
	return &BlingController{importer: importer, tokens: tokens, syncLogs: syncLogs, locker: locker, app: app, logg: logg}
}

// SyncLogs handles GET /api/bling/sync-logs for the admin dashboard.
func (c *BlingController) SyncLogs(w http.ResponseWriter, r *http.Request) {
	if c.syncLogs == nil {
		responses.WriteError(r.Context(), c.logg, w, errNoStore())
		return
	}

	limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	logs, err := c.syncLogs.ListRecent(r.Context(), bling.Provider, limit)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if logs == nil {
		logs = []models.SyncLog{}
	}
	responses.WriteOK(w, map[string]any{"ok": true, "logs": logs})
}

type pullRequest struct {
	Page  int `json:"page" validate:"omitempty,min=1"`
	Limit int `json:"limit" validate:"omitempty,min=1,max=500"`
}

// PullProducts handles POST /api/bling/products/pull.
func (c *BlingController) PullProducts(w http.ResponseWriter, r *http.Request) {
	var body pullRequest
	if r.ContentLength > 0 {
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
	}

	release, err := c.acquirePullLock(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	defer release()

	imported, err := c.importer.Pull(r.Context(), body.Page, body.Limit, nil)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteOK(w, map[string]any{"ok": true, "imported": imported})
}

func (c *BlingController) acquirePullLock(r *http.Request) (func(), error) {
	if c.locker == nil {
		return func() {}, nil
	}
	acquired, err := c.locker.AcquireLock(r.Context(), pullLockScope, pullLockTTL)
	if err != nil {
		// A lock service outage must not block imports.
		c.logg.Warn(r.Context(), "pull lock unavailable, proceeding without it")
		return func() {}, nil
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a Bling sync is already running")
	}
	return func() {
		if err := c.locker.ReleaseLock(r.Context(), pullLockScope); err != nil {
			c.logg.Warn(r.Context(), "could not release pull lock")
		}
	}, nil
}

// Status handles GET /api/bling/status.
func (c *BlingController) Status(w http.ResponseWriter, r *http.Request) {
	connected, expiresAt, err := c.tokens.Status(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	payload := map[string]any{"ok": true, "connected": connected}
	if expiresAt != nil {
		payload["expiresAt"] = expiresAt.UTC().Format(time.RFC3339)
	} else {
		payload["expiresAt"] = nil
	}
	responses.WriteOK(w, payload)
}

// OAuthStart handles GET /api/bling/oauth/start. With ?debug=1 the consent
// URL is returned instead of a redirect.
func (c *BlingController) OAuthStart(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state + "." + c.signState(state),
		Path:     "/api/bling/oauth",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	authURL := c.tokens.AuthorizeURL(state)
	if r.URL.Query().Get("debug") == "1" {
		responses.WriteOK(w, map[string]any{"ok": true, "url": authURL})
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback handles GET /api/bling/oauth/callback.
func (c *BlingController) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || !c.validState(cookie.Value, state) {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "OAuth state mismatch"))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/api/bling/oauth", MaxAge: -1})

	if _, err := c.tokens.Exchange(r.Context(), code); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	c.logg.Info(c.logg.WithProvider(r.Context(), bling.Provider), "integration connected")
	http.Redirect(w, r, c.app.AdminURL, http.StatusFound)
}

func (c *BlingController) signState(state string) string {
	mac := hmac.New(sha256.New, []byte(c.app.StateSecret))
	mac.Write([]byte(state))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *BlingController) validState(cookieValue, state string) bool {
	if state == "" {
		return false
	}
	stored, sig, found := strings.Cut(cookieValue, ".")
	if !found || stored != state {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(c.signState(stored)))
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
