package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vitrinelabs/vitrine-backend/api/responses"
	"github.com/vitrinelabs/vitrine-backend/internal/settings"
	pkgerrors "github.com/vitrinelabs/vitrine-backend/pkg/errors"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
)

// SettingsController serves CMS content blobs.
type SettingsController struct {
	settingsSvc *settings.Service
	logg        *logger.Logger
}

func NewSettingsController(settingsSvc *settings.Service, logg *logger.Logger) *SettingsController {
	return &SettingsController{settingsSvc: settingsSvc, logg: logg}
}

// Get handles GET /api/content/{key}.
func (c *SettingsController) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	value, err := c.settingsSvc.Get(r.Context(), key)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if value == nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no content under this key"))
		return
	}
	responses.WriteOK(w, map[string]any{"ok": true, "key": key, "value": json.RawMessage(value)})
}

// Put handles PUT /api/content/{key}.
func (c *SettingsController) Put(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "could not read body"))
		return
	}
	if !json.Valid(body) {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "body must be valid JSON"))
		return
	}

	if err := c.settingsSvc.Set(r.Context(), key, body); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteOK(w, map[string]any{"ok": true, "key": key})
}
