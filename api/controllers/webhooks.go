package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/vitrinelabs/vitrine-backend/api/responses"
	"github.com/vitrinelabs/vitrine-backend/internal/mercadopago"
	"github.com/vitrinelabs/vitrine-backend/pkg/config"
	pkgerrors "github.com/vitrinelabs/vitrine-backend/pkg/errors"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
)

// WebhooksController receives provider callbacks.
type WebhooksController struct {
	webhookSvc *mercadopago.WebhookService
	cfg        config.MercadoPagoConfig
	logg       *logger.Logger
}

func NewWebhooksController(webhookSvc *mercadopago.WebhookService, cfg config.MercadoPagoConfig, logg *logger.Logger) *WebhooksController {
	return &WebhooksController{webhookSvc: webhookSvc, cfg: cfg, logg: logg}
}

// MercadoPago handles POST /api/mp/webhook. Malformed JSON and failed
// signature checks are rejected; every other failure is logged and
// acknowledged so the provider does not retry forever.
func (c *WebhooksController) MercadoPago(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "could not read body"))
		return
	}

	var notification mercadopago.Notification
	if err := json.Unmarshal(body, &notification); err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "malformed webhook body"))
		return
	}

	dataID := notification.Data.ID
	if dataID == "" {
		dataID = r.URL.Query().Get("data.id")
		notification.Data.ID = dataID
	}

	if !mercadopago.VerifySignature(c.cfg.WebhookSecret, r.Header.Get("x-signature"), r.Header.Get("x-request-id"), dataID) {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
		return
	}

	if err := c.webhookSvc.HandleNotification(r.Context(), notification); err != nil {
		// Acknowledge anyway: the provider retries on non-2xx and the
		// failure is already recorded.
		c.logg.Error(r.Context(), "webhook processing failed", err)
	}
	responses.WriteOK(w, map[string]any{"ok": true})
}
