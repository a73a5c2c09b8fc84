package mercadopago

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/vitrinelabs/vitrine-backend/internal/orders"
	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/enums"
	"github.com/vitrinelabs/vitrine-backend/pkg/errors"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
)

// Provider is the idempotency scope for webhook deliveries.
const Provider = "mercadopago"

// idempotencyTTL keeps processed delivery markers long enough to absorb the
// provider's retry window.
const idempotencyTTL = 24 * time.Hour

// Notification is the decoded webhook body. Only payment notifications are
// acted on; everything else is acknowledged and dropped.
type Notification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// PaymentAPI is the provider lookup the webhook needs.
type PaymentAPI interface {
	GetPayment(ctx context.Context, id string) (*Payment, error)
}

// OrderExporter pushes paid orders to the ERP. Export failures are logged
// and never fail the webhook.
type OrderExporter interface {
	ExportOrder(ctx context.Context, order *models.Order) error
}

// IdempotencyStore deduplicates webhook deliveries. Nil disables the guard.
type IdempotencyStore interface {
	IdempotencyKey(scope, id string) string
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// WebhookService maps provider payment notifications onto local orders.
type WebhookService struct {
	payments PaymentAPI
	orders   *orders.Service
	exporter OrderExporter
	dedupe   IdempotencyStore
	logg     *logger.Logger
}

func NewWebhookService(
	payments PaymentAPI,
	orderSvc *orders.Service,
	exporter OrderExporter,
	dedupe IdempotencyStore,
	logg *logger.Logger,
) *WebhookService {
	return &WebhookService{
		payments: payments,
		orders:   orderSvc,
		exporter: exporter,
		dedupe:   dedupe,
		logg:     logg,
	}
}

// MapPaymentStatus translates a provider payment status to the local order
// status. The second return is false for states that should not touch the
// order.
func MapPaymentStatus(status string) (enums.OrderStatus, bool) {
	switch status {
	case "approved":
		return enums.OrderStatusPaid, true
	case "in_process", "pending":
		return enums.OrderStatusPending, true
	case "rejected", "cancelled":
		return enums.OrderStatusCancelled, true
	default:
		return "", false
	}
}

// HandleNotification processes one webhook delivery. Downstream failures
// are returned for logging; the controller still acknowledges the provider.
func (s *WebhookService) HandleNotification(ctx context.Context, notification Notification) error {
	ctx = s.logg.WithProvider(ctx, Provider)

	if notification.Type != "payment" {
		s.logg.Debug(ctx, "ignoring non-payment notification")
		return nil
	}
	if s.orders == nil {
		return errors.New(errors.CodeNotConfigured, "no persistent store configured")
	}
	if notification.Data.ID == "" {
		return errors.New(errors.CodeValidation, "notification carried no payment id")
	}

	payment, err := s.payments.GetPayment(ctx, notification.Data.ID)
	if err != nil {
		return err
	}

	mapped, actionable := MapPaymentStatus(payment.Status)
	if !actionable {
		s.logg.Debug(ctx, fmt.Sprintf("ignoring payment status %q", payment.Status))
		return nil
	}

	var dedupeKey string
	if s.dedupe != nil {
		key := s.dedupe.IdempotencyKey(Provider, fmt.Sprintf("%d:%s", payment.ID, payment.Status))
		fresh, err := s.dedupe.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), idempotencyTTL)
		if err != nil {
			s.logg.Warn(ctx, "idempotency check unavailable, processing anyway")
		} else if !fresh {
			s.logg.Debug(ctx, "duplicate delivery, skipping")
			return nil
		} else {
			dedupeKey = key
		}
	}

	if err := s.applyPayment(ctx, payment, mapped); err != nil {
		// The delivery was not applied; drop the marker so the provider's
		// retry is not mistaken for a duplicate.
		s.releaseDedupe(ctx, dedupeKey)
		return err
	}
	return nil
}

func (s *WebhookService) applyPayment(ctx context.Context, payment *Payment, mapped enums.OrderStatus) error {
	if payment.ExternalReference == "" {
		return errors.New(errors.CodeValidation, "payment carried no external reference")
	}
	order, err := s.orders.GetByNumber(ctx, payment.ExternalReference)
	if err != nil {
		return err
	}
	if order == nil {
		return errors.New(errors.CodeNotFound, fmt.Sprintf("no order with number %q", payment.ExternalReference))
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if order.PaymentID == nil {
		if err := s.orders.AttachPayment(ctx, order.ID, fmt.Sprintf("%d", payment.ID)); err != nil {
			s.logg.Warn(ctx, "could not attach payment id")
		}
	}

	updated, changed, err := s.orders.SetStatus(ctx, order.ID, mapped)
	if err != nil {
		return err
	}
	if !changed {
		s.logg.Debug(ctx, "order already in mapped status")
		return nil
	}
	s.logg.Info(ctx, fmt.Sprintf("order moved to %s", mapped))

	if mapped == enums.OrderStatusPaid && s.exporter != nil {
		if err := s.exporter.ExportOrder(ctx, updated); err != nil {
			// Export is best effort; the order state is already correct.
			s.logg.Error(ctx, "order export failed", err)
		}
	}
	return nil
}

func (s *WebhookService) releaseDedupe(ctx context.Context, key string) {
	if s.dedupe == nil || key == "" {
		return
	}
	if err := s.dedupe.Del(ctx, key); err != nil {
		s.logg.Warn(ctx, "could not release dedupe marker")
	}
}

// VerifySignature checks the provider's x-signature header. The scheme is
// "ts=<unix>,v1=<hmac>" where the HMAC covers an id/request-id/ts manifest.
// An empty configured secret disables verification.
func VerifySignature(secret, signatureHeader, requestID, dataID string) bool {
	if secret == "" {
		return true
	}
	if signatureHeader == "" {
		return false
	}

	var ts, v1 string
	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return false
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(v1))
}
