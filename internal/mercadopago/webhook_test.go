package mercadopago

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vitrinelabs/vitrine-backend/internal/orders"
	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/enums"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
)

func setupWebhookDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			document TEXT,
			phone TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			number TEXT NOT NULL UNIQUE,
			customer_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			total NUMERIC NOT NULL DEFAULT 0,
			payment_id TEXT,
			shipping_carrier TEXT,
			tracking_code TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			product_id TEXT,
			name TEXT NOT NULL,
			category TEXT,
			price NUMERIC NOT NULL DEFAULT 0,
			quantity INTEGER NOT NULL
		)`,
	} {
		require.NoError(t, gdb.Exec(stmt).Error)
	}
	return gdb
}

type fakePaymentAPI struct {
	payments map[string]*Payment
}

func (f *fakePaymentAPI) GetPayment(ctx context.Context, id string) (*Payment, error) {
	if payment, ok := f.payments[id]; ok {
		copied := *payment
		return &copied, nil
	}
	return nil, fmt.Errorf("payment %s not found", id)
}

type fakeExporter struct {
	exported []string
}

func (f *fakeExporter) ExportOrder(ctx context.Context, order *models.Order) error {
	f.exported = append(f.exported, order.Number)
	return nil
}

// fakeDedupeStore tracks SetNX markers in memory and records releases.
type fakeDedupeStore struct {
	keys    map[string]bool
	deleted []string
}

func newFakeDedupeStore() *fakeDedupeStore {
	return &fakeDedupeStore{keys: map[string]bool{}}
}

func (f *fakeDedupeStore) IdempotencyKey(scope, id string) string {
	return "vitrine:idempotency:" + scope + ":" + id
}

func (f *fakeDedupeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeDedupeStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

type webhookFixture struct {
	db       *gorm.DB
	payments *fakePaymentAPI
	exporter *fakeExporter
	dedupe   *fakeDedupeStore
	service  *WebhookService
}

func newWebhookFixture(t *testing.T) webhookFixture {
	t.Helper()
	db := setupWebhookDB(t)
	payments := &fakePaymentAPI{payments: map[string]*Payment{}}
	exporter := &fakeExporter{}
	dedupe := newFakeDedupeStore()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	service := NewWebhookService(payments, orders.NewService(orders.NewRepository(db)), exporter, dedupe, logg)
	return webhookFixture{db: db, payments: payments, exporter: exporter, dedupe: dedupe, service: service}
}

func seedPendingOrder(t *testing.T, db *gorm.DB, number string) models.Order {
	t.Helper()
	customer := models.Customer{ID: uuid.New(), Name: "Cliente " + number, Email: number + "@example.com"}
	require.NoError(t, db.Create(&customer).Error)

	order := models.Order{
		ID:         uuid.New(),
		Number:     number,
		CustomerID: customer.ID,
		Status:     enums.OrderStatusPending,
		Total:      decimal.RequireFromString("199.90"),
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func paymentNotification(id string) Notification {
	var n Notification
	n.Type = "payment"
	n.Data.ID = id
	return n
}

func TestHandleNotificationApprovedMarksPaidAndExports(t *testing.T) {
	fix := newWebhookFixture(t)
	seedPendingOrder(t, fix.db, "MP-1001")
	fix.payments.payments["555"] = &Payment{ID: 555, Status: "approved", ExternalReference: "MP-1001"}

	require.NoError(t, fix.service.HandleNotification(context.Background(), paymentNotification("555")))

	var stored models.Order
	require.NoError(t, fix.db.Where("number = ?", "MP-1001").First(&stored).Error)
	require.Equal(t, enums.OrderStatusPaid, stored.Status)
	require.NotNil(t, stored.PaymentID)
	require.Equal(t, "555", *stored.PaymentID)
	require.Equal(t, []string{"MP-1001"}, fix.exporter.exported)
}

func TestHandleNotificationWritesOnlyOnChange(t *testing.T) {
	fix := newWebhookFixture(t)
	seedPendingOrder(t, fix.db, "MP-1002")
	fix.payments.payments["556"] = &Payment{ID: 556, Status: "approved", ExternalReference: "MP-1002"}

	require.NoError(t, fix.service.HandleNotification(context.Background(), paymentNotification("556")))
	require.NoError(t, fix.service.HandleNotification(context.Background(), paymentNotification("556")))

	// The second delivery is a duplicate of an applied one: no second export.
	require.Equal(t, []string{"MP-1002"}, fix.exporter.exported)
	require.Empty(t, fix.dedupe.deleted)
}

func TestHandleNotificationStatusMapping(t *testing.T) {
	cases := []struct {
		payment string
		want    enums.OrderStatus
	}{
		{"in_process", enums.OrderStatusPending},
		{"rejected", enums.OrderStatusCancelled},
		{"cancelled", enums.OrderStatusCancelled},
	}
	for i, tc := range cases {
		fix := newWebhookFixture(t)
		number := fmt.Sprintf("MP-11%02d", i)
		seedPendingOrder(t, fix.db, number)
		paymentID := fmt.Sprintf("60%d", i)
		fix.payments.payments[paymentID] = &Payment{ID: int64(600 + i), Status: tc.payment, ExternalReference: number}

		require.NoError(t, fix.service.HandleNotification(context.Background(), paymentNotification(paymentID)))

		var stored models.Order
		require.NoError(t, fix.db.Where("number = ?", number).First(&stored).Error)
		require.Equal(t, tc.want, stored.Status, "payment status %s", tc.payment)
		require.Empty(t, fix.exporter.exported)
	}
}

func TestHandleNotificationIgnoresUnknownStatus(t *testing.T) {
	fix := newWebhookFixture(t)
	seedPendingOrder(t, fix.db, "MP-1201")
	fix.payments.payments["700"] = &Payment{ID: 700, Status: "charged_back", ExternalReference: "MP-1201"}

	require.NoError(t, fix.service.HandleNotification(context.Background(), paymentNotification("700")))

	var stored models.Order
	require.NoError(t, fix.db.Where("number = ?", "MP-1201").First(&stored).Error)
	require.Equal(t, enums.OrderStatusPending, stored.Status)
}

func TestHandleNotificationIgnoresNonPayment(t *testing.T) {
	fix := newWebhookFixture(t)

	var n Notification
	n.Type = "merchant_order"
	n.Data.ID = "irrelevant"
	require.NoError(t, fix.service.HandleNotification(context.Background(), n))
}

func TestHandleNotificationUnknownOrder(t *testing.T) {
	fix := newWebhookFixture(t)
	fix.payments.payments["800"] = &Payment{ID: 800, Status: "approved", ExternalReference: "MP-NOPE"}

	err := fix.service.HandleNotification(context.Background(), paymentNotification("800"))
	require.Error(t, err)
}

func TestHandleNotificationReleasesDedupeOnFailure(t *testing.T) {
	fix := newWebhookFixture(t)
	fix.payments.payments["900"] = &Payment{ID: 900, Status: "approved", ExternalReference: "MP-1301"}

	// First delivery fails downstream: the order does not exist yet.
	err := fix.service.HandleNotification(context.Background(), paymentNotification("900"))
	require.Error(t, err)
	require.Len(t, fix.dedupe.deleted, 1)

	// The provider retries after the order lands; the marker must not have
	// swallowed the retry as a duplicate.
	seedPendingOrder(t, fix.db, "MP-1301")
	require.NoError(t, fix.service.HandleNotification(context.Background(), paymentNotification("900")))

	var stored models.Order
	require.NoError(t, fix.db.Where("number = ?", "MP-1301").First(&stored).Error)
	require.Equal(t, enums.OrderStatusPaid, stored.Status)
	require.Equal(t, []string{"MP-1301"}, fix.exporter.exported)
}

func TestVerifySignature(t *testing.T) {
	secret := "webhook-secret"
	requestID := "req-123"
	dataID := "999"
	ts := fmt.Sprintf("%d", time.Now().Unix())

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	header := fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))

	require.True(t, VerifySignature(secret, header, requestID, dataID))
	require.False(t, VerifySignature(secret, header, requestID, "other"))
	require.False(t, VerifySignature(secret, "", requestID, dataID))
	require.False(t, VerifySignature(secret, "ts=1,v1=bad", requestID, dataID))

	// No configured secret disables the check.
	require.True(t, VerifySignature("", "", requestID, dataID))
}
