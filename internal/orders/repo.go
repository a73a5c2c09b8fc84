package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/enums"
	"github.com/vitrinelabs/vitrine-backend/pkg/pagination"
)

// Filter narrows order listings. All set fields are combined with AND.
type Filter struct {
	// From and To bound created_at. To is inclusive of the whole day.
	From     *time.Time
	To       *time.Time
	Statuses []enums.OrderStatus
	// Categories matches orders containing at least one item in any of the
	// named categories.
	Categories []string
	// Query matches order number or customer name, case insensitive.
	Query    string
	MinTotal *decimal.Decimal
	MaxTotal *decimal.Decimal
}

// Repository reads and mutates orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, number string) (*models.Order, error)
	List(ctx context.Context, filter Filter, page pagination.Params) ([]models.Order, int64, error)
	ListAll(ctx context.Context, filter Filter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	UpdateShipping(ctx context.Context, id uuid.UUID, carrier, trackingCode *string) error
	SetPaymentID(ctx context.Context, id uuid.UUID, paymentID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Where("number = ?", number).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) applyFilter(ctx context.Context, filter Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Order{})

	if filter.From != nil {
		query = query.Where("orders.created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		// Inclusive upper bound covering the whole day.
		query = query.Where("orders.created_at < ?", filter.To.UTC().Add(24*time.Hour))
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("orders.status IN ?", filter.Statuses)
	}
	if len(filter.Categories) > 0 {
		query = query.Where(
			"EXISTS (SELECT 1 FROM order_items WHERE order_items.order_id = orders.id AND order_items.category IN ?)",
			filter.Categories,
		)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.
			Joins("JOIN customers ON customers.id = orders.customer_id").
			Where("LOWER(orders.number) LIKE ? OR LOWER(customers.name) LIKE ?", pattern, pattern)
	}
	if filter.MinTotal != nil {
		query = query.Where("orders.total >= ?", *filter.MinTotal)
	}
	if filter.MaxTotal != nil {
		query = query.Where("orders.total <= ?", *filter.MaxTotal)
	}
	return query
}

func (r *repository) List(ctx context.Context, filter Filter, page pagination.Params) ([]models.Order, int64, error) {
	page = pagination.Normalize(page)

	query := r.applyFilter(ctx, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var result []models.Order
	err := query.
		Preload("Customer").
		Preload("Items").
		Order("orders.created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&result).Error
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *repository) ListAll(ctx context.Context, filter Filter) ([]models.Order, error) {
	var result []models.Order
	err := r.applyFilter(ctx, filter).
		Preload("Customer").
		Preload("Items").
		Order("orders.created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) UpdateShipping(ctx context.Context, id uuid.UUID, carrier, trackingCode *string) error {
	fields := map[string]any{}
	if carrier != nil {
		fields["shipping_carrier"] = *carrier
	}
	if trackingCode != nil {
		fields["tracking_code"] = *trackingCode
	}
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repository) SetPaymentID(ctx context.Context, id uuid.UUID, paymentID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("payment_id", paymentID).Error
}
