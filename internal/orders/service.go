package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/enums"
	pkgerrors "github.com/vitrinelabs/vitrine-backend/pkg/errors"
	"github.com/vitrinelabs/vitrine-backend/pkg/pagination"
)

// Service implements order listing and the narrow set of post-checkout
// mutations.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validateFilter(filter Filter) error {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}
	for _, status := range filter.Statuses {
		if !status.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
		}
	}
	if filter.MinTotal != nil && filter.MaxTotal != nil && filter.MinTotal.GreaterThan(*filter.MaxTotal) {
		return pkgerrors.New(pkgerrors.CodeValidation, "minTotal must not exceed maxTotal")
	}
	return nil
}

// List returns a page of orders matching the filter plus the total count.
func (s *Service) List(ctx context.Context, filter Filter, page pagination.Params) ([]models.Order, int64, error) {
	if err := s.validateFilter(filter); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter, page)
}

// ListAll returns every order matching the filter, oldest first. Used by
// report aggregation, which needs the full matching set.
func (s *Service) ListAll(ctx context.Context, filter Filter) ([]models.Order, error) {
	if err := s.validateFilter(filter); err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx, filter)
}

// Get returns one order with customer and items loaded.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	return s.repo.FindByID(ctx, id)
}

// GetByNumber returns the order with the given public number, or nil when
// none exists.
func (s *Service) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	if number == "" {
		return nil, fmt.Errorf("order number is required")
	}
	return s.repo.FindByNumber(ctx, number)
}

// SetStatus moves an order to the given status. Returns the updated order
// and whether anything was written; setting the current status is a no-op.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, bool, error) {
	if !status.IsValid() {
		return nil, false, fmt.Errorf("invalid order status %q", status)
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if order.Status == status {
		return order, false, nil
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, false, err
	}
	order.Status = status
	return order, true, nil
}

// SetShipping records carrier and tracking code on a shipped order.
func (s *Service) SetShipping(ctx context.Context, id uuid.UUID, carrier, trackingCode *string) (*models.Order, error) {
	if err := s.repo.UpdateShipping(ctx, id, carrier, trackingCode); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// AttachPayment links an external payment id to the order once.
func (s *Service) AttachPayment(ctx context.Context, id uuid.UUID, paymentID string) error {
	if paymentID == "" {
		return fmt.Errorf("payment id is required")
	}
	return s.repo.SetPaymentID(ctx, id, paymentID)
}

// IsNotFound reports whether err means the order does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
