package reports

import (
	"context"

	"github.com/vitrinelabs/vitrine-backend/internal/orders"
	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/pagination"
)

// OrderSource supplies the order sets reports are built from. Backed by the
// order repository in production and by the demo dataset when no persistent
// store is configured.
type OrderSource interface {
	List(ctx context.Context, filter orders.Filter, page pagination.Params) ([]models.Order, int64, error)
	ListAll(ctx context.Context, filter orders.Filter) ([]models.Order, error)
}

// Result pairs one display page of orders with aggregates computed over the
// whole filtered set.
type Result struct {
	Orders []models.Order
	Total  int64
	Report Report
}

type Service struct {
	source OrderSource
}

func NewService(source OrderSource) *Service {
	return &Service{source: source}
}

// Query lists one page of matching orders and aggregates over the entire
// filtered set, not just the page window.
func (s *Service) Query(ctx context.Context, filter orders.Filter, page pagination.Params) (*Result, error) {
	pageOrders, total, err := s.source.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	all, err := s.source.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Result{
		Orders: pageOrders,
		Total:  total,
		Report: Build(all),
	}, nil
}
