package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/enums"
)

// Service exposes the stock ledger. Stock is always derived from the sum of
// movements; appending a movement is the only way to change it.
type Service interface {
	CurrentStock(ctx context.Context, productID uuid.UUID) (int, error)
	Append(ctx context.Context, input AppendInput) (*models.InventoryMovement, error)
	// ReconcileTo brings a product's derived stock to the target level by
	// appending a single delta movement. Returns nil when the ledger already
	// matches the target.
	ReconcileTo(ctx context.Context, productID uuid.UUID, target int, movementType enums.MovementType, note string) (*models.InventoryMovement, error)
	History(ctx context.Context, productID uuid.UUID) ([]models.InventoryMovement, error)
}

// AppendInput captures one signed ledger entry.
type AppendInput struct {
	ProductID uuid.UUID
	Quantity  int
	Type      enums.MovementType
	Note      string
}

type service struct {
	repo Repository
}

// NewService wires an inventory service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CurrentStock(ctx context.Context, productID uuid.UUID) (int, error) {
	if productID == uuid.Nil {
		return 0, fmt.Errorf("product id is required")
	}
	return s.repo.SumByProduct(ctx, productID)
}

func (s *service) Append(ctx context.Context, input AppendInput) (*models.InventoryMovement, error) {
	if input.ProductID == uuid.Nil {
		return nil, fmt.Errorf("product id is required")
	}
	if input.Quantity == 0 {
		return nil, fmt.Errorf("quantity must be non-zero")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid movement type %q", input.Type)
	}

	movement := &models.InventoryMovement{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		Type:      input.Type,
		Note:      input.Note,
	}
	if err := s.repo.Create(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *service) ReconcileTo(ctx context.Context, productID uuid.UUID, target int, movementType enums.MovementType, note string) (*models.InventoryMovement, error) {
	current, err := s.CurrentStock(ctx, productID)
	if err != nil {
		return nil, err
	}

	delta := target - current
	if delta == 0 {
		return nil, nil
	}

	return s.Append(ctx, AppendInput{
		ProductID: productID,
		Quantity:  delta,
		Type:      movementType,
		Note:      note,
	})
}

func (s *service) History(ctx context.Context, productID uuid.UUID) ([]models.InventoryMovement, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("product id is required")
	}
	return s.repo.ListByProduct(ctx, productID)
}
