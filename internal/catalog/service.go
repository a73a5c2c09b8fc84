package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/vitrinelabs/vitrine-backend/pkg/db"
	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/pagination"
	"github.com/vitrinelabs/vitrine-backend/pkg/slug"
)

// ExternalProduct carries the resolved fields of a product sourced from an
// external catalog. Nil fields were absent upstream and must not overwrite
// values already stored locally.
type ExternalProduct struct {
	ExternalID    string
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	OriginalPrice *decimal.Decimal
	Image         *string
	Images        []string
	CategoryName  *string
	BrandName     *string
	// Stock is the absolute level reported upstream. The ledger reconcile
	// happens elsewhere; here it only drives the in_stock flag.
	Stock       *int
	WeightGrams *int
	LengthCM    *float64
	HeightCM    *float64
	WidthCM     *float64
}

// UpsertResult reports what the upsert did with a single external product.
type UpsertResult struct {
	Product *models.Product
	Created bool
}

// Service implements catalog reads and the external-product upsert used by
// catalog synchronization.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetProduct returns a product with its category and brand loaded.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("product id is required")
	}
	return s.repo.FindProductByID(ctx, id)
}

// ListProducts returns a filtered page of the public catalog.
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter, page pagination.Params) ([]models.Product, int64, error) {
	return s.repo.ListProducts(ctx, filter, page)
}

// FindOrCreateCategory resolves a category by the slug of its name, creating
// it on first sight. Returns nil for blank names.
func (s *Service) FindOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	categorySlug := slug.Make(name)
	if categorySlug == "" {
		return nil, nil
	}

	existing, err := s.repo.FindCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, fmt.Errorf("finding category: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	category := &models.Category{ID: uuid.New(), Name: name, Slug: categorySlug}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		// Lost a race with a concurrent creator, re-read the winner.
		if db.IsUniqueViolation(err) {
			return s.repo.FindCategoryBySlug(ctx, categorySlug)
		}
		return nil, fmt.Errorf("creating category: %w", err)
	}
	return category, nil
}

// FindOrCreateBrand resolves a brand by the slug of its name, creating it on
// first sight. Returns nil for blank names.
func (s *Service) FindOrCreateBrand(ctx context.Context, name string) (*models.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	brandSlug := slug.Make(name)
	if brandSlug == "" {
		return nil, nil
	}

	existing, err := s.repo.FindBrandBySlug(ctx, brandSlug)
	if err != nil {
		return nil, fmt.Errorf("finding brand: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	brand := &models.Brand{ID: uuid.New(), Name: name, Slug: brandSlug}
	if err := s.repo.CreateBrand(ctx, brand); err != nil {
		if db.IsUniqueViolation(err) {
			return s.repo.FindBrandBySlug(ctx, brandSlug)
		}
		return nil, fmt.Errorf("creating brand: %w", err)
	}
	return brand, nil
}

// UpsertExternal writes an externally sourced product keyed by its external
// id. On create, unresolved fields keep their zero defaults and the product
// starts in stock unless an explicit stock level says otherwise. On update,
// only resolved fields are written so local data never regresses to blanks.
func (s *Service) UpsertExternal(ctx context.Context, input ExternalProduct) (*UpsertResult, error) {
	externalID := strings.TrimSpace(input.ExternalID)
	if externalID == "" {
		return nil, fmt.Errorf("external id is required")
	}

	var (
		category *models.Category
		brand    *models.Brand
		err      error
	)
	if input.CategoryName != nil {
		category, err = s.FindOrCreateCategory(ctx, *input.CategoryName)
		if err != nil {
			return nil, err
		}
	}
	if input.BrandName != nil {
		brand, err = s.FindOrCreateBrand(ctx, *input.BrandName)
		if err != nil {
			return nil, err
		}
	}

	existing, err := s.repo.FindProductByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("finding product by external id: %w", err)
	}

	if existing == nil {
		product := &models.Product{
			ID:         uuid.New(),
			ExternalID: &externalID,
			InStock:    true,
			Rating:     0,
		}
		applyResolved(product, input, category, brand)
		if product.Name == "" {
			product.Name = externalID
		}
		if err := s.repo.CreateProduct(ctx, product); err != nil {
			return nil, fmt.Errorf("creating product: %w", err)
		}
		return &UpsertResult{Product: product, Created: true}, nil
	}

	fields := resolvedFields(input, category, brand)
	if len(fields) > 0 {
		if err := s.repo.UpdateProductFields(ctx, existing.ID, fields); err != nil {
			return nil, fmt.Errorf("updating product: %w", err)
		}
	}
	applyResolved(existing, input, category, brand)
	return &UpsertResult{Product: existing, Created: false}, nil
}

func applyResolved(product *models.Product, input ExternalProduct, category *models.Category, brand *models.Brand) {
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.OriginalPrice != nil {
		product.OriginalPrice = input.OriginalPrice
	}
	if input.Image != nil {
		product.Image = input.Image
	}
	if len(input.Images) > 0 {
		product.Images = pqStringArray(input.Images)
	}
	if category != nil {
		product.CategoryID = &category.ID
		product.Category = category
	}
	if brand != nil {
		product.BrandID = &brand.ID
		product.Brand = brand
	}
	if input.Stock != nil {
		product.InStock = *input.Stock > 0
	}
	if input.WeightGrams != nil {
		product.WeightGrams = input.WeightGrams
	}
	if input.LengthCM != nil {
		product.LengthCM = input.LengthCM
	}
	if input.HeightCM != nil {
		product.HeightCM = input.HeightCM
	}
	if input.WidthCM != nil {
		product.WidthCM = input.WidthCM
	}
}

func resolvedFields(input ExternalProduct, category *models.Category, brand *models.Brand) map[string]any {
	fields := map[string]any{}
	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Price != nil {
		fields["price"] = *input.Price
	}
	if input.OriginalPrice != nil {
		fields["original_price"] = *input.OriginalPrice
	}
	if input.Image != nil {
		fields["image"] = *input.Image
	}
	if len(input.Images) > 0 {
		fields["images"] = pqStringArray(input.Images)
	}
	if category != nil {
		fields["category_id"] = category.ID
	}
	if brand != nil {
		fields["brand_id"] = brand.ID
	}
	if input.Stock != nil {
		fields["in_stock"] = *input.Stock > 0
	}
	if input.WeightGrams != nil {
		fields["weight_grams"] = *input.WeightGrams
	}
	if input.LengthCM != nil {
		fields["length_cm"] = *input.LengthCM
	}
	if input.HeightCM != nil {
		fields["height_cm"] = *input.HeightCM
	}
	if input.WidthCM != nil {
		fields["width_cm"] = *input.WidthCM
	}
	return fields
}

func pqStringArray(values []string) pq.StringArray {
	out := make(pq.StringArray, len(values))
	copy(out, values)
	return out
}
