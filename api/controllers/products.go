package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vitrinelabs/vitrine-backend/api/responses"
	"github.com/vitrinelabs/vitrine-backend/internal/catalog"
	"github.com/vitrinelabs/vitrine-backend/internal/inventory"
	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	pkgerrors "github.com/vitrinelabs/vitrine-backend/pkg/errors"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
)

// ProductsController serves the public catalog. Both services are nil when
// the API runs without a persistent store.
type ProductsController struct {
	catalogSvc   *catalog.Service
	inventorySvc inventory.Service
	logg         *logger.Logger
}

func NewProductsController(catalogSvc *catalog.Service, inventorySvc inventory.Service, logg *logger.Logger) *ProductsController {
	return &ProductsController{catalogSvc: catalogSvc, inventorySvc: inventorySvc, logg: logg}
}

// List handles GET /api/products.
func (c *ProductsController) List(w http.ResponseWriter, r *http.Request) {
	if c.catalogSvc == nil {
		responses.WriteError(r.Context(), c.logg, w, errNoStore())
		return
	}

	filter := catalog.ProductFilter{
		CategorySlug: r.URL.Query().Get("category"),
		BrandSlug:    r.URL.Query().Get("brand"),
		Query:        r.URL.Query().Get("q"),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("featured")); raw != "" {
		featured := raw == "true" || raw == "1"
		filter.Featured = &featured
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("inStock")); raw != "" {
		inStock := raw == "true" || raw == "1"
		filter.InStock = &inStock
	}

	page, err := parsePageParams(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	products, total, err := c.catalogSvc.ListProducts(r.Context(), filter, page)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	responses.WriteOK(w, map[string]any{
		"ok":       true,
		"page":     page.Page,
		"pageSize": page.PageSize,
		"total":    total,
		"products": products,
	})
}

// Get handles GET /api/products/{id}: the product plus its ledger-derived
// stock level.
func (c *ProductsController) Get(w http.ResponseWriter, r *http.Request) {
	if c.catalogSvc == nil {
		responses.WriteError(r.Context(), c.logg, w, errNoStore())
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id must be a UUID"))
		return
	}

	product, err := c.catalogSvc.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	stock, err := c.inventorySvc.CurrentStock(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteOK(w, map[string]any{"ok": true, "product": product, "stock": stock})
}

// Movements handles GET /api/products/{id}/movements: the audit trail the
// stock level is derived from.
func (c *ProductsController) Movements(w http.ResponseWriter, r *http.Request) {
	if c.inventorySvc == nil {
		responses.WriteError(r.Context(), c.logg, w, errNoStore())
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id must be a UUID"))
		return
	}

	movements, err := c.inventorySvc.History(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	if movements == nil {
		movements = []models.InventoryMovement{}
	}

	stock := 0
	for _, movement := range movements {
		stock += movement.Quantity
	}
	responses.WriteOK(w, map[string]any{"ok": true, "movements": movements, "stock": stock})
}
