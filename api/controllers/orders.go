package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vitrinelabs/vitrine-backend/api/responses"
	"github.com/vitrinelabs/vitrine-backend/api/validators"
	"github.com/vitrinelabs/vitrine-backend/internal/orders"
	"github.com/vitrinelabs/vitrine-backend/internal/reports"
	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/enums"
	pkgerrors "github.com/vitrinelabs/vitrine-backend/pkg/errors"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
	"github.com/vitrinelabs/vitrine-backend/pkg/pagination"
)

// OrdersController serves the admin order listing with its aggregates plus
// the narrow post-checkout mutations. orderSvc is nil when the API runs on
// the demo dataset; mutations then report not-configured.
type OrdersController struct {
	reportSvc *reports.Service
	orderSvc  *orders.Service
	logg      *logger.Logger
}

func NewOrdersController(reportSvc *reports.Service, orderSvc *orders.Service, logg *logger.Logger) *OrdersController {
	return &OrdersController{reportSvc: reportSvc, orderSvc: orderSvc, logg: logg}
}

type orderListResponse struct {
	OK          bool                     `json:"ok"`
	Page        int                      `json:"page"`
	PageSize    int                      `json:"pageSize"`
	Total       int64                    `json:"total"`
	Orders      []models.Order           `json:"orders"`
	Summary     reports.Summary          `json:"summary"`
	ByDay       []reports.DayBucket      `json:"byDay"`
	ByStatus    []reports.StatusBucket   `json:"byStatus"`
	ByCategory  []reports.CategoryBucket `json:"byCategory"`
	TopProducts []reports.ProductBucket  `json:"topProducts"`
}

// List handles GET /api/orders. Aggregates cover the whole filtered set;
// only the order list itself is paginated.
func (c *OrdersController) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	page, err := parsePageParams(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	result, err := c.reportSvc.Query(r.Context(), filter, page)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	orderList := result.Orders
	if orderList == nil {
		orderList = []models.Order{}
	}
	responses.WriteOK(w, orderListResponse{
		OK:          true,
		Page:        page.Page,
		PageSize:    page.PageSize,
		Total:       result.Total,
		Orders:      orderList,
		Summary:     result.Report.Summary,
		ByDay:       result.Report.ByDay,
		ByStatus:    result.Report.ByStatus,
		ByCategory:  result.Report.ByCategory,
		TopProducts: result.Report.TopProducts,
	})
}

// Get handles GET /api/orders/{id}.
func (c *OrdersController) Get(w http.ResponseWriter, r *http.Request) {
	if c.orderSvc == nil {
		responses.WriteError(r.Context(), c.logg, w, errNoStore())
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a UUID"))
		return
	}

	order, err := c.orderSvc.Get(r.Context(), id)
	if err != nil {
		if orders.IsNotFound(err) {
			err = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteOK(w, map[string]any{"ok": true, "order": order})
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus handles PATCH /api/orders/{id}/status.
func (c *OrdersController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if c.orderSvc == nil {
		responses.WriteError(r.Context(), c.logg, w, errNoStore())
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a UUID"))
		return
	}

	var body updateStatusRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	status, err := enums.ParseOrderStatus(body.Status)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
		return
	}

	order, changed, err := c.orderSvc.SetStatus(r.Context(), id, status)
	if err != nil {
		if orders.IsNotFound(err) {
			err = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteOK(w, map[string]any{"ok": true, "order": order, "changed": changed})
}

type updateShippingRequest struct {
	Carrier      *string `json:"carrier"`
	TrackingCode *string `json:"trackingCode"`
}

// UpdateShipping handles PATCH /api/orders/{id}/shipping.
func (c *OrdersController) UpdateShipping(w http.ResponseWriter, r *http.Request) {
	if c.orderSvc == nil {
		responses.WriteError(r.Context(), c.logg, w, errNoStore())
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id must be a UUID"))
		return
	}

	var body updateShippingRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	order, err := c.orderSvc.SetShipping(r.Context(), id, body.Carrier, body.TrackingCode)
	if err != nil {
		if orders.IsNotFound(err) {
			err = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteOK(w, map[string]any{"ok": true, "order": order})
}

func parseOrderFilter(r *http.Request) (orders.Filter, error) {
	var filter orders.Filter

	from, err := validators.ParseQueryDate(r, "from")
	if err != nil {
		return filter, err
	}
	to, err := validators.ParseQueryDate(r, "to")
	if err != nil {
		return filter, err
	}
	filter.From = from
	filter.To = to

	for _, raw := range validators.SplitQueryList(r, "status") {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	filter.Categories = validators.SplitQueryList(r, "category")
	filter.Query = r.URL.Query().Get("q")

	filter.MinTotal, err = validators.ParseQueryDecimal(r, "minTotal")
	if err != nil {
		return filter, err
	}
	filter.MaxTotal, err = validators.ParseQueryDecimal(r, "maxTotal")
	if err != nil {
		return filter, err
	}
	return filter, nil
}

func parsePageParams(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
	if err != nil {
		return pagination.Params{}, err
	}
	pageSize, err := validators.ParseQueryInt(r, "pageSize", pagination.DefaultPageSize, 1, pagination.MaxPageSize)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Normalize(pagination.Params{Page: page, PageSize: pageSize}), nil
}

func errNoStore() error {
	return pkgerrors.New(pkgerrors.CodeNotConfigured, "no persistent store configured")
}
