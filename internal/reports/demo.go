package reports

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vitrinelabs/vitrine-backend/internal/orders"
	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/enums"
	"github.com/vitrinelabs/vitrine-backend/pkg/pagination"
)

// DemoSource serves a fixed in-memory order set so the dashboard works
// before a database is configured.
type DemoSource struct {
	orderSet []models.Order
}

func NewDemoSource() *DemoSource {
	return &DemoSource{orderSet: demoOrders()}
}

func (d *DemoSource) List(ctx context.Context, filter orders.Filter, page pagination.Params) ([]models.Order, int64, error) {
	matched := d.filter(filter)
	page = pagination.Normalize(page)

	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit()
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], int64(len(matched)), nil
}

func (d *DemoSource) ListAll(ctx context.Context, filter orders.Filter) ([]models.Order, error) {
	return d.filter(filter), nil
}

func (d *DemoSource) filter(filter orders.Filter) []models.Order {
	var matched []models.Order
	for _, order := range d.orderSet {
		if filter.From != nil && order.CreatedAt.Before(filter.From.UTC()) {
			continue
		}
		if filter.To != nil && !order.CreatedAt.Before(filter.To.UTC().Add(24*time.Hour)) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, order.Status) {
			continue
		}
		if len(filter.Categories) > 0 && !hasCategory(order, filter.Categories) {
			continue
		}
		if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
			name := ""
			if order.Customer != nil {
				name = strings.ToLower(order.Customer.Name)
			}
			if !strings.Contains(strings.ToLower(order.Number), q) && !strings.Contains(name, q) {
				continue
			}
		}
		if filter.MinTotal != nil && order.Total.LessThan(*filter.MinTotal) {
			continue
		}
		if filter.MaxTotal != nil && order.Total.GreaterThan(*filter.MaxTotal) {
			continue
		}
		matched = append(matched, order)
	}
	return matched
}

func containsStatus(set []enums.OrderStatus, status enums.OrderStatus) bool {
	for _, candidate := range set {
		if candidate == status {
			return true
		}
	}
	return false
}

func hasCategory(order models.Order, categories []string) bool {
	for _, item := range order.Items {
		for _, category := range categories {
			if item.Category == category {
				return true
			}
		}
	}
	return false
}

func demoOrders() []models.Order {
	day := func(value string) time.Time {
		parsed, _ := time.Parse("2006-01-02", value)
		return parsed.UTC()
	}
	money := decimal.RequireFromString

	type line struct {
		name     string
		category string
		price    string
		qty      int
	}
	type seed struct {
		number   string
		customer string
		status   enums.OrderStatus
		created  time.Time
		items    []line
	}

	seeds := []seed{
		{"VD-1001", "Marina Alves", enums.OrderStatusPaid, day("2026-08-02").Add(9 * time.Hour), []line{
			{"Fone Bluetooth Pro", "Áudio", "249.90", 1},
			{"Cabo USB-C 2m", "Acessórios", "39.90", 2},
		}},
		{"VD-1002", "Pedro Santana", enums.OrderStatusPaid, day("2026-08-02").Add(14 * time.Hour), []line{
			{"Teclado Mecânico TKL", "Periféricos", "450.00", 1},
		}},
		{"VD-1003", "Clara Nogueira", enums.OrderStatusPending, day("2026-08-03").Add(11 * time.Hour), []line{
			{"Mouse Sem Fio", "Periféricos", "120.00", 1},
			{"Mousepad XL", "", "59.90", 1},
		}},
		{"VD-1004", "Rafael Costa", enums.OrderStatusShipped, day("2026-08-04").Add(16 * time.Hour), []line{
			{"Monitor 27\" 144Hz", "Monitores", "1599.00", 1},
		}},
		{"VD-1005", "Beatriz Ramos", enums.OrderStatusCancelled, day("2026-08-05").Add(10 * time.Hour), []line{
			{"Webcam Full HD", "Periféricos", "199.00", 1},
		}},
		{"VD-1006", "Lucas Ferreira", enums.OrderStatusDelivered, day("2026-08-06").Add(18 * time.Hour), []line{
			{"Fone Bluetooth Pro", "Áudio", "249.90", 2},
			{"Suporte de Headset", "Acessórios", "89.90", 1},
		}},
	}

	result := make([]models.Order, 0, len(seeds))
	for _, s := range seeds {
		customerID := uuid.New()
		orderID := uuid.New()
		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(s.items))
		for _, l := range s.items {
			price := money(l.price)
			total = total.Add(price.Mul(decimal.NewFromInt(int64(l.qty))))
			productID := uuid.New()
			items = append(items, models.OrderItem{
				ID:        uuid.New(),
				OrderID:   orderID,
				ProductID: &productID,
				Name:      l.name,
				Category:  l.category,
				Price:     price,
				Quantity:  l.qty,
			})
		}
		result = append(result, models.Order{
			ID:         orderID,
			Number:     s.number,
			CustomerID: customerID,
			Customer:   &models.Customer{ID: customerID, Name: s.customer, Email: strings.ToLower(strings.Fields(s.customer)[0]) + "@example.com"},
			Status:     s.status,
			Total:      total,
			Items:      items,
			CreatedAt:  s.created,
		})
	}
	return result
}
