package reports

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
	"github.com/vitrinelabs/vitrine-backend/pkg/enums"
)

func testOrder(t *testing.T, total string, day string, status enums.OrderStatus, items ...models.OrderItem) models.Order {
	t.Helper()
	createdAt, err := time.Parse("2006-01-02", day)
	require.NoError(t, err)
	return models.Order{
		ID:        uuid.New(),
		Number:    "T-" + uuid.NewString()[:8],
		Status:    status,
		Total:     decimal.RequireFromString(total),
		Items:     items,
		CreatedAt: createdAt.UTC(),
	}
}

func testItem(category, price string, qty int, productID *uuid.UUID) models.OrderItem {
	item := models.OrderItem{
		ID:       uuid.New(),
		Name:     "item",
		Category: category,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
	}
	item.ProductID = productID
	return item
}

func TestBuildExampleScenario(t *testing.T) {
	report := Build([]models.Order{
		testOrder(t, "100", "2024-01-01", enums.OrderStatusPaid),
		testOrder(t, "50", "2024-01-01", enums.OrderStatusPending),
		testOrder(t, "200", "2024-01-02", enums.OrderStatusPaid),
	})

	require.Equal(t, 350.0, report.Summary.Revenue)
	require.Equal(t, 3, report.Summary.Count)
	require.Equal(t, 116.67, report.Summary.AvgTicket)

	require.Equal(t, []DayBucket{
		{Date: "2024-01-01", Revenue: 150, Count: 2},
		{Date: "2024-01-02", Revenue: 200, Count: 1},
	}, report.ByDay)

	require.Equal(t, []StatusBucket{
		{Status: "paid", Count: 2},
		{Status: "pending", Count: 1},
	}, report.ByStatus)
}

func TestBuildEmptySet(t *testing.T) {
	report := Build(nil)

	require.Equal(t, Summary{}, report.Summary)
	require.Empty(t, report.ByDay)
	require.Empty(t, report.ByStatus)
	require.Empty(t, report.ByCategory)
	require.Empty(t, report.TopProducts)
	require.NotNil(t, report.ByDay)
	require.NotNil(t, report.TopProducts)
}

func TestBuildByDaySumsMatchSummary(t *testing.T) {
	report := Build([]models.Order{
		testOrder(t, "10.50", "2024-02-01", enums.OrderStatusPaid),
		testOrder(t, "20.00", "2024-02-03", enums.OrderStatusPaid),
		testOrder(t, "5.25", "2024-02-01", enums.OrderStatusShipped),
		testOrder(t, "99.99", "2024-02-02", enums.OrderStatusDelivered),
	})

	var revenue float64
	var count int
	for _, bucket := range report.ByDay {
		revenue += bucket.Revenue
		count += bucket.Count
	}
	require.InDelta(t, report.Summary.Revenue, revenue, 1e-9)
	require.Equal(t, report.Summary.Count, count)

	for i := 1; i < len(report.ByDay); i++ {
		require.Less(t, report.ByDay[i-1].Date, report.ByDay[i].Date)
	}
}

func TestBuildByCategoryCountsQuantities(t *testing.T) {
	productA := uuid.New()
	report := Build([]models.Order{
		testOrder(t, "300", "2024-03-01", enums.OrderStatusPaid,
			testItem("Áudio", "100", 2, &productA),
			testItem("", "50", 2, nil),
		),
		testOrder(t, "100", "2024-03-02", enums.OrderStatusPaid,
			testItem("Áudio", "100", 1, &productA),
		),
	})

	totalQuantity := 0
	byName := map[string]CategoryBucket{}
	for _, bucket := range report.ByCategory {
		totalQuantity += bucket.Count
		byName[bucket.Category] = bucket
	}
	require.Equal(t, 5, totalQuantity)

	audio := byName["Áudio"]
	require.Equal(t, 300.0, audio.Revenue)
	require.Equal(t, 3, audio.Count)

	// Uncategorized items land in the fallback bucket.
	outros := byName["Outros"]
	require.Equal(t, 100.0, outros.Revenue)
	require.Equal(t, 2, outros.Count)

	// Sorted descending by revenue.
	require.Equal(t, "Áudio", report.ByCategory[0].Category)
}

func TestBuildTopProductsRanking(t *testing.T) {
	orderSet := make([]models.Order, 0, 12)
	for i := 0; i < 12; i++ {
		productID := uuid.New()
		price := decimal.NewFromInt(int64(10 * (i + 1)))
		orderSet = append(orderSet, testOrder(t, price.String(), "2024-04-01", enums.OrderStatusPaid,
			testItem("Geral", price.String(), 1, &productID),
		))
	}

	report := Build(orderSet)
	require.Len(t, report.TopProducts, 10)
	for i := 1; i < len(report.TopProducts); i++ {
		require.GreaterOrEqual(t, report.TopProducts[i-1].Revenue, report.TopProducts[i].Revenue)
	}
	require.Equal(t, 120.0, report.TopProducts[0].Revenue)
}

func TestBuildSkipsItemsWithoutProductInRanking(t *testing.T) {
	report := Build([]models.Order{
		testOrder(t, "100", "2024-05-01", enums.OrderStatusPaid,
			testItem("Geral", "100", 1, nil),
		),
	})

	require.Empty(t, report.TopProducts)
	// The item still counts toward the category breakdown.
	require.Len(t, report.ByCategory, 1)
}

func TestBuildZeroAvgTicketOnEmpty(t *testing.T) {
	report := Build([]models.Order{})
	require.Equal(t, 0.0, report.Summary.AvgTicket)
}
