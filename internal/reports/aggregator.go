package reports

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/vitrinelabs/vitrine-backend/pkg/db/models"
)

// Summary holds the headline numbers for a filtered order set.
type Summary struct {
	Revenue   float64 `json:"revenue"`
	Count     int     `json:"count"`
	AvgTicket float64 `json:"avgTicket"`
}

// DayBucket is one calendar day of the revenue series, UTC.
type DayBucket struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
}

// StatusBucket is one entry of the status histogram.
type StatusBucket struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// CategoryBucket aggregates line-item revenue per product category.
type CategoryBucket struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
	Count    int     `json:"count"`
}

// ProductBucket is one row of the top-products ranking.
type ProductBucket struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Revenue   float64   `json:"revenue"`
	Units     int       `json:"units"`
}

// Report is the full aggregation output.
type Report struct {
	Summary     Summary          `json:"summary"`
	ByDay       []DayBucket      `json:"byDay"`
	ByStatus    []StatusBucket   `json:"byStatus"`
	ByCategory  []CategoryBucket `json:"byCategory"`
	TopProducts []ProductBucket  `json:"topProducts"`
}

// fallbackCategory buckets line items whose product carries no category.
const fallbackCategory = "Outros"

const topProductsLimit = 10

// Build aggregates an already-filtered order set in memory. An empty input
// yields a zero summary and empty slices, never nil fields or a division by
// zero.
func Build(orderSet []models.Order) Report {
	report := Report{
		ByDay:       []DayBucket{},
		ByStatus:    []StatusBucket{},
		ByCategory:  []CategoryBucket{},
		TopProducts: []ProductBucket{},
	}

	dayIndex := map[string]int{}
	statusIndex := map[string]int{}
	categoryIndex := map[string]int{}
	productIndex := map[uuid.UUID]int{}

	for _, order := range orderSet {
		total := order.Total.InexactFloat64()
		report.Summary.Revenue += total
		report.Summary.Count++

		day := order.CreatedAt.UTC().Format("2006-01-02")
		if i, ok := dayIndex[day]; ok {
			report.ByDay[i].Revenue += total
			report.ByDay[i].Count++
		} else {
			dayIndex[day] = len(report.ByDay)
			report.ByDay = append(report.ByDay, DayBucket{Date: day, Revenue: total, Count: 1})
		}

		status := order.Status.String()
		if i, ok := statusIndex[status]; ok {
			report.ByStatus[i].Count++
		} else {
			statusIndex[status] = len(report.ByStatus)
			report.ByStatus = append(report.ByStatus, StatusBucket{Status: status, Count: 1})
		}

		for _, item := range order.Items {
			itemRevenue := item.Price.InexactFloat64() * float64(item.Quantity)

			category := item.Category
			if category == "" {
				category = fallbackCategory
			}
			if i, ok := categoryIndex[category]; ok {
				report.ByCategory[i].Revenue += itemRevenue
				report.ByCategory[i].Count += item.Quantity
			} else {
				categoryIndex[category] = len(report.ByCategory)
				report.ByCategory = append(report.ByCategory, CategoryBucket{
					Category: category,
					Revenue:  itemRevenue,
					Count:    item.Quantity,
				})
			}

			if item.ProductID == nil {
				continue
			}
			if i, ok := productIndex[*item.ProductID]; ok {
				report.TopProducts[i].Revenue += itemRevenue
				report.TopProducts[i].Units += item.Quantity
			} else {
				productIndex[*item.ProductID] = len(report.TopProducts)
				report.TopProducts = append(report.TopProducts, ProductBucket{
					ProductID: *item.ProductID,
					Name:      item.Name,
					Revenue:   itemRevenue,
					Units:     item.Quantity,
				})
			}
		}
	}

	if report.Summary.Count > 0 {
		report.Summary.AvgTicket = round2(report.Summary.Revenue / float64(report.Summary.Count))
	}

	sort.Slice(report.ByDay, func(i, j int) bool {
		return report.ByDay[i].Date < report.ByDay[j].Date
	})
	// ByStatus keeps first-seen order.
	sort.SliceStable(report.ByCategory, func(i, j int) bool {
		return report.ByCategory[i].Revenue > report.ByCategory[j].Revenue
	})
	sort.SliceStable(report.TopProducts, func(i, j int) bool {
		return report.TopProducts[i].Revenue > report.TopProducts[j].Revenue
	})
	if len(report.TopProducts) > topProductsLimit {
		report.TopProducts = report.TopProducts[:topProductsLimit]
	}

	return report
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
