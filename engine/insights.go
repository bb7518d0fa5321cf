package engine

import (
	"context"

	"github.com/quickops/qcommerce_backend/models"
	"github.com/shopspring/decimal"
)

// Any low-stock row at or below this many units counts as critical.
const criticalStockThreshold = 5

// Insights are the headline KPIs for the dashboard.
type Insights struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalUnits    int             `json:"total_units"`
	LowStockCount int             `json:"low_stock_count"`
	TopCity       *string         `json:"top_performing_city"`
	BottomCity    *string         `json:"bottom_performing_city"`
	CriticalCount int             `json:"critical_count"`
}

// GetInsights aggregates the trailing window. Sums over zero rows are zero
// and top/bottom city are nil when the window has no sales; an empty store
// is a valid answer, not an error.
func GetInsights(ctx context.Context, windowDays int) (*Insights, error) {
	if windowDays <= 0 {
		windowDays = 7
	}

	sales, err := models.GetSalesAnalytics(ctx, windowDays)
	if err != nil {
		return nil, err
	}

	lowStock, err := models.GetLowStockItems(ctx)
	if err != nil {
		return nil, err
	}

	cities, err := models.GetCityPerformance(ctx, windowDays)
	if err != nil {
		return nil, err
	}

	insights := &Insights{
		TotalRevenue:  decimal.Zero,
		LowStockCount: len(lowStock),
	}
	for _, row := range sales {
		insights.TotalRevenue = insights.TotalRevenue.Add(row.TotalRevenue)
		insights.TotalUnits += row.TotalUnits
	}
	for _, item := range lowStock {
		if item.CurrentStock <= criticalStockThreshold {
			insights.CriticalCount++
		}
	}
	if len(cities) > 0 {
		top := cities[0].City
		bottom := cities[len(cities)-1].City
		insights.TopCity = &top
		insights.BottomCity = &bottom
	}

	return insights, nil
}
