package models_test

import (
	"context"
	"testing"
	"time"

	"github.com/quickops/qcommerce_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func salesRow(daysAgo int, city, product string, units int, revenue int64) models.SalesRecord {
	day := time.Now().AddDate(0, 0, -daysAgo)
	return models.SalesRecord{
		Date:          time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()),
		City:          city,
		Product:       product,
		Category:      "Electronics",
		UnitsSold:     units,
		Revenue:       decimal.NewFromInt(revenue),
		AvgOrderValue: decimal.NewFromInt(2000),
	}
}

func seedSales(t *testing.T, rows []models.SalesRecord) {
	t.Helper()
	require.NoError(t, models.CreateSalesRecords(context.Background(), rows))
}

func TestGetSalesAnalytics_GroupsAndSums(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	seedSales(t, []models.SalesRecord{
		salesRow(1, "Mumbai", "Smartphone", 100, 50000),
		salesRow(2, "Mumbai", "Smartphone", 150, 80000),
		// Duplicate (date, city, product) rows are summed, not merged.
		salesRow(2, "Mumbai", "Smartphone", 50, 20000),
		salesRow(1, "Delhi", "Smartphone", 120, 60000),
		// Outside the window, must not contribute.
		salesRow(10, "Mumbai", "Smartphone", 999, 999999),
	})

	rows, err := models.GetSalesAnalytics(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Busiest pair first.
	require.Equal(t, "Mumbai", rows[0].City)
	require.Equal(t, 300, rows[0].TotalUnits)
	require.True(t, rows[0].TotalRevenue.Equal(decimal.NewFromInt(150000)),
		"total revenue = %s", rows[0].TotalRevenue)
	require.Equal(t, 2, rows[0].DaysWithSales)

	require.Equal(t, "Delhi", rows[1].City)
	require.Equal(t, 120, rows[1].TotalUnits)
}

func TestGetSalesAnalytics_EmptyWindow(t *testing.T) {
	setupTestDB(t)

	rows, err := models.GetSalesAnalytics(context.Background(), 7)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestGetProductSales_FiltersToProduct(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	seedSales(t, []models.SalesRecord{
		salesRow(1, "Mumbai", "Smartphone", 400, 200000),
		salesRow(1, "Delhi", "Smartphone", 350, 175000),
		salesRow(1, "Mumbai", "Laptop", 900, 900000),
	})

	rows, err := models.GetProductSales(ctx, "Smartphone", 7)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Mumbai", rows[0].City)
	require.Equal(t, "Delhi", rows[1].City)
	for _, r := range rows {
		require.Equal(t, "Smartphone", r.Product)
	}
}

func TestGetCityPerformance_RevenueDescendingWithDistinctProducts(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	seedSales(t, []models.SalesRecord{
		salesRow(1, "Mumbai", "Smartphone", 100, 50000),
		salesRow(2, "Mumbai", "Smartphone", 50, 30000),
		salesRow(1, "Mumbai", "Laptop", 20, 40000),
		salesRow(1, "Delhi", "Smartphone", 300, 200000),
		salesRow(3, "Pune", "Cable", 10, 1000),
	})

	rows, err := models.GetCityPerformance(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.Equal(t, "Delhi", rows[0].City)
	require.Equal(t, "Mumbai", rows[1].City)
	require.Equal(t, "Pune", rows[2].City)

	require.Equal(t, 2, rows[1].ProductsSold)
	require.Equal(t, 170, rows[1].TotalUnits)
	require.True(t, rows[1].TotalRevenue.Equal(decimal.NewFromInt(120000)),
		"mumbai revenue = %s", rows[1].TotalRevenue)
}
