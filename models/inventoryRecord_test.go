package models_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/quickops/qcommerce_backend/config"
	"github.com/quickops/qcommerce_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))
	if err := config.ConnectDatabase(); err != nil {
		t.Fatalf("ConnectDatabase: %v", err)
	}
	models.MigrateTable()
}

func seedInventory(t *testing.T, rows []models.InventoryRecord) {
	t.Helper()
	require.NoError(t, models.CreateInventoryRecords(context.Background(), rows))
}

func inventoryRow(city, product string, stock, reorder int) models.InventoryRecord {
	return models.InventoryRecord{
		City:          city,
		Product:       product,
		Category:      "Electronics",
		CurrentStock:  stock,
		MaxCapacity:   reorder * 4,
		ReorderLevel:  reorder,
		CostPerUnit:   decimal.NewFromInt(1200),
		Supplier:      "Supplier_1",
		LeadTimeDays:  3,
		LastRestocked: time.Now().AddDate(0, 0, -5),
	}
}

func TestStockStatusFor(t *testing.T) {
	cases := []struct {
		stock    int
		reorder  int
		expected models.StockStatus
	}{
		{0, 0, models.StockStatusLow},
		{10, 10, models.StockStatusLow},
		{9, 10, models.StockStatusLow},
		{11, 10, models.StockStatusMedium},
		{15, 10, models.StockStatusMedium},
		{16, 10, models.StockStatusHigh},
		{500, 10, models.StockStatusHigh},
		{1, 0, models.StockStatusHigh},
	}
	for _, tc := range cases {
		got := models.StockStatusFor(tc.stock, tc.reorder)
		if got != tc.expected {
			t.Fatalf("StockStatusFor(%d, %d) = %s, want %s", tc.stock, tc.reorder, got, tc.expected)
		}
	}
}

func TestGetLowStockItems_ReturnsExactSubsetSortedAscending(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	seedInventory(t, []models.InventoryRecord{
		inventoryRow("Mumbai", "Smartphone", 8, 25),
		inventoryRow("Delhi", "Laptop", 120, 25),
		inventoryRow("Pune", "Charger", 3, 25),
		inventoryRow("Chennai", "Tablet", 25, 25),
		inventoryRow("Kolkata", "Router", 26, 25),
	})

	rows, err := models.GetLowStockItems(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.Equal(t, "Pune", rows[0].City)
	require.Equal(t, 3, rows[0].CurrentStock)
	require.Equal(t, "Mumbai", rows[1].City)
	require.Equal(t, "Chennai", rows[2].City)

	for _, r := range rows {
		require.LessOrEqual(t, r.CurrentStock, r.ReorderLevel)
	}
}

func TestGetInventoryStatus_SeverityThenStockOrdering(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	seedInventory(t, []models.InventoryRecord{
		inventoryRow("Delhi", "Laptop", 200, 25),    // HIGH
		inventoryRow("Mumbai", "Smartphone", 8, 25), // LOW
		inventoryRow("Chennai", "Tablet", 30, 25),   // MEDIUM
		inventoryRow("Pune", "Charger", 3, 25),      // LOW
		inventoryRow("Kolkata", "Router", 35, 25),   // MEDIUM
	})

	rows, err := models.GetInventoryStatus(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	wantOrder := []struct {
		city   string
		status models.StockStatus
	}{
		{"Pune", models.StockStatusLow},
		{"Mumbai", models.StockStatusLow},
		{"Chennai", models.StockStatusMedium},
		{"Kolkata", models.StockStatusMedium},
		{"Delhi", models.StockStatusHigh},
	}
	for i, want := range wantOrder {
		require.Equal(t, want.city, rows[i].City, "row %d", i)
		require.Equal(t, want.status, rows[i].StockStatus, "row %d", i)
		require.Equal(t, models.StockStatusFor(rows[i].CurrentStock, rows[i].ReorderLevel), rows[i].StockStatus)
	}
}

func TestGetInventoryStatus_IdempotentWithoutWrites(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	seedInventory(t, []models.InventoryRecord{
		inventoryRow("Mumbai", "Smartphone", 8, 25),
		inventoryRow("Delhi", "Laptop", 200, 25),
		inventoryRow("Chennai", "Tablet", 30, 25),
	})

	first, err := models.GetInventoryStatus(ctx)
	require.NoError(t, err)
	second, err := models.GetInventoryStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestGetInventoryStatus_EmptyStore(t *testing.T) {
	setupTestDB(t)

	rows, err := models.GetInventoryStatus(context.Background())
	require.NoError(t, err)
	require.Empty(t, rows)
}
