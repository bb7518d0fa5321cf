package models

import (
	"context"
	"time"

	"github.com/quickops/qcommerce_backend/config"
	"github.com/quickops/qcommerce_backend/utils"
	"github.com/shopspring/decimal"
)

type StockStatus string

const (
	StockStatusLow    StockStatus = "LOW_STOCK"
	StockStatusMedium StockStatus = "MEDIUM_STOCK"
	StockStatusHigh   StockStatus = "HIGH_STOCK"
)

// InventoryRecord is the current stock snapshot of a product in a city.
// Restocks and allocations are logged only; they never mutate current_stock.
type InventoryRecord struct {
	ID            int             `gorm:"primaryKey;autoIncrement" json:"id"`
	City          string          `gorm:"type:varchar(100);not null;index" json:"city"`
	Product       string          `gorm:"type:varchar(100);not null;index" json:"product"`
	Category      string          `gorm:"type:varchar(100);not null" json:"category"`
	CurrentStock  int             `gorm:"not null" json:"current_stock"`
	MaxCapacity   int             `gorm:"not null" json:"max_capacity"`
	ReorderLevel  int             `gorm:"not null" json:"reorder_level"`
	CostPerUnit   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"cost_per_unit"`
	Supplier      string          `gorm:"type:varchar(100);not null" json:"supplier"`
	LeadTimeDays  int             `gorm:"not null" json:"lead_time_days"`
	LastRestocked time.Time       `gorm:"not null" json:"last_restocked"`
}

func (InventoryRecord) TableName() string {
	return "inventory_data"
}

// InventoryStatusRow is an inventory row annotated with its derived status.
type InventoryStatusRow struct {
	City          string          `json:"city"`
	Product       string          `json:"product"`
	Category      string          `json:"category"`
	CurrentStock  int             `json:"current_stock"`
	MaxCapacity   int             `json:"max_capacity"`
	ReorderLevel  int             `json:"reorder_level"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	Supplier      string          `json:"supplier"`
	LeadTimeDays  int             `json:"lead_time_days"`
	LastRestocked time.Time       `json:"last_restocked"`
	StockStatus   StockStatus     `json:"stock_status"`
}

// StockStatusFor derives the three-level classification from
// (current_stock, reorder_level) alone.
func StockStatusFor(currentStock int, reorderLevel int) StockStatus {
	switch {
	case currentStock <= reorderLevel:
		return StockStatusLow
	case float64(currentStock) <= float64(reorderLevel)*1.5:
		return StockStatusMedium
	default:
		return StockStatusHigh
	}
}

// GetInventoryStatus returns every inventory row annotated with stock_status,
// LOW_STOCK group first, then MEDIUM_STOCK, then HIGH_STOCK, and by
// current_stock ascending within each group. The severity order is explicit
// in the CASE expression; it does not depend on the status names sorting
// lexicographically.
func GetInventoryStatus(ctx context.Context) ([]InventoryStatusRow, error) {
	db := config.GetDB()

	var rows []InventoryStatusRow
	err := db.WithContext(ctx).
		Model(&InventoryRecord{}).
		Select("city, product, category, current_stock, max_capacity, reorder_level, " +
			"cost_per_unit, supplier, lead_time_days, last_restocked, " +
			"CASE WHEN current_stock <= reorder_level THEN 'LOW_STOCK' " +
			"WHEN current_stock <= reorder_level * 1.5 THEN 'MEDIUM_STOCK' " +
			"ELSE 'HIGH_STOCK' END AS stock_status").
		Order("CASE WHEN current_stock <= reorder_level THEN 0 " +
			"WHEN current_stock <= reorder_level * 1.5 THEN 1 ELSE 2 END, current_stock ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, utils.NewStorageError("GetInventoryStatus", err)
	}
	return rows, nil
}

// GetLowStockItems returns exactly the rows with current_stock <= reorder_level,
// most depleted first.
func GetLowStockItems(ctx context.Context) ([]InventoryRecord, error) {
	db := config.GetDB()

	var rows []InventoryRecord
	err := db.WithContext(ctx).
		Where("current_stock <= reorder_level").
		Order("current_stock ASC").
		Find(&rows).Error
	if err != nil {
		return nil, utils.NewStorageError("GetLowStockItems", err)
	}
	return rows, nil
}

// CreateInventoryRecords bulk-inserts inventory rows (ingestion path).
func CreateInventoryRecords(ctx context.Context, records []InventoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	db := config.GetDB()
	// Batched to stay under SQLite's bind-variable limit.
	if err := db.WithContext(ctx).CreateInBatches(&records, 100).Error; err != nil {
		return utils.NewStorageError("CreateInventoryRecords", err)
	}
	return nil
}
