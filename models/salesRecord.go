package models

import (
	"context"
	"time"

	"github.com/quickops/qcommerce_backend/config"
	"github.com/quickops/qcommerce_backend/utils"
	"github.com/shopspring/decimal"
)

// SalesRecord is one day's sales of a product in a city. Rows are immutable
// once written; duplicates on (date, city, product) are summed by the
// aggregate queries, never merged.
type SalesRecord struct {
	ID            int             `gorm:"primaryKey;autoIncrement" json:"id"`
	Date          time.Time       `gorm:"not null;index" json:"date"`
	City          string          `gorm:"type:varchar(100);not null;index" json:"city"`
	Product       string          `gorm:"type:varchar(100);not null;index" json:"product"`
	Category      string          `gorm:"type:varchar(100);not null" json:"category"`
	UnitsSold     int             `gorm:"not null" json:"units_sold"`
	Revenue       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"revenue"`
	AvgOrderValue decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"avg_order_value"`
}

func (SalesRecord) TableName() string {
	return "sales_data"
}

// SalesAnalyticsRow is a (city, product) aggregate over a trailing window.
type SalesAnalyticsRow struct {
	City          string          `json:"city"`
	Product       string          `json:"product"`
	TotalUnits    int             `json:"total_units"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	DaysWithSales int             `json:"days_with_sales"`
}

// CityPerformanceRow is a per-city aggregate over a trailing window.
type CityPerformanceRow struct {
	City          string          `json:"city"`
	TotalUnits    int             `json:"total_units"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	ProductsSold  int             `json:"products_sold"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

// GetSalesAnalytics returns sales grouped by (city, product) for the last
// `days` days, busiest pairs first. An empty window yields an empty slice,
// not an error.
func GetSalesAnalytics(ctx context.Context, days int) ([]SalesAnalyticsRow, error) {
	db := config.GetDB()
	cutoff := time.Now().AddDate(0, 0, -days)

	var rows []SalesAnalyticsRow
	err := db.WithContext(ctx).
		Model(&SalesRecord{}).
		Select("city, product, SUM(units_sold) AS total_units, SUM(revenue) AS total_revenue, " +
			"AVG(avg_order_value) AS avg_order_value, COUNT(DISTINCT date) AS days_with_sales").
		Where("date >= ?", cutoff).
		Group("city, product").
		Order("total_units DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, utils.NewStorageError("GetSalesAnalytics", err)
	}
	return rows, nil
}

// GetProductSales returns the per-city aggregates for one product, used as
// the demand signal for allocation. Same shape and ordering as
// GetSalesAnalytics, filtered to the product.
func GetProductSales(ctx context.Context, product string, days int) ([]SalesAnalyticsRow, error) {
	db := config.GetDB()
	cutoff := time.Now().AddDate(0, 0, -days)

	var rows []SalesAnalyticsRow
	err := db.WithContext(ctx).
		Model(&SalesRecord{}).
		Select("city, product, SUM(units_sold) AS total_units, SUM(revenue) AS total_revenue, "+
			"AVG(avg_order_value) AS avg_order_value, COUNT(DISTINCT date) AS days_with_sales").
		Where("date >= ? AND product = ?", cutoff, product).
		Group("city, product").
		Order("total_units DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, utils.NewStorageError("GetProductSales", err)
	}
	return rows, nil
}

// GetCityPerformance returns per-city totals for the last `days` days,
// highest revenue first.
func GetCityPerformance(ctx context.Context, days int) ([]CityPerformanceRow, error) {
	db := config.GetDB()
	cutoff := time.Now().AddDate(0, 0, -days)

	var rows []CityPerformanceRow
	err := db.WithContext(ctx).
		Model(&SalesRecord{}).
		Select("city, SUM(units_sold) AS total_units, SUM(revenue) AS total_revenue, " +
			"COUNT(DISTINCT product) AS products_sold, AVG(avg_order_value) AS avg_order_value").
		Where("date >= ?", cutoff).
		Group("city").
		Order("total_revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, utils.NewStorageError("GetCityPerformance", err)
	}
	return rows, nil
}

// CreateSalesRecords bulk-inserts sales rows (ingestion path).
func CreateSalesRecords(ctx context.Context, records []SalesRecord) error {
	if len(records) == 0 {
		return nil
	}
	db := config.GetDB()
	// Batched to stay under SQLite's bind-variable limit.
	if err := db.WithContext(ctx).CreateInBatches(&records, 100).Error; err != nil {
		return utils.NewStorageError("CreateSalesRecords", err)
	}
	return nil
}
