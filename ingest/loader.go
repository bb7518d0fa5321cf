package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quickops/qcommerce_backend/models"
	"github.com/quickops/qcommerce_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Loaders assume canonical column names (date, city, product, ...); mapping
// alternate source schemas onto them is the producer's job, not ours.

var salesColumns = []string{"date", "city", "product", "category", "units_sold", "revenue", "avg_order_value"}

var inventoryColumns = []string{"city", "product", "category", "current_stock", "max_capacity",
	"reorder_level", "cost_per_unit", "supplier", "lead_time_days", "last_restocked"}

// LoadSalesCSV reads a canonical sales CSV and inserts its rows.
// Returns the number of rows inserted.
func LoadSalesCSV(ctx context.Context, path string) (int, error) {
	rows, err := readCSV(path)
	if err != nil {
		return 0, err
	}
	return loadSalesRows(ctx, rows)
}

// LoadInventoryCSV reads a canonical inventory CSV and inserts its rows.
func LoadInventoryCSV(ctx context.Context, path string) (int, error) {
	rows, err := readCSV(path)
	if err != nil {
		return 0, err
	}
	return loadInventoryRows(ctx, rows)
}

// LoadSalesXLSX reads the first sheet of a canonical sales workbook.
func LoadSalesXLSX(ctx context.Context, path string) (int, error) {
	rows, err := readXLSX(path)
	if err != nil {
		return 0, err
	}
	return loadSalesRows(ctx, rows)
}

// LoadInventoryXLSX reads the first sheet of a canonical inventory workbook.
func LoadInventoryXLSX(ctx context.Context, path string) (int, error) {
	rows, err := readXLSX(path)
	if err != nil {
		return 0, err
	}
	return loadInventoryRows(ctx, rows)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	return f.GetRows(sheets[0])
}

func loadSalesRows(ctx context.Context, rows [][]string) (int, error) {
	if len(rows) == 0 {
		return 0, utils.NewInputError("file", "no header row")
	}
	idx, err := columnIndex(rows[0], salesColumns)
	if err != nil {
		return 0, err
	}

	records := make([]models.SalesRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		date, err := parseDate(cell(row, idx["date"]))
		if err != nil {
			return 0, utils.NewInputError("date", fmt.Sprintf("row %d: %v", n+2, err))
		}
		units, err := strconv.Atoi(cell(row, idx["units_sold"]))
		if err != nil || units < 0 {
			return 0, utils.NewInputError("units_sold", fmt.Sprintf("row %d: must be a non-negative integer", n+2))
		}
		revenue, err := decimal.NewFromString(cell(row, idx["revenue"]))
		if err != nil || revenue.IsNegative() {
			return 0, utils.NewInputError("revenue", fmt.Sprintf("row %d: must be a non-negative number", n+2))
		}
		aov, err := decimal.NewFromString(cell(row, idx["avg_order_value"]))
		if err != nil {
			return 0, utils.NewInputError("avg_order_value", fmt.Sprintf("row %d: must be a number", n+2))
		}

		records = append(records, models.SalesRecord{
			Date:          date,
			City:          cell(row, idx["city"]),
			Product:       cell(row, idx["product"]),
			Category:      cell(row, idx["category"]),
			UnitsSold:     units,
			Revenue:       revenue,
			AvgOrderValue: aov,
		})
	}

	if err := models.CreateSalesRecords(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func loadInventoryRows(ctx context.Context, rows [][]string) (int, error) {
	if len(rows) == 0 {
		return 0, utils.NewInputError("file", "no header row")
	}
	idx, err := columnIndex(rows[0], inventoryColumns)
	if err != nil {
		return 0, err
	}

	records := make([]models.InventoryRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		stock, err := strconv.Atoi(cell(row, idx["current_stock"]))
		if err != nil || stock < 0 {
			return 0, utils.NewInputError("current_stock", fmt.Sprintf("row %d: must be a non-negative integer", n+2))
		}
		capacity, err := strconv.Atoi(cell(row, idx["max_capacity"]))
		if err != nil {
			return 0, utils.NewInputError("max_capacity", fmt.Sprintf("row %d: must be an integer", n+2))
		}
		reorder, err := strconv.Atoi(cell(row, idx["reorder_level"]))
		if err != nil || reorder < 0 {
			return 0, utils.NewInputError("reorder_level", fmt.Sprintf("row %d: must be a non-negative integer", n+2))
		}
		cost, err := decimal.NewFromString(cell(row, idx["cost_per_unit"]))
		if err != nil {
			return 0, utils.NewInputError("cost_per_unit", fmt.Sprintf("row %d: must be a number", n+2))
		}
		leadTime, err := strconv.Atoi(cell(row, idx["lead_time_days"]))
		if err != nil {
			return 0, utils.NewInputError("lead_time_days", fmt.Sprintf("row %d: must be an integer", n+2))
		}
		restocked, err := parseDate(cell(row, idx["last_restocked"]))
		if err != nil {
			return 0, utils.NewInputError("last_restocked", fmt.Sprintf("row %d: %v", n+2, err))
		}

		records = append(records, models.InventoryRecord{
			City:          cell(row, idx["city"]),
			Product:       cell(row, idx["product"]),
			Category:      cell(row, idx["category"]),
			CurrentStock:  stock,
			MaxCapacity:   capacity,
			ReorderLevel:  reorder,
			CostPerUnit:   cost,
			Supplier:      cell(row, idx["supplier"]),
			LeadTimeDays:  leadTime,
			LastRestocked: restocked,
		})
	}

	if err := models.CreateInventoryRecords(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func columnIndex(header []string, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, utils.NewInputError(name, "missing column")
		}
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339, "01-02-06", "1/2/06 15:04"}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
