package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/quickops/qcommerce_backend/models"
	"github.com/quickops/qcommerce_backend/utils"
)

// Tool is one operation the hosted model may invoke. Read tools are
// idempotent formatters over store queries; the three write tools log and
// dispatch like their API counterparts.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Run         func(ctx context.Context, input string) string
}

func (a *Agent) Tools() []Tool {
	return []Tool{
		{
			Name:        "get_sales_analytics",
			Description: "Get sales analytics for the last N days, grouped by city and product.",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"days":{"type":"integer","description":"trailing window in days"}},"required":["days"]}`),
			Run:         a.runSalesAnalytics,
		},
		{
			Name:        "get_inventory_status",
			Description: "Get current inventory status across all cities and products.",
			Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
			Run:         a.runInventoryStatus,
		},
		{
			Name:        "get_low_stock_items",
			Description: "Get items that are low on stock and need restocking.",
			Parameters:  json.RawMessage(`{"type":"object","properties":{}}`),
			Run:         a.runLowStockItems,
		},
		{
			Name:        "get_city_performance",
			Description: "Get city performance metrics for the last N days.",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"days":{"type":"integer","description":"trailing window in days"}},"required":["days"]}`),
			Run:         a.runCityPerformance,
		},
		{
			Name:        "allocate_inventory",
			Description: "Allocate inventory units to cities proportionally to recent demand.",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"product":{"type":"string"},"total_units":{"type":"integer"},"strategy":{"type":"string","enum":["demand_based"]}},"required":["product","total_units"]}`),
			Run:         a.runAllocateInventory,
		},
		{
			Name:        "trigger_restock",
			Description: "Trigger a restock order for a city and product.",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"},"product":{"type":"string"},"quantity":{"type":"integer"}},"required":["city","product","quantity"]}`),
			Run:         a.runTriggerRestock,
		},
		{
			Name:        "send_alert",
			Description: "Send an alert notification to the operations team.",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"message":{"type":"string"},"priority":{"type":"string","enum":["low","medium","high"]},"recipients":{"type":"array","items":{"type":"string"}}},"required":["message"]}`),
			Run:         a.runSendAlert,
		},
	}
}

func parseDaysInput(input string) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 7, nil
	}
	if strings.HasPrefix(input, "{") {
		var args struct {
			Days int `json:"days"`
		}
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return 0, err
		}
		if args.Days <= 0 {
			args.Days = 7
		}
		return args.Days, nil
	}
	return strconv.Atoi(strings.Trim(input, `"`))
}

func (a *Agent) runSalesAnalytics(ctx context.Context, input string) string {
	days, err := parseDaysInput(input)
	if err != nil {
		return fmt.Sprintf("Error getting sales analytics: days must be a number, got %q", input)
	}
	rows, err := models.GetSalesAnalytics(ctx, days)
	if err != nil {
		return fmt.Sprintf("Error getting sales analytics: %v", err)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("No sales recorded in the last %d days.", days)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Sales by city and product (last %d days):\n", days)
	for _, r := range rows {
		fmt.Fprintf(&b, "%s | %s | units=%d | revenue=%s | avg_order_value=%s | days_with_sales=%d\n",
			r.City, r.Product, r.TotalUnits, r.TotalRevenue.StringFixed(2), r.AvgOrderValue.StringFixed(2), r.DaysWithSales)
	}
	return b.String()
}

func (a *Agent) runInventoryStatus(ctx context.Context, _ string) string {
	rows, err := models.GetInventoryStatus(ctx)
	if err != nil {
		return fmt.Sprintf("Error getting inventory status: %v", err)
	}
	if len(rows) == 0 {
		return "No inventory records found."
	}

	var b strings.Builder
	b.WriteString("Inventory status (worst first):\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s | %s | stock=%d | reorder_level=%d | status=%s | supplier=%s | lead_time_days=%d\n",
			r.City, r.Product, r.CurrentStock, r.ReorderLevel, r.StockStatus, r.Supplier, r.LeadTimeDays)
	}
	return b.String()
}

func (a *Agent) runLowStockItems(ctx context.Context, _ string) string {
	rows, err := models.GetLowStockItems(ctx)
	if err != nil {
		return fmt.Sprintf("Error getting low stock items: %v", err)
	}
	if len(rows) == 0 {
		return "No items are below their reorder level."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d items at or below reorder level:\n", len(rows))
	for _, r := range rows {
		fmt.Fprintf(&b, "%s | %s | stock=%d | reorder_level=%d | supplier=%s\n",
			r.City, r.Product, r.CurrentStock, r.ReorderLevel, r.Supplier)
	}
	return b.String()
}

func (a *Agent) runCityPerformance(ctx context.Context, input string) string {
	days, err := parseDaysInput(input)
	if err != nil {
		return fmt.Sprintf("Error getting city performance: days must be a number, got %q", input)
	}
	rows, err := models.GetCityPerformance(ctx, days)
	if err != nil {
		return fmt.Sprintf("Error getting city performance: %v", err)
	}
	if len(rows) == 0 {
		return fmt.Sprintf("No sales recorded in the last %d days.", days)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "City performance (last %d days, best first):\n", days)
	for _, r := range rows {
		fmt.Fprintf(&b, "%s | units=%d | revenue=%s | products_sold=%d\n",
			r.City, r.TotalUnits, r.TotalRevenue.StringFixed(2), r.ProductsSold)
	}
	return b.String()
}

func (a *Agent) runAllocateInventory(ctx context.Context, input string) string {
	var args struct {
		Product    string `json:"product"`
		TotalUnits int    `json:"total_units"`
		Strategy   string `json:"strategy"`
	}
	if err := utils.UnmarshalFromJSON([]byte(input), &args); err != nil {
		return fmt.Sprintf("Error allocating inventory: %v", err)
	}

	result, err := a.planner.Allocate(ctx, args.Product, args.TotalUnits, args.Strategy)
	if err != nil {
		return fmt.Sprintf("Error allocating inventory: %v", err)
	}
	return result.Summary
}

func (a *Agent) runTriggerRestock(ctx context.Context, input string) string {
	var args struct {
		City     string `json:"city"`
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	}
	if err := utils.UnmarshalFromJSON([]byte(input), &args); err != nil {
		return fmt.Sprintf("Error triggering restock: %v", err)
	}

	summary, _, err := a.TriggerRestock(ctx, args.City, args.Product, args.Quantity)
	if err != nil {
		return fmt.Sprintf("Error triggering restock: %v", err)
	}
	return summary
}

func (a *Agent) runSendAlert(ctx context.Context, input string) string {
	var args struct {
		Message    string   `json:"message"`
		Priority   string   `json:"priority"`
		Recipients []string `json:"recipients"`
	}
	if err := utils.UnmarshalFromJSON([]byte(input), &args); err != nil {
		return fmt.Sprintf("Error sending alert: %v", err)
	}

	summary, _, err := a.SendAlert(ctx, args.Message, args.Priority, args.Recipients)
	if err != nil {
		return fmt.Sprintf("Error sending alert: %v", err)
	}
	return summary
}
