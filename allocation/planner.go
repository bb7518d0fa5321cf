package allocation

import (
	"context"
	"fmt"
	"strings"

	"github.com/quickops/qcommerce_backend/dispatch"
	"github.com/quickops/qcommerce_backend/models"
	"github.com/quickops/qcommerce_backend/utils"
)

const (
	StrategyDemandBased = "demand_based"

	// Demand is measured over the trailing week of sales.
	demandWindowDays = 7
)

type CityAllocation struct {
	City           string `json:"city"`
	AllocatedUnits int    `json:"allocated_units"`
}

// Result is the outcome of a successful allocation, including the id of the
// audit row it produced.
type Result struct {
	Product     string           `json:"product"`
	TotalUnits  int              `json:"total_units"`
	Strategy    string           `json:"strategy"`
	Allocations []CityAllocation `json:"allocations"`
	ActionID    int              `json:"action_id"`
	Summary     string           `json:"summary"`
}

// Planner splits a unit quantity across cities in proportion to each city's
// share of recent sales for the product.
type Planner struct {
	dispatcher *dispatch.Dispatcher
}

func NewPlanner(d *dispatch.Dispatcher) *Planner {
	return &Planner{dispatcher: d}
}

// Allocate computes a demand-proportional split and records it in the action
// log, notifying the automation endpoint. Per-city units are floored, so the
// allocated sum can fall short of totalUnits by up to len(cities)-1; the
// shortfall is intentional and is not redistributed.
func (p *Planner) Allocate(ctx context.Context, product string, totalUnits int, strategy string) (*Result, error) {
	if strings.TrimSpace(product) == "" {
		return nil, utils.NewInputError("product", "must not be empty")
	}
	if totalUnits <= 0 {
		return nil, utils.NewInputError("total_units", "must be a positive integer")
	}
	if strategy == "" {
		strategy = StrategyDemandBased
	}
	if strategy != StrategyDemandBased {
		return nil, utils.NewInputError("strategy", fmt.Sprintf("unknown strategy %q, only %q is supported", strategy, StrategyDemandBased))
	}

	sales, err := models.GetProductSales(ctx, product, demandWindowDays)
	if err != nil {
		return nil, err
	}

	totalSold := 0
	for _, row := range sales {
		totalSold += row.TotalUnits
	}
	// A window of only zero-unit rows carries no demand signal, same as no
	// rows at all. Nothing is logged either way.
	if totalSold == 0 {
		return nil, fmt.Errorf("no sales data found for product: %s: %w", product, utils.ErrorRecordNotFound)
	}

	allocations := make([]CityAllocation, 0, len(sales))
	lines := make([]string, 0, len(sales))
	for _, row := range sales {
		allocated := totalUnits * row.TotalUnits / totalSold
		allocations = append(allocations, CityAllocation{City: row.City, AllocatedUnits: allocated})
		lines = append(lines, fmt.Sprintf("%s: %d units", row.City, allocated))
	}
	allocationSummary := strings.Join(lines, "\n")

	details := fmt.Sprintf("Allocated %d units of %s based on demand: %s", totalUnits, product, allocationSummary)
	actionID, err := p.dispatcher.Dispatch(ctx, models.ActionTypeAllocation, details, map[string]interface{}{
		"product":     product,
		"total_units": totalUnits,
		"allocations": lines,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Product:     product,
		TotalUnits:  totalUnits,
		Strategy:    strategy,
		Allocations: allocations,
		ActionID:    actionID,
		Summary: fmt.Sprintf("Allocated %d units of %s:\n%s\n\nAction logged with ID: %d",
			totalUnits, product, allocationSummary, actionID),
	}, nil
}
