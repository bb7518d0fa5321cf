package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/quickops/qcommerce_backend/allocation"
	"github.com/quickops/qcommerce_backend/models"
	"github.com/quickops/qcommerce_backend/utils"
)

const helpResponse = "I can help you with inventory allocation, stock analysis, city performance, and operational decisions. " +
	"Please ask me about specific scenarios like 'allocate 1000 units of Smartphone' or 'which cities need attention?'"

var allocatePattern = regexp.MustCompile(`(?i)allocate\s+([\d,]+)\s+units\s+of\s+([A-Za-z][\w &'-]*)`)

// ruleResponder is the deterministic stand-in for the hosted model: keyword
// rules over live store queries. Same contract, no network.
type ruleResponder struct {
	planner *allocation.Planner
}

func newRuleResponder(planner *allocation.Planner) *ruleResponder {
	return &ruleResponder{planner: planner}
}

func (r *ruleResponder) Answer(ctx context.Context, query string) (string, error) {
	lower := strings.ToLower(query)

	switch {
	case strings.Contains(lower, "allocate") && strings.Contains(lower, "units"):
		return r.answerAllocation(ctx, query)
	case strings.Contains(lower, "low stock") || strings.Contains(lower, "restock"):
		return r.answerLowStock(ctx)
	case strings.Contains(lower, "performance") || strings.Contains(lower, "underperforming"):
		return r.answerPerformance(ctx)
	default:
		return helpResponse, nil
	}
}

func (r *ruleResponder) answerAllocation(ctx context.Context, query string) (string, error) {
	match := allocatePattern.FindStringSubmatch(query)
	if match == nil {
		return "To allocate inventory, phrase the request as 'allocate <units> units of <product>'.", nil
	}

	totalUnits, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return "To allocate inventory, phrase the request as 'allocate <units> units of <product>'.", nil
	}
	product := strings.TrimSpace(match[2])

	result, err := r.planner.Allocate(ctx, product, totalUnits, allocation.StrategyDemandBased)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) || utils.IsInputError(err) {
			return err.Error(), nil
		}
		return "", err
	}
	return result.Summary, nil
}

func (r *ruleResponder) answerLowStock(ctx context.Context) (string, error) {
	lowStock, err := models.GetLowStockItems(ctx)
	if err != nil {
		return "", err
	}
	if len(lowStock) == 0 {
		return "All items are well-stocked. No immediate restock required.", nil
	}

	limit := 5
	if len(lowStock) < limit {
		limit = len(lowStock)
	}
	items := make([]string, 0, limit)
	for _, row := range lowStock[:limit] {
		items = append(items, fmt.Sprintf("- %s: %s (%d units remaining)", row.City, row.Product, row.CurrentStock))
	}

	return fmt.Sprintf("Found %d items with low stock:\n\n%s\n\n"+
		"Recommendation: Trigger immediate restock orders for these items to prevent stockouts. "+
		"I'll send alerts to the warehouse team and suppliers.",
		len(lowStock), strings.Join(items, "\n")), nil
}

func (r *ruleResponder) answerPerformance(ctx context.Context) (string, error) {
	cities, err := models.GetCityPerformance(ctx, 7)
	if err != nil {
		return "", err
	}
	if len(cities) == 0 {
		return "All cities are performing well based on current metrics.", nil
	}

	last := cities[len(cities)-1]
	lines := []string{fmt.Sprintf("- %s: %s revenue (lowest)", last.City, last.TotalRevenue.StringFixed(0))}
	if len(cities) > 1 {
		secondLast := cities[len(cities)-2]
		lines = append(lines, fmt.Sprintf("- %s: %s revenue", secondLast.City, secondLast.TotalRevenue.StringFixed(0)))
	}

	return fmt.Sprintf("Cities that may need attention:\n\n%s\n\n"+
		"Recommendation: Analyze marketing strategies and inventory allocation for these cities to improve performance.",
		strings.Join(lines, "\n")), nil
}
