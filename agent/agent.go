package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/quickops/qcommerce_backend/allocation"
	"github.com/quickops/qcommerce_backend/config"
	"github.com/quickops/qcommerce_backend/dispatch"
	"github.com/quickops/qcommerce_backend/engine"
	"github.com/quickops/qcommerce_backend/models"
	"github.com/quickops/qcommerce_backend/utils"
	"github.com/sirupsen/logrus"
)

const insightsWindowDays = 7

// Responder answers a free-text operations query. Two interchangeable
// strategies implement it: the hosted-model tool router and the
// deterministic keyword rules. Selection happens once, at construction.
type Responder interface {
	Answer(ctx context.Context, query string) (string, error)
}

// Agent wires the analytics, allocation and dispatch components behind the
// query interface. Lifecycle is explicit: construct after the database is
// connected, no package-level state.
type Agent struct {
	planner    *allocation.Planner
	dispatcher *dispatch.Dispatcher
	responder  Responder
	logger     *logrus.Logger
}

func New() *Agent {
	logger := config.GetLogger()
	dispatcher := dispatch.NewDispatcher(config.GetWebhookURL(), logger)
	planner := allocation.NewPlanner(dispatcher)

	a := &Agent{
		planner:    planner,
		dispatcher: dispatcher,
		logger:     logger,
	}

	if apiKey := config.GetOpenAIKey(); apiKey != "" {
		a.responder = newLLMResponder(apiKey, config.GetLLMModel(), a.Tools(), logger)
	} else {
		logger.Warn("no OpenAI API key configured; using rule-based responses")
		a.responder = newRuleResponder(planner)
	}
	return a
}

// ProcessQuery answers a free-text instruction. Errors surface as readable
// text, the caller always gets a string.
func (a *Agent) ProcessQuery(ctx context.Context, query string) string {
	response, err := a.responder.Answer(ctx, query)
	if err != nil {
		config.LogError(a.logger, "agent.go", "ProcessQuery", query, nil, err)
		return fmt.Sprintf("Error processing query: %v", err)
	}
	return response
}

// GetInsights returns the headline KPIs over the trailing week.
func (a *Agent) GetInsights(ctx context.Context) (*engine.Insights, error) {
	return engine.GetInsights(ctx, insightsWindowDays)
}

// Allocate runs the demand-proportional planner, logging and dispatching the
// outcome.
func (a *Agent) Allocate(ctx context.Context, product string, totalUnits int, strategy string) (*allocation.Result, error) {
	return a.planner.Allocate(ctx, product, totalUnits, strategy)
}

// TriggerRestock logs a restock order and notifies the automation endpoint.
// Stock levels are intentionally not mutated; the order is intent, the log
// row is the record of it.
func (a *Agent) TriggerRestock(ctx context.Context, city string, product string, quantity int) (string, int, error) {
	if strings.TrimSpace(city) == "" {
		return "", 0, utils.NewInputError("city", "must not be empty")
	}
	if strings.TrimSpace(product) == "" {
		return "", 0, utils.NewInputError("product", "must not be empty")
	}
	if quantity <= 0 {
		return "", 0, utils.NewInputError("quantity", "must be a positive integer")
	}

	details := fmt.Sprintf("Triggered restock order for %s: %d units of %s", city, quantity, product)
	actionID, err := a.dispatcher.Dispatch(ctx, models.ActionTypeRestockOrder, details, map[string]interface{}{
		"city":     city,
		"product":  product,
		"quantity": quantity,
	})
	if err != nil {
		return "", 0, err
	}

	summary := fmt.Sprintf("Triggered restock order: %d units of %s for %s\nAction logged with ID: %d",
		quantity, product, city, actionID)
	return summary, actionID, nil
}

// SendAlert logs an alert and notifies the automation endpoint.
func (a *Agent) SendAlert(ctx context.Context, message string, priority string, recipients []string) (string, int, error) {
	if strings.TrimSpace(message) == "" {
		return "", 0, utils.NewInputError("message", "must not be empty")
	}
	if priority == "" {
		priority = "medium"
	}
	if len(recipients) == 0 {
		recipients = []string{"operations@company.com"}
	}

	details := fmt.Sprintf("Sent %s priority alert: %s", priority, message)
	actionID, err := a.dispatcher.Dispatch(ctx, models.ActionTypeAlert, details, map[string]interface{}{
		"message":    message,
		"priority":   priority,
		"recipients": recipients,
	})
	if err != nil {
		return "", 0, err
	}

	summary := fmt.Sprintf("Sent %s priority alert: %s\nAction logged with ID: %d", priority, message, actionID)
	return summary, actionID, nil
}
