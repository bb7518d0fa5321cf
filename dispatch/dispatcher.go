package dispatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/quickops/qcommerce_backend/config"
	"github.com/quickops/qcommerce_backend/models"
	"github.com/quickops/qcommerce_backend/utils"
	"github.com/sirupsen/logrus"
)

const webhookTimeout = 10 * time.Second

// DispatchError means the automation endpoint could not be notified.
// It is recorded on the audit row and swallowed; it never unwinds the
// caller's success path because the row already persisted.
type DispatchError struct {
	StatusCode int
	Err        error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("webhook dispatch failed: %v", e.Err)
	}
	return fmt.Sprintf("webhook dispatch failed: status %d", e.StatusCode)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Dispatcher records an intended operation in the action log, then notifies
// the external automation endpoint with the structured payload plus the new
// log id. The log is the source of truth; the webhook is advisory.
type Dispatcher struct {
	WebhookURL string
	Client     *http.Client
	Logger     *logrus.Logger
}

func NewDispatcher(webhookURL string, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: webhookTimeout},
		Logger:     logger,
	}
}

// Dispatch appends the audit row and returns its id. The only error path is
// the append itself (StorageError); notification failures are logged,
// recorded as status=failed and swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, actionType models.ActionType, details string, payload map[string]interface{}) (int, error) {
	id, err := models.LogAction(ctx, actionType, details, d.WebhookURL)
	if err != nil {
		return 0, err
	}

	body := make(map[string]interface{}, len(payload)+2)
	for k, v := range payload {
		body[k] = v
	}
	body["action_type"] = actionType
	body["action_id"] = id

	response, notifyErr := d.notify(ctx, body)
	if notifyErr != nil {
		config.LogError(d.Logger, "dispatcher.go", "Dispatch", "notify", body, notifyErr)
		d.updateStatus(ctx, id, models.ActionStatusFailed, notifyErr.Error())
		return id, nil
	}

	d.updateStatus(ctx, id, models.ActionStatusCompleted, response)
	return id, nil
}

// updateStatus is best-effort: a failed status write must not surface past
// the dispatcher, the audit row already exists.
func (d *Dispatcher) updateStatus(ctx context.Context, id int, status models.ActionStatus, response string) {
	if err := models.UpdateActionStatus(ctx, id, status, response); err != nil {
		config.LogError(d.Logger, "dispatcher.go", "updateStatus", fmt.Sprintf("action_id=%d", id), nil, err)
	}
}

func (d *Dispatcher) notify(ctx context.Context, payload map[string]interface{}) (string, error) {
	if d.WebhookURL == "" {
		return "", &DispatchError{Err: fmt.Errorf("no webhook url configured")}
	}

	data, err := utils.MarshalToJSON(payload)
	if err != nil {
		return "", &DispatchError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, strings.NewReader(data))
	if err != nil {
		return "", &DispatchError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return "", &DispatchError{Err: err}
	}
	defer resp.Body.Close()

	// Only the status code matters; keep a bounded slice of the body for the audit row.
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &DispatchError{StatusCode: resp.StatusCode}
	}
	return string(respBody), nil
}
