package dispatch_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/quickops/qcommerce_backend/config"
	"github.com/quickops/qcommerce_backend/dispatch"
	"github.com/quickops/qcommerce_backend/models"
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

func TestDispatch_SuccessMarksCompleted(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	d := dispatch.NewDispatcher(server.URL, config.GetLogger())
	id, err := d.Dispatch(ctx, models.ActionTypeRestockOrder, "Triggered restock order for Pune: 50 units of Cable", map[string]interface{}{
		"city":     "Pune",
		"product":  "Cable",
		"quantity": 50,
	})
	require.NoError(t, err)
	require.Greater(t, id, 0)

	// Payload carries the structured fields plus the log id.
	require.Equal(t, "restock_order", received["action_type"])
	require.EqualValues(t, id, received["action_id"])
	require.Equal(t, "Pune", received["city"])

	rows, err := models.GetRecentActions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, id, rows[0].ID)
	require.Equal(t, models.ActionStatusCompleted, rows[0].Status)
	require.NotNil(t, rows[0].WebhookResponse)
}

func TestDispatch_EndpointFailureKeepsLogEntry(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := dispatch.NewDispatcher(server.URL, config.GetLogger())
	id, err := d.Dispatch(ctx, models.ActionTypeAlert, "Sent high priority alert: stockout imminent", map[string]interface{}{
		"message":  "stockout imminent",
		"priority": "high",
	})
	// A failed dispatch is still a successfully logged action.
	require.NoError(t, err)
	require.Greater(t, id, 0)

	rows, err := models.GetRecentActions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, id, rows[0].ID)
	require.Equal(t, models.ActionStatusFailed, rows[0].Status)
}

func TestDispatch_TimeoutKeepsLogEntry(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := dispatch.NewDispatcher(server.URL, config.GetLogger())
	d.Client.Timeout = 50 * time.Millisecond

	id, err := d.Dispatch(ctx, models.ActionTypeAlert, "Sent medium priority alert: test", map[string]interface{}{
		"message": "test",
	})
	require.NoError(t, err)

	rows, err := models.GetRecentActions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, id, rows[0].ID)
	require.Equal(t, models.ActionStatusFailed, rows[0].Status)
}

func TestDispatch_UnreachableEndpointKeepsLogEntry(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	d := dispatch.NewDispatcher("http://127.0.0.1:1/webhook", config.GetLogger())
	d.Client.Timeout = 200 * time.Millisecond

	id, err := d.Dispatch(ctx, models.ActionTypeAllocation, "Allocated 10 units of Tablet based on demand: Pune: 10 units", map[string]interface{}{
		"product": "Tablet",
	})
	require.NoError(t, err)
	require.Greater(t, id, 0)

	count, err := models.CountActions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}
