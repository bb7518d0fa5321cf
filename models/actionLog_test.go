package models_test

import (
	"context"
	"testing"
	"time"

	"github.com/quickops/qcommerce_backend/models"
	"github.com/stretchr/testify/require"
)

func TestLogAction_AssignsIncreasingIdsAndTimestamps(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	first, err := models.LogAction(ctx, models.ActionTypeAllocation, "Allocated 100 units of Tablet", "http://localhost:5678/webhook/quick-commerce")
	require.NoError(t, err)
	second, err := models.LogAction(ctx, models.ActionTypeRestockOrder, "Triggered restock order for Pune: 50 units of Cable", "")
	require.NoError(t, err)
	require.Greater(t, second, first)

	rows, err := models.GetRecentActions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Newest first.
	require.Equal(t, second, rows[0].ID)
	require.Equal(t, models.ActionStatusPending, rows[0].Status)
	require.Nil(t, rows[0].WebhookURL)
	require.NotNil(t, rows[1].WebhookURL)
	for _, r := range rows {
		require.False(t, r.Timestamp.After(time.Now()))
	}

	count, err := models.CountActions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestUpdateActionStatus_RecordsOutcome(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	id, err := models.LogAction(ctx, models.ActionTypeAlert, "Sent high priority alert: stockout imminent", "http://example.invalid/hook")
	require.NoError(t, err)

	require.NoError(t, models.UpdateActionStatus(ctx, id, models.ActionStatusFailed, "connection refused"))

	rows, err := models.GetRecentActions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, models.ActionStatusFailed, rows[0].Status)
	require.NotNil(t, rows[0].WebhookResponse)
	require.Equal(t, "connection refused", *rows[0].WebhookResponse)
}

func TestUpdateActionStatus_UnknownIdIsNoOp(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, models.UpdateActionStatus(ctx, 9999, models.ActionStatusCompleted, "ok"))

	count, err := models.CountActions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}
