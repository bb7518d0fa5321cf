package models

import (
	"context"
	"time"

	"github.com/quickops/qcommerce_backend/config"
	"github.com/quickops/qcommerce_backend/utils"
)

type ActionType string

const (
	ActionTypeAllocation   ActionType = "inventory_allocation"
	ActionTypeRestockOrder ActionType = "restock_order"
	ActionTypeAlert        ActionType = "alert"
)

type ActionStatus string

const (
	ActionStatusPending   ActionStatus = "pending"
	ActionStatusCompleted ActionStatus = "completed"
	ActionStatusFailed    ActionStatus = "failed"
)

// ActionLogEntry is the durable audit row behind every allocate/restock/alert
// operation. Append-only except for a single later status update; the log row
// persists no matter what the automation webhook does.
type ActionLogEntry struct {
	ID              int          `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp       time.Time    `gorm:"not null" json:"timestamp"`
	ActionType      ActionType   `gorm:"type:varchar(100);not null" json:"action_type"`
	Details         string       `gorm:"type:text;not null" json:"details"`
	Status          ActionStatus `gorm:"type:varchar(50);not null;default:pending" json:"status"`
	WebhookURL      *string      `gorm:"type:varchar(500)" json:"webhook_url"`
	WebhookResponse *string      `gorm:"type:text" json:"webhook_response"`
}

func (ActionLogEntry) TableName() string {
	return "action_log"
}

// LogAction appends a pending audit row and returns its id.
func LogAction(ctx context.Context, actionType ActionType, details string, webhookURL string) (int, error) {
	db := config.GetDB()

	entry := ActionLogEntry{
		Timestamp:  time.Now(),
		ActionType: actionType,
		Details:    details,
		Status:     ActionStatusPending,
	}
	if webhookURL != "" {
		entry.WebhookURL = &webhookURL
	}

	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return 0, utils.NewStorageError("LogAction", err)
	}
	return entry.ID, nil
}

// UpdateActionStatus records the dispatch outcome on an existing row.
// Unknown ids are a no-op, not an error.
func UpdateActionStatus(ctx context.Context, id int, status ActionStatus, response string) error {
	db := config.GetDB()

	updates := map[string]interface{}{"status": status}
	if response != "" {
		updates["webhook_response"] = response
	}

	err := db.WithContext(ctx).
		Model(&ActionLogEntry{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return utils.NewStorageError("UpdateActionStatus", err)
	}
	return nil
}

// GetRecentActions returns the newest audit rows for the dashboard feed.
func GetRecentActions(ctx context.Context, limit int) ([]ActionLogEntry, error) {
	db := config.GetDB()
	if limit <= 0 {
		limit = 20
	}

	var rows []ActionLogEntry
	err := db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, utils.NewStorageError("GetRecentActions", err)
	}
	return rows, nil
}

// CountActions reports the current size of the action log.
func CountActions(ctx context.Context) (int64, error) {
	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&ActionLogEntry{}).Count(&count).Error; err != nil {
		return 0, utils.NewStorageError("CountActions", err)
	}
	return count, nil
}
