package models

import "time"

// NotificationType classifies notification severity.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification represents an in-app message for a user.
type Notification struct {
	ID                  string           `db:"id" json:"id"`
	UserID              string           `db:"user_id" json:"user_id"`
	Title               string           `db:"title" json:"title"`
	Message             string           `db:"message" json:"message"`
	Type                NotificationType `db:"type" json:"type"`
	Read                bool             `db:"read" json:"read"`
	RelatedResourceType *string          `db:"related_resource_type" json:"related_resource_type,omitempty"`
	RelatedResourceID   *string          `db:"related_resource_id" json:"related_resource_id,omitempty"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
}
