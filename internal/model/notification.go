package model

import "time"

// NotificationType categorizes a notification and drives its badge color
// and toast styling in the UI.
type NotificationType string

const (
	TypeInfo    NotificationType = "info"
	TypeSuccess NotificationType = "success"
	TypeWarning NotificationType = "warning"
	TypeAlert   NotificationType = "alert"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeAlert:
		return true
	}
	return false
}

// Notification represents a single server-issued notification as held in
// the client's in-memory list and local cache.
type Notification struct {
	// ID is the unique identifier, stable across the fetch and
	// real-time delivery paths.
	ID string `json:"id"`

	// Title is the short display headline.
	Title string `json:"title"`

	// Message is the display body text.
	Message string `json:"message"`

	// Type is one of info, success, warning, alert.
	Type NotificationType `json:"type"`

	// ReceivedAt is server-assigned for fetched history and
	// client-assigned at receipt time for real-time arrivals.
	ReceivedAt time.Time `json:"receivedAt"`

	// IsRead indicates whether the user has seen this notification.
	IsRead bool `json:"isRead"`

	// Tag is an optional free-text origin label, display-only.
	Tag string `json:"tag,omitempty"`

	// UserNotificationID is an optional server-side join-table row id,
	// present only for fetched items.
	UserNotificationID string `json:"userNotificationId,omitempty"`
}
