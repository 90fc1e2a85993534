// notification.go defines the Notification model and its state machine.
// A notification is attached to an organization and references a message
// template by ID; the body text lives in the message registry, not the row.
// Row-specific values interpolated into the body (trial end dates, quota
// percentages) travel in the format_values JSONB column.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Notification states
const (
	NotificationStateUnread    = "unread"
	NotificationStateRead      = "read"
	NotificationStateDismissed = "dismissed"
	NotificationStateCancelled = "cancelled"
)

// FormatValues holds the per-row template values a notification's message
// body interpolates, keyed by template variable name.
type FormatValues map[string]string

// Value serializes the map for the JSONB column. A nil map is stored as an
// empty object so the column's NOT NULL constraint holds.
func (v FormatValues) Value() (driver.Value, error) {
	if len(v) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

// Scan deserializes the JSONB column into the map.
func (v *FormatValues) Scan(src interface{}) error {
	switch data := src.(type) {
	case nil:
		*v = FormatValues{}
		return nil
	case []byte:
		if len(data) == 0 {
			*v = FormatValues{}
			return nil
		}
		return json.Unmarshal(data, v)
	case string:
		return json.Unmarshal([]byte(data), v)
	}
	return fmt.Errorf("cannot scan %T into FormatValues", src)
}

// Notification represents a pending or historical message shown to an organization
type Notification struct {
	ID             string
	OrganizationID string
	MessageID      string
	State          string
	Dismissable    bool
	FormatValues   FormatValues
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsPending reports whether the notification should still be shown on pages.
// Dismissed and cancelled notifications are kept for history but never rendered.
func (n *Notification) IsPending() bool {
	return n.State == NotificationStateUnread || n.State == NotificationStateRead
}

// ValidNotificationState reports whether s is one of the defined states.
func ValidNotificationState(s string) bool {
	switch s {
	case NotificationStateUnread, NotificationStateRead, NotificationStateDismissed, NotificationStateCancelled:
		return true
	}
	return false
}
