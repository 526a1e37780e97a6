// internal/models/notification.go
package models

// Notification delivery statuses
const (
	NotificationStatusSent     = "sent"
	NotificationStatusFailed   = "failed"
	NotificationStatusDisabled = "disabled"
)

// Notification is one alert delivery attempt recorded by the notifier.
type Notification struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`    // "device_down", "device_stale", "security_event"
	Channel   string                 `json:"channel"` // "email", "sms"
	Status    string                 `json:"status"`  // "sent", "failed", "disabled"
	Recipient string                 `json:"recipient"`
	Payload   map[string]interface{} `json:"payload"`
	SentAt    string                 `json:"sentAt"`
	CreatedAt string                 `json:"createdAt"`
}

// AlertSummary is the result of one alert evaluation pass over the device
// snapshot.
type AlertSummary struct {
	Down        int      `json:"down"`
	Stale       int      `json:"stale"`
	DownNames   []string `json:"downNames"`
	StaleNames  []string `json:"staleNames"`
	EvaluatedAt string   `json:"evaluatedAt"`
}
