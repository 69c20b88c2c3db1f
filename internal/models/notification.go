package models

// Notification records one delivery of a report summary.
type Notification struct {
	ID        string                 `json:"id"`
	RequestID string                 `json:"requestId"`
	Recipient string                 `json:"recipient"`
	Channel   string                 `json:"channel"` // "email", "sns"
	Status    string                 `json:"status"`  // "sent", "failed", "disabled"
	MessageID string                 `json:"messageId,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	SentAt    string                 `json:"sentAt,omitempty"`
}

// NotificationTemplate renders a report summary for one channel.
type NotificationTemplate struct {
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"htmlBody,omitempty"`
}
