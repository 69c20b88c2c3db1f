package sendreportnotification

import "hr-analytics/internal/models"

type Input struct {
	RequestID         string                 `json:"requestId"`
	NotifyEmail       string                 `json:"notifyEmail,omitempty"`
	Report            map[string]interface{} `json:"report"`
	ValidationSuccess bool                   `json:"validationSuccess"`
	State             string                 `json:"state"`
	ImpossibleQuery   bool                   `json:"impossibleQuery"`
	Reason            string                 `json:"reason,omitempty"`
}

type Output struct {
	NotificationID string                `json:"notificationId"`
	Status         string                `json:"status"` // "sent", "disabled"
	Deliveries     []models.Notification `json:"deliveries"`
	SentAt         string                `json:"sentAt"` // RFC 3339
}

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"

	ChannelEmail = "email"
	ChannelSNS   = "sns"
)
