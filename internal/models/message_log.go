package models

import "time"

// MessageLog records one outbound WhatsApp delivery attempt
type MessageLog struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id,omitempty"`
	Phone        string    `json:"phone"`
	MessageType  string    `json:"message_type"`
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Message types
const (
	MessageTypePurchaseConfirm = "purchase_confirmation"
	MessageTypePaymentUpdate   = "payment_update"
	MessageTypePaymentReminder = "payment_reminder"
	MessageTypeAnnouncement    = "announcement"
	MessageTypePasswordReset   = "password_reset"
	MessageTypePasswordUpdated = "password_updated"
)

// Message statuses
const (
	MessageStatusSent   = "sent"
	MessageStatusFailed = "failed"
)
