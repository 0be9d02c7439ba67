package models

import "time"

// Notification is a user-facing message produced by the notification fan-out
// consumer. A record is created PENDING, then moved to SENT or FAILED within
// the same consumer invocation; it is never left PENDING after the handler
// returns.
type Notification struct {
	ID              int64      `json:"id"`
	Type            string     `json:"type"`
	Status          string     `json:"status"`
	RecipientEmail  string     `json:"recipientEmail"`
	RecipientUserID int64      `json:"recipientUserId"`
	Subject         string     `json:"subject"`
	Content         string     `json:"content"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	SentAt          *time.Time `json:"sentAt,omitempty"`
	ReadAt          *time.Time `json:"readAt,omitempty"`
}

const (
	NotificationTypeEmail = "EMAIL"
	NotificationTypeInApp = "IN_APP"

	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
	NotificationStatusRead    = "READ"
)

// Customer is the subset of the customer service's record needed to address
// notifications.
type Customer struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}
