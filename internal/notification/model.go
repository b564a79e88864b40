package notification

import "time"

type Type string

const (
	TypeEmail Type = "email"
	TypeSMS   Type = "sms"
	TypePush  Type = "push"
	TypeInApp Type = "inapp"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject,omitempty"`
	Content   string    `json:"content"`
	Status    Status    `json:"status"`
	Attempts  int       `json:"attempts"`
	Provider  string    `json:"provider,omitempty"`
	LastError string    `json:"lastError,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
