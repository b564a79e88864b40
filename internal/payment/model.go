package payment

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

// Payment is the audit record of one authorization attempt. It is written in
// Processing state before the gateway is called, so a crash between call and
// response never loses the attempt. Card data is redacted to the last four
// digits before the record ever reaches the store.
type Payment struct {
	ID            string  `json:"id"`
	OrderID       string  `json:"orderId"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	Status        Status  `json:"status"`
	CardLast4     string  `json:"cardLast4,omitempty"`
	TransactionID string  `json:"transactionId,omitempty"`
	AuthCode      string  `json:"authCode,omitempty"`
	FailureReason string  `json:"failureReason,omitempty"`

	RefundID     string     `json:"refundId,omitempty"`
	RefundAmount float64    `json:"refundAmount,omitempty"`
	RefundReason string     `json:"refundReason,omitempty"`
	RefundedAt   *time.Time `json:"refundedAt,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// CardDetails is accepted from callers but never persisted whole.
type CardDetails struct {
	CardNumber string `json:"cardNumber"`
	CardHolder string `json:"cardHolder"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

func lastFour(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
