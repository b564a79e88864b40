package payment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// DeclinedError is the typed outcome of a gateway decline. The attempt is
// recorded; retrying is the caller's decision.
type DeclinedError struct {
	Reason string
}

func (e *DeclinedError) Error() string {
	return "payment declined: " + e.Reason
}

// NotRefundableError rejects refunds of payments that never completed.
type NotRefundableError struct {
	PaymentID string
	Status    Status
}

func (e *NotRefundableError) Error() string {
	return fmt.Sprintf("payment %s: cannot refund in status %s", e.PaymentID, e.Status)
}

// RefundAmountError rejects refunds exceeding the captured amount.
type RefundAmountError struct {
	PaymentID string
	Requested float64
	Original  float64
}

func (e *RefundAmountError) Error() string {
	return fmt.Sprintf("payment %s: refund %.2f exceeds original %.2f", e.PaymentID, e.Requested, e.Original)
}

// Processor records every authorization attempt and settles it against the
// gateway.
type Processor struct {
	repo    Repository
	gateway Gateway
	logger  *log.Logger
}

func NewProcessor(repo Repository, gateway Gateway, logger *log.Logger) *Processor {
	return &Processor{repo: repo, gateway: gateway, logger: logger}
}

// Authorize persists a Processing record, asks the gateway, then settles the
// record to Completed or Failed. The returned Payment is non-nil for every
// attempt that reached the store, including declines.
func (p *Processor) Authorize(ctx context.Context, orderID string, amount float64, method string, card CardDetails) (*Payment, error) {
	now := time.Now().UTC()
	rec := &Payment{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		Amount:    amount,
		Method:    method,
		Status:    StatusProcessing,
		CardLast4: lastFour(card.CardNumber),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.repo.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("record payment attempt: %w", err)
	}

	res, err := p.gateway.Authorize(ctx, AuthorizationRequest{
		OrderID: orderID,
		Amount:  amount,
		Method:  method,
		Card:    card,
	})
	if err != nil {
		rec.Status = StatusFailed
		rec.FailureReason = err.Error()
		rec.UpdatedAt = time.Now().UTC()
		if saveErr := p.repo.Save(ctx, rec); saveErr != nil {
			p.logger.Printf("record gateway failure for payment %s: %v", rec.ID, saveErr)
		}
		return rec, fmt.Errorf("gateway authorize: %w", err)
	}

	if !res.Approved {
		rec.Status = StatusFailed
		rec.FailureReason = res.DeclineReason
		rec.UpdatedAt = time.Now().UTC()
		if err := p.repo.Save(ctx, rec); err != nil {
			return rec, err
		}
		return rec, &DeclinedError{Reason: res.DeclineReason}
	}

	completed := time.Now().UTC()
	rec.Status = StatusCompleted
	rec.TransactionID = res.TransactionID
	rec.AuthCode = res.AuthCode
	rec.UpdatedAt = completed
	rec.CompletedAt = &completed
	if err := p.repo.Save(ctx, rec); err != nil {
		return rec, err
	}

	p.logger.Printf("payment %s completed for order %s amount=%.2f", rec.ID, orderID, amount)
	return rec, nil
}

// Refund reverses a completed payment. A zero amount means full refund; the
// amount may never exceed the original.
func (p *Processor) Refund(ctx context.Context, paymentID string, amount float64, reason string) (*Payment, error) {
	rec, err := p.repo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusCompleted {
		return rec, &NotRefundableError{PaymentID: rec.ID, Status: rec.Status}
	}
	if amount == 0 {
		amount = rec.Amount
	}
	if amount > rec.Amount {
		return rec, &RefundAmountError{PaymentID: rec.ID, Requested: amount, Original: rec.Amount}
	}

	now := time.Now().UTC()
	rec.Status = StatusRefunded
	rec.RefundID = uuid.NewString()
	rec.RefundAmount = amount
	rec.RefundReason = reason
	rec.RefundedAt = &now
	rec.UpdatedAt = now
	if err := p.repo.Save(ctx, rec); err != nil {
		return rec, err
	}

	p.logger.Printf("payment %s refunded %.2f: %s", rec.ID, amount, reason)
	return rec, nil
}

// RefundForOrder refunds the completed payment of a cancelled order, if one
// exists. Orders cancelled before payment have nothing to compensate.
func (p *Processor) RefundForOrder(ctx context.Context, orderID, reason string) error {
	payments, err := p.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}

	for _, rec := range payments {
		if rec.Status != StatusCompleted {
			continue
		}
		if _, err := p.Refund(ctx, rec.ID, 0, reason); err != nil {
			return fmt.Errorf("refund payment %s for order %s: %w", rec.ID, orderID, err)
		}
	}
	return nil
}
