package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Dispatcher routes notifications to the provider for their type and retries
// transient failures. Delivery is best-effort: it sits outside every
// transactional guarantee of the saga.
type Dispatcher struct {
	repo        Repository
	providers   map[Type]Provider
	maxAttempts int
	backoff     time.Duration
	logger      *log.Logger
}

func NewDispatcher(repo Repository, providers map[Type]Provider, maxAttempts int, backoff time.Duration, logger *log.Logger) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Dispatcher{
		repo:        repo,
		providers:   providers,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		logger:      logger,
	}
}

// Dispatch persists the notification and attempts delivery up to
// maxAttempts times. The stored record reflects every attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, typ Type, recipient, subject, content string) (*Notification, error) {
	now := time.Now().UTC()
	n := &Notification{
		ID:        uuid.NewString(),
		Type:      typ,
		Recipient: recipient,
		Subject:   subject,
		Content:   content,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	provider, ok := d.providers[typ]
	if !ok {
		n.Status = StatusFailed
		n.LastError = fmt.Sprintf("no provider for type %s", typ)
		_ = d.repo.Save(ctx, n)
		return n, fmt.Errorf("no provider for type %s", typ)
	}
	n.Provider = provider.Name()

	if err := d.repo.Save(ctx, n); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		n.Attempts = attempt
		lastErr = provider.Send(ctx, n)
		if lastErr == nil {
			n.Status = StatusSent
			n.LastError = ""
			n.UpdatedAt = time.Now().UTC()
			if err := d.repo.Save(ctx, n); err != nil {
				return n, err
			}
			return n, nil
		}

		n.LastError = lastErr.Error()
		n.UpdatedAt = time.Now().UTC()
		if err := d.repo.Save(ctx, n); err != nil {
			return n, err
		}

		if attempt < d.maxAttempts {
			select {
			case <-ctx.Done():
				return n, ctx.Err()
			case <-time.After(d.backoff):
			}
		}
	}

	n.Status = StatusFailed
	n.UpdatedAt = time.Now().UTC()
	if err := d.repo.Save(ctx, n); err != nil {
		return n, err
	}

	d.logger.Printf("notification %s to %s failed after %d attempts: %v", n.ID, n.Recipient, n.Attempts, lastErr)
	return n, fmt.Errorf("send notification after %d attempts: %w", n.Attempts, lastErr)
}
