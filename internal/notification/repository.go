package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hakkisagdic/otokoc-demo/internal/state"
)

var ErrNotFound = errors.New("notification not found")

const namespace = "notifications"

type Repository interface {
	Save(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id string) (*Notification, error)
}

type stateRepository struct {
	store state.Store
}

func NewRepository(store state.Store) Repository {
	return &stateRepository{store: store}
}

func (r *stateRepository) Save(ctx context.Context, n *Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification %s: %w", n.ID, err)
	}
	if err := r.store.Save(ctx, namespace, []state.KV{{Key: n.ID, Value: value}}); err != nil {
		return fmt.Errorf("save notification %s: %w", n.ID, err)
	}
	return nil
}

func (r *stateRepository) GetByID(ctx context.Context, id string) (*Notification, error) {
	value, err := r.store.Get(ctx, namespace, id)
	if err != nil {
		if errors.Is(err, state.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}

	var n Notification
	if err := json.Unmarshal(value, &n); err != nil {
		return nil, fmt.Errorf("unmarshal notification %s: %w", id, err)
	}
	return &n, nil
}
