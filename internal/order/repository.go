package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/hakkisagdic/otokoc-demo/internal/state"
)

var ErrNotFound = errors.New("order not found")

const (
	namespace     = "orders"
	userIndexPref = "user-index||"
)

type Repository interface {
	Save(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
}

type stateRepository struct {
	store state.Store
}

func NewRepository(store state.Store) Repository {
	return &stateRepository{store: store}
}

func (r *stateRepository) Save(ctx context.Context, o *Order) error {
	value, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order %s: %w", o.ID, err)
	}

	kvs := []state.KV{{Key: o.ID, Value: value}}

	// The store has no query capability, so the per-user order list is an
	// explicit index record maintained on every save.
	index, err := r.userIndex(ctx, o.UserID)
	if err != nil {
		return err
	}
	if !slices.Contains(index, o.ID) {
		index = append(index, o.ID)
		indexValue, err := json.Marshal(index)
		if err != nil {
			return fmt.Errorf("marshal user index %s: %w", o.UserID, err)
		}
		kvs = append(kvs, state.KV{Key: userIndexPref + o.UserID, Value: indexValue})
	}

	if err := r.store.Save(ctx, namespace, kvs); err != nil {
		return fmt.Errorf("save order %s: %w", o.ID, err)
	}
	return nil
}

func (r *stateRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	value, err := r.store.Get(ctx, namespace, orderID)
	if err != nil {
		if errors.Is(err, state.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}

	var o Order
	if err := json.Unmarshal(value, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order %s: %w", orderID, err)
	}
	return &o, nil
}

func (r *stateRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	index, err := r.userIndex(ctx, userID)
	if err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(index))
	for _, id := range index {
		o, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (r *stateRepository) userIndex(ctx context.Context, userID string) ([]string, error) {
	value, err := r.store.Get(ctx, namespace, userIndexPref+userID)
	if err != nil {
		if errors.Is(err, state.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user index %s: %w", userID, err)
	}

	var index []string
	if err := json.Unmarshal(value, &index); err != nil {
		return nil, fmt.Errorf("unmarshal user index %s: %w", userID, err)
	}
	return index, nil
}
