package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/hakkisagdic/otokoc-demo/internal/state"
)

var ErrNotFound = errors.New("payment not found")

const (
	namespace      = "payments"
	orderIndexPref = "order-index||"
)

type Repository interface {
	Save(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, paymentID string) (*Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]Payment, error)
}

type stateRepository struct {
	store state.Store
}

func NewRepository(store state.Store) Repository {
	return &stateRepository{store: store}
}

func (r *stateRepository) Save(ctx context.Context, p *Payment) error {
	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payment %s: %w", p.ID, err)
	}

	kvs := []state.KV{{Key: p.ID, Value: value}}

	index, err := r.orderIndex(ctx, p.OrderID)
	if err != nil {
		return err
	}
	if !slices.Contains(index, p.ID) {
		index = append(index, p.ID)
		indexValue, err := json.Marshal(index)
		if err != nil {
			return fmt.Errorf("marshal order index %s: %w", p.OrderID, err)
		}
		kvs = append(kvs, state.KV{Key: orderIndexPref + p.OrderID, Value: indexValue})
	}

	if err := r.store.Save(ctx, namespace, kvs); err != nil {
		return fmt.Errorf("save payment %s: %w", p.ID, err)
	}
	return nil
}

func (r *stateRepository) GetByID(ctx context.Context, paymentID string) (*Payment, error) {
	value, err := r.store.Get(ctx, namespace, paymentID)
	if err != nil {
		if errors.Is(err, state.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payment %s: %w", paymentID, err)
	}

	var p Payment
	if err := json.Unmarshal(value, &p); err != nil {
		return nil, fmt.Errorf("unmarshal payment %s: %w", paymentID, err)
	}
	return &p, nil
}

func (r *stateRepository) ListByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	index, err := r.orderIndex(ctx, orderID)
	if err != nil {
		return nil, err
	}

	payments := make([]Payment, 0, len(index))
	for _, id := range index {
		p, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, nil
}

func (r *stateRepository) orderIndex(ctx context.Context, orderID string) ([]string, error) {
	value, err := r.store.Get(ctx, namespace, orderIndexPref+orderID)
	if err != nil {
		if errors.Is(err, state.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order index %s: %w", orderID, err)
	}

	var index []string
	if err := json.Unmarshal(value, &index); err != nil {
		return nil, fmt.Errorf("unmarshal order index %s: %w", orderID, err)
	}
	return index, nil
}
