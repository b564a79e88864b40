package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hakkisagdic/otokoc-demo/internal/state"
)

const (
	namespace       = "inventory"
	reservationPref = "reservation||"
)

type Repository interface {
	GetRecord(ctx context.Context, productID string) (*Record, error)
	SaveRecord(ctx context.Context, r *Record) error
	GetReservation(ctx context.Context, orderID string) (*Reservation, error)
	SaveReservation(ctx context.Context, res *Reservation) error
}

type stateRepository struct {
	store state.Store
}

func NewRepository(store state.Store) Repository {
	return &stateRepository{store: store}
}

func (r *stateRepository) GetRecord(ctx context.Context, productID string) (*Record, error) {
	value, err := r.store.Get(ctx, namespace, productID)
	if err != nil {
		if errors.Is(err, state.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get inventory %s: %w", productID, err)
	}

	var rec Record
	if err := json.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal inventory %s: %w", productID, err)
	}
	return &rec, nil
}

func (r *stateRepository) SaveRecord(ctx context.Context, rec *Record) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal inventory %s: %w", rec.ProductID, err)
	}
	if err := r.store.Save(ctx, namespace, []state.KV{{Key: rec.ProductID, Value: value}}); err != nil {
		return fmt.Errorf("save inventory %s: %w", rec.ProductID, err)
	}
	return nil
}

func (r *stateRepository) GetReservation(ctx context.Context, orderID string) (*Reservation, error) {
	value, err := r.store.Get(ctx, namespace, reservationPref+orderID)
	if err != nil {
		if errors.Is(err, state.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation %s: %w", orderID, err)
	}

	var res Reservation
	if err := json.Unmarshal(value, &res); err != nil {
		return nil, fmt.Errorf("unmarshal reservation %s: %w", orderID, err)
	}
	return &res, nil
}

func (r *stateRepository) SaveReservation(ctx context.Context, res *Reservation) error {
	value, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal reservation %s: %w", res.OrderID, err)
	}
	if err := r.store.Save(ctx, namespace, []state.KV{{Key: reservationPref + res.OrderID, Value: value}}); err != nil {
		return fmt.Errorf("save reservation %s: %w", res.OrderID, err)
	}
	return nil
}
