package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hakkisagdic/otokoc-demo/internal/bus"
	"github.com/hakkisagdic/otokoc-demo/internal/events"
)

// Ledger owns all mutation of inventory records. The state store is
// last-writer-wins, so read-modify-write cycles for a product are serialized
// behind a per-product mutex; there is no cross-product exclusion because no
// operation needs it.
type Ledger struct {
	repo          Repository
	bus           bus.Bus
	logger        *log.Logger
	reorderFactor int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLedger(repo Repository, b bus.Bus, reorderFactor int, logger *log.Logger) *Ledger {
	if reorderFactor <= 0 {
		reorderFactor = 3
	}
	return &Ledger{
		repo:          repo,
		bus:           b,
		logger:        logger,
		reorderFactor: reorderFactor,
		locks:         make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) productLock(productID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[productID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[productID] = m
	}
	return m
}

// GetRecord exposes a read-only view for the HTTP surface.
func (l *Ledger) GetRecord(ctx context.Context, productID string) (*Record, error) {
	return l.repo.GetRecord(ctx, productID)
}

// Reserve places a soft hold on stock for one product.
func (l *Ledger) Reserve(ctx context.Context, productID string, quantity int, orderID string) error {
	remaining, err := l.reserveOne(ctx, productID, quantity)
	if err != nil {
		return err
	}
	l.publish(ctx, events.TopicInventoryReserved, events.InventoryReserved{
		ProductID:          productID,
		Quantity:           quantity,
		OrderID:            orderID,
		RemainingAvailable: remaining,
	}, orderID)
	return nil
}

// Release returns reserved stock to availability.
func (l *Ledger) Release(ctx context.Context, productID string, quantity int, orderID string) error {
	if err := l.releaseOne(ctx, productID, quantity); err != nil {
		return err
	}
	l.publish(ctx, events.TopicInventoryReleased, events.InventoryReleased{
		ProductID: productID,
		Quantity:  quantity,
		OrderID:   orderID,
		Timestamp: time.Now().UTC(),
	}, orderID)
	return nil
}

// Fulfill permanently decrements on-hand stock for goods leaving the
// warehouse, consuming the matching reservation.
func (l *Ledger) Fulfill(ctx context.Context, productID string, quantity int, orderID string) error {
	reorder, err := l.fulfillOne(ctx, productID, quantity)
	if err != nil {
		return err
	}
	if reorder != nil {
		l.publish(ctx, events.TopicReorderNeeded, *reorder, orderID)
	}
	return nil
}

// AdjustStock is the administrative overwrite of on-hand quantity. It
// refuses adjustments that would drop quantity below the reserved portion.
func (l *Ledger) AdjustStock(ctx context.Context, productID string, newQuantity int, location string, reorderLevel int) (*Record, error) {
	lock := l.productLock(productID)
	lock.Lock()

	rec, err := l.repo.GetRecord(ctx, productID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			lock.Unlock()
			return nil, err
		}
		rec = &Record{ProductID: productID}
	}

	if newQuantity < rec.Reserved {
		lock.Unlock()
		return nil, &InvariantError{ProductID: productID, Quantity: newQuantity, Reserved: rec.Reserved}
	}

	rec.Quantity = newQuantity
	rec.Location = location
	rec.ReorderLevel = reorderLevel
	rec.LastUpdated = time.Now().UTC()
	if err := l.repo.SaveRecord(ctx, rec); err != nil {
		lock.Unlock()
		return nil, err
	}
	snapshot := *rec
	lock.Unlock()

	l.publish(ctx, events.TopicInventoryUpdated, events.InventoryUpdated{
		ProductID:    snapshot.ProductID,
		Quantity:     snapshot.Quantity,
		Reserved:     snapshot.Reserved,
		Location:     snapshot.Location,
		ReorderLevel: snapshot.ReorderLevel,
		Timestamp:    snapshot.LastUpdated,
	}, "")
	return &snapshot, nil
}

// ReserveOrder reserves every line or none of them: on the first failing
// line, holds taken for earlier lines are released before returning. Success
// writes a reservation record and only then announces the per-product
// reservations, so a partially reserved order never advances the saga.
func (l *Ledger) ReserveOrder(ctx context.Context, orderID string, lines []Line) error {
	existing, err := l.repo.GetReservation(ctx, orderID)
	if err != nil {
		return err
	}
	if existing != nil {
		l.logger.Printf("reservation for order %s already %s, skipping", orderID, existing.State)
		return nil
	}

	type reserved struct {
		line      Line
		remaining int
	}
	done := make([]reserved, 0, len(lines))

	for _, line := range lines {
		remaining, err := l.reserveOne(ctx, line.ProductID, line.Quantity)
		if err != nil {
			for i := len(done) - 1; i >= 0; i-- {
				if relErr := l.releaseOne(ctx, done[i].line.ProductID, done[i].line.Quantity); relErr != nil {
					l.logger.Printf("rollback release %s for order %s: %v", done[i].line.ProductID, orderID, relErr)
				}
			}
			return fmt.Errorf("reserve order %s: %w", orderID, err)
		}
		done = append(done, reserved{line: line, remaining: remaining})
	}

	now := time.Now().UTC()
	res := &Reservation{
		OrderID:   orderID,
		Lines:     lines,
		State:     ReservationReserved,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.repo.SaveReservation(ctx, res); err != nil {
		return err
	}

	for _, d := range done {
		l.publish(ctx, events.TopicInventoryReserved, events.InventoryReserved{
			ProductID:          d.line.ProductID,
			Quantity:           d.line.Quantity,
			OrderID:            orderID,
			RemainingAvailable: d.remaining,
		}, orderID)
	}

	l.logger.Printf("reserved %d lines for order %s", len(lines), orderID)
	return nil
}

// ReleaseOrder is the cancellation compensation. Without an active
// reservation it is a no-op: the saga never knows whether the reservation
// step ran before the cancel.
func (l *Ledger) ReleaseOrder(ctx context.Context, orderID string) error {
	res, err := l.repo.GetReservation(ctx, orderID)
	if err != nil {
		return err
	}
	if res == nil || res.State != ReservationReserved {
		return nil
	}

	for _, line := range res.Lines {
		if err := l.releaseOne(ctx, line.ProductID, line.Quantity); err != nil {
			return fmt.Errorf("release order %s: %w", orderID, err)
		}
		l.publish(ctx, events.TopicInventoryReleased, events.InventoryReleased{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			OrderID:   orderID,
			Timestamp: time.Now().UTC(),
		}, orderID)
	}

	res.State = ReservationReleased
	res.UpdatedAt = time.Now().UTC()
	if err := l.repo.SaveReservation(ctx, res); err != nil {
		return err
	}

	l.logger.Printf("released reservation for order %s", orderID)
	return nil
}

// FulfillOrder consumes the reservation when the order ships. Replaying the
// shipped event for an already-fulfilled reservation changes nothing.
func (l *Ledger) FulfillOrder(ctx context.Context, orderID string) error {
	res, err := l.repo.GetReservation(ctx, orderID)
	if err != nil {
		return err
	}
	if res == nil {
		l.logger.Printf("no reservation for shipped order %s", orderID)
		return nil
	}
	if res.State != ReservationReserved {
		l.logger.Printf("reservation for order %s already %s, skipping fulfillment", orderID, res.State)
		return nil
	}

	var reorders []events.ReorderNeeded
	for _, line := range res.Lines {
		reorder, err := l.fulfillOne(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return fmt.Errorf("fulfill order %s: %w", orderID, err)
		}
		if reorder != nil {
			reorders = append(reorders, *reorder)
		}
	}

	res.State = ReservationFulfilled
	res.UpdatedAt = time.Now().UTC()
	if err := l.repo.SaveReservation(ctx, res); err != nil {
		return err
	}

	for _, ev := range reorders {
		l.publish(ctx, events.TopicReorderNeeded, ev, orderID)
	}

	l.logger.Printf("fulfilled reservation for order %s", orderID)
	return nil
}

// reserveOne increments the hold under the product lock and returns the
// remaining availability.
func (l *Ledger) reserveOne(ctx context.Context, productID string, quantity int) (int, error) {
	lock := l.productLock(productID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := l.repo.GetRecord(ctx, productID)
	if err != nil {
		return 0, err
	}
	if quantity > rec.Available() {
		return 0, &InsufficientStockError{ProductID: productID, Requested: quantity, Available: rec.Available()}
	}

	rec.Reserved += quantity
	rec.LastUpdated = time.Now().UTC()
	if err := l.repo.SaveRecord(ctx, rec); err != nil {
		return 0, err
	}
	return rec.Available(), nil
}

func (l *Ledger) releaseOne(ctx context.Context, productID string, quantity int) error {
	lock := l.productLock(productID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := l.repo.GetRecord(ctx, productID)
	if err != nil {
		return err
	}
	if quantity > rec.Reserved {
		return &OverReleaseError{ProductID: productID, Requested: quantity, Reserved: rec.Reserved}
	}

	rec.Reserved -= quantity
	rec.LastUpdated = time.Now().UTC()
	return l.repo.SaveRecord(ctx, rec)
}

// fulfillOne decrements both on-hand and reserved stock. It reports a
// reorder exactly when the decrement crosses the reorder level.
func (l *Ledger) fulfillOne(ctx context.Context, productID string, quantity int) (*events.ReorderNeeded, error) {
	lock := l.productLock(productID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := l.repo.GetRecord(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > rec.Reserved {
		return nil, &OverFulfillError{ProductID: productID, Requested: quantity, Reserved: rec.Reserved}
	}

	prev := rec.Quantity
	rec.Quantity -= quantity
	rec.Reserved -= quantity
	rec.LastUpdated = time.Now().UTC()
	if err := l.repo.SaveRecord(ctx, rec); err != nil {
		return nil, err
	}

	if prev > rec.ReorderLevel && rec.Quantity <= rec.ReorderLevel {
		return &events.ReorderNeeded{
			ProductID:                productID,
			CurrentQuantity:          rec.Quantity,
			ReorderLevel:             rec.ReorderLevel,
			SuggestedReorderQuantity: l.reorderFactor * rec.ReorderLevel,
		}, nil
	}
	return nil, nil
}

func (l *Ledger) publish(ctx context.Context, topic string, payload any, correlationID string) {
	if err := l.bus.Publish(ctx, topic, payload, bus.Meta{CorrelationID: correlationID}); err != nil {
		l.logger.Printf("publish %s: %v", topic, err)
	}
}
