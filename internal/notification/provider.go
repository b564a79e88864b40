package notification

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// Provider delivers one notification through an external channel.
type Provider interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// SimulatedProvider fails a configurable fraction of sends, standing in for
// a flaky external delivery service.
type SimulatedProvider struct {
	name        string
	failureRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSimulatedProvider(name string, failureRate float64, seed int64) *SimulatedProvider {
	return &SimulatedProvider{
		name:        name,
		failureRate: failureRate,
		rnd:         rand.New(rand.NewSource(seed)),
	}
}

func (p *SimulatedProvider) Name() string { return p.name }

func (p *SimulatedProvider) Send(ctx context.Context, n *Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	roll := p.rnd.Float64()
	p.mu.Unlock()

	if roll < p.failureRate {
		return fmt.Errorf("%s: delivery failed", p.name)
	}
	return nil
}
