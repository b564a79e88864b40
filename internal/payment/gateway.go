package payment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

type AuthorizationRequest struct {
	OrderID string
	Amount  float64
	Method  string
	Card    CardDetails
}

type AuthorizationResult struct {
	Approved      bool
	TransactionID string
	AuthCode      string
	DeclineReason string
}

// Gateway is the external payment authority. Production would wrap a real
// PSP; this repo ships a simulation.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error)
}

var declineReasons = []string{
	"card declined by issuer",
	"insufficient funds",
	"suspected fraud",
	"card expired",
}

// SimulatedGateway approves or declines with configurable probability after
// a random latency inside [minLatency, maxLatency].
type SimulatedGateway struct {
	declineRate float64
	minLatency  time.Duration
	maxLatency  time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSimulatedGateway(declineRate float64, minLatency, maxLatency time.Duration, seed int64) *SimulatedGateway {
	if maxLatency < minLatency {
		maxLatency = minLatency
	}
	return &SimulatedGateway{
		declineRate: declineRate,
		minLatency:  minLatency,
		maxLatency:  maxLatency,
		rnd:         rand.New(rand.NewSource(seed)),
	}
}

func (g *SimulatedGateway) Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationResult, error) {
	g.mu.Lock()
	latency := g.minLatency
	if span := g.maxLatency - g.minLatency; span > 0 {
		latency += time.Duration(g.rnd.Int63n(int64(span)))
	}
	roll := g.rnd.Float64()
	reason := declineReasons[g.rnd.Intn(len(declineReasons))]
	authCode := fmt.Sprintf("AUTH-%06d", g.rnd.Intn(1000000))
	g.mu.Unlock()

	select {
	case <-ctx.Done():
		return AuthorizationResult{}, ctx.Err()
	case <-time.After(latency):
	}

	if roll < g.declineRate {
		return AuthorizationResult{Approved: false, DeclineReason: reason}, nil
	}
	return AuthorizationResult{
		Approved:      true,
		TransactionID: uuid.NewString(),
		AuthCode:      authCode,
	}, nil
}
