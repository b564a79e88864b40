package notification

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hakkisagdic/otokoc-demo/internal/state"
)

// scriptedProvider fails the first n sends, then succeeds.
type scriptedProvider struct {
	name     string
	failures int
	calls    int
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Send(ctx context.Context, n *Notification) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("provider outage")
	}
	return nil
}

func newDispatcher(provider Provider, maxAttempts int) (*Dispatcher, Repository) {
	repo := NewRepository(state.NewMemoryStore())
	d := NewDispatcher(repo, map[Type]Provider{TypeEmail: provider}, maxAttempts, 0, log.New(io.Discard, "", 0))
	return d, repo
}

func TestDispatchFirstAttempt(t *testing.T) {
	ctx := context.Background()
	d, repo := newDispatcher(&scriptedProvider{name: "email-sim"}, 3)

	n, err := d.Dispatch(ctx, TypeEmail, "user@example.com", "Order confirmed", "your order is on its way")
	require.NoError(t, err)
	require.Equal(t, StatusSent, n.Status)
	require.Equal(t, 1, n.Attempts)
	require.Equal(t, "email-sim", n.Provider)

	stored, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, stored.Status)
	require.Empty(t, stored.LastError)
}

func TestDispatchRetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	provider := &scriptedProvider{name: "email-sim", failures: 2}
	d, repo := newDispatcher(provider, 3)

	n, err := d.Dispatch(ctx, TypeEmail, "user@example.com", "s", "c")
	require.NoError(t, err)
	require.Equal(t, StatusSent, n.Status)
	require.Equal(t, 3, n.Attempts)
	require.Equal(t, 3, provider.calls)

	stored, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, stored.Status)
}

func TestDispatchExhaustsAttempts(t *testing.T) {
	ctx := context.Background()
	provider := &scriptedProvider{name: "email-sim", failures: 99}
	d, repo := newDispatcher(provider, 3)

	n, err := d.Dispatch(ctx, TypeEmail, "user@example.com", "s", "c")
	require.Error(t, err)
	require.Equal(t, StatusFailed, n.Status)
	require.Equal(t, 3, n.Attempts)
	require.Equal(t, 3, provider.calls)

	stored, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, stored.Status)
	require.Contains(t, stored.LastError, "provider outage")
}

func TestDispatchUnknownType(t *testing.T) {
	ctx := context.Background()
	d, repo := newDispatcher(&scriptedProvider{name: "email-sim"}, 3)

	n, err := d.Dispatch(ctx, TypeSMS, "+4512345678", "", "c")
	require.Error(t, err)
	require.Equal(t, StatusFailed, n.Status)

	stored, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	require.Contains(t, stored.LastError, "no provider")
}
