package bus

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", log.LstdFlags)
}

func TestMemoryBusDispatch(t *testing.T) {
	b := NewMemoryBus("test", discardLogger())
	ctx := context.Background()

	var got []string
	require.NoError(t, b.Subscribe(ctx, "order-created", "c1", func(ctx context.Context, body []byte) error {
		env, err := ParseEnvelope(body)
		require.NoError(t, err)

		var payload struct {
			OrderID string `json:"orderId"`
		}
		require.NoError(t, env.DecodePayload(&payload))
		got = append(got, payload.OrderID)
		return nil
	}))

	require.NoError(t, b.Publish(ctx, "order-created", map[string]string{"orderId": "o1"}, Meta{CorrelationID: "o1"}))
	require.NoError(t, b.Publish(ctx, "order-cancelled", map[string]string{"orderId": "o1"}, Meta{}))

	require.Equal(t, []string{"o1"}, got)
	require.Len(t, b.Published(), 2)
	require.Len(t, b.PublishedOn("order-created"), 1)
}

func TestMemoryBusChainedPublish(t *testing.T) {
	b := NewMemoryBus("test", discardLogger())
	ctx := context.Background()

	require.NoError(t, b.Subscribe(ctx, "a", "chain", func(ctx context.Context, body []byte) error {
		return b.Publish(ctx, "b", map[string]string{}, Meta{})
	}))

	require.NoError(t, b.Publish(ctx, "a", map[string]string{}, Meta{}))
	require.Len(t, b.PublishedOn("b"), 1)
}

func TestEnvelopeFields(t *testing.T) {
	env, err := NewEnvelope("payment-completed", "orderflow", map[string]string{"paymentId": "p1"}, Meta{
		CorrelationID: "o1",
		CausationID:   "evt-0",
	})
	require.NoError(t, err)
	require.Equal(t, "payment-completed", env.EventName)
	require.Equal(t, 1, env.EventVersion)
	require.NotEmpty(t, env.EventID)
	require.Equal(t, "o1", env.CorrelationID)
	require.Equal(t, "evt-0", env.CausationID)
	require.Equal(t, "orderflow", env.Producer)
	require.False(t, env.OccurredAt.IsZero())
}

func TestParseEnvelopeRejectsIncomplete(t *testing.T) {
	_, err := ParseEnvelope([]byte(`{"eventName":"x"}`))
	require.Error(t, err)

	_, err = ParseEnvelope([]byte(`not json`))
	require.Error(t, err)
}
