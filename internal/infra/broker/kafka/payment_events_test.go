package kafka_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sejour/internal/app/commands"
	reservationapp "sejour/internal/app/handlers/reservation"
	"sejour/internal/domain/shared/fault"
	"sejour/internal/infra/broker/kafka"
)

type stubBus struct {
	dispatched []commands.Command
	result     any
	err        error
}

func (b *stubBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.dispatched = append(b.dispatched, cmd)
	return b.result, b.err
}

func message(value string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Topic: "payment.events.v1", Value: []byte(value)}
}

func TestPaymentEventConfirmsReservation(t *testing.T) {
	bus := &stubBus{result: &reservationapp.ReservationActionResult{}}
	handler := &kafka.PaymentEventsHandler{Commands: bus, Logger: slog.New(slog.DiscardHandler)}

	err := handler.Handle(context.Background(), message(`{"reservation_id":"res-1","tenant_id":"tenant-1","status":"succeeded"}`))
	require.NoError(t, err)
	require.Len(t, bus.dispatched, 1)

	cmd, ok := bus.dispatched[0].(reservationapp.ConfirmPaymentCommand)
	require.True(t, ok)
	assert.Equal(t, "res-1", cmd.ReservationID)
	assert.Equal(t, "tenant-1", cmd.TenantID)
}

func TestPaymentEventIgnoresNonSettlements(t *testing.T) {
	bus := &stubBus{}
	handler := &kafka.PaymentEventsHandler{Commands: bus, Logger: slog.New(slog.DiscardHandler)}

	cases := map[string]string{
		"failed charge":  `{"reservation_id":"res-1","tenant_id":"tenant-1","status":"failed"}`,
		"missing fields": `{"status":"succeeded"}`,
		"garbage":        `not-json`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, handler.Handle(context.Background(), message(payload)))
		})
	}
	assert.Empty(t, bus.dispatched)
}

func TestPaymentEventSwallowsTerminalFailures(t *testing.T) {
	bus := &stubBus{err: fault.NotFound("reservation: no such reservation")}
	handler := &kafka.PaymentEventsHandler{Commands: bus, Logger: slog.New(slog.DiscardHandler)}

	err := handler.Handle(context.Background(), message(`{"reservation_id":"gone","tenant_id":"tenant-1","status":"succeeded"}`))
	require.NoError(t, err)
}

func TestPaymentEventPropagatesTransientFailures(t *testing.T) {
	bus := &stubBus{err: errors.New("storage unavailable")}
	handler := &kafka.PaymentEventsHandler{Commands: bus, Logger: slog.New(slog.DiscardHandler)}

	err := handler.Handle(context.Background(), message(`{"reservation_id":"res-1","tenant_id":"tenant-1","status":"succeeded"}`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "storage unavailable")
}
