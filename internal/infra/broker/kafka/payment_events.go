package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"sejour/internal/app/commands"
	reservationapp "sejour/internal/app/handlers/reservation"
	"sejour/internal/domain/shared/fault"
)

// paymentEvent is the payload the payment provider publishes when it settles
// a charge out of band.
type paymentEvent struct {
	ReservationID string `json:"reservation_id"`
	TenantID      string `json:"tenant_id"`
	Status        string `json:"status"`
}

// PaymentEventsHandler turns provider settlement messages into payment
// confirmations on the reservation pipeline.
type PaymentEventsHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

func (h *PaymentEventsHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event paymentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// A malformed message never becomes valid; acknowledge and move on.
		if h.Logger != nil {
			h.Logger.Warn("discarding malformed payment event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
		return nil
	}
	if event.Status != "succeeded" {
		return nil
	}
	if event.ReservationID == "" || event.TenantID == "" {
		if h.Logger != nil {
			h.Logger.Warn("discarding incomplete payment event", "topic", msg.Topic, "offset", msg.Offset)
		}
		return nil
	}

	cmd := reservationapp.ConfirmPaymentCommand{
		ReservationID: event.ReservationID,
		TenantID:      event.TenantID,
	}
	_, err := commands.Dispatch[reservationapp.ConfirmPaymentCommand, *reservationapp.ReservationActionResult](ctx, h.Commands, cmd)
	switch {
	case err == nil:
		if h.Logger != nil {
			h.Logger.Info("payment confirmed from provider event", "reservation_id", event.ReservationID)
		}
		return nil
	case fault.IsNotFound(err) || fault.IsInvalid(err) || fault.IsForbidden(err):
		// Stale or duplicate settlement; retrying will not change the outcome.
		if h.Logger != nil {
			h.Logger.Warn("payment event not applicable", "reservation_id", event.ReservationID, "error", err)
		}
		return nil
	default:
		return fmt.Errorf("confirm payment for %s: %w", event.ReservationID, err)
	}
}

var _ MessageHandler = (*PaymentEventsHandler)(nil)
