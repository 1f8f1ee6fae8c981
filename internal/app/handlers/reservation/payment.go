package reservation

import (
	"context"
	"log/slog"
	"time"

	"sejour/internal/app/commands"
	"sejour/internal/app/outbox"
	"sejour/internal/app/policies"
	"sejour/internal/app/uow"
	domainreservation "sejour/internal/domain/reservation"
	"sejour/internal/domain/shared/fault"
	domainuser "sejour/internal/domain/user"
)

const confirmPaymentKey = "reservation.confirm_payment"

type ConfirmPaymentCommand struct {
	ReservationID string
	TenantID      string
}

func (c ConfirmPaymentCommand) Key() string { return confirmPaymentKey }

type ConfirmPaymentHandler struct {
	Payments policies.PaymentsPort
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*ReservationActionResult, error) {
	reservationID, err := requireID(cmd.ReservationID, "reservation id")
	if err != nil {
		return nil, err
	}
	tenantID, err := requireID(cmd.TenantID, "tenant id")
	if err != nil {
		return nil, err
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	res, err := unit.Reservations().ByID(ctx, domainreservation.ID(reservationID))
	if err != nil {
		return nil, err
	}
	if res.TenantID != domainuser.ID(tenantID) {
		return nil, fault.Forbidden("reservation: only the tenant can confirm payment")
	}

	now := time.Now().UTC()
	if err := res.ConfirmPayment(now); err != nil {
		return nil, err
	}
	if err := placeHold(ctx, unit, h.Payments, res, now); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return nil, err
	}
	if err := flushEvents(ctx, h.Outbox, h.Encoder, res); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("reservation payment confirmed", "reservation_id", res.ID, "total", res.Total.Cents)
	}

	return &ReservationActionResult{ReservationID: string(res.ID), Status: string(res.Status)}, nil
}

var _ commands.Handler[ConfirmPaymentCommand, *ReservationActionResult] = (*ConfirmPaymentHandler)(nil)
