package reservation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"sejour/internal/app/commands"
	"sejour/internal/app/outbox"
	"sejour/internal/app/policies"
	"sejour/internal/app/support"
	"sejour/internal/app/uow"
	domainpayment "sejour/internal/domain/payment"
	domainreservation "sejour/internal/domain/reservation"
)

const cancelReservationKey = "reservation.cancel"

type CancelReservationCommand struct {
	ReservationID string
	ActorID       string
	Reason        string
}

func (c CancelReservationCommand) Key() string { return cancelReservationKey }

type CancelReservationHandler struct {
	Payments policies.PaymentsPort
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *CancelReservationHandler) Handle(ctx context.Context, cmd CancelReservationCommand) (*ReservationActionResult, error) {
	reservationID, err := requireID(cmd.ReservationID, "reservation id")
	if err != nil {
		return nil, err
	}
	actorID, err := requireID(cmd.ActorID, "actor id")
	if err != nil {
		return nil, err
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	res, prop, err := loadParty(ctx, unit, reservationID, actorID)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = "cancelled by " + actorRole(res, actorID)
	}

	now := time.Now().UTC()
	wasConfirmed, err := res.Cancel(reason, now)
	if err != nil {
		return nil, err
	}

	if wasConfirmed {
		ledger := support.LedgerFor(unit)
		released, err := ledger.AutoFree(ctx, prop.ID, res.Range, now)
		if err != nil {
			return nil, err
		}
		for _, p := range released {
			if err := flushEvents(ctx, h.Outbox, h.Encoder, p); err != nil {
				return nil, err
			}
		}
		if err := h.refundHeld(ctx, unit, res.ID, now); err != nil {
			return nil, err
		}
	}

	if err := unit.Reservations().Save(ctx, res); err != nil {
		return nil, err
	}
	if err := flushEvents(ctx, h.Outbox, h.Encoder, res); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("reservation cancelled",
			"reservation_id", res.ID,
			"actor_id", actorID,
			"calendar_released", wasConfirmed,
		)
	}

	return &ReservationActionResult{ReservationID: string(res.ID), Status: string(res.Status)}, nil
}

// refundHeld refunds every payment still held or captured for the
// reservation, both with the provider and in the local ledger.
func (h *CancelReservationHandler) refundHeld(ctx context.Context, unit uow.UnitOfWork, id domainreservation.ID, now time.Time) error {
	records, err := unit.Payments().ListByReservation(ctx, id)
	if err != nil {
		return err
	}
	for _, record := range records {
		if record.Status == domainpayment.StatusRefunded {
			continue
		}
		if h.Payments != nil {
			if err := h.Payments.Refund(ctx, string(id), record.Amount); err != nil {
				return err
			}
		}
		record.MarkRefunded(now)
		if err := unit.Payments().Save(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func actorRole(res *domainreservation.Reservation, actorID string) string {
	if string(res.TenantID) == actorID {
		return "tenant"
	}
	return "owner"
}

var _ commands.Handler[CancelReservationCommand, *ReservationActionResult] = (*CancelReservationHandler)(nil)
