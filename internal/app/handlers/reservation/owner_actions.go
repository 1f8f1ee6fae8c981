package reservation

import (
	"context"
	"log/slog"
	"time"

	"sejour/internal/app/commands"
	"sejour/internal/app/outbox"
	"sejour/internal/app/support"
	"sejour/internal/app/uow"
	"sejour/internal/domain/shared/fault"
)

const (
	acceptReservationKey = "reservation.accept"
	rejectReservationKey = "reservation.reject"
)

type AcceptReservationCommand struct {
	ReservationID string
	OwnerID       string
}

func (c AcceptReservationCommand) Key() string { return acceptReservationKey }

type RejectReservationCommand struct {
	ReservationID string
	OwnerID       string
}

func (c RejectReservationCommand) Key() string { return rejectReservationKey }

type ReservationActionResult struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

type AcceptReservationHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *AcceptReservationHandler) Handle(ctx context.Context, cmd AcceptReservationCommand) (*ReservationActionResult, error) {
	reservationID, err := requireID(cmd.ReservationID, "reservation id")
	if err != nil {
		return nil, err
	}
	ownerID, err := requireID(cmd.OwnerID, "owner id")
	if err != nil {
		return nil, err
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	res, prop, err := loadOwned(ctx, unit, reservationID, ownerID)
	if err != nil {
		return nil, err
	}

	// The calendar may have changed between request and decision, so the
	// conflict predicate runs again inside this transaction.
	ledger := support.LedgerFor(unit)
	conflict, err := ledger.CheckConflicts(ctx, prop.ID, res.Range, "")
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, fault.Invalid("reservation: the dates are no longer available")
	}

	now := time.Now().UTC()
	if err := res.Accept(now); err != nil {
		return nil, err
	}
	period, err := ledger.AutoBlock(ctx, prop.ID, res.Range, &res.Total, now)
	if err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return nil, err
	}
	if err := flushEvents(ctx, h.Outbox, h.Encoder, res, period); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("reservation accepted", "reservation_id", res.ID, "owner_id", ownerID)
	}

	return &ReservationActionResult{ReservationID: string(res.ID), Status: string(res.Status)}, nil
}

type RejectReservationHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *RejectReservationHandler) Handle(ctx context.Context, cmd RejectReservationCommand) (*ReservationActionResult, error) {
	reservationID, err := requireID(cmd.ReservationID, "reservation id")
	if err != nil {
		return nil, err
	}
	ownerID, err := requireID(cmd.OwnerID, "owner id")
	if err != nil {
		return nil, err
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	res, _, err := loadOwned(ctx, unit, reservationID, ownerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := res.Reject(now); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return nil, err
	}
	if err := flushEvents(ctx, h.Outbox, h.Encoder, res); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("reservation rejected", "reservation_id", res.ID, "owner_id", ownerID)
	}

	return &ReservationActionResult{ReservationID: string(res.ID), Status: string(res.Status)}, nil
}

var _ commands.Handler[AcceptReservationCommand, *ReservationActionResult] = (*AcceptReservationHandler)(nil)
var _ commands.Handler[RejectReservationCommand, *ReservationActionResult] = (*RejectReservationHandler)(nil)
