package reservation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"sejour/internal/app/commands"
	"sejour/internal/app/middleware"
	"sejour/internal/app/outbox"
	"sejour/internal/app/policies"
	"sejour/internal/app/support"
	"sejour/internal/app/uow"
	domainpayment "sejour/internal/domain/payment"
	domainproperty "sejour/internal/domain/property"
	domainreservation "sejour/internal/domain/reservation"
	domainrange "sejour/internal/domain/shared/daterange"
	"sejour/internal/domain/shared/fault"
	domainuser "sejour/internal/domain/user"
)

const createReservationKey = "reservation.create"

type CreateReservationCommand struct {
	CommandID       string
	PropertyID      string
	TenantID        string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	Message         string
	IdempotencyKeyV string
}

func (c CreateReservationCommand) Key() string { return createReservationKey }

func (c CreateReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateReservationCommand) ResultPrototype() any { return &CreateReservationResult{} }

type CreateReservationResult struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

type CreateReservationHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CreateReservationHandler) Handle(ctx context.Context, cmd CreateReservationCommand) (*CreateReservationResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	tenantID, err := requireID(cmd.TenantID, "tenant id")
	if err != nil {
		return nil, err
	}
	propertyID, err := requireID(cmd.PropertyID, "property id")
	if err != nil {
		return nil, err
	}

	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, fault.Wrap(fault.KindInvalid, err, "reservation: invalid date range")
	}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if dr.Start.Before(today) {
		return nil, fault.Invalid("reservation: check-in date is in the past")
	}

	prop, err := unit.Properties().ByID(ctx, domainproperty.ID(propertyID))
	if err != nil {
		return nil, err
	}
	if prop.Status != domainproperty.StatusActive {
		return nil, fault.Invalid("reservation: property is not open for booking")
	}
	if prop.OwnerID == domainuser.ID(tenantID) {
		return nil, fault.Invalid("reservation: owners cannot book their own property")
	}
	if cmd.Guests > prop.Capacity {
		return nil, fault.Invalid("reservation: %d guests exceed the property capacity of %d", cmd.Guests, prop.Capacity)
	}

	ledger := support.LedgerFor(unit)
	conflict, err := ledger.CheckConflicts(ctx, prop.ID, dr, "")
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, fault.Invalid("reservation: the requested dates are not available")
	}

	id := cmd.CommandID
	if id == "" {
		id = uuid.NewString()
	}
	res, err := domainreservation.New(domainreservation.CreateParams{
		ID:            domainreservation.ID(id),
		PropertyID:    prop.ID,
		TenantID:      domainuser.ID(tenantID),
		Range:         dr,
		Guests:        cmd.Guests,
		NightlyRate:   prop.NightlyRate,
		TenantMessage: cmd.Message,
		Instant:       prop.BookingMode == domainproperty.BookingInstant,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	if res.Status == domainreservation.StatusConfirmed {
		// Instant booking: the hold on the calendar and on the card happen
		// in the same transaction as the reservation itself.
		period, err := ledger.AutoBlock(ctx, prop.ID, dr, &res.Total, now)
		if err != nil {
			return nil, err
		}
		if err := placeHold(ctx, unit, h.Payments, res, now); err != nil {
			return nil, err
		}
		if err := flushEvents(ctx, h.Outbox, h.Encoder, period); err != nil {
			return nil, err
		}
	}

	if err := unit.Reservations().Save(ctx, res); err != nil {
		return nil, err
	}
	if err := flushEvents(ctx, h.Outbox, h.Encoder, res); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("reservation created",
			"reservation_id", res.ID,
			"property_id", res.PropertyID,
			"tenant_id", res.TenantID,
			"status", res.Status,
			"nights", res.Range.Nights(),
		)
	}

	return &CreateReservationResult{ReservationID: string(res.ID), Status: string(res.Status)}, nil
}

func placeHold(ctx context.Context, unit uow.UnitOfWork, payments policies.PaymentsPort, res *domainreservation.Reservation, now time.Time) error {
	if payments == nil {
		return nil
	}
	ref, err := payments.PlaceHold(ctx, string(res.ID), res.Total)
	if err != nil {
		return err
	}
	record, err := domainpayment.NewHeld(domainpayment.CreateParams{
		ID:            uuid.NewString(),
		ReservationID: res.ID,
		Amount:        res.Total,
		ProviderRef:   ref,
		Now:           now,
	})
	if err != nil {
		return err
	}
	return unit.Payments().Save(ctx, record)
}

var _ commands.Handler[CreateReservationCommand, *CreateReservationResult] = (*CreateReservationHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateReservationCommand)(nil)
