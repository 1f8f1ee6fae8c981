package memory

import (
	"context"
	"errors"

	"sejour/internal/app/uow"
	domainavailability "sejour/internal/domain/availability"
	domainpayment "sejour/internal/domain/payment"
	domainproperty "sejour/internal/domain/property"
	domainreservation "sejour/internal/domain/reservation"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	PropertyRepo    domainproperty.Repository
	ReservationRepo domainreservation.Repository
	PeriodRepo      domainavailability.Repository
	PaymentRepo     domainpayment.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.PropertyRepo == nil || f.ReservationRepo == nil || f.PeriodRepo == nil || f.PaymentRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		properties:   f.PropertyRepo,
		reservations: f.ReservationRepo,
		calendar:     f.PeriodRepo,
		payments:     f.PaymentRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	properties   domainproperty.Repository
	reservations domainreservation.Repository
	calendar     domainavailability.Repository
	payments     domainpayment.Repository
}

func (u *Unit) Properties() domainproperty.Repository {
	return u.properties
}

func (u *Unit) Reservations() domainreservation.Repository {
	return u.reservations
}

func (u *Unit) Calendar() domainavailability.Repository {
	return u.calendar
}

func (u *Unit) Payments() domainpayment.Repository {
	return u.payments
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
