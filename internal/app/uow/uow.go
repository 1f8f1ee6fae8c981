package uow

import (
	"context"

	domainavailability "sejour/internal/domain/availability"
	domainpayment "sejour/internal/domain/payment"
	domainproperty "sejour/internal/domain/property"
	domainreservation "sejour/internal/domain/reservation"
)

// UnitOfWork coordinates repositories inside a transaction boundary. Every
// command that touches both a reservation and the calendar runs inside a
// single unit so the two either commit or roll back together.
type UnitOfWork interface {
	Properties() domainproperty.Repository
	Reservations() domainreservation.Repository
	Calendar() domainavailability.Repository
	Payments() domainpayment.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
