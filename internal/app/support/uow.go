package support

import (
	"context"

	"github.com/google/uuid"

	"sejour/internal/app/uow"
	domainavailability "sejour/internal/domain/availability"
)

// BeginReadOnlyUnit reuses an ambient unit of work or opens a read-only one,
// returning a cleanup func when it owns the unit.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := ctx
	if injector, ok := newUnit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = uow.ContextWithUnitOfWork(execCtx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// LedgerFor assembles the availability ledger over the unit's repositories.
// Both the calendar commands and the reservation lifecycle go through this
// single construction, so they always share one conflict predicate.
func LedgerFor(unit uow.UnitOfWork) domainavailability.Ledger {
	return domainavailability.Ledger{
		Periods: unit.Calendar(),
		Stays:   unit.Reservations(),
		NewID: func() domainavailability.PeriodID {
			return domainavailability.PeriodID(uuid.NewString())
		},
	}
}
