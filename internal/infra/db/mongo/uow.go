package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sejour/internal/app/uow"
	domainavailability "sejour/internal/domain/availability"
	domainpayment "sejour/internal/domain/payment"
	domainproperty "sejour/internal/domain/property"
	domainreservation "sejour/internal/domain/reservation"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	PropertyRepo    domainproperty.Repository
	ReservationRepo domainreservation.Repository
	PeriodRepo      domainavailability.Repository
	PaymentRepo     domainpayment.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:           f.DB,
		session:      session,
		properties:   f.PropertyRepo,
		reservations: f.ReservationRepo,
		calendar:     f.PeriodRepo,
		payments:     f.PaymentRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

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
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for
// downstream repositories.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
