package reservation

import (
	"time"

	"sejour/internal/domain/property"
	"sejour/internal/domain/shared/daterange"
	"sejour/internal/domain/shared/money"
	"sejour/internal/domain/user"
)

type ReservationRequested struct {
	ReservationID ID
	PropertyID    property.ID
	TenantID      user.ID
	Range         daterange.DateRange
	Guests        int
	Total         money.Money
	At            time.Time
}

func (e ReservationRequested) EventName() string     { return "reservation.requested" }
func (e ReservationRequested) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationRequested) OccurredAt() time.Time { return e.At }

type ReservationAccepted struct {
	ReservationID ID
	PropertyID    property.ID
	Range         daterange.DateRange
	At            time.Time
}

func (e ReservationAccepted) EventName() string     { return "reservation.accepted" }
func (e ReservationAccepted) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationAccepted) OccurredAt() time.Time { return e.At }

type ReservationRejected struct {
	ReservationID ID
	PropertyID    property.ID
	At            time.Time
}

func (e ReservationRejected) EventName() string     { return "reservation.rejected" }
func (e ReservationRejected) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationRejected) OccurredAt() time.Time { return e.At }

type ReservationConfirmed struct {
	ReservationID ID
	PropertyID    property.ID
	Range         daterange.DateRange
	Total         money.Money
	At            time.Time
}

func (e ReservationConfirmed) EventName() string     { return "reservation.confirmed" }
func (e ReservationConfirmed) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationConfirmed) OccurredAt() time.Time { return e.At }

type ReservationCancelled struct {
	ReservationID ID
	PropertyID    property.ID
	Range         daterange.DateRange
	Reason        string
	At            time.Time
}

func (e ReservationCancelled) EventName() string     { return "reservation.cancelled" }
func (e ReservationCancelled) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationCancelled) OccurredAt() time.Time { return e.At }

type PriceNegotiated struct {
	ReservationID ID
	Rate          money.Money
	Total         money.Money
	At            time.Time
}

func (e PriceNegotiated) EventName() string     { return "reservation.price_negotiated" }
func (e PriceNegotiated) AggregateID() string   { return string(e.ReservationID) }
func (e PriceNegotiated) OccurredAt() time.Time { return e.At }

type StayStarted struct {
	ReservationID ID
	PropertyID    property.ID
	At            time.Time
}

func (e StayStarted) EventName() string     { return "reservation.stay_started" }
func (e StayStarted) AggregateID() string   { return string(e.ReservationID) }
func (e StayStarted) OccurredAt() time.Time { return e.At }

type StayCompleted struct {
	ReservationID ID
	PropertyID    property.ID
	At            time.Time
}

func (e StayCompleted) EventName() string     { return "reservation.stay_completed" }
func (e StayCompleted) AggregateID() string   { return string(e.ReservationID) }
func (e StayCompleted) OccurredAt() time.Time { return e.At }
