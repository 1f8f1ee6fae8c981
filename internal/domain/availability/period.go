package availability

import (
	"context"
	"time"

	"sejour/internal/domain/property"
	"sejour/internal/domain/shared/daterange"
	"sejour/internal/domain/shared/events"
	"sejour/internal/domain/shared/money"
)

type PeriodID string

// PeriodStatus tags a calendar range. Only reserved and blocked carry
// exclusivity; open periods advertise availability and may overlap anything.
type PeriodStatus string

const (
	StatusOpen     PeriodStatus = "open"
	StatusReserved PeriodStatus = "reserved"
	StatusBlocked  PeriodStatus = "blocked"
)

// Exclusive reports whether a period in this status forbids overlap.
func (s PeriodStatus) Exclusive() bool {
	return s == StatusReserved || s == StatusBlocked
}

func (s PeriodStatus) Known() bool {
	switch s {
	case StatusOpen, StatusReserved, StatusBlocked:
		return true
	}
	return false
}

// Period is one entry of a property's availability calendar.
type Period struct {
	ID          PeriodID
	PropertyID  property.ID
	Range       daterange.DateRange
	Status      PeriodStatus
	CustomPrice *money.Money
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

// Filter narrows calendar reads; a zero Range means no range restriction.
type Filter struct {
	Range    daterange.DateRange
	Statuses []PeriodStatus
}

func (f Filter) matchesStatus(status PeriodStatus) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Matches applies both the range-overlap and the status criteria.
func (f Filter) Matches(p *Period) bool {
	if !f.matchesStatus(p.Status) {
		return false
	}
	if !f.Range.IsZero() && !f.Range.Overlaps(p.Range) {
		return false
	}
	return true
}

// Repository stores calendar periods. Implementations must scope every
// operation to a single property; cross-property conflicts are impossible
// by construction.
type Repository interface {
	ByID(ctx context.Context, id PeriodID) (*Period, error)
	ListByProperty(ctx context.Context, propertyID property.ID, filter Filter) ([]*Period, error)
	Insert(ctx context.Context, p *Period) error
	Update(ctx context.Context, p *Period) error
	Delete(ctx context.Context, id PeriodID) error
}

// StaySource answers whether an active reservation overlaps a range. The
// reservation repository satisfies it; defining the interface here keeps the
// ledger free of a dependency on the reservation package.
type StaySource interface {
	ExistsOverlapping(ctx context.Context, propertyID property.ID, dr daterange.DateRange) (bool, error)
}
