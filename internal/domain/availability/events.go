package availability

import (
	"time"

	"sejour/internal/domain/property"
	"sejour/internal/domain/shared/daterange"
)

type PeriodCreated struct {
	PeriodID   PeriodID
	PropertyID property.ID
	Range      daterange.DateRange
	Status     PeriodStatus
	At         time.Time
}

func (e PeriodCreated) EventName() string     { return "calendar.period_created" }
func (e PeriodCreated) AggregateID() string   { return string(e.PeriodID) }
func (e PeriodCreated) OccurredAt() time.Time { return e.At }

type PeriodReleased struct {
	PeriodID   PeriodID
	PropertyID property.ID
	Range      daterange.DateRange
	At         time.Time
}

func (e PeriodReleased) EventName() string     { return "calendar.period_released" }
func (e PeriodReleased) AggregateID() string   { return string(e.PeriodID) }
func (e PeriodReleased) OccurredAt() time.Time { return e.At }
