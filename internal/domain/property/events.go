package property

import (
	"time"

	"sejour/internal/domain/user"
)

type PropertyCreated struct {
	PropertyID ID
	OwnerID    user.ID
	At         time.Time
}

func (e PropertyCreated) EventName() string     { return "property.created" }
func (e PropertyCreated) AggregateID() string   { return string(e.PropertyID) }
func (e PropertyCreated) OccurredAt() time.Time { return e.At }

type PropertyPublished struct {
	PropertyID ID
	At         time.Time
}

func (e PropertyPublished) EventName() string     { return "property.published" }
func (e PropertyPublished) AggregateID() string   { return string(e.PropertyID) }
func (e PropertyPublished) OccurredAt() time.Time { return e.At }

type PropertySuspended struct {
	PropertyID ID
	Reason     string
	At         time.Time
}

func (e PropertySuspended) EventName() string     { return "property.suspended" }
func (e PropertySuspended) AggregateID() string   { return string(e.PropertyID) }
func (e PropertySuspended) OccurredAt() time.Time { return e.At }

type PropertyArchived struct {
	PropertyID ID
	At         time.Time
}

func (e PropertyArchived) EventName() string     { return "property.archived" }
func (e PropertyArchived) AggregateID() string   { return string(e.PropertyID) }
func (e PropertyArchived) OccurredAt() time.Time { return e.At }
