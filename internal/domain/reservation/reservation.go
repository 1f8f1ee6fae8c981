package reservation

import (
	"context"
	"strings"
	"time"

	"sejour/internal/domain/property"
	"sejour/internal/domain/shared/daterange"
	"sejour/internal/domain/shared/events"
	"sejour/internal/domain/shared/fault"
	"sejour/internal/domain/shared/money"
	"sejour/internal/domain/user"
)

type ID string

// Status carries the marketplace's historical French vocabulary; the values
// are persisted and exposed over the API as-is.
type Status string

const (
	// StatusPending awaits the owner's decision.
	StatusPending Status = "en_attente"
	// StatusAccepted was approved by the owner and awaits payment.
	StatusAccepted Status = "acceptee"
	// StatusConfirmed is paid for; the calendar range is held.
	StatusConfirmed Status = "confirmee"
	// StatusInProgress is a stay currently underway.
	StatusInProgress Status = "en_cours"
	// StatusCompleted is a finished stay. Terminal.
	StatusCompleted Status = "terminee"
	// StatusCancelled covers rejections and cancellations. Terminal.
	StatusCancelled Status = "annulee"
)

// transitions is the whole state machine: a status may only move to one of
// the listed targets. Terminal statuses have no entry.
var transitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusConfirmed, StatusCancelled},
	StatusAccepted:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

// CanTransition reports whether the state machine allows s → target.
func (s Status) CanTransition(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// HoldsCalendar reports whether a reservation in this status keeps a
// reserved period on the property calendar.
func (s Status) HoldsCalendar() bool {
	switch s {
	case StatusAccepted, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}

// BlocksBooking reports whether a reservation in this status counts as a
// conflict source for new booking requests. This is deliberately narrower
// than HoldsCalendar: an accepted-but-unpaid reservation blocks through its
// reserved period, not through the reservation row itself.
func (s Status) BlocksBooking() bool {
	return s == StatusConfirmed || s == StatusInProgress
}

type Reservation struct {
	ID                 ID
	PropertyID         property.ID
	TenantID           user.ID
	Range              daterange.DateRange
	Guests             int
	NightlyRate        money.Money
	NegotiatedRate     *money.Money
	Total              money.Money
	Status             Status
	TenantMessage      string
	CancellationReason string
	CancelledAt        time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Version            int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Reservation, error)
	Save(ctx context.Context, r *Reservation) error
	ListByTenant(ctx context.Context, tenantID user.ID) ([]*Reservation, error)
	ListByProperty(ctx context.Context, propertyID property.ID) ([]*Reservation, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]*Reservation, error)
	// ExistsOverlapping reports whether any reservation whose status blocks
	// booking overlaps the range on the property.
	ExistsOverlapping(ctx context.Context, propertyID property.ID, dr daterange.DateRange) (bool, error)
}

type CreateParams struct {
	ID            ID
	PropertyID    property.ID
	TenantID      user.ID
	Range         daterange.DateRange
	Guests        int
	NightlyRate   money.Money
	TenantMessage string
	Instant       bool
	Now           time.Time
}

// New builds a reservation in its initial status: confirmed immediately for
// instant-booking properties, pending otherwise. Property-level guards
// (capacity, self-booking, availability) belong to the caller, which holds
// the property and the calendar.
func New(params CreateParams) (*Reservation, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, fault.Invalid("reservation: id is required")
	}
	if strings.TrimSpace(string(params.TenantID)) == "" {
		return nil, fault.Invalid("reservation: tenant is required")
	}
	if params.Guests < 1 {
		return nil, fault.Invalid("reservation: guest count must be at least 1")
	}
	if params.Range.IsZero() {
		return nil, fault.Invalid("reservation: date range is required")
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	status := StatusPending
	if params.Instant {
		status = StatusConfirmed
	}

	r := &Reservation{
		ID:            params.ID,
		PropertyID:    params.PropertyID,
		TenantID:      params.TenantID,
		Range:         params.Range,
		Guests:        params.Guests,
		NightlyRate:   params.NightlyRate,
		Status:        status,
		TenantMessage: strings.TrimSpace(params.TenantMessage),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.recomputeTotal()
	r.Record(ReservationRequested{
		ReservationID: r.ID,
		PropertyID:    r.PropertyID,
		TenantID:      r.TenantID,
		Range:         r.Range,
		Guests:        r.Guests,
		Total:         r.Total,
		At:            now,
	})
	if status == StatusConfirmed {
		r.Record(ReservationConfirmed{ReservationID: r.ID, PropertyID: r.PropertyID, Range: r.Range, Total: r.Total, At: now})
	}
	return r, nil
}

// Accept moves a pending request to accepted; the caller must then hold the
// calendar range so no competing request can be accepted for the same dates.
func (r *Reservation) Accept(now time.Time) error {
	if r.Status != StatusPending {
		return fault.Invalid("reservation: only pending reservations can be accepted (current status %s)", r.Status)
	}
	r.Status = StatusAccepted
	r.touch(now)
	r.Record(ReservationAccepted{ReservationID: r.ID, PropertyID: r.PropertyID, Range: r.Range, At: r.UpdatedAt})
	return nil
}

// Reject cancels a pending request on the owner's behalf. The calendar was
// never held for a pending request, so there is nothing to release.
func (r *Reservation) Reject(now time.Time) error {
	if r.Status != StatusPending {
		return fault.Invalid("reservation: only pending reservations can be rejected (current status %s)", r.Status)
	}
	r.Status = StatusCancelled
	r.CancellationReason = "Rejected by owner"
	r.CancelledAt = nowOrDefault(now)
	r.touch(now)
	r.Record(ReservationRejected{ReservationID: r.ID, PropertyID: r.PropertyID, At: r.UpdatedAt})
	return nil
}

// Cancel terminates any non-terminal reservation. It returns whether the
// reservation was confirmed or underway at cancellation time, in which case
// the caller must release the held calendar range.
func (r *Reservation) Cancel(reason string, now time.Time) (wasConfirmed bool, err error) {
	if r.Status.Terminal() {
		return false, fault.Invalid("reservation: already %s, cannot cancel", r.Status)
	}
	wasConfirmed = r.Status.BlocksBooking()
	r.Status = StatusCancelled
	r.CancellationReason = strings.TrimSpace(reason)
	r.CancelledAt = nowOrDefault(now)
	r.touch(now)
	r.Record(ReservationCancelled{ReservationID: r.ID, PropertyID: r.PropertyID, Range: r.Range, Reason: r.CancellationReason, At: r.UpdatedAt})
	return wasConfirmed, nil
}

// ConfirmPayment marks an accepted reservation as paid. The calendar range
// was already held when the owner accepted.
func (r *Reservation) ConfirmPayment(now time.Time) error {
	if r.Status != StatusAccepted {
		return fault.Invalid("reservation: payment can only be confirmed for accepted reservations (current status %s)", r.Status)
	}
	r.Status = StatusConfirmed
	r.touch(now)
	r.Record(ReservationConfirmed{ReservationID: r.ID, PropertyID: r.PropertyID, Range: r.Range, Total: r.Total, At: r.UpdatedAt})
	return nil
}

// Negotiate replaces the nightly rate with an agreed override and recomputes
// the total. Only allowed while the request is still pending.
func (r *Reservation) Negotiate(rate money.Money, now time.Time) error {
	if r.Status != StatusPending {
		return fault.Invalid("reservation: price can only be negotiated while pending (current status %s)", r.Status)
	}
	if rate.Cents < 0 {
		return fault.Invalid("reservation: negotiated rate must not be negative")
	}
	r.NegotiatedRate = &rate
	r.recomputeTotal()
	r.touch(now)
	r.Record(PriceNegotiated{ReservationID: r.ID, Rate: rate, Total: r.Total, At: r.UpdatedAt})
	return nil
}

// Start flips a confirmed reservation to an in-progress stay.
func (r *Reservation) Start(now time.Time) error {
	if r.Status != StatusConfirmed {
		return fault.Invalid("reservation: only confirmed reservations can start (current status %s)", r.Status)
	}
	r.Status = StatusInProgress
	r.touch(now)
	r.Record(StayStarted{ReservationID: r.ID, PropertyID: r.PropertyID, At: r.UpdatedAt})
	return nil
}

// Complete closes an in-progress stay.
func (r *Reservation) Complete(now time.Time) error {
	if r.Status != StatusInProgress {
		return fault.Invalid("reservation: only stays in progress can complete (current status %s)", r.Status)
	}
	r.Status = StatusCompleted
	r.touch(now)
	r.Record(StayCompleted{ReservationID: r.ID, PropertyID: r.PropertyID, At: r.UpdatedAt})
	return nil
}

// EffectiveRate is the negotiated rate when present, the snapshot rate
// otherwise.
func (r *Reservation) EffectiveRate() money.Money {
	if r.NegotiatedRate != nil {
		return *r.NegotiatedRate
	}
	return r.NightlyRate
}

func (r *Reservation) recomputeTotal() {
	r.Total = r.EffectiveRate().Times(int64(r.Range.Nights()))
}

func (r *Reservation) touch(now time.Time) {
	r.UpdatedAt = nowOrDefault(now)
}

func nowOrDefault(now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	return now.UTC()
}
