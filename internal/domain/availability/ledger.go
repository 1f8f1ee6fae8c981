package availability

import (
	"context"
	"errors"
	"time"

	"sejour/internal/domain/property"
	"sejour/internal/domain/shared/daterange"
	"sejour/internal/domain/shared/fault"
	"sejour/internal/domain/shared/money"
)

var (
	ErrPeriodNotFound   = errors.New("availability: period not found")
	ErrLedgerIncomplete = errors.New("availability: ledger missing dependencies")
	errMissingID        = errors.New("availability: id source required")
)

const systemHoldNote = "reservation hold"

// Ledger owns a property's calendar and is the single authority on date
// conflicts. Reservations consult it before being created and mutate it when
// they are accepted, confirmed or cancelled; the ledger itself knows nothing
// about reservations beyond the StaySource predicate.
type Ledger struct {
	Periods Repository
	Stays   StaySource
	NewID   func() PeriodID
}

func (l Ledger) ready() error {
	if l.Periods == nil || l.Stays == nil {
		return ErrLedgerIncomplete
	}
	return nil
}

// CheckConflicts reports whether the candidate range collides with an
// exclusive (reserved or blocked) period or with an active reservation.
// excludeID skips one period, for edit-in-place checks. Open periods are
// never a conflict source. Two half-open ranges conflict iff they share a
// night; touching boundaries do not.
func (l Ledger) CheckConflicts(ctx context.Context, propertyID property.ID, dr daterange.DateRange, excludeID PeriodID) (bool, error) {
	if err := l.ready(); err != nil {
		return false, err
	}
	periods, err := l.Periods.ListByProperty(ctx, propertyID, Filter{
		Range:    dr,
		Statuses: []PeriodStatus{StatusReserved, StatusBlocked},
	})
	if err != nil {
		return false, err
	}
	for _, p := range periods {
		if excludeID != "" && p.ID == excludeID {
			continue
		}
		return true, nil
	}
	return l.Stays.ExistsOverlapping(ctx, propertyID, dr)
}

type CreatePeriodParams struct {
	PropertyID  property.ID
	Range       daterange.DateRange
	Status      PeriodStatus
	CustomPrice *money.Money
	Note        string
	Now         time.Time
}

// CreatePeriod inserts a calendar entry after conflict checking. When the
// new period is exclusive, any open periods it overlaps are removed: the
// explicit entry supersedes the generic advertisement, which would otherwise
// linger over dates that are no longer offered.
func (l Ledger) CreatePeriod(ctx context.Context, params CreatePeriodParams) (*Period, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if !params.Status.Known() {
		return nil, fault.Invalid("availability: unknown period status %q", params.Status)
	}
	conflict, err := l.CheckConflicts(ctx, params.PropertyID, params.Range, "")
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, fault.Invalid("availability: dates %s to %s are not available",
			params.Range.Start.Format("2006-01-02"), params.Range.End.Format("2006-01-02"))
	}
	if params.Status.Exclusive() {
		if err := l.removeOverlappingOpen(ctx, params.PropertyID, params.Range); err != nil {
			return nil, err
		}
	}
	return l.insert(ctx, params)
}

// PeriodPatch carries partial updates; nil fields keep the current value.
type PeriodPatch struct {
	Range       *daterange.DateRange
	Status      *PeriodStatus
	CustomPrice *money.Money
	ClearPrice  bool
	Note        *string
	Now         time.Time
}

// UpdatePeriod merges the patch over the stored period and re-runs conflict
// checking on the merged range, excluding the period itself, before
// committing any date or status change.
func (l Ledger) UpdatePeriod(ctx context.Context, id PeriodID, patch PeriodPatch) (*Period, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	p, err := l.Periods.ByID(ctx, id)
	if err != nil {
		return nil, fault.Wrap(fault.KindNotFound, ErrPeriodNotFound, "availability: period "+string(id))
	}
	merged := *p
	if patch.Range != nil {
		merged.Range = *patch.Range
	}
	if patch.Status != nil {
		if !patch.Status.Known() {
			return nil, fault.Invalid("availability: unknown period status %q", *patch.Status)
		}
		merged.Status = *patch.Status
	}
	if patch.ClearPrice {
		merged.CustomPrice = nil
	} else if patch.CustomPrice != nil {
		price := *patch.CustomPrice
		merged.CustomPrice = &price
	}
	if patch.Note != nil {
		merged.Note = *patch.Note
	}

	conflict, err := l.CheckConflicts(ctx, merged.PropertyID, merged.Range, id)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, fault.Invalid("availability: dates %s to %s are not available",
			merged.Range.Start.Format("2006-01-02"), merged.Range.End.Format("2006-01-02"))
	}

	merged.UpdatedAt = nowOrDefault(patch.Now)
	if err := l.Periods.Update(ctx, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// DeletePeriod removes an open or blocked period. Reserved periods belong to
// a reservation and can only be released by cancelling it.
func (l Ledger) DeletePeriod(ctx context.Context, id PeriodID) error {
	if err := l.ready(); err != nil {
		return err
	}
	p, err := l.Periods.ByID(ctx, id)
	if err != nil {
		return fault.Wrap(fault.KindNotFound, ErrPeriodNotFound, "availability: period "+string(id))
	}
	if p.Status == StatusReserved {
		return fault.Invalid("availability: reserved periods cannot be deleted, cancel the reservation instead")
	}
	return l.Periods.Delete(ctx, id)
}

// AvailablePeriods returns calendar entries filtered by overlap and status.
func (l Ledger) AvailablePeriods(ctx context.Context, propertyID property.ID, filter Filter) ([]*Period, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	return l.Periods.ListByProperty(ctx, propertyID, filter)
}

// OpenDatesInRange lists explicitly advertised open periods overlapping the
// supplied range.
func (l Ledger) OpenDatesInRange(ctx context.Context, propertyID property.ID, dr daterange.DateRange) ([]*Period, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	return l.Periods.ListByProperty(ctx, propertyID, Filter{
		Range:    dr,
		Statuses: []PeriodStatus{StatusOpen},
	})
}

// AutoBlock records a reserved period for an accepted or instantly confirmed
// reservation. No conflict re-check happens here: the caller validated
// availability within the same unit of work, and re-checking would find the
// reservation row itself. Overlapping open periods are cleaned up as in
// CreatePeriod.
func (l Ledger) AutoBlock(ctx context.Context, propertyID property.ID, dr daterange.DateRange, customPrice *money.Money, now time.Time) (*Period, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if err := l.removeOverlappingOpen(ctx, propertyID, dr); err != nil {
		return nil, err
	}
	return l.insert(ctx, CreatePeriodParams{
		PropertyID:  propertyID,
		Range:       dr,
		Status:      StatusReserved,
		CustomPrice: customPrice,
		Note:        systemHoldNote,
		Now:         now,
	})
}

// AutoFree releases reserved periods when a confirmed reservation is
// cancelled. Only periods fully contained in the cancelled range flip back
// to open: a partial overlap belongs to a different reservation and must not
// be touched. Calling it twice for the same range is a no-op the second time.
// The released periods are returned with their events still pending.
func (l Ledger) AutoFree(ctx context.Context, propertyID property.ID, dr daterange.DateRange, now time.Time) ([]*Period, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	periods, err := l.Periods.ListByProperty(ctx, propertyID, Filter{
		Range:    dr,
		Statuses: []PeriodStatus{StatusReserved},
	})
	if err != nil {
		return nil, err
	}
	at := nowOrDefault(now)
	released := make([]*Period, 0, len(periods))
	for _, p := range periods {
		if !dr.Contains(p.Range) {
			continue
		}
		p.Status = StatusOpen
		p.CustomPrice = nil
		p.Note = ""
		p.UpdatedAt = at
		p.Record(PeriodReleased{PeriodID: p.ID, PropertyID: p.PropertyID, Range: p.Range, At: at})
		if err := l.Periods.Update(ctx, p); err != nil {
			return nil, err
		}
		released = append(released, p)
	}
	return released, nil
}

// BulkCreate validates every entry of the batch, against the current
// calendar and against the entries validated before it, and only then
// creates them all. A single conflicting range fails the whole batch and is
// reported; nothing is applied.
func (l Ledger) BulkCreate(ctx context.Context, propertyID property.ID, batch []CreatePeriodParams) ([]*Period, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	accepted := make([]CreatePeriodParams, 0, len(batch))
	for _, params := range batch {
		params.PropertyID = propertyID
		if !params.Status.Known() {
			return nil, fault.Invalid("availability: unknown period status %q", params.Status)
		}
		conflict, err := l.CheckConflicts(ctx, propertyID, params.Range, "")
		if err != nil {
			return nil, err
		}
		if !conflict && params.Status.Exclusive() {
			for _, prior := range accepted {
				if prior.Status.Exclusive() && prior.Range.Overlaps(params.Range) {
					conflict = true
					break
				}
			}
		}
		if conflict {
			return nil, fault.Invalid("availability: dates %s to %s are not available",
				params.Range.Start.Format("2006-01-02"), params.Range.End.Format("2006-01-02"))
		}
		accepted = append(accepted, params)
	}

	created := make([]*Period, 0, len(accepted))
	for _, params := range accepted {
		if params.Status.Exclusive() {
			if err := l.removeOverlappingOpen(ctx, propertyID, params.Range); err != nil {
				return nil, err
			}
		}
		p, err := l.insert(ctx, params)
		if err != nil {
			return nil, err
		}
		created = append(created, p)
	}
	return created, nil
}

func (l Ledger) insert(ctx context.Context, params CreatePeriodParams) (*Period, error) {
	if l.NewID == nil {
		return nil, errMissingID
	}
	now := nowOrDefault(params.Now)
	p := &Period{
		ID:         l.NewID(),
		PropertyID: params.PropertyID,
		Range:      params.Range,
		Status:     params.Status,
		Note:       params.Note,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if params.CustomPrice != nil {
		price := *params.CustomPrice
		p.CustomPrice = &price
	}
	p.Record(PeriodCreated{PeriodID: p.ID, PropertyID: p.PropertyID, Range: p.Range, Status: p.Status, At: now})
	if err := l.Periods.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (l Ledger) removeOverlappingOpen(ctx context.Context, propertyID property.ID, dr daterange.DateRange) error {
	open, err := l.Periods.ListByProperty(ctx, propertyID, Filter{
		Range:    dr,
		Statuses: []PeriodStatus{StatusOpen},
	})
	if err != nil {
		return err
	}
	for _, p := range open {
		if err := l.Periods.Delete(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func nowOrDefault(now time.Time) time.Time {
	if now.IsZero() {
		now = time.Now()
	}
	return now.UTC()
}
