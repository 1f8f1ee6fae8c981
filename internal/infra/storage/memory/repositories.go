package memory

import (
	"context"
	"sort"
	"sync"

	domainavailability "sejour/internal/domain/availability"
	domainpayment "sejour/internal/domain/payment"
	domainproperty "sejour/internal/domain/property"
	domainreservation "sejour/internal/domain/reservation"
	domainrange "sejour/internal/domain/shared/daterange"
	"sejour/internal/domain/shared/fault"
	domainuser "sejour/internal/domain/user"
)

// PropertyRepository is an in-memory property store.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperty.ID]*domainproperty.Property
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[domainproperty.ID]*domainproperty.Property)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prop, ok := r.items[id]
	if !ok {
		return nil, fault.NotFound("property %s not found", id)
	}
	return cloneProperty(prop), nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Version++
	r.items[p.ID] = cloneProperty(p)
	return nil
}

func (r *PropertyRepository) ListByOwner(ctx context.Context, ownerID domainuser.ID) ([]*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainproperty.Property, 0)
	for _, prop := range r.items {
		if prop.OwnerID == ownerID {
			matches = append(matches, cloneProperty(prop))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func cloneProperty(p *domainproperty.Property) *domainproperty.Property {
	if p == nil {
		return nil
	}
	copied := *p
	copied.Photos = append([]string(nil), p.Photos...)
	copied.ClearEvents()
	return &copied
}

// ReservationRepository stores reservations in memory.
type ReservationRepository struct {
	mu    sync.RWMutex
	items map[domainreservation.ID]*domainreservation.Reservation
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{items: make(map[domainreservation.ID]*domainreservation.Reservation)}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ID) (*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	if !ok {
		return nil, fault.NotFound("reservation %s not found", id)
	}
	return cloneReservation(res), nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res.Version++
	r.items[res.ID] = cloneReservation(res)
	return nil
}

func (r *ReservationRepository) ListByTenant(ctx context.Context, tenantID domainuser.ID) ([]*domainreservation.Reservation, error) {
	return r.list(func(res *domainreservation.Reservation) bool {
		return res.TenantID == tenantID
	})
}

func (r *ReservationRepository) ListByProperty(ctx context.Context, propertyID domainproperty.ID) ([]*domainreservation.Reservation, error) {
	return r.list(func(res *domainreservation.Reservation) bool {
		return res.PropertyID == propertyID
	})
}

func (r *ReservationRepository) ListByStatus(ctx context.Context, statuses ...domainreservation.Status) ([]*domainreservation.Reservation, error) {
	return r.list(func(res *domainreservation.Reservation) bool {
		for _, status := range statuses {
			if res.Status == status {
				return true
			}
		}
		return false
	})
}

func (r *ReservationRepository) ExistsOverlapping(ctx context.Context, propertyID domainproperty.ID, dr domainrange.DateRange) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.items {
		if res.PropertyID != propertyID {
			continue
		}
		if !res.Status.BlocksBooking() {
			continue
		}
		if res.Range.Overlaps(dr) {
			return true, nil
		}
	}
	return false, nil
}

func (r *ReservationRepository) list(match func(*domainreservation.Reservation) bool) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreservation.Reservation, 0)
	for _, res := range r.items {
		if match(res) {
			matches = append(matches, cloneReservation(res))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func cloneReservation(res *domainreservation.Reservation) *domainreservation.Reservation {
	if res == nil {
		return nil
	}
	copied := *res
	if res.NegotiatedRate != nil {
		rate := *res.NegotiatedRate
		copied.NegotiatedRate = &rate
	}
	copied.ClearEvents()
	return &copied
}

// PeriodRepository keeps calendar periods in memory.
type PeriodRepository struct {
	mu    sync.RWMutex
	items map[domainavailability.PeriodID]*domainavailability.Period
}

func NewPeriodRepository() *PeriodRepository {
	return &PeriodRepository{items: make(map[domainavailability.PeriodID]*domainavailability.Period)}
}

func (r *PeriodRepository) ByID(ctx context.Context, id domainavailability.PeriodID) (*domainavailability.Period, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	period, ok := r.items[id]
	if !ok {
		return nil, fault.Wrap(fault.KindNotFound, domainavailability.ErrPeriodNotFound, string(id))
	}
	return clonePeriod(period), nil
}

func (r *PeriodRepository) ListByProperty(ctx context.Context, propertyID domainproperty.ID, filter domainavailability.Filter) ([]*domainavailability.Period, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainavailability.Period, 0)
	for _, period := range r.items {
		if period.PropertyID != propertyID {
			continue
		}
		if !filter.Matches(period) {
			continue
		}
		matches = append(matches, clonePeriod(period))
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Range.Start.Before(matches[j].Range.Start)
	})
	return matches, nil
}

func (r *PeriodRepository) Insert(ctx context.Context, p *domainavailability.Period) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = clonePeriod(p)
	return nil
}

func (r *PeriodRepository) Update(ctx context.Context, p *domainavailability.Period) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		return fault.Wrap(fault.KindNotFound, domainavailability.ErrPeriodNotFound, string(p.ID))
	}
	r.items[p.ID] = clonePeriod(p)
	return nil
}

func (r *PeriodRepository) Delete(ctx context.Context, id domainavailability.PeriodID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return fault.Wrap(fault.KindNotFound, domainavailability.ErrPeriodNotFound, string(id))
	}
	delete(r.items, id)
	return nil
}

func clonePeriod(p *domainavailability.Period) *domainavailability.Period {
	if p == nil {
		return nil
	}
	copied := *p
	if p.CustomPrice != nil {
		price := *p.CustomPrice
		copied.CustomPrice = &price
	}
	copied.ClearEvents()
	return &copied
}

// PaymentRepository keeps payment records in memory.
type PaymentRepository struct {
	mu    sync.RWMutex
	items map[string]*domainpayment.Payment
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{items: make(map[string]*domainpayment.Payment)}
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *p
	r.items[p.ID] = &copied
	return nil
}

func (r *PaymentRepository) ListByReservation(ctx context.Context, id domainreservation.ID) ([]*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainpayment.Payment, 0)
	for _, p := range r.items {
		if p.ReservationID == id {
			copied := *p
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}
