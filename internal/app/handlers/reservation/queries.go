package reservation

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"sejour/internal/app/dto"
	"sejour/internal/app/queries"
	"sejour/internal/app/support"
	"sejour/internal/app/uow"
	domainproperty "sejour/internal/domain/property"
	domainreservation "sejour/internal/domain/reservation"
	domainrange "sejour/internal/domain/shared/daterange"
	"sejour/internal/domain/shared/fault"
	domainuser "sejour/internal/domain/user"
)

const (
	getReservationKey           = "reservation.get"
	listTenantReservationsKey   = "reservation.list_by_tenant"
	listPropertyReservationsKey = "reservation.list_by_property"
	listOwnerReservationsKey    = "reservation.list_by_owner"
	checkAvailabilityKey        = "reservation.check_availability"
	quoteReservationKey         = "reservation.quote"
)

type GetReservationQuery struct {
	ReservationID string
	ActorID       string
}

func (q GetReservationQuery) Key() string { return getReservationKey }

type GetReservationHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetReservationHandler) Handle(ctx context.Context, q GetReservationQuery) (dto.ReservationView, error) {
	reservationID, err := requireID(q.ReservationID, "reservation id")
	if err != nil {
		return dto.ReservationView{}, err
	}
	actorID, err := requireID(q.ActorID, "actor id")
	if err != nil {
		return dto.ReservationView{}, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	res, prop, err := loadParty(execCtx, unit, reservationID, actorID)
	if err != nil {
		return dto.ReservationView{}, err
	}
	return dto.MapReservationView(res, prop), nil
}

type ListTenantReservationsQuery struct {
	TenantID string
}

func (q ListTenantReservationsQuery) Key() string { return listTenantReservationsKey }

type ListTenantReservationsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListTenantReservationsHandler) Handle(ctx context.Context, q ListTenantReservationsQuery) (dto.ReservationCollection, error) {
	tenantID, err := requireID(q.TenantID, "tenant id")
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	list, err := unit.Reservations().ListByTenant(execCtx, domainuser.ID(tenantID))
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	items, err := mapWithProperties(execCtx, unit, list)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	if h.Logger != nil {
		h.Logger.Debug("tenant reservations listed", "tenant_id", tenantID, "count", len(items))
	}
	return dto.ReservationCollection{Items: items}, nil
}

type ListPropertyReservationsQuery struct {
	PropertyID string
	OwnerID    string
}

func (q ListPropertyReservationsQuery) Key() string { return listPropertyReservationsKey }

type ListPropertyReservationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListPropertyReservationsHandler) Handle(ctx context.Context, q ListPropertyReservationsQuery) (dto.ReservationCollection, error) {
	propertyID, err := requireID(q.PropertyID, "property id")
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	ownerID, err := requireID(q.OwnerID, "owner id")
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(execCtx, domainproperty.ID(propertyID))
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	if prop.OwnerID != domainuser.ID(ownerID) {
		return dto.ReservationCollection{}, fault.Forbidden("reservation: property is not owned by the requester")
	}

	list, err := unit.Reservations().ListByProperty(execCtx, prop.ID)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	items := make([]dto.ReservationView, 0, len(list))
	for _, res := range list {
		items = append(items, dto.MapReservationView(res, prop))
	}
	sortNewestFirst(items)
	return dto.ReservationCollection{Items: items}, nil
}

type ListOwnerReservationsQuery struct {
	OwnerID string
	Status  string
}

func (q ListOwnerReservationsQuery) Key() string { return listOwnerReservationsKey }

type ListOwnerReservationsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListOwnerReservationsHandler) Handle(ctx context.Context, q ListOwnerReservationsQuery) (dto.ReservationCollection, error) {
	ownerID, err := requireID(q.OwnerID, "owner id")
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	props, err := unit.Properties().ListByOwner(execCtx, domainuser.ID(ownerID))
	if err != nil {
		return dto.ReservationCollection{}, err
	}

	items := make([]dto.ReservationView, 0)
	for _, prop := range props {
		list, err := unit.Reservations().ListByProperty(execCtx, prop.ID)
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		for _, res := range list {
			if q.Status != "" && string(res.Status) != q.Status {
				continue
			}
			items = append(items, dto.MapReservationView(res, prop))
		}
	}
	sortNewestFirst(items)

	if h.Logger != nil {
		h.Logger.Debug("owner reservations listed", "owner_id", ownerID, "count", len(items), "status", q.Status)
	}
	return dto.ReservationCollection{Items: items}, nil
}

type CheckAvailabilityQuery struct {
	PropertyID string
	CheckIn    time.Time
	CheckOut   time.Time
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type AvailabilityAnswer struct {
	PropertyID string    `json:"property_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Available  bool      `json:"available"`
}

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (AvailabilityAnswer, error) {
	propertyID, err := requireID(q.PropertyID, "property id")
	if err != nil {
		return AvailabilityAnswer{}, err
	}
	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return AvailabilityAnswer{}, fault.Wrap(fault.KindInvalid, err, "reservation: invalid date range")
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return AvailabilityAnswer{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	conflict, err := support.LedgerFor(unit).CheckConflicts(execCtx, domainproperty.ID(propertyID), dr, "")
	if err != nil {
		return AvailabilityAnswer{}, err
	}
	return AvailabilityAnswer{
		PropertyID: propertyID,
		CheckIn:    dr.Start,
		CheckOut:   dr.End,
		Available:  !conflict,
	}, nil
}

type QuoteQuery struct {
	PropertyID string
	CheckIn    time.Time
	CheckOut   time.Time
}

func (q QuoteQuery) Key() string { return quoteReservationKey }

type QuoteHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle prices a stay at the property's flat nightly rate. Seasonal or
// per-period pricing is deliberately not part of the quote.
func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.QuoteView, error) {
	propertyID, err := requireID(q.PropertyID, "property id")
	if err != nil {
		return dto.QuoteView{}, err
	}
	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.QuoteView{}, fault.Wrap(fault.KindInvalid, err, "reservation: invalid date range")
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.QuoteView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(execCtx, domainproperty.ID(propertyID))
	if err != nil {
		return dto.QuoteView{}, err
	}
	total := prop.NightlyRate.Times(int64(dr.Nights()))
	return dto.QuoteView{
		PropertyID:  string(prop.ID),
		CheckIn:     dr.Start,
		CheckOut:    dr.End,
		Nights:      dr.Nights(),
		NightlyRate: dto.MapMoney(prop.NightlyRate),
		Total:       dto.MapMoney(total),
	}, nil
}

func mapWithProperties(ctx context.Context, unit uow.UnitOfWork, list []*domainreservation.Reservation) ([]dto.ReservationView, error) {
	cache := make(map[domainproperty.ID]*domainproperty.Property)
	items := make([]dto.ReservationView, 0, len(list))
	for _, res := range list {
		prop, ok := cache[res.PropertyID]
		if !ok {
			loaded, err := unit.Properties().ByID(ctx, res.PropertyID)
			if err != nil {
				if fault.IsNotFound(err) {
					loaded = nil
				} else {
					return nil, err
				}
			}
			prop = loaded
			cache[res.PropertyID] = prop
		}
		items = append(items, dto.MapReservationView(res, prop))
	}
	sortNewestFirst(items)
	return items, nil
}

func sortNewestFirst(items []dto.ReservationView) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

var _ queries.Handler[GetReservationQuery, dto.ReservationView] = (*GetReservationHandler)(nil)
var _ queries.Handler[ListTenantReservationsQuery, dto.ReservationCollection] = (*ListTenantReservationsHandler)(nil)
var _ queries.Handler[ListPropertyReservationsQuery, dto.ReservationCollection] = (*ListPropertyReservationsHandler)(nil)
var _ queries.Handler[ListOwnerReservationsQuery, dto.ReservationCollection] = (*ListOwnerReservationsHandler)(nil)
var _ queries.Handler[CheckAvailabilityQuery, AvailabilityAnswer] = (*CheckAvailabilityHandler)(nil)
var _ queries.Handler[QuoteQuery, dto.QuoteView] = (*QuoteHandler)(nil)
