package calendar

import (
	"context"
	"strings"
	"time"

	"sejour/internal/app/dto"
	"sejour/internal/app/queries"
	"sejour/internal/app/support"
	"sejour/internal/app/uow"
	domainavailability "sejour/internal/domain/availability"
	domainproperty "sejour/internal/domain/property"
	domainrange "sejour/internal/domain/shared/daterange"
	"sejour/internal/domain/shared/fault"
)

const (
	listPeriodsKey = "calendar.period.list"
	openDatesKey   = "calendar.open_dates"
)

type ListPeriodsQuery struct {
	PropertyID string
	From       time.Time
	To         time.Time
	Statuses   []string
}

func (q ListPeriodsQuery) Key() string { return listPeriodsKey }

type ListPeriodsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListPeriodsHandler) Handle(ctx context.Context, q ListPeriodsQuery) (dto.CalendarView, error) {
	propertyID := strings.TrimSpace(q.PropertyID)
	if propertyID == "" {
		return dto.CalendarView{}, fault.Invalid("calendar: property id is required")
	}
	filter := domainavailability.Filter{}
	if !q.From.IsZero() || !q.To.IsZero() {
		dr, err := domainrange.New(q.From, q.To)
		if err != nil {
			return dto.CalendarView{}, fault.Wrap(fault.KindInvalid, err, "calendar: invalid date range")
		}
		filter.Range = dr
	}
	for _, raw := range q.Statuses {
		status := domainavailability.PeriodStatus(strings.TrimSpace(raw))
		if status == "" {
			continue
		}
		if !status.Known() {
			return dto.CalendarView{}, fault.Invalid("calendar: unknown period status %q", status)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CalendarView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	periods, err := support.LedgerFor(unit).AvailablePeriods(execCtx, domainproperty.ID(propertyID), filter)
	if err != nil {
		return dto.CalendarView{}, err
	}
	return dto.MapCalendarView(propertyID, periods), nil
}

type OpenDatesQuery struct {
	PropertyID string
	From       time.Time
	To         time.Time
}

func (q OpenDatesQuery) Key() string { return openDatesKey }

type OpenDatesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *OpenDatesHandler) Handle(ctx context.Context, q OpenDatesQuery) (dto.CalendarView, error) {
	propertyID := strings.TrimSpace(q.PropertyID)
	if propertyID == "" {
		return dto.CalendarView{}, fault.Invalid("calendar: property id is required")
	}
	dr, err := domainrange.New(q.From, q.To)
	if err != nil {
		return dto.CalendarView{}, fault.Wrap(fault.KindInvalid, err, "calendar: invalid date range")
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CalendarView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	periods, err := support.LedgerFor(unit).OpenDatesInRange(execCtx, domainproperty.ID(propertyID), dr)
	if err != nil {
		return dto.CalendarView{}, err
	}
	return dto.MapCalendarView(propertyID, periods), nil
}

var _ queries.Handler[ListPeriodsQuery, dto.CalendarView] = (*ListPeriodsHandler)(nil)
var _ queries.Handler[OpenDatesQuery, dto.CalendarView] = (*OpenDatesHandler)(nil)
