package reservation

import (
	"context"

	"sejour/internal/app/dto"
	"sejour/internal/app/queries"
	"sejour/internal/app/support"
	"sejour/internal/app/uow"
	domainreservation "sejour/internal/domain/reservation"
	"sejour/internal/domain/shared/money"
	domainuser "sejour/internal/domain/user"
)

const ownerStatisticsKey = "reservation.owner_statistics"

type OwnerStatisticsQuery struct {
	OwnerID string
}

func (q OwnerStatisticsQuery) Key() string { return ownerStatisticsKey }

type OwnerStatisticsHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle aggregates reservation counts and confirmed revenue across all of
// the owner's properties. Revenue counts reservations that reached a
// calendar-blocking status and were not cancelled.
func (h *OwnerStatisticsHandler) Handle(ctx context.Context, q OwnerStatisticsQuery) (dto.OwnerStatistics, error) {
	ownerID, err := requireID(q.OwnerID, "owner id")
	if err != nil {
		return dto.OwnerStatistics{}, err
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.OwnerStatistics{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	props, err := unit.Properties().ListByOwner(execCtx, domainuser.ID(ownerID))
	if err != nil {
		return dto.OwnerStatistics{}, err
	}

	stats := dto.OwnerStatistics{Properties: len(props)}
	revenue := money.Money{Currency: money.DefaultCurrency}
	for _, prop := range props {
		list, err := unit.Reservations().ListByProperty(execCtx, prop.ID)
		if err != nil {
			return dto.OwnerStatistics{}, err
		}
		for _, res := range list {
			switch res.Status {
			case domainreservation.StatusPending:
				stats.PendingReservations++
			case domainreservation.StatusAccepted, domainreservation.StatusConfirmed:
				stats.UpcomingReservations++
			case domainreservation.StatusInProgress:
				stats.ActiveStays++
			case domainreservation.StatusCompleted:
				stats.CompletedStays++
			case domainreservation.StatusCancelled:
				stats.Cancellations++
			}
			if res.Status.BlocksBooking() || res.Status == domainreservation.StatusCompleted {
				stats.NightsBooked += res.Range.Nights()
				if sum, err := revenue.Add(res.Total); err == nil {
					revenue = sum
				}
			}
		}
	}
	stats.Revenue = dto.MapMoney(revenue)
	return stats, nil
}

var _ queries.Handler[OwnerStatisticsQuery, dto.OwnerStatistics] = (*OwnerStatisticsHandler)(nil)
