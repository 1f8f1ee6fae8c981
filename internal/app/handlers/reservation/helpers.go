package reservation

import (
	"context"
	"strings"

	"sejour/internal/app/outbox"
	"sejour/internal/app/uow"
	domainproperty "sejour/internal/domain/property"
	domainreservation "sejour/internal/domain/reservation"
	"sejour/internal/domain/shared/events"
	"sejour/internal/domain/shared/fault"
	domainuser "sejour/internal/domain/user"
)

// loadOwned fetches a reservation together with its property and verifies
// the actor owns that property.
func loadOwned(ctx context.Context, unit uow.UnitOfWork, reservationID, ownerID string) (*domainreservation.Reservation, *domainproperty.Property, error) {
	res, err := unit.Reservations().ByID(ctx, domainreservation.ID(reservationID))
	if err != nil {
		return nil, nil, err
	}
	prop, err := unit.Properties().ByID(ctx, res.PropertyID)
	if err != nil {
		return nil, nil, err
	}
	if prop.OwnerID != domainuser.ID(ownerID) {
		return nil, nil, fault.Forbidden("reservation: property is not owned by the requester")
	}
	return res, prop, nil
}

// loadParty fetches a reservation and verifies the actor is either its
// tenant or the owner of the property it targets.
func loadParty(ctx context.Context, unit uow.UnitOfWork, reservationID, actorID string) (*domainreservation.Reservation, *domainproperty.Property, error) {
	res, err := unit.Reservations().ByID(ctx, domainreservation.ID(reservationID))
	if err != nil {
		return nil, nil, err
	}
	prop, err := unit.Properties().ByID(ctx, res.PropertyID)
	if err != nil {
		return nil, nil, err
	}
	if res.TenantID != domainuser.ID(actorID) && prop.OwnerID != domainuser.ID(actorID) {
		return nil, nil, fault.Forbidden("reservation: requester is not a party to this reservation")
	}
	return res, prop, nil
}

func requireID(value, label string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fault.Invalid("reservation: %s is required", label)
	}
	return value, nil
}

type eventSource interface {
	PendingEvents() []events.DomainEvent
	ClearEvents()
}

func flushEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, sources ...eventSource) error {
	if box == nil {
		for _, src := range sources {
			src.ClearEvents()
		}
		return nil
	}
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	for _, src := range sources {
		pending := src.PendingEvents()
		src.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, box, encoder, pending); err != nil {
			return err
		}
	}
	return nil
}
