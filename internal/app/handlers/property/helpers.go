package property

import (
	"context"
	"strings"

	"sejour/internal/app/outbox"
	"sejour/internal/app/uow"
	domainproperty "sejour/internal/domain/property"
	"sejour/internal/domain/shared/fault"
	domainuser "sejour/internal/domain/user"
)

func loadOwned(ctx context.Context, propertyID, ownerID string) (uow.UnitOfWork, *domainproperty.Property, error) {
	propertyID = strings.TrimSpace(propertyID)
	if propertyID == "" {
		return nil, nil, fault.Invalid("property: property id is required")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, nil, fault.Invalid("property: owner id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, nil, uow.ErrUnitOfWorkMissing
	}
	prop, err := unit.Properties().ByID(ctx, domainproperty.ID(propertyID))
	if err != nil {
		return nil, nil, err
	}
	if prop.OwnerID != domainuser.ID(ownerID) {
		return nil, nil, fault.Forbidden("property: not owned by the requester")
	}
	return unit, prop, nil
}

func drainEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, prop *domainproperty.Property) error {
	pending := prop.PendingEvents()
	prop.ClearEvents()
	if box == nil {
		return nil
	}
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	return outbox.RecordDomainEvents(ctx, box, encoder, pending)
}
