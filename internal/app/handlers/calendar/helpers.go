package calendar

import (
	"context"

	"sejour/internal/app/outbox"
	domainavailability "sejour/internal/domain/availability"
)

func drainEvents(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, period *domainavailability.Period) error {
	pending := period.PendingEvents()
	period.ClearEvents()
	if box == nil {
		return nil
	}
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	return outbox.RecordDomainEvents(ctx, box, encoder, pending)
}
