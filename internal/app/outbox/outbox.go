package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"sejour/internal/domain/shared/events"
)

var ErrEncoderRequired = errors.New("outbox: event encoder required")

// EventRecord is a serialized domain event waiting to be published.
type EventRecord struct {
	ID         string
	Name       string
	Aggregate  string
	Payload    []byte
	Headers    map[string]string
	OccurredAt time.Time
}

// Outbox buffers event records inside the current transaction; Flush hands
// them to the transport after commit.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

// EventEncoder turns a domain event into a payload.
type EventEncoder interface {
	Encode(ev events.DomainEvent) ([]byte, error)
}

// JSONEventEncoder marshals the event struct as-is.
type JSONEventEncoder struct{}

func (JSONEventEncoder) Encode(ev events.DomainEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// RecordDomainEvents drains aggregate events into the outbox.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		return ErrEncoderRequired
	}
	for _, ev := range evs {
		payload, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		record := EventRecord{
			ID:         uuid.NewString(),
			Name:       ev.EventName(),
			Aggregate:  ev.AggregateID(),
			Payload:    payload,
			OccurredAt: ev.OccurredAt(),
		}
		if err := box.Add(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
