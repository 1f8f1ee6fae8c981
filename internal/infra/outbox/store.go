package outbox

import (
	"context"
	"sync"
	"time"

	appoutbox "sejour/internal/app/outbox"
)

const (
	statusPending = "pending"
	statusClaimed = "claimed"
	statusSent    = "sent"
)

// EventDocument is one outbox entry as the worker sees it.
type EventDocument struct {
	ID          string
	Name        string
	Aggregate   string
	Payload     []byte
	Headers     map[string]string
	OccurredAt  time.Time
	Status      string
	Attempts    int
	NextAttempt time.Time
	ClaimedBy   string
	LastError   string
}

// Store is the durable side of the outbox: Add stages records inside the
// command, Flush moves them to the pending queue once the transaction
// committed, and the worker drains the queue through Claim/MarkSent/
// MarkFailed. Staged records of a rolled-back command are simply never
// flushed.
type Store struct {
	mu      sync.Mutex
	staged  []appoutbox.EventRecord
	pending []*EventDocument
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Add(ctx context.Context, record appoutbox.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = append(s.staged, record)
	return nil
}

func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.staged {
		s.pending = append(s.pending, &EventDocument{
			ID:         record.ID,
			Name:       record.Name,
			Aggregate:  record.Aggregate,
			Payload:    record.Payload,
			Headers:    record.Headers,
			OccurredAt: record.OccurredAt,
			Status:     statusPending,
		})
	}
	s.staged = nil
	return nil
}

// Claim hands the oldest publishable document to the worker, oldest first.
// Returns nil when nothing is due.
func (s *Store) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, doc := range s.pending {
		if doc.Status != statusPending {
			continue
		}
		if !doc.NextAttempt.IsZero() && doc.NextAttempt.After(now) {
			continue
		}
		doc.Status = statusClaimed
		doc.ClaimedBy = workerID
		doc.Attempts++
		copied := *doc
		return &copied, nil
	}
	return nil, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.pending[:0]
	for _, doc := range s.pending {
		if doc.ID == id {
			doc.Status = statusSent
			continue
		}
		kept = append(kept, doc)
	}
	s.pending = kept
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id string, nextAttempt time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.pending {
		if doc.ID != id {
			continue
		}
		doc.Status = statusPending
		doc.ClaimedBy = ""
		doc.NextAttempt = nextAttempt
		doc.LastError = reason
	}
	return nil
}

// PendingCount reports how many documents still await publication.
func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

var _ appoutbox.Outbox = (*Store)(nil)
