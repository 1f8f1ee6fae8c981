package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"sejour/internal/domain/reservation"
	"sejour/internal/domain/shared/money"
)

var (
	ErrIDRequired     = errors.New("payment: id is required")
	ErrReservationRef = errors.New("payment: reservation reference is required")
	ErrNotFound       = errors.New("payment: not found")
)

// Status tracks the lifecycle of money, not of the stay: a payment is held
// by the gateway, captured when the reservation is confirmed and refunded on
// cancellation.
type Status string

const (
	StatusHeld     Status = "held"
	StatusCaptured Status = "captured"
	StatusRefunded Status = "refunded"
)

// Payment is the marketplace's record of one gateway transaction for a
// reservation. Gateway semantics live behind the payments port.
type Payment struct {
	ID            string
	ReservationID reservation.ID
	Amount        money.Money
	Status        Status
	ProviderRef   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Repository interface {
	Save(ctx context.Context, p *Payment) error
	ListByReservation(ctx context.Context, id reservation.ID) ([]*Payment, error)
}

type CreateParams struct {
	ID            string
	ReservationID reservation.ID
	Amount        money.Money
	ProviderRef   string
	Now           time.Time
}

// NewHeld records a hold placed with the gateway.
func NewHeld(params CreateParams) (*Payment, error) {
	if strings.TrimSpace(params.ID) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.ReservationID)) == "" {
		return nil, ErrReservationRef
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Payment{
		ID:            params.ID,
		ReservationID: params.ReservationID,
		Amount:        params.Amount,
		Status:        StatusHeld,
		ProviderRef:   strings.TrimSpace(params.ProviderRef),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// MarkCaptured flips a held payment to captured.
func (p *Payment) MarkCaptured(now time.Time) {
	p.Status = StatusCaptured
	p.touch(now)
}

// MarkRefunded flips the payment to refunded.
func (p *Payment) MarkRefunded(now time.Time) {
	p.Status = StatusRefunded
	p.touch(now)
}

func (p *Payment) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	p.UpdatedAt = now.UTC()
}
