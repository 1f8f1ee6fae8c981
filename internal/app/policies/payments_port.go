package policies

import (
	"context"

	"sejour/internal/domain/shared/money"
)

// PaymentsPort abstracts the payment provider. The in-tree implementation is
// a ledger-only facility; a real PSP adapter plugs in behind the same port.
type PaymentsPort interface {
	PlaceHold(ctx context.Context, reservationID string, amount money.Money) (string, error)
	Capture(ctx context.Context, holdID string) error
	Refund(ctx context.Context, reservationID string, amount money.Money) error
}
