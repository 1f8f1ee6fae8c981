package payments

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"sejour/internal/app/policies"
	"sejour/internal/domain/shared/money"
)

// MockGateway satisfies the payments port without talking to a real
// provider. Holds always succeed and refunds always land; the marketplace
// keeps its own payment records, so the mock only needs to hand out
// provider references.
type MockGateway struct {
	Logger *slog.Logger

	mu    sync.Mutex
	holds map[string]money.Money
}

func NewMockGateway(logger *slog.Logger) *MockGateway {
	return &MockGateway{Logger: logger, holds: make(map[string]money.Money)}
}

func (g *MockGateway) PlaceHold(ctx context.Context, reservationID string, amount money.Money) (string, error) {
	ref := "mock-hold-" + uuid.NewString()
	g.mu.Lock()
	g.holds[ref] = amount
	g.mu.Unlock()
	if g.Logger != nil {
		g.Logger.Info("payment hold placed", "reservation_id", reservationID, "amount", amount.String(), "ref", ref)
	}
	return ref, nil
}

func (g *MockGateway) Capture(ctx context.Context, holdID string) error {
	g.mu.Lock()
	delete(g.holds, holdID)
	g.mu.Unlock()
	if g.Logger != nil {
		g.Logger.Info("payment hold captured", "ref", holdID)
	}
	return nil
}

func (g *MockGateway) Refund(ctx context.Context, reservationID string, amount money.Money) error {
	if g.Logger != nil {
		g.Logger.Info("payment refunded", "reservation_id", reservationID, "amount", amount.String())
	}
	return nil
}

var _ policies.PaymentsPort = (*MockGateway)(nil)
