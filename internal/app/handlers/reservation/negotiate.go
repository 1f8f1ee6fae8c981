package reservation

import (
	"context"
	"log/slog"
	"time"

	"sejour/internal/app/commands"
	"sejour/internal/app/outbox"
	"sejour/internal/app/uow"
	"sejour/internal/domain/shared/money"
)

const negotiatePriceKey = "reservation.negotiate_price"

type NegotiatePriceCommand struct {
	ReservationID string
	ActorID       string
	RateCents     int64
	Currency      string
}

func (c NegotiatePriceCommand) Key() string { return negotiatePriceKey }

type NegotiatePriceResult struct {
	ReservationID string `json:"reservation_id"`
	RateCents     int64  `json:"rate_cents"`
	TotalCents    int64  `json:"total_cents"`
	Currency      string `json:"currency"`
}

type NegotiatePriceHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *NegotiatePriceHandler) Handle(ctx context.Context, cmd NegotiatePriceCommand) (*NegotiatePriceResult, error) {
	reservationID, err := requireID(cmd.ReservationID, "reservation id")
	if err != nil {
		return nil, err
	}
	actorID, err := requireID(cmd.ActorID, "actor id")
	if err != nil {
		return nil, err
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	res, _, err := loadParty(ctx, unit, reservationID, actorID)
	if err != nil {
		return nil, err
	}

	currency := cmd.Currency
	if currency == "" {
		currency = res.NightlyRate.Currency
	}
	rate, err := money.New(cmd.RateCents, currency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := res.Negotiate(rate, now); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
		return nil, err
	}
	if err := flushEvents(ctx, h.Outbox, h.Encoder, res); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("reservation price negotiated",
			"reservation_id", res.ID,
			"rate_cents", rate.Cents,
			"total_cents", res.Total.Cents,
		)
	}

	return &NegotiatePriceResult{
		ReservationID: string(res.ID),
		RateCents:     rate.Cents,
		TotalCents:    res.Total.Cents,
		Currency:      res.Total.Currency,
	}, nil
}

var _ commands.Handler[NegotiatePriceCommand, *NegotiatePriceResult] = (*NegotiatePriceHandler)(nil)
