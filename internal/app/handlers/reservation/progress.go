package reservation

import (
	"context"
	"log/slog"
	"time"

	"sejour/internal/app/commands"
	"sejour/internal/app/outbox"
	"sejour/internal/app/uow"
	domainreservation "sejour/internal/domain/reservation"
	domainrange "sejour/internal/domain/shared/daterange"
)

const progressStaysKey = "reservation.progress_stays"

// ProgressStaysCommand advances time-driven transitions: confirmed
// reservations whose check-in passed become stays in progress, and stays
// whose check-out passed complete.
type ProgressStaysCommand struct {
	Now time.Time
}

func (c ProgressStaysCommand) Key() string { return progressStaysKey }

type ProgressStaysResult struct {
	Started   int `json:"started"`
	Completed int `json:"completed"`
}

type ProgressStaysHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *ProgressStaysHandler) Handle(ctx context.Context, cmd ProgressStaysCommand) (*ProgressStaysResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	today := domainrange.Day(now)

	list, err := unit.Reservations().ListByStatus(ctx,
		domainreservation.StatusConfirmed,
		domainreservation.StatusInProgress,
	)
	if err != nil {
		return nil, err
	}

	result := &ProgressStaysResult{}
	for _, res := range list {
		switch {
		case res.Status == domainreservation.StatusConfirmed && !res.Range.Start.After(today):
			if err := res.Start(now); err != nil {
				return nil, err
			}
			result.Started++
		case res.Status == domainreservation.StatusInProgress && !res.Range.End.After(today):
			if err := res.Complete(now); err != nil {
				return nil, err
			}
			result.Completed++
		default:
			continue
		}
		if err := unit.Reservations().Save(ctx, res); err != nil {
			return nil, err
		}
		if err := flushEvents(ctx, h.Outbox, h.Encoder, res); err != nil {
			return nil, err
		}
	}

	if h.Logger != nil && (result.Started > 0 || result.Completed > 0) {
		h.Logger.Info("stays progressed", "started", result.Started, "completed", result.Completed)
	}
	return result, nil
}

var _ commands.Handler[ProgressStaysCommand, *ProgressStaysResult] = (*ProgressStaysHandler)(nil)
