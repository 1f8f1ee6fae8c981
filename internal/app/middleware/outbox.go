package middleware

import (
	"context"

	"sejour/internal/app/commands"
	"sejour/internal/app/outbox"
)

// OutboxFlush hands buffered events to the transport once the command (and
// its transaction, when the Transaction middleware wraps this one) finished.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
