package commands

import (
	"context"
	"fmt"
	"sync"
)

type registeredHandler func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus is a map-backed command bus; registration happens at startup,
// dispatch is read-only and safe for concurrent use.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]registeredHandler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]registeredHandler)}
}

// RegisterHandler binds a typed handler to a command key.
func RegisterHandler[C Command, R any](bus *InMemoryBus, key string, handler Handler[C, R]) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[key] = func(ctx context.Context, cmd Command) (any, error) {
		typed, ok := cmd.(C)
		if !ok {
			return nil, fmt.Errorf("%w: key %q", ErrInvalidCommand, key)
		}
		return handler.Handle(ctx, typed)
	}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	b.mu.RLock()
	handler, ok := b.handlers[cmd.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: key %q", ErrHandlerNotFound, cmd.Key())
	}
	return handler(ctx, cmd)
}
