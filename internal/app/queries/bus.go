package queries

import (
	"context"
	"fmt"
	"sync"
)

type registeredHandler func(ctx context.Context, query Query) (any, error)

// InMemoryBus is a map-backed query bus mirroring the command bus.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]registeredHandler
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]registeredHandler)}
}

// RegisterHandler binds a typed handler to a query key.
func RegisterHandler[Q Query, R any](bus *InMemoryBus, key string, handler Handler[Q, R]) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[key] = func(ctx context.Context, query Query) (any, error) {
		typed, ok := query.(Q)
		if !ok {
			return nil, fmt.Errorf("%w: key %q", ErrInvalidQuery, key)
		}
		return handler.Handle(ctx, typed)
	}
}

func (b *InMemoryBus) Ask(ctx context.Context, query Query) (any, error) {
	b.mu.RLock()
	handler, ok := b.handlers[query.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: key %q", ErrHandlerNotFound, query.Key())
	}
	return handler(ctx, query)
}
