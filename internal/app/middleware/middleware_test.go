package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sejour/internal/app/commands"
	"sejour/internal/app/middleware"
	"sejour/internal/app/uow"
	domainavailability "sejour/internal/domain/availability"
	domainpayment "sejour/internal/domain/payment"
	domainproperty "sejour/internal/domain/property"
	domainreservation "sejour/internal/domain/reservation"
	"sejour/internal/infra/storage/memory"
)

type testCommand struct {
	key   string
	token string
}

func (c testCommand) Key() string            { return c.key }
func (c testCommand) IdempotencyKey() string { return c.token }
func (c testCommand) ResultPrototype() any   { return &testResult{} }

type testResult struct {
	Value string `json:"value"`
}

type testHandler struct {
	calls int
	fail  error
}

func (h *testHandler) Handle(ctx context.Context, cmd testCommand) (*testResult, error) {
	h.calls++
	if h.fail != nil {
		return nil, h.fail
	}
	return &testResult{Value: "done"}, nil
}

func newBus(handler *testHandler) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, "test.cmd", handler)
	return bus
}

func TestIdempotencyReplaysResult(t *testing.T) {
	ctx := context.Background()
	handler := &testHandler{}
	bus := middleware.ChainCommands(newBus(handler),
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
	)

	cmd := testCommand{key: "test.cmd", token: "tok-1"}
	first, err := commands.Dispatch[testCommand, *testResult](ctx, bus, cmd)
	require.NoError(t, err)
	assert.Equal(t, "done", first.Value)

	replayed, err := commands.Dispatch[testCommand, *testResult](ctx, bus, cmd)
	require.NoError(t, err)
	assert.Equal(t, "done", replayed.Value)
	assert.Equal(t, 1, handler.calls, "second dispatch must not re-run the handler")
}

func TestIdempotencyReplaysFailure(t *testing.T) {
	ctx := context.Background()
	handler := &testHandler{fail: errors.New("boom")}
	bus := middleware.ChainCommands(newBus(handler),
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
	)

	cmd := testCommand{key: "test.cmd", token: "tok-2"}
	_, err := commands.Dispatch[testCommand, *testResult](ctx, bus, cmd)
	require.EqualError(t, err, "boom")

	_, err = commands.Dispatch[testCommand, *testResult](ctx, bus, cmd)
	require.EqualError(t, err, "boom")
	assert.Equal(t, 1, handler.calls, "a stored failure is replayed, not retried")
}

func TestIdempotencyWithoutTokenRunsEveryTime(t *testing.T) {
	ctx := context.Background()
	handler := &testHandler{}
	bus := middleware.ChainCommands(newBus(handler),
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
	)

	cmd := testCommand{key: "test.cmd"}
	for range 3 {
		_, err := commands.Dispatch[testCommand, *testResult](ctx, bus, cmd)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, handler.calls)
}

// trackingFactory observes commit/rollback decisions made by the
// Transaction middleware.
type trackingFactory struct {
	units []*trackingUnit
}

func (f *trackingFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit := &trackingUnit{}
	f.units = append(f.units, unit)
	return unit, nil
}

type trackingUnit struct {
	committed  bool
	rolledBack bool
}

func (u *trackingUnit) Properties() domainproperty.Repository      { return nil }
func (u *trackingUnit) Reservations() domainreservation.Repository { return nil }
func (u *trackingUnit) Calendar() domainavailability.Repository    { return nil }
func (u *trackingUnit) Payments() domainpayment.Repository         { return nil }
func (u *trackingUnit) Commit(ctx context.Context) error           { u.committed = true; return nil }
func (u *trackingUnit) Rollback(ctx context.Context) error         { u.rolledBack = true; return nil }

type unitAwareHandler struct {
	sawUnit bool
	fail    error
}

func (h *unitAwareHandler) Handle(ctx context.Context, cmd testCommand) (*testResult, error) {
	_, h.sawUnit = uow.FromContext(ctx)
	if h.fail != nil {
		return nil, h.fail
	}
	return &testResult{Value: "ok"}, nil
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	factory := &trackingFactory{}
	handler := &unitAwareHandler{}
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, "test.cmd", handler)
	wrapped := middleware.ChainCommands(bus, middleware.Transaction(factory, nil))

	_, err := commands.Dispatch[testCommand, *testResult](ctx, wrapped, testCommand{key: "test.cmd"})
	require.NoError(t, err)
	assert.True(t, handler.sawUnit, "unit of work must be in the handler context")
	require.Len(t, factory.units, 1)
	assert.True(t, factory.units[0].committed)
	assert.False(t, factory.units[0].rolledBack)
}

func TestTransactionRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	factory := &trackingFactory{}
	handler := &unitAwareHandler{fail: errors.New("handler failed")}
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, "test.cmd", handler)
	wrapped := middleware.ChainCommands(bus, middleware.Transaction(factory, nil))

	_, err := commands.Dispatch[testCommand, *testResult](ctx, wrapped, testCommand{key: "test.cmd"})
	require.Error(t, err)
	require.Len(t, factory.units, 1)
	assert.False(t, factory.units[0].committed)
	assert.True(t, factory.units[0].rolledBack)
}

func TestOutboxFlushRunsAfterCommand(t *testing.T) {
	ctx := context.Background()
	box := memory.NewOutbox()
	handler := &testHandler{}
	bus := middleware.ChainCommands(newBus(handler), middleware.OutboxFlush(box))

	_, err := commands.Dispatch[testCommand, *testResult](ctx, bus, testCommand{key: "test.cmd"})
	require.NoError(t, err)
}
