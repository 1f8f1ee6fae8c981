package calendar_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sejour/internal/app/commands"
	"sejour/internal/app/dto"
	calendarapp "sejour/internal/app/handlers/calendar"
	"sejour/internal/app/middleware"
	"sejour/internal/app/queries"
	domainavailability "sejour/internal/domain/availability"
	domainproperty "sejour/internal/domain/property"
	domainrange "sejour/internal/domain/shared/daterange"
	"sejour/internal/domain/shared/fault"
	"sejour/internal/domain/shared/money"
	"sejour/internal/infra/storage/memory"
)

type harness struct {
	commands commands.Bus
	queries  queries.Bus
	periods  *memory.PeriodRepository
	factory  memory.Factory
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	h := &harness{periods: memory.NewPeriodRepository()}
	h.factory = memory.Factory{
		PropertyRepo:    memory.NewPropertyRepository(),
		ReservationRepo: memory.NewReservationRepository(),
		PeriodRepo:      h.periods,
		PaymentRepo:     memory.NewPaymentRepository(),
	}

	bus := commands.NewInMemoryBus()
	box := memory.NewOutbox()
	commands.RegisterHandler(bus, calendarapp.CreatePeriodCommand{}.Key(), &calendarapp.CreatePeriodHandler{Outbox: box, Logger: logger})
	commands.RegisterHandler(bus, calendarapp.UpdatePeriodCommand{}.Key(), &calendarapp.UpdatePeriodHandler{Logger: logger})
	commands.RegisterHandler(bus, calendarapp.DeletePeriodCommand{}.Key(), &calendarapp.DeletePeriodHandler{Logger: logger})
	commands.RegisterHandler(bus, calendarapp.BulkCreatePeriodsCommand{}.Key(), &calendarapp.BulkCreatePeriodsHandler{Outbox: box, Logger: logger})
	h.commands = middleware.ChainCommands(bus,
		middleware.Transaction(h.factory, nil),
		middleware.OutboxFlush(box),
	)

	qbus := queries.NewInMemoryBus()
	queries.RegisterHandler(qbus, calendarapp.ListPeriodsQuery{}.Key(), &calendarapp.ListPeriodsHandler{UoWFactory: h.factory})
	queries.RegisterHandler(qbus, calendarapp.OpenDatesQuery{}.Key(), &calendarapp.OpenDatesHandler{UoWFactory: h.factory})
	h.queries = qbus

	prop, err := domainproperty.New(domainproperty.CreateParams{
		ID:          "prop-1",
		OwnerID:     "owner-1",
		Title:       "Chalet",
		Address:     domainproperty.Address{Line1: "1 route des Gets", City: "Morzine", Country: "FR"},
		Capacity:    6,
		NightlyRate: money.Must(20000, "EUR"),
	})
	require.NoError(t, err)
	require.NoError(t, prop.Publish(time.Time{}))
	prop.ClearEvents()
	require.NoError(t, h.factory.PropertyRepo.Save(context.Background(), prop))
	return h
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateAndListPeriods(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	price := int64(25000)
	created, err := commands.Dispatch[calendarapp.CreatePeriodCommand, *dto.PeriodView](ctx, h.commands, calendarapp.CreatePeriodCommand{
		PropertyID: "prop-1",
		OwnerID:    "owner-1",
		Period: calendarapp.PeriodInput{
			From:       day(2025, 7, 1),
			To:         day(2025, 7, 15),
			Status:     "blocked",
			PriceCents: &price,
			Note:       "family stay",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "blocked", created.Status)
	require.NotNil(t, created.CustomPrice)
	assert.Equal(t, int64(25000), created.CustomPrice.Cents)

	view, err := queries.Ask[calendarapp.ListPeriodsQuery, dto.CalendarView](ctx, h.queries, calendarapp.ListPeriodsQuery{PropertyID: "prop-1"})
	require.NoError(t, err)
	require.Len(t, view.Periods, 1)
	assert.Equal(t, created.ID, view.Periods[0].ID)
}

func TestCreatePeriodAuthorization(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := commands.Dispatch[calendarapp.CreatePeriodCommand, *dto.PeriodView](ctx, h.commands, calendarapp.CreatePeriodCommand{
		PropertyID: "prop-1",
		OwnerID:    "intruder",
		Period:     calendarapp.PeriodInput{From: day(2025, 7, 1), To: day(2025, 7, 5), Status: "open"},
	})
	require.Error(t, err)
	assert.True(t, fault.IsForbidden(err))
}

func TestUpdatePeriodConflict(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	first, err := commands.Dispatch[calendarapp.CreatePeriodCommand, *dto.PeriodView](ctx, h.commands, calendarapp.CreatePeriodCommand{
		PropertyID: "prop-1", OwnerID: "owner-1",
		Period: calendarapp.PeriodInput{From: day(2025, 8, 1), To: day(2025, 8, 5), Status: "blocked"},
	})
	require.NoError(t, err)
	_, err = commands.Dispatch[calendarapp.CreatePeriodCommand, *dto.PeriodView](ctx, h.commands, calendarapp.CreatePeriodCommand{
		PropertyID: "prop-1", OwnerID: "owner-1",
		Period: calendarapp.PeriodInput{From: day(2025, 8, 10), To: day(2025, 8, 15), Status: "blocked"},
	})
	require.NoError(t, err)

	// Touching is fine.
	to := day(2025, 8, 10)
	updated, err := commands.Dispatch[calendarapp.UpdatePeriodCommand, *dto.PeriodView](ctx, h.commands, calendarapp.UpdatePeriodCommand{
		PropertyID: "prop-1", PeriodID: first.ID, OwnerID: "owner-1", To: &to,
	})
	require.NoError(t, err)
	assert.Equal(t, to, updated.To)

	// Overlapping is not.
	to = day(2025, 8, 12)
	_, err = commands.Dispatch[calendarapp.UpdatePeriodCommand, *dto.PeriodView](ctx, h.commands, calendarapp.UpdatePeriodCommand{
		PropertyID: "prop-1", PeriodID: first.ID, OwnerID: "owner-1", To: &to,
	})
	require.Error(t, err)
	assert.True(t, fault.IsInvalid(err))
}

func TestUpdatePeriodForeignProperty(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	other, err := domainproperty.New(domainproperty.CreateParams{
		ID:          "prop-2",
		OwnerID:     "owner-2",
		Title:       "Loft",
		Address:     domainproperty.Address{Line1: "3 rue du Port", City: "Annecy", Country: "FR"},
		Capacity:    2,
		NightlyRate: money.Must(11000, "EUR"),
	})
	require.NoError(t, err)
	require.NoError(t, other.Publish(time.Time{}))
	other.ClearEvents()
	require.NoError(t, h.factory.PropertyRepo.Save(ctx, other))

	dr, err := domainrange.New(day(2025, 8, 20), day(2025, 8, 25))
	require.NoError(t, err)
	period := &domainavailability.Period{
		ID:         "held",
		PropertyID: "prop-2",
		Range:      dr,
		Status:     domainavailability.StatusReserved,
	}
	require.NoError(t, h.periods.Insert(ctx, period))

	// owner-1 names their own property but someone else's period.
	status := "open"
	_, err = commands.Dispatch[calendarapp.UpdatePeriodCommand, *dto.PeriodView](ctx, h.commands, calendarapp.UpdatePeriodCommand{
		PropertyID: "prop-1", PeriodID: "held", OwnerID: "owner-1", Status: &status,
	})
	require.Error(t, err)
	assert.True(t, fault.IsNotFound(err))

	kept, err := h.periods.ByID(ctx, "held")
	require.NoError(t, err)
	assert.Equal(t, domainavailability.StatusReserved, kept.Status)
	assert.Equal(t, dr, kept.Range)
}

func TestDeletePeriod(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	created, err := commands.Dispatch[calendarapp.CreatePeriodCommand, *dto.PeriodView](ctx, h.commands, calendarapp.CreatePeriodCommand{
		PropertyID: "prop-1", OwnerID: "owner-1",
		Period: calendarapp.PeriodInput{From: day(2025, 9, 1), To: day(2025, 9, 5), Status: "open"},
	})
	require.NoError(t, err)

	deleted, err := commands.Dispatch[calendarapp.DeletePeriodCommand, *calendarapp.DeletePeriodResult](ctx, h.commands, calendarapp.DeletePeriodCommand{
		PropertyID: "prop-1", PeriodID: created.ID, OwnerID: "owner-1",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.PeriodID)

	_, err = commands.Dispatch[calendarapp.DeletePeriodCommand, *calendarapp.DeletePeriodResult](ctx, h.commands, calendarapp.DeletePeriodCommand{
		PropertyID: "prop-1", PeriodID: created.ID, OwnerID: "owner-1",
	})
	require.Error(t, err)
	assert.True(t, fault.IsNotFound(err))
}

func TestDeleteReservedPeriodRefused(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	// A reserved period only ever comes from the reservation flow; plant
	// one directly to exercise the guard.
	dr, err := domainrange.New(day(2025, 10, 1), day(2025, 10, 5))
	require.NoError(t, err)
	period := &domainavailability.Period{
		ID:         "held",
		PropertyID: "prop-1",
		Range:      dr,
		Status:     domainavailability.StatusReserved,
	}
	require.NoError(t, h.periods.Insert(ctx, period))

	_, err = commands.Dispatch[calendarapp.DeletePeriodCommand, *calendarapp.DeletePeriodResult](ctx, h.commands, calendarapp.DeletePeriodCommand{
		PropertyID: "prop-1", PeriodID: "held", OwnerID: "owner-1",
	})
	require.Error(t, err)
	assert.True(t, fault.IsInvalid(err))
}

func TestBulkCreateAtomic(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := commands.Dispatch[calendarapp.BulkCreatePeriodsCommand, *calendarapp.BulkCreatePeriodsResult](ctx, h.commands, calendarapp.BulkCreatePeriodsCommand{
		PropertyID: "prop-1", OwnerID: "owner-1",
		Periods: []calendarapp.PeriodInput{
			{From: day(2025, 11, 1), To: day(2025, 11, 5), Status: "blocked"},
			{From: day(2025, 11, 3), To: day(2025, 11, 8), Status: "blocked"},
		},
	})
	require.Error(t, err)
	assert.True(t, fault.IsInvalid(err))

	view, err := queries.Ask[calendarapp.ListPeriodsQuery, dto.CalendarView](ctx, h.queries, calendarapp.ListPeriodsQuery{PropertyID: "prop-1"})
	require.NoError(t, err)
	assert.Empty(t, view.Periods, "a failed batch leaves no trace")

	result, err := commands.Dispatch[calendarapp.BulkCreatePeriodsCommand, *calendarapp.BulkCreatePeriodsResult](ctx, h.commands, calendarapp.BulkCreatePeriodsCommand{
		PropertyID: "prop-1", OwnerID: "owner-1",
		Periods: []calendarapp.PeriodInput{
			{From: day(2025, 11, 1), To: day(2025, 11, 5), Status: "blocked"},
			{From: day(2025, 11, 5), To: day(2025, 11, 8), Status: "blocked"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, result.Created, 2)
}

func TestOpenDates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := commands.Dispatch[calendarapp.CreatePeriodCommand, *dto.PeriodView](ctx, h.commands, calendarapp.CreatePeriodCommand{
		PropertyID: "prop-1", OwnerID: "owner-1",
		Period: calendarapp.PeriodInput{From: day(2025, 12, 1), To: day(2025, 12, 20), Status: "open"},
	})
	require.NoError(t, err)
	_, err = commands.Dispatch[calendarapp.CreatePeriodCommand, *dto.PeriodView](ctx, h.commands, calendarapp.CreatePeriodCommand{
		PropertyID: "prop-1", OwnerID: "owner-1",
		Period: calendarapp.PeriodInput{From: day(2026, 2, 1), To: day(2026, 2, 10), Status: "open"},
	})
	require.NoError(t, err)

	view, err := queries.Ask[calendarapp.OpenDatesQuery, dto.CalendarView](ctx, h.queries, calendarapp.OpenDatesQuery{
		PropertyID: "prop-1", From: day(2025, 12, 1), To: day(2026, 1, 1),
	})
	require.NoError(t, err)
	require.Len(t, view.Periods, 1)
	assert.Equal(t, day(2025, 12, 1), view.Periods[0].From)
}
