package reservation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sejour/internal/domain/reservation"
	"sejour/internal/domain/shared/daterange"
	"sejour/internal/domain/shared/fault"
	"sejour/internal/domain/shared/money"
)

func stay(t *testing.T, startDay, endDay int) daterange.DateRange {
	t.Helper()
	r, err := daterange.New(
		time.Date(2024, 5, startDay, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, endDay, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return r
}

func newRequest(t *testing.T, instant bool) *reservation.Reservation {
	t.Helper()
	res, err := reservation.New(reservation.CreateParams{
		ID:          "res-1",
		PropertyID:  "prop-1",
		TenantID:    "tenant-1",
		Range:       stay(t, 10, 14),
		Guests:      2,
		NightlyRate: money.Must(10000, "EUR"),
		Instant:     instant,
	})
	require.NoError(t, err)
	return res
}

func TestNew(t *testing.T) {
	t.Run("request starts pending with total nights times rate", func(t *testing.T) {
		res := newRequest(t, false)
		assert.Equal(t, reservation.StatusPending, res.Status)
		assert.Equal(t, int64(40000), res.Total.Cents, "4 nights at 100.00")
		assert.Len(t, res.PendingEvents(), 1)
	})

	t.Run("instant booking starts confirmed", func(t *testing.T) {
		res := newRequest(t, true)
		assert.Equal(t, reservation.StatusConfirmed, res.Status)
		assert.Len(t, res.PendingEvents(), 2, "requested plus confirmed")
	})

	t.Run("validation", func(t *testing.T) {
		_, err := reservation.New(reservation.CreateParams{
			PropertyID:  "prop-1",
			TenantID:    "tenant-1",
			Range:       stay(t, 1, 3),
			Guests:      1,
			NightlyRate: money.Must(10000, "EUR"),
		})
		assert.True(t, fault.IsInvalid(err), "missing id")

		_, err = reservation.New(reservation.CreateParams{
			ID:          "res-1",
			PropertyID:  "prop-1",
			TenantID:    "tenant-1",
			Range:       stay(t, 1, 3),
			Guests:      0,
			NightlyRate: money.Must(10000, "EUR"),
		})
		assert.True(t, fault.IsInvalid(err), "zero guests")
	})
}

func TestLifecycleHappyPath(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	res := newRequest(t, false)

	require.NoError(t, res.Accept(now))
	assert.Equal(t, reservation.StatusAccepted, res.Status)

	require.NoError(t, res.ConfirmPayment(now))
	assert.Equal(t, reservation.StatusConfirmed, res.Status)

	require.NoError(t, res.Start(now))
	assert.Equal(t, reservation.StatusInProgress, res.Status)

	require.NoError(t, res.Complete(now))
	assert.Equal(t, reservation.StatusCompleted, res.Status)
	assert.True(t, res.Status.Terminal())
}

func TestTransitionGuards(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("accept requires pending", func(t *testing.T) {
		res := newRequest(t, true)
		assert.True(t, fault.IsInvalid(res.Accept(now)))
	})

	t.Run("payment requires accepted", func(t *testing.T) {
		res := newRequest(t, false)
		assert.True(t, fault.IsInvalid(res.ConfirmPayment(now)))
	})

	t.Run("start requires confirmed", func(t *testing.T) {
		res := newRequest(t, false)
		assert.True(t, fault.IsInvalid(res.Start(now)))
	})

	t.Run("complete requires in progress", func(t *testing.T) {
		res := newRequest(t, true)
		assert.True(t, fault.IsInvalid(res.Complete(now)))
	})

	t.Run("terminal states cannot be cancelled", func(t *testing.T) {
		res := newRequest(t, false)
		_, err := res.Cancel("changed plans", now)
		require.NoError(t, err)
		_, err = res.Cancel("again", now)
		assert.True(t, fault.IsInvalid(err))
	})
}

func TestCancel(t *testing.T) {
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	t.Run("pending cancellation holds no calendar", func(t *testing.T) {
		res := newRequest(t, false)
		wasConfirmed, err := res.Cancel("found another place", now)
		require.NoError(t, err)
		assert.False(t, wasConfirmed)
		assert.Equal(t, reservation.StatusCancelled, res.Status)
		assert.Equal(t, "found another place", res.CancellationReason)
		assert.Equal(t, now, res.CancelledAt)
	})

	t.Run("confirmed cancellation must release the calendar", func(t *testing.T) {
		res := newRequest(t, true)
		wasConfirmed, err := res.Cancel("", now)
		require.NoError(t, err)
		assert.True(t, wasConfirmed)
	})

	t.Run("accepted cancellation reports unconfirmed", func(t *testing.T) {
		res := newRequest(t, false)
		require.NoError(t, res.Accept(now))
		wasConfirmed, err := res.Cancel("", now)
		require.NoError(t, err)
		assert.False(t, wasConfirmed, "accepted holds the calendar via its period, not the row")
	})
}

func TestReject(t *testing.T) {
	now := time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)
	res := newRequest(t, false)
	require.NoError(t, res.Reject(now))
	assert.Equal(t, reservation.StatusCancelled, res.Status)
	assert.Equal(t, "Rejected by owner", res.CancellationReason)

	confirmed := newRequest(t, true)
	assert.True(t, fault.IsInvalid(confirmed.Reject(now)))
}

func TestNegotiate(t *testing.T) {
	now := time.Date(2024, 5, 4, 9, 0, 0, 0, time.UTC)

	t.Run("recomputes total from the agreed rate", func(t *testing.T) {
		res := newRequest(t, false)
		require.NoError(t, res.Negotiate(money.Must(8000, "EUR"), now))
		assert.Equal(t, int64(8000), res.EffectiveRate().Cents)
		assert.Equal(t, int64(32000), res.Total.Cents, "4 nights at 80.00")
	})

	t.Run("only while pending", func(t *testing.T) {
		res := newRequest(t, false)
		require.NoError(t, res.Accept(now))
		err := res.Negotiate(money.Must(8000, "EUR"), now)
		assert.True(t, fault.IsInvalid(err))
	})

	t.Run("negative rate rejected", func(t *testing.T) {
		res := newRequest(t, false)
		err := res.Negotiate(money.Money{Cents: -1, Currency: "EUR"}, now)
		assert.True(t, fault.IsInvalid(err))
	})
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, reservation.StatusConfirmed.BlocksBooking())
	assert.True(t, reservation.StatusInProgress.BlocksBooking())
	assert.False(t, reservation.StatusAccepted.BlocksBooking())
	assert.False(t, reservation.StatusPending.BlocksBooking())

	assert.True(t, reservation.StatusAccepted.HoldsCalendar())
	assert.False(t, reservation.StatusPending.HoldsCalendar())
	assert.True(t, reservation.StatusCancelled.Terminal())
	assert.True(t, reservation.StatusCompleted.Terminal())
	assert.False(t, reservation.StatusInProgress.Terminal())
}
