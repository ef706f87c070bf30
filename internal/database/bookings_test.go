package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainerbook/internal/models"
)

func TestCreateBookingWithLock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	day := date(2025, time.June, 2)

	t.Run("CreatesPending", func(t *testing.T) {
		b := pendingBooking(1, 10, day, 600, 660)
		require.NoError(t, db.CreateBookingWithLock(ctx, b))
		assert.NotZero(t, b.ID)
		assert.Equal(t, int64(1), b.Version)
	})

	t.Run("OverlappingPendingAllowed", func(t *testing.T) {
		// Multiple clients may request the same slot.
		b := pendingBooking(1, 11, day, 600, 660)
		assert.NoError(t, db.CreateBookingWithLock(ctx, b))
	})

	t.Run("OverlappingConfirmedRejected", func(t *testing.T) {
		confirmed := pendingBooking(1, 12, day, 900, 960)
		require.NoError(t, db.CreateBookingWithLock(ctx, confirmed))
		require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, confirmed.ID, confirmed.Version, models.StatusPending, models.StatusConfirmed))

		// overlap on the tail of the confirmed interval
		b := pendingBooking(1, 13, day, 930, 990)
		assert.ErrorIs(t, db.CreateBookingWithLock(ctx, b), ErrSlotTaken)

		// touching is not overlapping
		b2 := pendingBooking(1, 13, day, 960, 1020)
		assert.NoError(t, db.CreateBookingWithLock(ctx, b2))

		// other trainers are unaffected
		b3 := pendingBooking(2, 13, day, 930, 990)
		assert.NoError(t, db.CreateBookingWithLock(ctx, b3))
	})

	t.Run("RejectsInvalid", func(t *testing.T) {
		b := pendingBooking(1, 10, day, 660, 600)
		assert.ErrorIs(t, db.CreateBookingWithLock(ctx, b), models.ErrInvalidBooking)
	})
}

func TestConfirmBookingCascade(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	day := date(2025, time.June, 2)

	// Pending A 11:30-12:30, pending B 14:00-15:00, target C 12:00-13:00.
	a := pendingBooking(1, 10, day, 690, 750)
	b := pendingBooking(1, 11, day, 840, 900)
	c := pendingBooking(1, 12, day, 720, 780)
	for _, booking := range []*models.Booking{a, b, c} {
		require.NoError(t, db.CreateBookingWithLock(ctx, booking))
	}

	result, err := db.ConfirmBookingCascade(ctx, c.ID, c.Version)
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, result.Confirmed.Status)
	assert.Equal(t, c.ID, result.Confirmed.ID)
	require.Len(t, result.Cancelled, 1)
	assert.Equal(t, a.ID, result.Cancelled[0].ID)
	assert.Equal(t, models.StatusCancelled, result.Cancelled[0].Status)

	// B does not overlap and stays pending.
	gotB, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, gotB.Status)

	// Persisted state matches the returned snapshot.
	gotA, err := db.GetBooking(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, gotA.Status)
}

func TestConfirmBookingCascade_Errors(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	day := date(2025, time.June, 2)

	t.Run("NotFound", func(t *testing.T) {
		_, err := db.ConfirmBookingCascade(ctx, 9999, 0)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("NotPending", func(t *testing.T) {
		b := pendingBooking(1, 10, day, 540, 600)
		require.NoError(t, db.CreateBookingWithLock(ctx, b))
		_, err := db.ConfirmBookingCascade(ctx, b.ID, b.Version)
		require.NoError(t, err)

		// second confirmation must fail and change nothing
		_, err = db.ConfirmBookingCascade(ctx, b.ID, 0)
		assert.ErrorIs(t, err, ErrInvalidStatus)

		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, got.Status)
	})

	t.Run("StaleVersion", func(t *testing.T) {
		b := pendingBooking(1, 10, day, 1000, 1060)
		require.NoError(t, db.CreateBookingWithLock(ctx, b))
		_, err := db.ConfirmBookingCascade(ctx, b.ID, b.Version+5)
		assert.ErrorIs(t, err, ErrConcurrentModification)

		// target untouched after the failed attempt
		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Equal(t, b.Version, got.Version)
	})
}

func TestUpdateBookingStatusWithVersion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	day := date(2025, time.June, 2)

	b := pendingBooking(1, 10, day, 540, 600)
	require.NoError(t, db.CreateBookingWithLock(ctx, b))

	t.Run("WrongFromStatus", func(t *testing.T) {
		err := db.UpdateBookingStatusWithVersion(ctx, b.ID, b.Version, models.StatusConfirmed, models.StatusCompleted)
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("Transition", func(t *testing.T) {
		err := db.UpdateBookingStatusWithVersion(ctx, b.ID, b.Version, models.StatusPending, models.StatusCancelled)
		require.NoError(t, err)

		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
		assert.Equal(t, b.Version+1, got.Version)
	})

	t.Run("NoResurrection", func(t *testing.T) {
		// cancelled never goes back to pending
		err := db.UpdateBookingStatusWithVersion(ctx, b.ID, 0, models.StatusPending, models.StatusConfirmed)
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestCompletePastBookings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	past := date(2025, time.June, 2)
	future := date(2025, time.June, 20)

	pastConfirmed := pendingBooking(1, 10, past, 540, 600)
	futureConfirmed := pendingBooking(1, 11, future, 540, 600)
	pastPending := pendingBooking(1, 12, past, 660, 720)

	for _, b := range []*models.Booking{pastConfirmed, futureConfirmed, pastPending} {
		require.NoError(t, db.CreateBookingWithLock(ctx, b))
	}
	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, pastConfirmed.ID, 0, models.StatusPending, models.StatusConfirmed))
	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, futureConfirmed.ID, 0, models.StatusPending, models.StatusConfirmed))

	n, err := db.CompletePastBookings(ctx, date(2025, time.June, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, _ := db.GetBooking(ctx, pastConfirmed.ID)
	assert.Equal(t, models.StatusCompleted, got.Status)
	got, _ = db.GetBooking(ctx, futureConfirmed.ID)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	got, _ = db.GetBooking(ctx, pastPending.ID)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestListBookings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	day := date(2025, time.June, 2)
	otherDay := date(2025, time.June, 3)

	b1 := pendingBooking(1, 10, day, 600, 660)
	b2 := pendingBooking(1, 11, day, 540, 600)
	b3 := pendingBooking(1, 12, otherDay, 540, 600)
	for _, b := range []*models.Booking{b1, b2, b3} {
		require.NoError(t, db.CreateBookingWithLock(ctx, b))
	}
	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, b2.ID, 0, models.StatusPending, models.StatusConfirmed))

	t.Run("AllForDate", func(t *testing.T) {
		got, err := db.ListBookings(ctx, 1, day)
		require.NoError(t, err)
		require.Len(t, got, 2)
		// sorted by start minute
		assert.Equal(t, b2.ID, got[0].ID)
		assert.Equal(t, b1.ID, got[1].ID)
	})

	t.Run("StatusFilter", func(t *testing.T) {
		got, err := db.ListBookings(ctx, 1, day, models.StatusPending)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, b1.ID, got[0].ID)
	})

	t.Run("DateRange", func(t *testing.T) {
		got, err := db.ListBookingsByDateRange(ctx, 1, day, otherDay)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("ClientBookings", func(t *testing.T) {
		// GetClientBookings cuts off two weeks before now, so use a date
		// relative to the wall clock.
		upcoming := time.Now().AddDate(0, 0, 7).UTC().Truncate(24 * time.Hour)
		b4 := pendingBooking(1, 99, upcoming, 540, 600)
		require.NoError(t, db.CreateBookingWithLock(ctx, b4))

		got, err := db.GetClientBookings(ctx, 99)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, b4.ID, got[0].ID)
	})
}
