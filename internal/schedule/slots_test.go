package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trainerbook/internal/models"
)

func booking(status string, start, end models.TimeOfDay) models.Booking {
	return models.Booking{
		TrainerID:   1,
		ClientID:    2,
		Date:        monday,
		StartMinute: start,
		EndMinute:   end,
		Status:      status,
	}
}

func starts(slots []Slot) []models.TimeOfDay {
	out := make([]models.TimeOfDay, len(slots))
	for i, s := range slots {
		out[i] = s.Start
	}
	return out
}

func TestGenerateSlots(t *testing.T) {
	t.Run("NegativeDuration", func(t *testing.T) {
		_, err := GenerateSlots([]Interval{iv(540, 780)}, -5, nil, 15)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})

	t.Run("ZeroDuration", func(t *testing.T) {
		_, err := GenerateSlots([]Interval{iv(540, 780)}, 0, nil, 15)
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})

	t.Run("BadGranularity", func(t *testing.T) {
		_, err := GenerateSlots([]Interval{iv(540, 780)}, 60, nil, 0)
		assert.ErrorIs(t, err, ErrInvalidGranularity)
	})

	t.Run("EmptyAvailability", func(t *testing.T) {
		slots, err := GenerateSlots(nil, 60, nil, 15)
		assert.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("DurationLongerThanWindow", func(t *testing.T) {
		slots, err := GenerateSlots([]Interval{iv(540, 600)}, 90, nil, 15)
		assert.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("ExactFit", func(t *testing.T) {
		slots, err := GenerateSlots([]Interval{iv(540, 600)}, 60, nil, 15)
		assert.NoError(t, err)
		assert.Equal(t, []Slot{{Start: 540, End: 600, State: models.SlotStateOpen}}, slots)
	})

	t.Run("WalkAtGranularity", func(t *testing.T) {
		slots, err := GenerateSlots([]Interval{iv(540, 660)}, 60, nil, 15)
		assert.NoError(t, err)
		// 09:00..10:00 start candidates at 15-minute steps
		assert.Equal(t, []models.TimeOfDay{540, 555, 570, 585, 600}, starts(slots))
	})

	t.Run("NoSpanningAcrossWindows", func(t *testing.T) {
		// Union could fit 90 minutes, but no single window can.
		slots, err := GenerateSlots([]Interval{iv(540, 600), iv(615, 690)}, 90, nil, 15)
		assert.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("ConfirmedBookingExcludesOverlaps", func(t *testing.T) {
		// Trainer open 09:00-13:00, confirmed 10:00-11:00, duration 90.
		bookings := []models.Booking{booking(models.StatusConfirmed, 600, 660)}
		slots, err := GenerateSlots([]Interval{iv(540, 780)}, 90, bookings, 15)
		assert.NoError(t, err)

		got := starts(slots)
		assert.NotContains(t, got, models.TimeOfDay(540)) // 09:00 ends 10:30, overlaps
		assert.NotContains(t, got, models.TimeOfDay(555)) // 09:15 ends 10:45, overlaps
		assert.NotContains(t, got, models.TimeOfDay(600)) // inside confirmed
		assert.Contains(t, got, models.TimeOfDay(660))    // 11:00 ends 12:30
	})

	t.Run("PendingBookingFlagsRequested", func(t *testing.T) {
		bookings := []models.Booking{booking(models.StatusPending, 600, 660)}
		slots, err := GenerateSlots([]Interval{iv(540, 780)}, 60, bookings, 30)
		assert.NoError(t, err)

		byStart := make(map[models.TimeOfDay]string)
		for _, s := range slots {
			byStart[s.Start] = s.State
		}
		assert.Equal(t, models.SlotStateRequested, byStart[570]) // 09:30 ends 10:30
		assert.Equal(t, models.SlotStateRequested, byStart[600])
		assert.Equal(t, models.SlotStateOpen, byStart[540]) // touches 10:00 start, no overlap
		assert.Equal(t, models.SlotStateOpen, byStart[660])
	})

	t.Run("CancelledAndCompletedIgnored", func(t *testing.T) {
		bookings := []models.Booking{
			booking(models.StatusCancelled, 540, 780),
			booking(models.StatusCompleted, 540, 780),
		}
		slots, err := GenerateSlots([]Interval{iv(540, 660)}, 60, bookings, 30)
		assert.NoError(t, err)
		for _, s := range slots {
			assert.Equal(t, models.SlotStateOpen, s.State)
		}
		assert.NotEmpty(t, slots)
	})

	t.Run("AscendingOrder", func(t *testing.T) {
		slots, err := GenerateSlots([]Interval{iv(780, 840), iv(540, 660)}, 30, nil, 15)
		assert.NoError(t, err)
		for i := 1; i < len(slots); i++ {
			assert.True(t, slots[i-1].Start < slots[i].Start)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		avail := []Interval{iv(540, 780)}
		bookings := []models.Booking{booking(models.StatusPending, 600, 660)}
		first, err := GenerateSlots(avail, 45, bookings, 15)
		assert.NoError(t, err)
		second, err := GenerateSlots(avail, 45, bookings, 15)
		assert.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

// The worked example from the product docs: trainer available 09:00-13:00,
// confirmed session 10:00-11:00, client asks for a 90-minute slot.
func TestGenerateSlots_NinetyMinuteExample(t *testing.T) {
	avail := []Interval{iv(540, 780)}
	bookings := []models.Booking{booking(models.StatusConfirmed, 600, 660)}

	slots, err := GenerateSlots(avail, 90, bookings, 15)
	assert.NoError(t, err)

	got := starts(slots)
	// 09:00 ends 10:30 which overlaps 10:00-11:00, so it is excluded too;
	// the first viable start is 11:00 (ends 12:30), then 11:15, 11:30.
	assert.Equal(t, []models.TimeOfDay{660, 675, 690}, got)
}
