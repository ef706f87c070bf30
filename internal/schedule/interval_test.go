package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trainerbook/internal/models"
)

func iv(start, end int) Interval {
	return Interval{Start: models.TimeOfDay(start), End: models.TimeOfDay(end)}
}

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"Disjoint", iv(540, 600), iv(660, 720), false},
		{"Touching", iv(540, 600), iv(600, 660), false},
		{"Partial", iv(540, 630), iv(600, 660), true},
		{"Contained", iv(540, 720), iv(600, 660), true},
		{"Identical", iv(540, 600), iv(540, 600), true},
		{"OneMinute", iv(540, 600), iv(599, 601), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// symmetry
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestMerge(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Nil(t, Merge(nil))
		assert.Nil(t, Merge([]Interval{}))
	})

	t.Run("DropsDegenerate", func(t *testing.T) {
		assert.Nil(t, Merge([]Interval{iv(600, 600), iv(700, 600)}))
	})

	t.Run("Unsorted", func(t *testing.T) {
		got := Merge([]Interval{iv(780, 840), iv(540, 600)})
		assert.Equal(t, []Interval{iv(540, 600), iv(780, 840)}, got)
	})

	t.Run("Overlapping", func(t *testing.T) {
		got := Merge([]Interval{iv(540, 660), iv(600, 720)})
		assert.Equal(t, []Interval{iv(540, 720)}, got)
	})

	t.Run("Adjacent", func(t *testing.T) {
		got := Merge([]Interval{iv(540, 600), iv(600, 660)})
		assert.Equal(t, []Interval{iv(540, 660)}, got)
	})

	t.Run("ContainedSwallowed", func(t *testing.T) {
		got := Merge([]Interval{iv(540, 900), iv(600, 660), iv(700, 710)})
		assert.Equal(t, []Interval{iv(540, 900)}, got)
	})

	t.Run("ResultDisjointAndSorted", func(t *testing.T) {
		got := Merge([]Interval{iv(840, 900), iv(540, 620), iv(600, 660), iv(1000, 1100), iv(850, 860)})
		for i := 1; i < len(got); i++ {
			assert.True(t, got[i-1].End < got[i].Start, "intervals must be disjoint and sorted")
		}
	})
}

func TestSubtract(t *testing.T) {
	base := []Interval{iv(540, 1020)} // 09:00-17:00

	t.Run("NoBlocks", func(t *testing.T) {
		assert.Equal(t, base, Subtract(base, nil))
	})

	t.Run("SplitsInTwo", func(t *testing.T) {
		got := Subtract(base, []Interval{iv(720, 780)}) // lunch 12:00-13:00
		assert.Equal(t, []Interval{iv(540, 720), iv(780, 1020)}, got)
	})

	t.Run("TrimsLeftEdge", func(t *testing.T) {
		got := Subtract(base, []Interval{iv(480, 600)})
		assert.Equal(t, []Interval{iv(600, 1020)}, got)
	})

	t.Run("TrimsRightEdge", func(t *testing.T) {
		got := Subtract(base, []Interval{iv(960, 1080)})
		assert.Equal(t, []Interval{iv(540, 960)}, got)
	})

	t.Run("RemovesEntirely", func(t *testing.T) {
		got := Subtract(base, []Interval{iv(480, 1080)})
		assert.Empty(t, got)
	})

	t.Run("TouchingBlockIsNoop", func(t *testing.T) {
		got := Subtract(base, []Interval{iv(1020, 1080)})
		assert.Equal(t, base, got)
	})

	t.Run("MultipleBlocks", func(t *testing.T) {
		got := Subtract(base, []Interval{iv(600, 660), iv(720, 780)})
		assert.Equal(t, []Interval{iv(540, 600), iv(660, 720), iv(780, 1020)}, got)
	})

	t.Run("BlockAcrossTwoWindows", func(t *testing.T) {
		split := []Interval{iv(540, 720), iv(780, 1020)}
		got := Subtract(split, []Interval{iv(700, 800)})
		assert.Equal(t, []Interval{iv(540, 700), iv(800, 1020)}, got)
	})
}
