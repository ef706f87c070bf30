package schedule

import (
	"sort"

	"trainerbook/internal/models"
)

// Interval is a half-open [Start, End) window within one day. Touching
// intervals do not overlap.
type Interval struct {
	Start models.TimeOfDay `json:"start"`
	End   models.TimeOfDay `json:"end"`
}

// Overlaps reports whether i and other share at least one minute.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Contains reports whether other lies entirely within i.
func (i Interval) Contains(other Interval) bool {
	return i.Start <= other.Start && other.End <= i.End
}

// Empty reports whether the interval holds no time.
func (i Interval) Empty() bool {
	return i.Start >= i.End
}

// Merge coalesces intervals into a minimal disjoint set, sorted by start.
// Adjacent intervals (end == next start) are joined. Empty intervals are
// dropped. The input slice is not modified.
func Merge(intervals []Interval) []Interval {
	work := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.Empty() {
			work = append(work, iv)
		}
	}
	if len(work) == 0 {
		return nil
	}

	sort.Slice(work, func(a, b int) bool {
		if work[a].Start != work[b].Start {
			return work[a].Start < work[b].Start
		}
		return work[a].End < work[b].End
	})

	merged := []Interval{work[0]}
	for _, iv := range work[1:] {
		last := &merged[len(merged)-1]
		if iv.Start <= last.End {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Subtract removes every block from the base set. A block may trim an
// interval, split it in two, or remove it entirely. Base must be disjoint
// and sorted (the output of Merge); the result keeps that property.
func Subtract(base, blocks []Interval) []Interval {
	result := base
	for _, block := range blocks {
		if block.Empty() {
			continue
		}
		var next []Interval
		for _, iv := range result {
			if !iv.Overlaps(block) {
				next = append(next, iv)
				continue
			}
			if left := (Interval{Start: iv.Start, End: block.Start}); !left.Empty() {
				next = append(next, left)
			}
			if right := (Interval{Start: block.End, End: iv.End}); !right.Empty() {
				next = append(next, right)
			}
		}
		result = next
	}
	return result
}
