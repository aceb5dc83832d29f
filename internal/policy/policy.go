package policy

import (
	"time"

	"github.com/recallhq/recall/internal/domain"
)

// Interval bounds. Growth and decay are clamped so spacing can neither run
// away past a month nor collapse below daily review.
const (
	MinIntervalDays = 1
	MaxIntervalDays = 30
)

// Next computes the next interval and streak for a schedule given a recall
// grade. It is pure: no clock, no I/O, no mutation of its inputs.
//
//   - easy:   interval doubles, capped at MaxIntervalDays; streak increments.
//   - medium: interval unchanged; streak increments.
//   - hard:   interval halves (floor division), not below MinIntervalDays;
//     streak resets to 0.
//
// Callers pass interval=1, streak=0 for a note with no prior schedule.
// Grades outside easy/medium/hard must be rejected before calling Next.
func Next(intervalDays, streak int, grade domain.Grade) (nextInterval, nextStreak int) {
	intervalDays = clamp(intervalDays)

	switch grade {
	case domain.GradeEasy:
		return clamp(intervalDays * 2), streak + 1
	case domain.GradeHard:
		return clamp(intervalDays / 2), 0
	default: // medium
		return intervalDays, streak + 1
	}
}

// NextDue returns the next review instant: now plus the interval in days.
func NextDue(now time.Time, intervalDays int) time.Time {
	return now.AddDate(0, 0, clamp(intervalDays))
}

// DifficultyRating buckets an interval into the 1-5 scale shown in the UI
// next to each note. Longer spacing reads as easier material. The rating is
// cosmetic; nothing feeds it back into Next.
func DifficultyRating(intervalDays int) int {
	switch {
	case intervalDays >= 21:
		return 1
	case intervalDays >= 14:
		return 2
	case intervalDays >= 7:
		return 3
	case intervalDays >= 3:
		return 4
	default:
		return 5
	}
}

func clamp(days int) int {
	if days < MinIntervalDays {
		return MinIntervalDays
	}
	if days > MaxIntervalDays {
		return MaxIntervalDays
	}
	return days
}
