package domain

import "time"

// ReviewSchedule holds the spaced-repetition state for one (user, note)
// pair. Exactly one schedule exists per pair; it is created lazily the
// first time a note is scheduled or graded.
type ReviewSchedule struct {
	UserID string
	NoteID string

	// IntervalDays is the current spacing between reviews, always in [1, 30].
	IntervalDays int

	// Streak counts consecutive non-hard grades. Reset to 0 on hard.
	Streak int

	// DifficultyRating is a 1-5 display bucket derived from the interval.
	// It is never an input to the interval math.
	DifficultyRating int

	// LastReviewedAt is nil until the note has been graded at least once.
	LastReviewedAt *time.Time

	NextReviewAt time.Time
}

// Reviewed reports whether the note has ever been graded.
func (s *ReviewSchedule) Reviewed() bool {
	return s.LastReviewedAt != nil
}
