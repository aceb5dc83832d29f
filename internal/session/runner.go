package session

import (
	"time"

	"github.com/recallhq/recall/internal/domain"
	"github.com/recallhq/recall/internal/policy"
)

// Result is one note's schedule after a committed session.
type Result struct {
	NoteID       string
	IntervalDays int
	Streak       int
	NextReviewAt time.Time
}

// Failure identifies a note whose updated schedule could not be persisted,
// so the caller can retry just that note.
type Failure struct {
	NoteID string
	Err    error
}

// CommitResult reports the outcome of a session commit: per-note results
// for each successful upsert and per-note failures for the rest.
type CommitResult struct {
	Results  []Result
	Failures []Failure
}

// Runner applies a completed session's grades to the schedule store.
type Runner struct {
	store Store
}

// NewRunner creates a Runner writing through the given store.
func NewRunner(store Store) *Runner {
	return &Runner{store: store}
}

// Commit applies the interval policy to every graded note and upserts the
// updated schedules. It is only valid once the session reached Completed;
// an abandoned session is simply discarded and never committed.
//
// A failed upsert does not stop the batch: already-committed notes stay
// committed and each failure is reported with its note ID. Each upsert is a
// single atomic write, so no individual record is ever torn.
func (r *Runner) Commit(sess *Session, now time.Time) (*CommitResult, error) {
	if sess.State() != Completed {
		return nil, ErrSessionNotCompleted
	}

	res := &CommitResult{}
	for _, g := range sess.grades {
		schedule, err := r.store.GetSchedule(sess.UserID, g.noteID)
		if err != nil {
			res.Failures = append(res.Failures, Failure{NoteID: g.noteID, Err: err})
			continue
		}
		if schedule == nil {
			// First review of this note: schedule created lazily with the
			// default interval and streak.
			schedule = &domain.ReviewSchedule{
				UserID:       sess.UserID,
				NoteID:       g.noteID,
				IntervalDays: policy.MinIntervalDays,
				Streak:       0,
			}
		}

		interval, streak := policy.Next(schedule.IntervalDays, schedule.Streak, g.grade)
		reviewedAt := now
		schedule.IntervalDays = interval
		schedule.Streak = streak
		schedule.DifficultyRating = policy.DifficultyRating(interval)
		schedule.LastReviewedAt = &reviewedAt
		schedule.NextReviewAt = policy.NextDue(now, interval)

		if err := r.store.UpsertSchedule(schedule); err != nil {
			res.Failures = append(res.Failures, Failure{NoteID: g.noteID, Err: err})
			continue
		}
		res.Results = append(res.Results, Result{
			NoteID:       g.noteID,
			IntervalDays: interval,
			Streak:       streak,
			NextReviewAt: schedule.NextReviewAt,
		})
	}
	return res, nil
}
