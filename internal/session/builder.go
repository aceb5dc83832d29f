package session

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/recallhq/recall/internal/domain"
)

// Builder assembles review sessions and overviews from a user's schedules.
type Builder struct {
	store   Store
	catalog Catalog
}

// NewBuilder creates a Builder over the given store and note catalog.
func NewBuilder(store Store, catalog Catalog) *Builder {
	return &Builder{store: store, catalog: catalog}
}

// Partition splits schedules into due and upcoming relative to now.
// Both sides of the comparison are truncated to day granularity, so a note
// due at any time today is due today. A never-reviewed note is always due.
// Due is ordered by next review then note ID (most overdue first, ties
// deterministic); upcoming is ordered by next review ascending.
func Partition(schedules []domain.ReviewSchedule, now time.Time) (due, upcoming []domain.ReviewSchedule) {
	today := startOfDay(now, now.Location())

	for _, s := range schedules {
		if !s.Reviewed() || !startOfDay(s.NextReviewAt, now.Location()).After(today) {
			due = append(due, s)
		} else {
			upcoming = append(upcoming, s)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextReviewAt.Equal(due[j].NextReviewAt) {
			return due[i].NextReviewAt.Before(due[j].NextReviewAt)
		}
		return due[i].NoteID < due[j].NoteID
	})
	sort.Slice(upcoming, func(i, j int) bool {
		if !upcoming[i].NextReviewAt.Equal(upcoming[j].NextReviewAt) {
			return upcoming[i].NextReviewAt.Before(upcoming[j].NextReviewAt)
		}
		return upcoming[i].NoteID < upcoming[j].NoteID
	})
	return due, upcoming
}

// Start snapshots the user's due notes into a new session. The queue is
// fixed at this point: later store changes do not affect the session.
// An empty queue is a valid session meaning "all caught up".
func (b *Builder) Start(userID string, now time.Time) (*Session, error) {
	schedules, err := b.store.ListSchedulesForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	due, _ := Partition(schedules, now)

	sess := &Session{
		ID:     uuid.NewString(),
		UserID: userID,
	}
	for _, s := range due {
		meta, ok := b.catalog.Get(s.NoteID)
		if !ok {
			// The note vanished from the catalog but its schedule remains.
			// Leave it out of the queue rather than presenting a blank card.
			slog.Warn("skipping schedule with no catalog entry", "user_id", userID, "note_id", s.NoteID)
			continue
		}
		sess.Queue = append(sess.Queue, Entry{Schedule: s, Note: meta})
	}
	return sess, nil
}

// Overview is the scheduler's dashboard view: partitioned schedules with
// display metadata plus aggregate learning stats.
type Overview struct {
	Due      []Entry
	Upcoming []Entry
	Stats    Stats
}

// Stats summarizes a user's rotation, matching the dashboard tiles.
type Stats struct {
	TotalNotes      int
	DueToday        int
	UpcomingCount   int
	AvgStreak       int
	AvgIntervalDays int
}

// Overview builds the due/upcoming lists and stats for a user at now.
func (b *Builder) Overview(userID string, now time.Time) (*Overview, error) {
	schedules, err := b.store.ListSchedulesForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	due, upcoming := Partition(schedules, now)
	ov := &Overview{
		Due:      b.join(due),
		Upcoming: b.join(upcoming),
		Stats:    computeStats(schedules, len(due), len(upcoming)),
	}
	return ov, nil
}

func (b *Builder) join(schedules []domain.ReviewSchedule) []Entry {
	entries := make([]Entry, 0, len(schedules))
	for _, s := range schedules {
		meta, _ := b.catalog.Get(s.NoteID)
		entries = append(entries, Entry{Schedule: s, Note: meta})
	}
	return entries
}

func computeStats(schedules []domain.ReviewSchedule, due, upcoming int) Stats {
	st := Stats{
		TotalNotes:    len(schedules),
		DueToday:      due,
		UpcomingCount: upcoming,
	}
	if len(schedules) == 0 {
		return st
	}

	var streakSum, intervalSum int
	for _, s := range schedules {
		streakSum += s.Streak
		intervalSum += s.IntervalDays
	}
	st.AvgStreak = (streakSum + len(schedules)/2) / len(schedules)
	st.AvgIntervalDays = (intervalSum + len(schedules)/2) / len(schedules)
	return st
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
