// Package session builds review queues from stored schedules and drives the
// reveal/grade flow over them. A session is an in-memory snapshot: nothing
// touches the store until the final note is graded, and an abandoned session
// commits nothing.
package session

import (
	"errors"

	"github.com/recallhq/recall/internal/domain"
)

var (
	ErrSessionCompleted    = errors.New("session already completed")
	ErrSessionNotCompleted = errors.New("session not yet completed")
	ErrAlreadyRevealed     = errors.New("answer already revealed")
	ErrNotRevealed         = errors.New("reveal the note before grading")
)

// Store is the schedule persistence the session layer depends on.
// Implemented by storage.DB.
type Store interface {
	GetSchedule(userID, noteID string) (*domain.ReviewSchedule, error)
	UpsertSchedule(s *domain.ReviewSchedule) error
	ListSchedulesForUser(userID string) ([]domain.ReviewSchedule, error)
}

// Catalog supplies display metadata for notes. Implemented by notes.Memory
// and notes.Dir.
type Catalog interface {
	Get(noteID string) (domain.NoteMeta, bool)
}

// State is the position of a session in the reveal/grade cycle.
type State int

const (
	// Presenting: the current note's title is shown, content hidden.
	Presenting State = iota
	// Revealed: content shown, awaiting a grade.
	Revealed
	// Completed: every queue entry has received exactly one grade.
	Completed
)

func (s State) String() string {
	switch s {
	case Presenting:
		return "presenting"
	case Revealed:
		return "revealed"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// Entry is one queue item: a schedule snapshot joined with its note's
// display metadata.
type Entry struct {
	Schedule domain.ReviewSchedule
	Note     domain.NoteMeta
}

type gradedNote struct {
	noteID string
	grade  domain.Grade
}

// Session is a fixed queue of due notes being reviewed one at a time.
// It is owned by a single user and a single interaction chain; it is not
// safe for concurrent use.
type Session struct {
	ID     string
	UserID string
	Queue  []Entry

	pos      int
	revealed bool
	grades   []gradedNote
}

// State reports where the session is in its lifecycle.
func (s *Session) State() State {
	if s.pos >= len(s.Queue) {
		return Completed
	}
	if s.revealed {
		return Revealed
	}
	return Presenting
}

// Position returns the 0-based index of the current note.
func (s *Session) Position() int {
	return s.pos
}

// Current returns the entry being reviewed, or false once the session is
// completed.
func (s *Session) Current() (Entry, bool) {
	if s.pos >= len(s.Queue) {
		return Entry{}, false
	}
	return s.Queue[s.pos], true
}

// Reveal shows the current note's content. Only valid while presenting.
func (s *Session) Reveal() error {
	switch s.State() {
	case Completed:
		return ErrSessionCompleted
	case Revealed:
		return ErrAlreadyRevealed
	}
	s.revealed = true
	return nil
}

// Grade records the user's recall grade for the current note and advances
// the queue. The grade is validated before any state changes; grading is
// only valid after Reveal, so no entry can be skipped or graded twice.
func (s *Session) Grade(grade domain.Grade) error {
	if !grade.IsValid() {
		return domain.ErrInvalidGrade
	}
	switch s.State() {
	case Completed:
		return ErrSessionCompleted
	case Presenting:
		return ErrNotRevealed
	}

	s.grades = append(s.grades, gradedNote{noteID: s.Queue[s.pos].Schedule.NoteID, grade: grade})
	s.pos++
	s.revealed = false
	return nil
}

// GradeCounts tallies collected grades per bucket, for the session summary.
func (s *Session) GradeCounts() (easy, medium, hard int) {
	for _, g := range s.grades {
		switch g.grade {
		case domain.GradeEasy:
			easy++
		case domain.GradeMedium:
			medium++
		case domain.GradeHard:
			hard++
		}
	}
	return easy, medium, hard
}
