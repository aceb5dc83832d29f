package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/recallhq/recall/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB wraps the SQL database connection holding review schedules.
type DB struct {
	conn *sql.DB
}

// DefaultPath returns the default database location: ~/.recall/recall.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".recall", "recall.db"), nil
}

// Open opens (or creates) the database at the given path and ensures the
// schema is up to date.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return setup(conn)
}

// OpenMemory opens an in-memory database for testing.
func OpenMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return setup(conn)
}

func setup(conn *sql.DB) (*DB, error) {
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// GetSchedule retrieves the schedule for a (user, note) pair.
// Returns nil, nil when no schedule exists.
func (db *DB) GetSchedule(userID, noteID string) (*domain.ReviewSchedule, error) {
	row := db.conn.QueryRow(`
		SELECT user_id, note_id, interval_days, streak, difficulty_rating, last_reviewed_at, next_review_at
		FROM schedules WHERE user_id = ? AND note_id = ?
	`, userID, noteID)

	s, err := scanSchedule(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get schedule for note %s: %w", noteID, err)
	}
	return s, nil
}

// UpsertSchedule writes a schedule, replacing any existing row for the same
// (user, note) key. Each call is a single statement, so a record is never
// partially written.
func (db *DB) UpsertSchedule(s *domain.ReviewSchedule) error {
	var lastReviewed sql.NullTime
	if s.LastReviewedAt != nil {
		lastReviewed = sql.NullTime{Time: *s.LastReviewedAt, Valid: true}
	}

	_, err := db.conn.Exec(`
		INSERT INTO schedules (user_id, note_id, interval_days, streak, difficulty_rating, last_reviewed_at, next_review_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, note_id) DO UPDATE SET
			interval_days = excluded.interval_days,
			streak = excluded.streak,
			difficulty_rating = excluded.difficulty_rating,
			last_reviewed_at = excluded.last_reviewed_at,
			next_review_at = excluded.next_review_at
	`,
		s.UserID,
		s.NoteID,
		s.IntervalDays,
		s.Streak,
		s.DifficultyRating,
		lastReviewed,
		s.NextReviewAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert schedule for note %s: %w", s.NoteID, err)
	}
	return nil
}

// ListSchedulesForUser returns all schedules for a user, unordered.
// Ordering is the session builder's job.
func (db *DB) ListSchedulesForUser(userID string) ([]domain.ReviewSchedule, error) {
	rows, err := db.conn.Query(`
		SELECT user_id, note_id, interval_days, streak, difficulty_rating, last_reviewed_at, next_review_at
		FROM schedules WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules for user %s: %w", userID, err)
	}
	defer rows.Close()

	var schedules []domain.ReviewSchedule
	for rows.Next() {
		s, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}
		schedules = append(schedules, *s)
	}
	return schedules, rows.Err()
}

// DeleteSchedule removes the schedule for a (user, note) pair.
// Deleting an absent schedule is a no-op, not an error.
func (db *DB) DeleteSchedule(userID, noteID string) error {
	_, err := db.conn.Exec(`
		DELETE FROM schedules WHERE user_id = ? AND note_id = ?
	`, userID, noteID)
	if err != nil {
		return fmt.Errorf("failed to delete schedule for note %s: %w", noteID, err)
	}
	return nil
}

// CountSchedules returns the number of notes a user has in rotation.
func (db *DB) CountSchedules(userID string) (int, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM schedules WHERE user_id = ?
	`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count schedules for user %s: %w", userID, err)
	}
	return n, nil
}

func scanSchedule(scan func(...any) error) (*domain.ReviewSchedule, error) {
	var s domain.ReviewSchedule
	var lastReviewed sql.NullTime

	err := scan(
		&s.UserID,
		&s.NoteID,
		&s.IntervalDays,
		&s.Streak,
		&s.DifficultyRating,
		&lastReviewed,
		&s.NextReviewAt,
	)
	if err != nil {
		return nil, err
	}
	if lastReviewed.Valid {
		t := lastReviewed.Time
		s.LastReviewedAt = &t
	}
	return &s, nil
}
