package storage

const schema = `
-- One row per (user, note): the full spaced-repetition state for that note.
-- The composite primary key is what makes upserts replace instead of append.
CREATE TABLE IF NOT EXISTS schedules (
    user_id           TEXT NOT NULL,
    note_id           TEXT NOT NULL,
    interval_days     INTEGER NOT NULL DEFAULT 1,
    streak            INTEGER NOT NULL DEFAULT 0,
    difficulty_rating INTEGER NOT NULL DEFAULT 5,
    last_reviewed_at  DATETIME,
    next_review_at    DATETIME NOT NULL,

    PRIMARY KEY (user_id, note_id)
);

CREATE INDEX IF NOT EXISTS idx_schedules_user_next
    ON schedules(user_id, next_review_at);
`
