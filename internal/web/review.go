package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/recallhq/recall/internal/domain"
	"github.com/recallhq/recall/internal/policy"
	"github.com/recallhq/recall/internal/session"
)

// queueItem is what the frontend needs to render a queue entry before the
// note's content is revealed.
type queueItem struct {
	NoteID       string `json:"note_id"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	Streak       int    `json:"streak"`
	IntervalDays int    `json:"interval_days"`
}

type scheduleItem struct {
	queueItem
	Tags             []string   `json:"tags,omitempty"`
	DifficultyRating int        `json:"difficulty_rating"`
	NextReviewAt     *time.Time `json:"next_review_at,omitempty"`
}

func toQueueItem(e session.Entry) queueItem {
	return queueItem{
		NoteID:       e.Schedule.NoteID,
		Title:        e.Note.Title,
		Category:     e.Note.Category,
		Streak:       e.Schedule.Streak,
		IntervalDays: e.Schedule.IntervalDays,
	}
}

func toScheduleItem(e session.Entry) scheduleItem {
	item := scheduleItem{
		queueItem:        toQueueItem(e),
		Tags:             e.Note.Tags,
		DifficultyRating: e.Schedule.DifficultyRating,
	}
	if e.Schedule.Reviewed() {
		t := e.Schedule.NextReviewAt
		item.NextReviewAt = &t
	}
	return item
}

// handleOverview returns the user's due and upcoming reviews plus stats.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	ov, err := s.builder.Overview(userID, s.now())
	if err != nil {
		slog.Error("building review overview", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build overview")
		return
	}

	due := make([]scheduleItem, 0, len(ov.Due))
	for _, e := range ov.Due {
		due = append(due, toScheduleItem(e))
	}
	upcoming := make([]scheduleItem, 0, len(ov.Upcoming))
	for _, e := range ov.Upcoming {
		upcoming = append(upcoming, toScheduleItem(e))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"due":      due,
		"upcoming": upcoming,
		"stats": map[string]int{
			"total_notes":       ov.Stats.TotalNotes,
			"due_today":         ov.Stats.DueToday,
			"upcoming_count":    ov.Stats.UpcomingCount,
			"avg_streak":        ov.Stats.AvgStreak,
			"avg_interval_days": ov.Stats.AvgIntervalDays,
		},
	})
}

// handleStartSession snapshots the user's due notes into a new session.
// An empty due set is a positive "all caught up" response, not an error.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	sess, err := s.builder.Start(userID, s.now())
	if err != nil {
		slog.Error("starting review session", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	if len(sess.Queue) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"all_caught_up": true,
			"queue":         []queueItem{},
		})
		return
	}

	s.register(sess)

	queue := make([]queueItem, 0, len(sess.Queue))
	for _, e := range sess.Queue {
		queue = append(queue, toQueueItem(e))
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":    sess.ID,
		"all_caught_up": false,
		"queue":         queue,
	})
}

// sessionView renders the session's current position. Content is included
// only once the current note has been revealed.
func (s *Server) sessionView(sess *session.Session) map[string]any {
	view := map[string]any{
		"session_id": sess.ID,
		"state":      sess.State().String(),
		"position":   sess.Position(),
		"total":      len(sess.Queue),
	}
	if cur, ok := sess.Current(); ok {
		view["current"] = toQueueItem(cur)
		if sess.State() == session.Revealed {
			view["content"] = cur.Note.Content
			view["tags"] = cur.Note.Tags
		}
	}
	return view
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	sess, ok := s.lookup(chi.URLParam(r, "sessionID"), userID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	sess, ok := s.lookup(chi.URLParam(r, "sessionID"), userID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if err := sess.Reveal(); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(sess))
}

type gradeRequest struct {
	Grade string `json:"grade" validate:"required,oneof=easy medium hard"`
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	sess, ok := s.lookup(chi.URLParam(r, "sessionID"), userID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req gradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "grade must be one of easy, medium, hard")
		return
	}

	if err := sess.Grade(domain.Grade(req.Grade)); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	if sess.State() != session.Completed {
		writeJSON(w, http.StatusOK, s.sessionView(sess))
		return
	}

	// Final grade: commit the whole session and release it.
	res, err := s.runner.Commit(sess, s.now())
	s.unregister(sess)
	if err != nil {
		slog.Error("committing review session", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to commit session")
		return
	}

	results := make([]map[string]any, 0, len(res.Results))
	for _, rr := range res.Results {
		results = append(results, map[string]any{
			"note_id":        rr.NoteID,
			"interval_days":  rr.IntervalDays,
			"streak":         rr.Streak,
			"next_review_at": rr.NextReviewAt,
		})
	}
	failures := make([]map[string]string, 0, len(res.Failures))
	for _, f := range res.Failures {
		slog.Warn("schedule update not saved", "session_id", sess.ID, "note_id", f.NoteID, "error", f.Err)
		failures = append(failures, map[string]string{
			"note_id": f.NoteID,
			"error":   f.Err.Error(),
		})
	}

	easy, medium, hard := sess.GradeCounts()
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"state":      session.Completed.String(),
		"results":    results,
		"failures":   failures,
		"summary":    map[string]int{"easy": easy, "medium": medium, "hard": hard},
	})
}

type enrollRequest struct {
	NoteID string `json:"note_id" validate:"required"`
}

// handleEnroll puts a note into the review rotation. The schedule starts at
// the minimum interval with no review history, which makes the note
// immediately due. Enrolling an already-tracked note returns the existing
// schedule untouched: there is never more than one schedule per note.
func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "note_id is required")
		return
	}

	existing, err := s.db.GetSchedule(userID, req.NoteID)
	if err != nil {
		slog.Error("checking schedule", "user_id", userID, "note_id", req.NoteID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enroll note")
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"note_id":       existing.NoteID,
			"interval_days": existing.IntervalDays,
			"streak":        existing.Streak,
		})
		return
	}

	sched := &domain.ReviewSchedule{
		UserID:           userID,
		NoteID:           req.NoteID,
		IntervalDays:     policy.MinIntervalDays,
		DifficultyRating: policy.DifficultyRating(policy.MinIntervalDays),
		NextReviewAt:     s.now(),
	}
	if err := s.db.UpsertSchedule(sched); err != nil {
		slog.Error("enrolling note", "user_id", userID, "note_id", req.NoteID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to enroll note")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"note_id":       sched.NoteID,
		"interval_days": sched.IntervalDays,
		"streak":        sched.Streak,
	})
}

// handleAbandon discards an in-flight session. Nothing was committed, so
// dropping it is the entire operation.
func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	sess, ok := s.lookup(chi.URLParam(r, "sessionID"), userID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	s.unregister(sess)
	writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}

// handleDeleteSchedule drops a note's schedule, e.g. after the note itself
// was deleted in the app. Absent schedules still return 204.
func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	if err := s.db.DeleteSchedule(userID, chi.URLParam(r, "noteID")); err != nil {
		slog.Error("deleting schedule", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
