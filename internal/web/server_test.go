package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/recallhq/recall/internal/domain"
	"github.com/recallhq/recall/internal/notes"
	"github.com/recallhq/recall/internal/storage"
)

var testNow = time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)

func testServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	db, err := storage.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	catalog := notes.NewMemory(
		domain.NoteMeta{ID: "note-1", Title: "Go Channels", Category: "Development", Tags: []string{"go"}, Content: "Buffered vs unbuffered."},
		domain.NoteMeta{ID: "note-2", Title: "SQL Indexes", Category: "Backend", Content: "B-trees."},
		domain.NoteMeta{ID: "note-3", Title: "HTTP Caching", Category: "Backend", Content: "ETags."},
	)

	srv := NewServer(db, catalog)
	srv.now = func() time.Time { return testNow }
	return srv, db
}

func seedDue(t *testing.T, db *storage.DB, userID, noteID string, daysAgo int) {
	t.Helper()
	reviewed := testNow.AddDate(0, 0, -daysAgo-1)
	err := db.UpsertSchedule(&domain.ReviewSchedule{
		UserID:           userID,
		NoteID:           noteID,
		IntervalDays:     1,
		Streak:           1,
		DifficultyRating: 5,
		LastReviewedAt:   &reviewed,
		NextReviewAt:     testNow.AddDate(0, 0, -daysAgo),
	})
	if err != nil {
		t.Fatalf("seed schedule %s: %v", noteID, err)
	}
}

func doRequest(t *testing.T, srv *Server, method, path, userID, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set(userHeader, userID)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	w, resp := doRequest(t, srv, "GET", "/api/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
}

func TestMissingUserHeader(t *testing.T) {
	srv, _ := testServer(t)
	w, _ := doRequest(t, srv, "GET", "/api/review/overview", "", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without user header", w.Code)
	}
}

func TestStartSessionAllCaughtUp(t *testing.T) {
	srv, _ := testServer(t)

	w, resp := doRequest(t, srv, "POST", "/api/review/sessions", "user-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if resp["all_caught_up"] != true {
		t.Errorf("all_caught_up = %v, want true", resp["all_caught_up"])
	}
}

func TestReviewFlow(t *testing.T) {
	srv, db := testServer(t)
	seedDue(t, db, "user-1", "note-1", 1)
	seedDue(t, db, "user-1", "note-2", 0)

	// Start: two due notes, most overdue first.
	w, resp := doRequest(t, srv, "POST", "/api/review/sessions", "user-1", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("start status = %d; body: %s", w.Code, w.Body.String())
	}
	sessionID, _ := resp["session_id"].(string)
	if sessionID == "" {
		t.Fatal("missing session_id")
	}
	queue, _ := resp["queue"].([]any)
	if len(queue) != 2 {
		t.Fatalf("queue length = %d, want 2", len(queue))
	}
	first, _ := queue[0].(map[string]any)
	if first["note_id"] != "note-1" {
		t.Errorf("queue[0] = %v, want note-1 (most overdue)", first["note_id"])
	}

	base := "/api/review/sessions/" + sessionID

	// Presenting: content hidden.
	_, resp = doRequest(t, srv, "GET", base, "user-1", "")
	if resp["state"] != "presenting" {
		t.Errorf("state = %v, want presenting", resp["state"])
	}
	if _, ok := resp["content"]; ok {
		t.Error("content exposed before reveal")
	}

	// Grading before reveal is a conflict.
	w, _ = doRequest(t, srv, "POST", base+"/grade", "user-1", `{"grade":"easy"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("grade before reveal status = %d, want 409", w.Code)
	}

	// Reveal shows content.
	w, resp = doRequest(t, srv, "POST", base+"/reveal", "user-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("reveal status = %d", w.Code)
	}
	if resp["content"] != "Buffered vs unbuffered." {
		t.Errorf("content = %v", resp["content"])
	}

	// Grade the first note; session moves on.
	w, resp = doRequest(t, srv, "POST", base+"/grade", "user-1", `{"grade":"easy"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("grade status = %d; body: %s", w.Code, w.Body.String())
	}
	if resp["state"] != "presenting" {
		t.Errorf("state after first grade = %v, want presenting", resp["state"])
	}

	// Finish the session.
	doRequest(t, srv, "POST", base+"/reveal", "user-1", "")
	w, resp = doRequest(t, srv, "POST", base+"/grade", "user-1", `{"grade":"hard"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("final grade status = %d; body: %s", w.Code, w.Body.String())
	}
	if resp["state"] != "completed" {
		t.Errorf("state = %v, want completed", resp["state"])
	}
	results, _ := resp["results"].([]any)
	if len(results) != 2 {
		t.Errorf("results length = %d, want 2", len(results))
	}
	failures, _ := resp["failures"].([]any)
	if len(failures) != 0 {
		t.Errorf("failures = %v, want none", failures)
	}

	// Schedules were committed: easy doubled note-1, hard floored note-2.
	s1, _ := db.GetSchedule("user-1", "note-1")
	if s1.IntervalDays != 2 || s1.Streak != 2 {
		t.Errorf("note-1 = interval %d streak %d, want 2/2", s1.IntervalDays, s1.Streak)
	}
	s2, _ := db.GetSchedule("user-1", "note-2")
	if s2.IntervalDays != 1 || s2.Streak != 0 {
		t.Errorf("note-2 = interval %d streak %d, want 1/0", s2.IntervalDays, s2.Streak)
	}
	if want := testNow.AddDate(0, 0, 2); !s1.NextReviewAt.Equal(want) {
		t.Errorf("note-1 next review = %v, want %v", s1.NextReviewAt, want)
	}

	// Session is gone after completion.
	w, _ = doRequest(t, srv, "GET", base, "user-1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("completed session lookup status = %d, want 404", w.Code)
	}
}

func TestGradeValidation(t *testing.T) {
	srv, db := testServer(t)
	seedDue(t, db, "user-1", "note-1", 0)

	_, resp := doRequest(t, srv, "POST", "/api/review/sessions", "user-1", "")
	base := "/api/review/sessions/" + resp["session_id"].(string)
	doRequest(t, srv, "POST", base+"/reveal", "user-1", "")

	w, _ := doRequest(t, srv, "POST", base+"/grade", "user-1", `{"grade":"impossible"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid grade status = %d, want 400", w.Code)
	}

	w, _ = doRequest(t, srv, "POST", base+"/grade", "user-1", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", w.Code)
	}

	// The rejected grades must not have advanced the session.
	_, resp = doRequest(t, srv, "GET", base, "user-1", "")
	if resp["position"] != float64(0) || resp["state"] != "revealed" {
		t.Errorf("session moved on invalid grade: %v", resp)
	}
}

func TestAbandonCommitsNothing(t *testing.T) {
	srv, db := testServer(t)
	seedDue(t, db, "user-1", "note-1", 0)
	seedDue(t, db, "user-1", "note-2", 0)

	_, resp := doRequest(t, srv, "POST", "/api/review/sessions", "user-1", "")
	base := "/api/review/sessions/" + resp["session_id"].(string)

	// Grade one of two, then abandon.
	doRequest(t, srv, "POST", base+"/reveal", "user-1", "")
	doRequest(t, srv, "POST", base+"/grade", "user-1", `{"grade":"easy"}`)

	w, resp := doRequest(t, srv, "POST", base+"/abandon", "user-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("abandon status = %d", w.Code)
	}
	if resp["status"] != "abandoned" {
		t.Errorf("status = %v, want abandoned", resp["status"])
	}

	// Nothing persisted: note-1's schedule is untouched.
	s1, _ := db.GetSchedule("user-1", "note-1")
	if s1.IntervalDays != 1 || s1.Streak != 1 {
		t.Errorf("abandoned session mutated schedule: %+v", s1)
	}

	w, _ = doRequest(t, srv, "GET", base, "user-1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("abandoned session lookup status = %d, want 404", w.Code)
	}
}

func TestSessionOwnership(t *testing.T) {
	srv, db := testServer(t)
	seedDue(t, db, "user-1", "note-1", 0)

	_, resp := doRequest(t, srv, "POST", "/api/review/sessions", "user-1", "")
	base := "/api/review/sessions/" + resp["session_id"].(string)

	w, _ := doRequest(t, srv, "GET", base, "user-2", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("other user's lookup status = %d, want 404", w.Code)
	}
}

func TestStartReplacesActiveSession(t *testing.T) {
	srv, db := testServer(t)
	seedDue(t, db, "user-1", "note-1", 0)

	_, resp := doRequest(t, srv, "POST", "/api/review/sessions", "user-1", "")
	firstBase := "/api/review/sessions/" + resp["session_id"].(string)

	_, resp = doRequest(t, srv, "POST", "/api/review/sessions", "user-1", "")
	if resp["session_id"] == "" {
		t.Fatal("second session missing id")
	}

	// The first session was implicitly abandoned.
	w, _ := doRequest(t, srv, "GET", firstBase, "user-1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("replaced session lookup status = %d, want 404", w.Code)
	}
}

func TestOverview(t *testing.T) {
	srv, db := testServer(t)
	seedDue(t, db, "user-1", "note-1", 1)

	// One upcoming note.
	reviewed := testNow.AddDate(0, 0, -2)
	db.UpsertSchedule(&domain.ReviewSchedule{
		UserID:           "user-1",
		NoteID:           "note-3",
		IntervalDays:     7,
		Streak:           4,
		DifficultyRating: 3,
		LastReviewedAt:   &reviewed,
		NextReviewAt:     testNow.AddDate(0, 0, 5),
	})

	w, resp := doRequest(t, srv, "GET", "/api/review/overview", "user-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	due, _ := resp["due"].([]any)
	upcoming, _ := resp["upcoming"].([]any)
	if len(due) != 1 || len(upcoming) != 1 {
		t.Fatalf("due/upcoming = %d/%d, want 1/1", len(due), len(upcoming))
	}
	stats, _ := resp["stats"].(map[string]any)
	if stats["total_notes"] != float64(2) {
		t.Errorf("total_notes = %v, want 2", stats["total_notes"])
	}
	if stats["due_today"] != float64(1) {
		t.Errorf("due_today = %v, want 1", stats["due_today"])
	}

	entry, _ := due[0].(map[string]any)
	if entry["title"] != "Go Channels" {
		t.Errorf("due[0].title = %v, want joined metadata", entry["title"])
	}
}

func TestDeleteSchedule(t *testing.T) {
	srv, db := testServer(t)
	seedDue(t, db, "user-1", "note-1", 0)

	w, _ := doRequest(t, srv, "DELETE", "/api/review/schedules/note-1", "user-1", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", w.Code)
	}
	if s, _ := db.GetSchedule("user-1", "note-1"); s != nil {
		t.Error("schedule still present after delete")
	}

	// Absent schedule: still a 204.
	w, _ = doRequest(t, srv, "DELETE", "/api/review/schedules/note-1", "user-1", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("repeat delete status = %d, want 204", w.Code)
	}
}

func TestEnroll(t *testing.T) {
	srv, db := testServer(t)

	w, resp := doRequest(t, srv, "POST", "/api/review/schedules", "user-1", `{"note_id":"note-1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("enroll status = %d; body: %s", w.Code, w.Body.String())
	}
	if resp["interval_days"] != float64(1) || resp["streak"] != float64(0) {
		t.Errorf("enrolled schedule = %v, want interval 1 streak 0", resp)
	}

	s, _ := db.GetSchedule("user-1", "note-1")
	if s == nil {
		t.Fatal("schedule not created")
	}
	if s.Reviewed() {
		t.Error("fresh enrollment should have no review history")
	}
	if !s.NextReviewAt.Equal(testNow) {
		t.Errorf("NextReviewAt = %v, want now (immediately due)", s.NextReviewAt)
	}

	// Enrolling again neither errors nor resets existing state.
	seedDue(t, db, "user-1", "note-1", 0) // simulate progress: streak 1
	w, resp = doRequest(t, srv, "POST", "/api/review/schedules", "user-1", `{"note_id":"note-1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("re-enroll status = %d, want 200", w.Code)
	}
	if resp["streak"] != float64(1) {
		t.Errorf("re-enroll streak = %v, want existing 1", resp["streak"])
	}

	// Validation.
	w, _ = doRequest(t, srv, "POST", "/api/review/schedules", "user-1", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("enroll without note_id status = %d, want 400", w.Code)
	}
}

func TestNeverReviewedNoteIsDue(t *testing.T) {
	srv, db := testServer(t)

	// Schedule created for a brand-new note, never graded.
	if err := db.UpsertSchedule(&domain.ReviewSchedule{
		UserID:           "user-1",
		NoteID:           "note-1",
		IntervalDays:     1,
		DifficultyRating: 5,
		NextReviewAt:     testNow.AddDate(0, 1, 0),
	}); err != nil {
		t.Fatal(err)
	}

	w, resp := doRequest(t, srv, "POST", "/api/review/sessions", "user-1", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	queue, _ := resp["queue"].([]any)
	if len(queue) != 1 {
		t.Errorf("queue length = %d, want 1 (never-reviewed note is due)", len(queue))
	}
}
