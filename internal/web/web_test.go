package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"coursesync/internal/config"
	"coursesync/internal/pace"
	"coursesync/internal/syncer"
)

func testServer(t *testing.T, auth *config.BasicAuthConfig) (*Server, *syncer.History) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Semester = config.SemesterConfig{Name: "114上", Start: "2025-09-01", End: "2025-09-29"}
	cfg.BasicAuth = auth
	h := syncer.NewHistory()
	return NewServer(cfg, h), h
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t, nil)
	rec := get(t, s.Handler(), "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestStatusListsReports(t *testing.T) {
	s, h := testServer(t, nil)
	h.Record(syncer.Report{
		Workflow: syncer.WorkflowReminders,
		RunID:    "run-2",
		Tally:    pace.Tally{Succeeded: 3, Skipped: 2},
	})
	h.Record(syncer.Report{
		Workflow: syncer.WorkflowCourses,
		RunID:    "run-1",
		Tally: pace.Tally{
			Succeeded: 9,
			Failures:  []pace.Failure{{Label: "演算法 第4週", Action: "create course page", Err: errors.New("rate_limited")}},
		},
	})

	rec := get(t, s.Handler(), "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Semester != "114上" || len(resp.Reports) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	courses := resp.Reports[0]
	if courses.Workflow != syncer.WorkflowCourses || !courses.OK || courses.Failed != 1 || courses.Succeeded != 9 {
		t.Fatalf("courses = %+v", courses)
	}
	if len(courses.Failures) != 1 || courses.Failures[0] != `create course page "演算法 第4週": rate_limited` {
		t.Fatalf("failures = %q", courses.Failures)
	}
	if resp.Reports[1].Skipped != 2 {
		t.Fatalf("reminders = %+v", resp.Reports[1])
	}
}

func TestPreview(t *testing.T) {
	s, _ := testServer(t, nil)
	rec := get(t, s.Handler(), "/api/preview?token="+url.QueryEscape("一/3/4/5"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
	}
	var resp previewResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Kind != "scheduled" || resp.Weekday != "週一" || resp.StartTime != "08:10" || resp.EndTime != "11:00" {
		t.Fatalf("resp = %+v", resp)
	}
	// Mondays from 2025-09-01 through 2025-09-29.
	if len(resp.Occurrences) != 5 {
		t.Fatalf("occurrences = %d", len(resp.Occurrences))
	}
	first := resp.Occurrences[0]
	loc, _ := time.LoadLocation("Asia/Taipei")
	if first.Week != 1 || !first.Start.Equal(time.Date(2025, 9, 1, 8, 10, 0, 0, loc)) {
		t.Fatalf("first = %+v", first)
	}
}

func TestPreviewDegradedAndInvalid(t *testing.T) {
	s, _ := testServer(t, nil)

	rec := get(t, s.Handler(), "/api/preview?token="+url.QueryEscape("X/abc")+"&start=2025-09-01&end=2025-09-01")
	var resp previewResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Kind != "malformed" || resp.Weekday != "X/abc" || len(resp.Occurrences) != 0 {
		t.Fatalf("resp = %+v", resp)
	}

	if rec := get(t, s.Handler(), "/api/preview"); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing token = %d", rec.Code)
	}
	if rec := get(t, s.Handler(), "/api/preview?token=1&start=2025-09-10&end=2025-09-01"); rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted window = %d", rec.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	s, _ := testServer(t, &config.BasicAuthConfig{Username: "admin", Password: "pw"})
	h := s.Handler()

	if rec := get(t, h, "/health"); rec.Code != http.StatusOK {
		t.Fatalf("health should stay open, got %d", rec.Code)
	}
	rec := get(t, h, "/api/status")
	if rec.Code != http.StatusUnauthorized || rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("unauthenticated status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("admin", "pw")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d", rec.Code)
	}

	open, _ := testServer(t, &config.BasicAuthConfig{Username: "admin"})
	if rec := get(t, open.Handler(), "/api/status"); rec.Code != http.StatusOK {
		t.Fatalf("incomplete credentials should disable auth, got %d", rec.Code)
	}
}
