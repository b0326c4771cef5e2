package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"coursesync/internal/config"
	appLog "coursesync/internal/log"
	"coursesync/internal/syncer"
	"coursesync/internal/timetable"
)

// Server exposes the daemon's health, the outcome of recent runs and a
// schedule preview.
type Server struct {
	cfg     *config.Config
	history *syncer.History
	mux     *http.ServeMux
	now     func() time.Time
}

// NewServer constructs a new Server. history may be nil when nothing has
// run yet.
func NewServer(cfg *config.Config, history *syncer.History) *Server {
	if history == nil {
		history = syncer.NewHistory()
	}
	s := &Server{
		cfg:     cfg,
		history: history,
		mux:     http.NewServeMux(),
		now:     time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth instead of locking everyone out.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="coursesync", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, cfg *config.Config, history *syncer.History) error {
	s := NewServer(cfg, history)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/preview", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// reportDTO is a JSON-friendly view of a syncer.Report.
type reportDTO struct {
	Workflow  string    `json:"workflow"`
	RunID     string    `json:"run_id"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	OK        bool      `json:"ok"`
	Aborted   bool      `json:"aborted"`
	Succeeded int       `json:"succeeded"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Failures  []string  `json:"failures,omitempty"`
	Error     string    `json:"error,omitempty"`
}

type statusResponse struct {
	Now      time.Time   `json:"now"`
	Semester string      `json:"semester,omitempty"`
	Reports  []reportDTO `json:"reports"`
}

func toDTO(r syncer.Report) reportDTO {
	d := reportDTO{
		Workflow:  r.Workflow,
		RunID:     r.RunID,
		Started:   r.Started,
		Finished:  r.Finished,
		OK:        r.OK(),
		Aborted:   r.Tally.Aborted,
		Succeeded: r.Tally.Succeeded,
		Skipped:   r.Tally.Skipped,
		Failed:    len(r.Tally.Failures),
	}
	for _, f := range r.Tally.Failures {
		d.Failures = append(d.Failures, f.String())
	}
	if r.Err != nil {
		d.Error = r.Err.Error()
	}
	return d
}

// handleStatus lists the latest report of every workflow that has run.
//
// GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	all := s.history.All()
	resp := statusResponse{
		Now:      s.now(),
		Semester: s.cfg.Semester.Name,
		Reports:  make([]reportDTO, 0, len(all)),
	}
	for _, rep := range all {
		resp.Reports = append(resp.Reports, toDTO(rep))
	}
	sort.Slice(resp.Reports, func(i, j int) bool { return resp.Reports[i].Workflow < resp.Reports[j].Workflow })
	writeJSON(w, http.StatusOK, resp)
}

type occurrenceDTO struct {
	Week  int       `json:"week"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type previewResponse struct {
	Token       string          `json:"token"`
	Kind        string          `json:"kind"`
	Weekday     string          `json:"weekday"`
	StartTime   string          `json:"start_time,omitempty"`
	EndTime     string          `json:"end_time,omitempty"`
	RangeStart  string          `json:"range_start"`
	RangeEnd    string          `json:"range_end"`
	TimeZone    string          `json:"timezone"`
	Occurrences []occurrenceDTO `json:"occurrences"`
}

// handlePreview expands a schedule cell without touching Notion.
//
// GET /api/preview?token=一/3/4/5&start=2025-09-01&end=2026-01-11
//   - token: the raw schedule cell (required)
//   - start, end: window dates; default to the configured semester
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	raw := q.Get("token")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	start := valueOr(q.Get("start"), s.cfg.Semester.Start)
	end := valueOr(q.Get("end"), s.cfg.Semester.End)

	loc, err := s.cfg.Location()
	if err != nil {
		appLog.Error("preview: bad timezone", err, "timezone", s.cfg.Timezone)
		writeError(w, http.StatusInternalServerError, "invalid timezone")
		return
	}
	window, err := timetable.ParseWindow("preview", start, end, loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token := timetable.ParseToken(raw)
	resp := previewResponse{
		Token:       raw,
		Weekday:     token.Label(),
		RangeStart:  start,
		RangeEnd:    end,
		TimeZone:    loc.String(),
		Occurrences: []occurrenceDTO{},
	}
	switch t := token.(type) {
	case timetable.Scheduled:
		resp.Kind = "scheduled"
		span := t.Range()
		resp.StartTime = span.Start.String()
		resp.EndTime = span.End.String()
	case timetable.Unscheduled:
		resp.Kind = "unscheduled"
	case timetable.Malformed:
		resp.Kind = "malformed"
	}

	for _, o := range timetable.Generate(nil, token, window) {
		resp.Occurrences = append(resp.Occurrences, occurrenceDTO{Week: o.Week, Start: o.Start, End: o.End})
	}
	writeJSON(w, http.StatusOK, resp)
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
