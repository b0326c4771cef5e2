// Package syncer runs the workflows that push a timetable into Notion:
// course sync, reminder backfill, note generation and workspace setup.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"coursesync/internal/config"
	appLog "coursesync/internal/log"
	"coursesync/internal/notion"
	"coursesync/internal/pace"
	"coursesync/internal/scrape"
)

// Remote is the part of the Notion API the workflows need.
type Remote interface {
	QueryAll(ctx context.Context, databaseID string, filter *notion.Filter) ([]notion.Page, error)
	CreatePage(ctx context.Context, databaseID string, props notion.Properties) (string, error)
	UpdatePage(ctx context.Context, pageID string, props notion.Properties) (string, error)
}

// Workspace is a Remote that can also provision databases.
type Workspace interface {
	Remote
	Me(ctx context.Context) (notion.User, error)
	CreateDatabase(ctx context.Context, parentPageID, title, emoji string, schema notion.Schema) (notion.Database, error)
	RenamePage(ctx context.Context, pageID, title string) error
	AppendBlocks(ctx context.Context, pageID string, blocks []notion.Block) error
}

// Workflow names, also used as keys in History.
const (
	WorkflowCourses   = "courses"
	WorkflowReminders = "reminders"
	WorkflowNotes     = "notes"
	WorkflowSetup     = "setup"
)

// Report is the outcome of one workflow run.
type Report struct {
	Workflow string
	RunID    string
	Started  time.Time
	Finished time.Time
	Tally    pace.Tally
	// Err is set when the run stopped before producing output.
	Err error
}

// OK reports whether the run completed. Individual item failures in the
// tally do not make a run fail.
func (r Report) OK() bool { return r.Err == nil && !r.Tally.Aborted }

// Syncer holds everything a workflow needs. Build one with New.
type Syncer struct {
	cfg     *config.Config
	remote  Remote
	gate    *pace.Gate
	source  scrape.PageSource
	now     func() time.Time
	history *History
}

// Option customizes a Syncer.
type Option func(*Syncer)

// WithSource replaces the page source derived from the config.
func WithSource(src scrape.PageSource) Option {
	return func(s *Syncer) { s.source = src }
}

// WithGate replaces the write pacer.
func WithGate(g *pace.Gate) Option {
	return func(s *Syncer) { s.gate = g }
}

// WithNow replaces the wall clock used for reminder windows.
func WithNow(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

// WithHistory records every finished report in h.
func WithHistory(h *History) Option {
	return func(s *Syncer) { s.history = h }
}

func New(cfg *config.Config, remote Remote, opts ...Option) *Syncer {
	s := &Syncer{
		cfg:    cfg,
		remote: remote,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.gate == nil {
		s.gate = pace.NewGate(cfg.Notion.PaceInterval, nil)
	}
	if s.source == nil {
		s.source = SourceFromConfig(cfg.Source)
	}
	return s
}

// SourceFromConfig reads a saved page when one is configured and logs in
// with a browser otherwise.
func SourceFromConfig(sc config.SourceConfig) scrape.PageSource {
	if sc.HTMLFile != "" {
		return scrape.FileSource{Path: sc.HTMLFile}
	}
	return scrape.NewBrowserSource(scrape.BrowserOptions{
		LoginURL: sc.LoginURL,
		Username: sc.Username,
		Password: sc.Password,
		Headless: sc.Headless,
		Timeout:  sc.Timeout,
	})
}

func (s *Syncer) executor() *pace.Executor { return pace.NewExecutor(s.gate) }

func (s *Syncer) begin(workflow string) Report {
	r := Report{Workflow: workflow, RunID: uuid.NewString(), Started: s.now()}
	appLog.Info("run started", "workflow", workflow, "run", r.RunID)
	return r
}

func (s *Syncer) finish(r Report, err error) (Report, error) {
	r.Finished = s.now()
	r.Err = err
	switch {
	case err != nil:
		appLog.Error("run failed", err, "workflow", r.Workflow, "run", r.RunID)
	case r.Tally.Aborted:
		appLog.Warn("run aborted", "workflow", r.Workflow, "run", r.RunID,
			"succeeded", r.Tally.Succeeded, "failed", len(r.Tally.Failures))
	default:
		appLog.Info("run finished", "workflow", r.Workflow, "run", r.RunID,
			"succeeded", r.Tally.Succeeded, "skipped", r.Tally.Skipped, "failed", len(r.Tally.Failures))
	}
	if s.history != nil {
		s.history.Record(r)
	}
	return r, err
}

func (s *Syncer) location() (*time.Location, error) {
	loc, err := s.cfg.Location()
	if err != nil {
		return nil, errors.Join(errors.New("syncer: invalid timezone"), err)
	}
	return loc, nil
}

// History keeps the latest report of every workflow. Safe for concurrent
// use by the daemon scheduler and the status server.
type History struct {
	mu   sync.RWMutex
	last map[string]Report
}

func NewHistory() *History {
	return &History{last: make(map[string]Report)}
}

func (h *History) Record(r Report) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last[r.Workflow] = r
}

// Last returns the latest report of workflow.
func (h *History) Last(workflow string) (Report, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.last[workflow]
	return r, ok
}

// All returns a copy of every recorded report keyed by workflow.
func (h *History) All() map[string]Report {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]Report, len(h.last))
	for k, v := range h.last {
		out[k] = v
	}
	return out
}
