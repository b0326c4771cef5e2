package pace

import (
	"context"
	"fmt"

	appLog "coursesync/internal/log"
)

// Intent is one queued remote mutation.
type Intent struct {
	// Label identifies the item in diagnostics (course name, page id).
	Label string
	// Action names what is attempted, e.g. "create course page".
	Action string
	// Do performs the call and returns the remote id it touched.
	Do func(ctx context.Context) (string, error)
}

// Failure records an intent that did not succeed.
type Failure struct {
	Label  string
	Action string
	Err    error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s %q: %v", f.Action, f.Label, f.Err)
}

// Tally is the outcome of a batch.
type Tally struct {
	Succeeded int
	Skipped   int
	Failures  []Failure
	// IDs holds the remote id of every successful intent, in order.
	IDs []string
	// Aborted is set when the context ended before every intent ran.
	Aborted bool
}

// Attempted is the number of intents that actually reached Do.
func (t Tally) Attempted() int { return t.Succeeded + len(t.Failures) }

// Executor runs intents one at a time through a Gate. A failing intent is
// recorded and the batch moves on; remote writes are never retried.
type Executor struct {
	gate *Gate
}

func NewExecutor(g *Gate) *Executor {
	if g == nil {
		g = NewGate(DefaultInterval, nil)
	}
	return &Executor{gate: g}
}

// Run executes intents in order. It stops early only when ctx is done, in
// which case the returned tally is marked Aborted.
func (e *Executor) Run(ctx context.Context, intents []Intent) Tally {
	var t Tally
	for i, in := range intents {
		if err := e.gate.Wait(ctx); err != nil {
			appLog.Error("batch interrupted", err, "done", i, "total", len(intents))
			t.Aborted = true
			return t
		}

		id, err := in.Do(ctx)
		if err != nil {
			t.Failures = append(t.Failures, Failure{Label: in.Label, Action: in.Action, Err: err})
			appLog.Error("batch item failed", err, "item", in.Label, "action", in.Action)
			continue
		}
		t.Succeeded++
		t.IDs = append(t.IDs, id)
		appLog.Debug("batch item done", "item", in.Label, "action", in.Action, "id", id)
	}
	return t
}
