package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/laev/existence/pkg/existence"
)

// OriginConfig marks cases that come from literal values in the config file.
const OriginConfig = "config"

// Case is one named phenomenon to evaluate.
type Case struct {
	ID          string
	Probability float64
	Possibility float64
	Threshold   float64

	// Origin is OriginConfig or the ID of the source the values were read from.
	Origin string
}

// Result is the outcome of evaluating one Case.
type Result struct {
	ID          string
	Origin      string
	Input       existence.Input
	Output      existence.Output
	EvaluatedAt time.Time

	// Err is non-empty when the inputs were rejected; Output is zero then.
	Err string

	// Changed is true when this is the first verdict for ID or it differs
	// from the previous successful one.
	Changed bool

	// Evaluations is the number of successful evaluations of ID so far,
	// including this one. It restarts after Forget.
	Evaluations int
}

// Engine evaluates cases and tracks per-phenomenon verdict history.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	mu    sync.Mutex
	last  map[string]bool
	evals map[string]int
}

// New returns a ready-to-use Engine.
func New() *Engine {
	return &Engine{
		last:  make(map[string]bool),
		evals: make(map[string]int),
	}
}

// Process evaluates c and returns the result.
//
// now is passed explicitly so callers (and tests) control the clock. Use
// time.Now() in production.
//
// An invalid case does not disturb the remembered verdict for its ID.
func (e *Engine) Process(c Case, now time.Time) *Result {
	in := existence.Input{
		Probability: c.Probability,
		Possibility: c.Possibility,
		Threshold:   c.Threshold,
	}
	out := &Result{
		ID:          c.ID,
		Origin:      c.Origin,
		Input:       in,
		EvaluatedAt: now,
	}

	verdict, err := existence.Evaluate(in)
	if err != nil {
		slog.Warn("engine: invalid input",
			"phenomenon", c.ID, "origin", c.Origin, "err", err)
		out.Err = err.Error()
		out.Evaluations = e.evaluations(c.ID)
		return out
	}
	out.Output = verdict

	e.mu.Lock()
	prev, seen := e.last[c.ID]
	e.last[c.ID] = verdict.Exists
	e.evals[c.ID]++
	out.Evaluations = e.evals[c.ID]
	e.mu.Unlock()

	out.Changed = !seen || prev != verdict.Exists
	if out.Changed {
		slog.Info("engine: verdict changed",
			"phenomenon", c.ID,
			"origin", c.Origin,
			"exists", verdict.Exists,
			"product", verdict.Product,
			"threshold", c.Threshold,
		)
	} else {
		slog.Debug("engine: verdict unchanged",
			"phenomenon", c.ID, "exists", verdict.Exists)
	}
	return out
}

// ProcessAll evaluates cases in order. The returned slice is parallel to cases.
func (e *Engine) ProcessAll(cases []Case, now time.Time) []*Result {
	out := make([]*Result, 0, len(cases))
	for _, c := range cases {
		out = append(out, e.Process(c, now))
	}
	return out
}

func (e *Engine) evaluations(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.evals[id]
}

// Forget drops the remembered verdict for id, so its next evaluation is
// reported as changed. Used when a phenomenon disappears from the config.
func (e *Engine) Forget(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.last, id)
	delete(e.evals, id)
}
