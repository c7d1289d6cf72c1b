package demo

import (
	"fmt"
	"io"
	"strconv"

	"github.com/laev/existence/pkg/existence"
)

// Example is one (P, Π, θ) triple.
type Example struct {
	Probability float64
	Possibility float64
	Threshold   float64
}

// Examples is the ordered list printed by Run.
var Examples = []Example{
	{0.92, 1.0, 0.1},
	{0.05, 1.0, 0.1},
	{0.5, 0.5, 0.3},
	{1.0, 1.0, 0.99},
}

// Run evaluates each example in order and writes one line per example to w:
//
//	P=0.92, Pi=1, theta=0.1 -> Exists: true
//
// The first invalid example aborts the run; lines already written stay written.
func Run(w io.Writer, examples []Example) error {
	for i, ex := range examples {
		ok, err := existence.ExistsWithThreshold(ex.Probability, ex.Possibility, ex.Threshold)
		if err != nil {
			return fmt.Errorf("demo: example %d: %w", i+1, err)
		}
		if _, err := fmt.Fprintln(w, Line(ex, ok)); err != nil {
			return fmt.Errorf("demo: write: %w", err)
		}
	}
	return nil
}

// Line formats one example and its verdict.
func Line(ex Example, exists bool) string {
	return fmt.Sprintf("P=%s, Pi=%s, theta=%s -> Exists: %t",
		formatFloat(ex.Probability), formatFloat(ex.Possibility), formatFloat(ex.Threshold), exists)
}

// formatFloat renders v with the fewest digits that round-trip.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
