package existence

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the single error kind returned by this package.
// Use errors.Is to test for it.
var ErrInvalidArgument = errors.New("invalid argument")

// Parameter names reported in RangeError.Param.
const (
	ParamProbability = "probability"
	ParamPossibility = "possibility"
	ParamThreshold   = "threshold"
)

// RangeError reports which parameter was out of range and why.
type RangeError struct {
	Param string  // one of the Param* constants
	Value float64 // the rejected value
	Range string  // interval notation, e.g. "[0,1]" or "(0,1]"
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("existence: %s must be in %s, got %v", e.Param, e.Range, e.Value)
}

// Unwrap lets errors.Is(err, ErrInvalidArgument) match.
func (e *RangeError) Unwrap() error {
	return ErrInvalidArgument
}
