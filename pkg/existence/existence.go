package existence

// DefaultThreshold is θ when the caller does not supply one.
const DefaultThreshold = 0.1

// Interval notation used in RangeError messages.
const (
	rangeUnit       = "[0,1]"
	rangeUnitOpenLo = "(0,1]"
)

// Input holds the three values fed into the predicate.
type Input struct {
	// Probability is P(p), in [0,1].
	Probability float64

	// Possibility is Π(p), in [0,1]. 0 = impossible, 1 = possible.
	Possibility float64

	// Threshold is θ, in (0,1]. Zero is rejected, not defaulted.
	Threshold float64
}

// Output is the result of one evaluation.
type Output struct {
	// Product is Probability * Possibility.
	Product float64

	// Margin is Product - Threshold. Non-negative exactly when Exists is true.
	Margin float64

	// Exists reports Product >= Threshold.
	Exists bool
}

// Exists reports whether probability * possibility >= DefaultThreshold.
func Exists(probability, possibility float64) (bool, error) {
	return ExistsWithThreshold(probability, possibility, DefaultThreshold)
}

// ExistsWithThreshold reports whether probability * possibility >= threshold.
// It returns an error wrapping ErrInvalidArgument if any input is out of range.
func ExistsWithThreshold(probability, possibility, threshold float64) (bool, error) {
	out, err := Evaluate(Input{
		Probability: probability,
		Possibility: possibility,
		Threshold:   threshold,
	})
	if err != nil {
		return false, err
	}
	return out.Exists, nil
}

// Evaluate validates in and computes the predicate together with the product
// and margin it was decided on.
func Evaluate(in Input) (Output, error) {
	if err := Validate(in.Probability, in.Possibility, in.Threshold); err != nil {
		return Output{}, err
	}
	product := in.Probability * in.Possibility
	return Output{
		Product: product,
		Margin:  product - in.Threshold,
		Exists:  product >= in.Threshold,
	}, nil
}

// Validate checks the three range constraints in order and returns a
// *RangeError for the first one violated, or nil.
//
// The checks are written as negated inclusions so NaN is rejected.
func Validate(probability, possibility, threshold float64) error {
	if !(0 <= probability && probability <= 1) {
		return &RangeError{Param: ParamProbability, Value: probability, Range: rangeUnit}
	}
	if !(0 <= possibility && possibility <= 1) {
		return &RangeError{Param: ParamPossibility, Value: possibility, Range: rangeUnit}
	}
	if !(0 < threshold && threshold <= 1) {
		return &RangeError{Param: ParamThreshold, Value: threshold, Range: rangeUnitOpenLo}
	}
	return nil
}
