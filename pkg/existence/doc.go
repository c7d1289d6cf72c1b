// Package existence implements the existence predicate
//
//	E(p) = P(p) · Π(p) ≥ θ
//
// where P is a probability in [0,1], Π a possibility degree in [0,1] (either a
// 0/1 flag or a continuous value) and θ the collapse threshold in (0,1].
//
// Exists applies the default threshold of 0.1; ExistsWithThreshold and
// Evaluate take it explicitly. Out-of-range inputs are rejected with a
// *RangeError that wraps ErrInvalidArgument, before any arithmetic happens.
// The comparison is exact IEEE-754 >=, with no tolerance.
//
// Every function in this package is pure and safe for concurrent use.
package existence
