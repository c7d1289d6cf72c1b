// Package engine evaluates named phenomena through the existence predicate.
//
// Engine keeps the last successful verdict per phenomenon ID so it can flag
// transitions (absent → present and back). The verdict itself always comes
// from existence.Evaluate; the engine adds no arithmetic of its own.
//
// Process accepts an injectable time.Time so tests are deterministic.
package engine
