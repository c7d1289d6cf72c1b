// Package demo holds the built-in example triples and prints their verdicts.
// It is what the existence binary runs when invoked without flags.
package demo
