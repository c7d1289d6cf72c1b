// Package source reads phenomenon inputs from a Prometheus text exposition.
//
// A source is either an http(s) URL or a local file path. Both are parsed with
// expfmt into metric families, from which three families are extracted, keyed
// by their "phenomenon" label:
//
//	existence_probability{phenomenon="rain"} 0.92
//	existence_possibility{phenomenon="rain"} 1
//	existence_threshold{phenomenon="rain"}   0.1   # optional
//
// Gauge, untyped and counter samples are accepted. A phenomenon that lacks
// either factor is skipped with a warning. Values are passed through unchanged;
// range checking is left to the existence predicate.
//
// Factory: New(config.Source) returns the correct Reader. HTTP readers share
// one client per source; authentication (mTLS, API key, bearer, basic) is
// injected by authRoundTripper in http.go.
package source
