package engine

import (
	"github.com/laev/existence/internal/config"
	"github.com/laev/existence/internal/source"
)

// FromConfig turns configured phenomena into cases, resolving each threshold
// against the config-wide default.
func FromConfig(cfg *config.Config) []Case {
	out := make([]Case, 0, len(cfg.Phenomena))
	for _, ph := range cfg.Phenomena {
		out = append(out, Case{
			ID:          ph.ID,
			Probability: ph.Probability,
			Possibility: ph.Possibility,
			Threshold:   ph.ThresholdOr(cfg.Threshold),
			Origin:      OriginConfig,
		})
	}
	return out
}

// FromReading turns source samples into cases. Samples without their own
// threshold use def.
func FromReading(r *source.Reading, def float64) []Case {
	out := make([]Case, 0, len(r.Samples))
	for _, s := range r.Samples {
		theta := def
		if s.Threshold != nil {
			theta = *s.Threshold
		}
		out = append(out, Case{
			ID:          s.ID,
			Probability: s.Probability,
			Possibility: s.Possibility,
			Threshold:   theta,
			Origin:      r.SourceID,
		})
	}
	return out
}
