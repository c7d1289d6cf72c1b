package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/laev/existence/internal/config"
)

// Metric family and label names read from an exposition.
const (
	MetricProbability = "existence_probability"
	MetricPossibility = "existence_possibility"
	MetricThreshold   = "existence_threshold"
	LabelPhenomenon   = "phenomenon"
)

// Sample is the input for one phenomenon as read from a source.
type Sample struct {
	ID          string
	Probability float64
	Possibility float64

	// Threshold is nil when the exposition has no existence_threshold series
	// for this phenomenon.
	Threshold *float64
}

// Reading is the output of one read of a single source.
type Reading struct {
	SourceID string
	ReadAt   time.Time

	// Samples is sorted by ID.
	Samples []Sample
}

// Reader is implemented by every source kind.
type Reader interface {
	Read(ctx context.Context) (*Reading, error)
}

// New returns the Reader matching the endpoint scheme of src.
func New(src config.Source) (Reader, error) {
	switch {
	case strings.HasPrefix(src.Endpoint, "http://"), strings.HasPrefix(src.Endpoint, "https://"):
		client, err := buildHTTPClient(src)
		if err != nil {
			return nil, fmt.Errorf("source %q: build http client: %w", src.ID, err)
		}
		return &httpReader{src: src, client: client}, nil
	case strings.Contains(src.Endpoint, "://"):
		return nil, fmt.Errorf("source %q: unsupported endpoint scheme in %q", src.ID, src.Endpoint)
	default:
		return &fileReader{src: src}, nil
	}
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// extract builds the Reading for sourceID from parsed metric families.
func extract(sourceID string, mfs map[string]*dto.MetricFamily, now time.Time) *Reading {
	probs := byPhenomenon(mfs[MetricProbability])
	poss := byPhenomenon(mfs[MetricPossibility])
	thetas := byPhenomenon(mfs[MetricThreshold])

	out := &Reading{SourceID: sourceID, ReadAt: now}
	for id, p := range probs {
		q, ok := poss[id]
		if !ok {
			slog.Warn("source: phenomenon has no possibility, skipping",
				"source", sourceID, "phenomenon", id)
			continue
		}
		s := Sample{ID: id, Probability: p, Possibility: q}
		if th, ok := thetas[id]; ok {
			s.Threshold = &th
		}
		out.Samples = append(out.Samples, s)
	}
	for id := range poss {
		if _, ok := probs[id]; !ok {
			slog.Warn("source: phenomenon has no probability, skipping",
				"source", sourceID, "phenomenon", id)
		}
	}

	sort.Slice(out.Samples, func(i, j int) bool { return out.Samples[i].ID < out.Samples[j].ID })
	return out
}

// byPhenomenon maps the phenomenon label of each series in mf to its value.
// Series without the label are ignored. Returns an empty map if mf is nil.
func byPhenomenon(mf *dto.MetricFamily) map[string]float64 {
	out := make(map[string]float64)
	if mf == nil {
		return out
	}
	for _, m := range mf.GetMetric() {
		id := labelValue(m, LabelPhenomenon)
		if id == "" {
			continue
		}
		v, ok := valueOf(m)
		if !ok {
			continue
		}
		out[id] = v
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// valueOf returns the scalar value of a gauge, untyped or counter sample.
func valueOf(m *dto.Metric) (float64, bool) {
	switch {
	case m.Gauge != nil:
		return m.Gauge.GetValue(), true
	case m.Untyped != nil:
		return m.Untyped.GetValue(), true
	case m.Counter != nil:
		return m.Counter.GetValue(), true
	default:
		return 0, false
	}
}
