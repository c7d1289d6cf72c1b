package api_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/laev/existence/internal/api"
	"github.com/laev/existence/internal/config"
	"github.com/laev/existence/internal/engine"
	"github.com/laev/existence/internal/source"
	"github.com/laev/existence/internal/store"
)

// --- test helpers -----------------------------------------------------------

func newStore(results ...*engine.Result) *store.Store {
	st := store.New(5 * time.Minute)
	st.PutAll(results)
	return st
}

func evaluated(id string, p, q, theta float64) *engine.Result {
	return engine.New().Process(engine.Case{
		ID: id, Probability: p, Possibility: q, Threshold: theta, Origin: engine.OriginConfig,
	}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /api/v1/exists ---------------------------------------------------------

func TestExists_Valid(t *testing.T) {
	h := api.New(newStore())
	tests := []struct {
		query string
		want  bool
	}{
		{"probability=0.92&possibility=1&threshold=0.1", true},
		{"probability=0.05&possibility=1&threshold=0.1", false},
		{"probability=0.5&possibility=0.5&threshold=0.3", false},
		{"probability=1&possibility=1&threshold=0.99", true},
		{"probability=0.5&possibility=0.5", true}, // default threshold 0.1
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			rr := get(t, h, "/api/v1/exists?"+tc.query)
			if rr.Code != http.StatusOK {
				t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: got %q", ct)
			}
			var resp api.ExistsResponse
			decode(t, rr, &resp)
			if resp.Exists != tc.want {
				t.Errorf("exists: got %v, want %v", resp.Exists, tc.want)
			}
		})
	}
}

func TestExists_DefaultThresholdEchoed(t *testing.T) {
	h := api.New(newStore())
	rr := get(t, h, "/api/v1/exists?probability=0.5&possibility=0.5")
	var resp api.ExistsResponse
	decode(t, rr, &resp)
	if resp.Threshold != 0.1 {
		t.Errorf("threshold: got %v, want 0.1", resp.Threshold)
	}
	if resp.Product != 0.25 {
		t.Errorf("product: got %v, want 0.25", resp.Product)
	}
}

func TestExists_BadRequest(t *testing.T) {
	h := api.New(newStore())
	tests := []struct {
		query   string
		wantSub string
	}{
		{"possibility=1", "probability is required"},
		{"probability=0.5", "possibility is required"},
		{"probability=abc&possibility=1", "not a number"},
		{"probability=1.01&possibility=1", "probability must be in [0,1]"},
		{"probability=0.5&possibility=-0.01", "possibility must be in [0,1]"},
		{"probability=0.5&possibility=0.5&threshold=0", "threshold must be in (0,1]"},
		{"probability=0.5&possibility=0.5&threshold=1.5", "threshold must be in (0,1]"},
		{"probability=NaN&possibility=0.5", "probability"},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			rr := get(t, h, "/api/v1/exists?"+tc.query)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rr.Code)
			}
			var resp map[string]string
			decode(t, rr, &resp)
			if !strings.Contains(resp["error"], tc.wantSub) {
				t.Errorf("error: got %q, want substring %q", resp["error"], tc.wantSub)
			}
		})
	}
}

func TestExists_MethodNotAllowed(t *testing.T) {
	h := api.New(newStore())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/exists", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

// --- /api/v1/phenomena ------------------------------------------------------

func TestPhenomena_Empty(t *testing.T) {
	h := api.New(newStore())
	rr := get(t, h, "/api/v1/phenomena")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.PhenomenaResponse
	decode(t, rr, &resp)
	if resp.Phenomena == nil || len(resp.Phenomena) != 0 {
		t.Errorf("phenomena: got %v, want empty list", resp.Phenomena)
	}
}

func TestPhenomena_List(t *testing.T) {
	h := api.New(newStore(
		evaluated("rain", 0.92, 1, 0.1),
		evaluated("comet", 0.05, 1, 0.1),
		evaluated("broken", 2, 1, 0.1),
	))
	rr := get(t, h, "/api/v1/phenomena")
	var resp api.PhenomenaResponse
	decode(t, rr, &resp)

	if len(resp.Phenomena) != 3 {
		t.Fatalf("phenomena: got %d, want 3", len(resp.Phenomena))
	}
	ids := []string{resp.Phenomena[0].ID, resp.Phenomena[1].ID, resp.Phenomena[2].ID}
	if ids[0] != "broken" || ids[1] != "comet" || ids[2] != "rain" {
		t.Errorf("order: got %v, want [broken comet rain]", ids)
	}
	if resp.Phenomena[0].Error == "" {
		t.Error("broken: expected error text")
	}
	if resp.Phenomena[1].Exists || !resp.Phenomena[2].Exists {
		t.Errorf("verdicts: comet=%v rain=%v, want false true",
			resp.Phenomena[1].Exists, resp.Phenomena[2].Exists)
	}
}

func TestPhenomenon_Get(t *testing.T) {
	h := api.New(newStore(evaluated("rain", 0.92, 1, 0.1)))

	rr := get(t, h, "/api/v1/phenomena/rain")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.PhenomenonResponse
	decode(t, rr, &resp)
	if resp.ID != "rain" || !resp.Exists || resp.Origin != engine.OriginConfig {
		t.Errorf("resp: got %+v", resp)
	}
}

func TestPhenomenon_NotFound(t *testing.T) {
	h := api.New(newStore())
	for _, path := range []string{"/api/v1/phenomena/unknown", "/api/v1/phenomena/"} {
		if rr := get(t, h, path); rr.Code != http.StatusNotFound {
			t.Errorf("%s: status got %d, want 404", path, rr.Code)
		}
	}
}

func TestPhenomena_NonFiniteInput(t *testing.T) {
	h := api.New(newStore(
		evaluated("rain", 0.92, 1, 0.1),
		evaluated("storm", math.NaN(), 1, 0.1),
		evaluated("flood", 0.4, math.Inf(1), 0.1),
	))

	rr := get(t, h, "/api/v1/phenomena")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	var resp api.PhenomenaResponse
	decode(t, rr, &resp)
	if len(resp.Phenomena) != 3 {
		t.Fatalf("phenomena: got %d, want 3", len(resp.Phenomena))
	}

	flood, rain, storm := resp.Phenomena[0], resp.Phenomena[1], resp.Phenomena[2]
	if !rain.Exists || rain.Probability == nil || *rain.Probability != 0.92 {
		t.Errorf("rain: got %+v", rain)
	}
	if storm.Error == "" || storm.Probability != nil || storm.Possibility == nil || *storm.Possibility != 1 {
		t.Errorf("storm: got %+v, want error and no probability", storm)
	}
	if flood.Error == "" || flood.Possibility != nil {
		t.Errorf("flood: got %+v, want error and no possibility", flood)
	}

	rr = get(t, h, "/api/v1/phenomena/storm")
	if rr.Code != http.StatusOK {
		t.Fatalf("storm status: got %d, want 200", rr.Code)
	}
	var one api.PhenomenonResponse
	decode(t, rr, &one)
	if one.ID != "storm" || !strings.Contains(one.Error, "probability") {
		t.Errorf("storm: got %+v", one)
	}
}

func TestPhenomena_FromSourceExposition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.prom")
	prom := `existence_probability{phenomenon="rain"} 0.92
existence_probability{phenomenon="storm"} NaN
existence_possibility{phenomenon="rain"} 1
existence_possibility{phenomenon="storm"} 1
`
	if err := os.WriteFile(path, []byte(prom), 0o600); err != nil {
		t.Fatal(err)
	}
	rd, err := source.New(config.Source{ID: "local", Endpoint: path, Timeout: time.Second})
	if err != nil {
		t.Fatalf("source.New: %v", err)
	}
	reading, err := rd.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	st := store.New(5 * time.Minute)
	st.PutAll(engine.New().ProcessAll(engine.FromReading(reading, 0.1), time.Now()))

	rr := get(t, api.New(st), "/api/v1/phenomena")
	var resp api.PhenomenaResponse
	decode(t, rr, &resp)
	if len(resp.Phenomena) != 2 {
		t.Fatalf("phenomena: got %d, want 2", len(resp.Phenomena))
	}
	if rain := resp.Phenomena[0]; rain.ID != "rain" || !rain.Exists || rain.Origin != "local" {
		t.Errorf("rain: got %+v", rain)
	}
	if storm := resp.Phenomena[1]; storm.ID != "storm" || storm.Error == "" {
		t.Errorf("storm: got %+v", storm)
	}
}

func TestPhenomena_StaleCount(t *testing.T) {
	st := store.New(time.Nanosecond)
	st.Put(evaluated("rain", 0.92, 1, 0.1))
	time.Sleep(time.Millisecond)

	rr := get(t, api.New(st), "/api/v1/phenomena")
	var resp api.PhenomenaResponse
	decode(t, rr, &resp)
	if len(resp.Phenomena) != 0 || resp.Stale != 1 {
		t.Errorf("got %d live, %d stale; want 0 live, 1 stale", len(resp.Phenomena), resp.Stale)
	}
}

func TestPhenomenon_Evaluations(t *testing.T) {
	e := engine.New()
	c := engine.Case{ID: "rain", Probability: 0.92, Possibility: 1, Threshold: 0.1, Origin: engine.OriginConfig}
	e.Process(c, time.Now())
	st := newStore(e.Process(c, time.Now()))

	var resp api.PhenomenonResponse
	decode(t, get(t, api.New(st), "/api/v1/phenomena/rain"), &resp)
	if resp.Evaluations != 2 {
		t.Errorf("evaluations: got %d, want 2", resp.Evaluations)
	}
}
