package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/laev/existence/internal/store"
	"github.com/laev/existence/pkg/existence"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	store *store.Store
	mux   *http.ServeMux
}

// New creates a Handler wired to the given result store and registers all routes.
func New(st *store.Store) http.Handler {
	h := &Handler{store: st, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/exists", h.exists)
	h.mux.HandleFunc("/api/v1/phenomena", h.listPhenomena)
	h.mux.HandleFunc("/api/v1/phenomena/", h.getPhenomenon) // subtree; extracts {id}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// exists returns GET /api/v1/exists: a single predicate evaluation.
func (h *Handler) exists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	p, err := floatParam(q.Get("probability"), existence.ParamProbability, nil)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	poss, err := floatParam(q.Get("possibility"), existence.ParamPossibility, nil)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	def := existence.DefaultThreshold
	theta, err := floatParam(q.Get("threshold"), existence.ParamThreshold, &def)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := existence.Evaluate(existence.Input{Probability: p, Possibility: poss, Threshold: theta})
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	jsonResp(w, http.StatusOK, ExistsResponse{
		Probability: p,
		Possibility: poss,
		Threshold:   theta,
		Product:     out.Product,
		Margin:      out.Margin,
		Exists:      out.Exists,
	})
}

// listPhenomena returns GET /api/v1/phenomena: all live verdicts.
func (h *Handler) listPhenomena(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := h.store.List()
	resp := PhenomenaResponse{
		Phenomena:   make([]PhenomenonResponse, 0, len(entries)),
		Stale:       h.store.Count() - len(entries),
		GeneratedAt: time.Now().UTC(),
	}
	if resp.Stale < 0 {
		resp.Stale = 0 // eviction ran between List and Count
	}
	for _, e := range entries {
		resp.Phenomena = append(resp.Phenomena, toResponse(e))
	}
	jsonResp(w, http.StatusOK, resp)
}

// getPhenomenon returns GET /api/v1/phenomena/{id}.
func (h *Handler) getPhenomenon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/phenomena/")
	if id == "" {
		jsonErr(w, http.StatusNotFound, "phenomenon id required")
		return
	}

	e, ok := h.store.GetLive(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, fmt.Sprintf("phenomenon %q not found", id))
		return
	}
	jsonResp(w, http.StatusOK, toResponse(e))
}

// --- helpers ----------------------------------------------------------------

// floatParam parses a query value. An empty value yields *def, or an error
// when def is nil.
func floatParam(raw, name string, def *float64) (float64, error) {
	if raw == "" {
		if def == nil {
			return 0, fmt.Errorf("%s is required", name)
		}
		return *def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: not a number: %q", name, raw)
	}
	return v, nil
}

func toResponse(e *store.Entry) PhenomenonResponse {
	r := e.Result
	return PhenomenonResponse{
		ID:          r.ID,
		Origin:      r.Origin,
		Probability: finite(r.Input.Probability),
		Possibility: finite(r.Input.Possibility),
		Threshold:   finite(r.Input.Threshold),
		Product:     r.Output.Product,
		Exists:      r.Output.Exists,
		Error:       r.Err,
		Evaluations: r.Evaluations,
		EvaluatedAt: r.EvaluatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// finite returns &v, or nil when v cannot be represented in JSON.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("api: encode response", "err", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal error"}` + "\n")) //nolint:errcheck
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(append(body, '\n')) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
