package api

import "time"

// ExistsResponse is returned by GET /api/v1/exists.
type ExistsResponse struct {
	Probability float64 `json:"probability"`
	Possibility float64 `json:"possibility"`
	Threshold   float64 `json:"threshold"`
	Product     float64 `json:"product"`
	Margin      float64 `json:"margin"`
	Exists      bool    `json:"exists"`
}

// PhenomenonResponse is one stored verdict.
//
// Input values that are not finite (a source may publish NaN or ±Inf) are
// omitted; the rejection is described by Error.
type PhenomenonResponse struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Probability *float64  `json:"probability,omitempty"`
	Possibility *float64  `json:"possibility,omitempty"`
	Threshold   *float64  `json:"threshold,omitempty"`
	Product     float64   `json:"product"`
	Exists      bool      `json:"exists"`
	Error       string    `json:"error,omitempty"`
	Evaluations int       `json:"evaluations"`
	EvaluatedAt time.Time `json:"evaluated_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PhenomenaResponse is returned by GET /api/v1/phenomena.
type PhenomenaResponse struct {
	Phenomena []PhenomenonResponse `json:"phenomena"`
	// Stale counts entries past the TTL that eviction has not yet removed.
	Stale       int       `json:"stale"`
	GeneratedAt time.Time `json:"generated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}
