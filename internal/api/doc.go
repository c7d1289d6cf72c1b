// Package api implements the HTTP API of the existence binary.
//
// New(store) returns an http.Handler that serves:
//
//	GET /api/v1/exists?probability=P&possibility=Q[&threshold=T]
//	    evaluate one triple; 400 on bad input
//	GET /api/v1/phenomena
//	    latest live verdicts, sorted by ID
//	GET /api/v1/phenomena/{id}
//	    one verdict; 404 if unknown or stale
//
// All endpoints respond with Content-Type: application/json and return 405
// for non-GET methods. JSON types are defined in types.go.
package api
