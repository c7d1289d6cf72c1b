// Package auth provides authentication middleware for the HTTP API.
//
// APIKey(mode, header, key, next) wraps an http.Handler and checks the API key
// carried in the named request header.
//
// When mode != "apikey" or key == "", all requests pass through (useful for
// local development with auth disabled). A missing or incorrect key is
// answered with 401 and a JSON error body; next is not called.
package auth
