// Package handler is the HTTP layer: it binds and validates payloads, takes
// the caller from the auth middleware and delegates to the service layer.
package handler
