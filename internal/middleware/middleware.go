// Package middleware holds the global and route-level Echo middleware:
// authentication (local JWT or Clerk), role checks, request logging and
// metrics, login rate limiting, tracing and panic recovery.
package middleware
