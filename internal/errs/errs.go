// Package errs defines the error shapes returned to API clients.
//
// Every failure that reaches the HTTP layer is converted into an HTTPError so
// clients always receive the same JSON structure: a machine code, a message,
// the status and optional per-field errors.
package errs
