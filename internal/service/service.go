// Package service contains the business logic.
//
// It sits between the handler and repository layers. It receives validated
// payloads and the authenticated Principal from the handlers, enforces the
// role and store-scoping rules, and calls repository methods to read and
// persist data. Side effects that may be slow (email, Telegram) are enqueued
// as background jobs.
package service
