// Package model holds the domain entities shared by the repository, service
// and handler layers, together with the request payloads the handlers bind.
package model

import (
	"time"

	"github.com/deppfellow/storeops/internal/validation"
)

// Base carries the columns every mutable table has.
type Base struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IDParam binds the `:id` path segment.
type IDParam struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
}

func (p *IDParam) Validate() error {
	return validation.Struct(p)
}

// Empty is the payload of endpoints that take no input.
type Empty struct{}

func (*Empty) Validate() error { return nil }

// ListResponse wraps collections so the envelope can grow (paging) without
// breaking clients.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// NewList builds a ListResponse, turning a nil slice into [].
func NewList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, Total: len(items)}
}
