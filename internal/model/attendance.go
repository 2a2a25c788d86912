package model

import (
	"time"

	"github.com/deppfellow/storeops/internal/validation"
)

type Attendance struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	StoreID          int64      `json:"store_id"`
	ClockInAt        time.Time  `json:"clock_in_at"`
	ClockInLat       float64    `json:"clock_in_lat"`
	ClockInLng       float64    `json:"clock_in_lng"`
	ClockInDistanceM float64    `json:"clock_in_distance_m"`
	ClockOutAt       *time.Time `json:"clock_out_at"`
	ClockOutLat      *float64   `json:"clock_out_lat"`
	ClockOutLng      *float64   `json:"clock_out_lng"`
	Note             string     `json:"note"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Open reports whether the shift has not been clocked out yet.
func (a *Attendance) Open() bool {
	return a.ClockOutAt == nil
}

// Worked is the shift length; zero while the shift is open.
func (a *Attendance) Worked() time.Duration {
	if a.ClockOutAt == nil {
		return 0
	}
	return a.ClockOutAt.Sub(a.ClockInAt)
}

// AttendanceSummary aggregates closed shifts per employee.
type AttendanceSummary struct {
	UserID   int64   `json:"user_id"`
	FullName string  `json:"full_name"`
	Shifts   int     `json:"shifts"`
	Hours    float64 `json:"hours"`
}

// AttendanceFilter narrows attendance listings. To is exclusive.
type AttendanceFilter struct {
	StoreID *int64
	UserID  *int64
	From    *time.Time
	To      *time.Time
}

// ------------------------------------------------------------------ payloads

type ClockPayload struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Note      string   `json:"note" validate:"max=500"`
}

func (p *ClockPayload) Validate() error {
	return validation.Struct(p)
}

type ListAttendancePayload struct {
	StoreID *int64 `query:"store_id" validate:"omitempty,gt=0"`
	UserID  *int64 `query:"user_id" validate:"omitempty,gt=0"`
	From    Date   `query:"from"`
	To      Date   `query:"to"`
}

func (p *ListAttendancePayload) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	return validateRange(p.From, p.To)
}

type AttendanceSummaryPayload struct {
	StoreID *int64 `query:"store_id" validate:"omitempty,gt=0"`
	From    Date   `query:"from"`
	To      Date   `query:"to"`
}

func (p *AttendanceSummaryPayload) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	return validateRange(p.From, p.To)
}

// validateRange rejects ranges whose end precedes the start. Both ends are inclusive days.
func validateRange(from, to Date) error {
	if !from.IsZero() && !to.IsZero() && to.Before(from.Time) {
		return validation.CustomValidationErrors{
			{Field: "to", Message: "must not be before from"},
		}
	}
	return nil
}
