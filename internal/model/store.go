package model

import (
	"time"

	"github.com/deppfellow/storeops/internal/validation"
	"github.com/shopspring/decimal"
)

// DefaultGeofenceRadius is used when a store is created without a radius.
const DefaultGeofenceRadius = 150.0

type Store struct {
	Base
	Name              string          `json:"name"`
	Address           string          `json:"address"`
	Latitude          float64         `json:"latitude"`
	Longitude         float64         `json:"longitude"`
	GeofenceRadiusM   float64         `json:"geofence_radius_m"`
	DeliveryThreshold decimal.Decimal `json:"delivery_threshold"`
	Timezone          string          `json:"timezone"`
}

// Location returns the store's time zone, falling back to UTC for unknown names.
func (s *Store) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DeliveryThresholdStatus previews the delivery gate of a store.
type DeliveryThresholdStatus struct {
	StoreID   int64           `json:"store_id"`
	Threshold decimal.Decimal `json:"threshold"`
	HeldTotal decimal.Decimal `json:"held_total"`
	HeldCount int             `json:"held_count"`
	Remaining decimal.Decimal `json:"remaining"`
	Reached   bool            `json:"reached"`
}

// ------------------------------------------------------------------ payloads

type CreateStorePayload struct {
	Name              string           `json:"name" validate:"required,min=2,max=120"`
	Address           string           `json:"address" validate:"max=255"`
	Latitude          *float64         `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude         *float64         `json:"longitude" validate:"required,gte=-180,lte=180"`
	GeofenceRadiusM   float64          `json:"geofence_radius_m" validate:"omitempty,gt=0,lte=100000"`
	DeliveryThreshold *decimal.Decimal `json:"delivery_threshold" validate:"omitempty,gte=0"`
	Timezone          string           `json:"timezone" validate:"omitempty,timezone"`
}

func (p *CreateStorePayload) Validate() error {
	return validation.Struct(p)
}

type UpdateStorePayload struct {
	ID                int64            `param:"id" json:"-" validate:"required,gt=0"`
	Name              *string          `json:"name" validate:"omitempty,min=2,max=120"`
	Address           *string          `json:"address" validate:"omitempty,max=255"`
	Latitude          *float64         `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude         *float64         `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	GeofenceRadiusM   *float64         `json:"geofence_radius_m" validate:"omitempty,gt=0,lte=100000"`
	DeliveryThreshold *decimal.Decimal `json:"delivery_threshold" validate:"omitempty,gte=0"`
	Timezone          *string          `json:"timezone" validate:"omitempty,timezone"`
}

func (p *UpdateStorePayload) Validate() error {
	return validation.Struct(p)
}

// Apply copies the set fields onto s.
func (p *UpdateStorePayload) Apply(s *Store) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Latitude != nil {
		s.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		s.Longitude = *p.Longitude
	}
	if p.GeofenceRadiusM != nil {
		s.GeofenceRadiusM = *p.GeofenceRadiusM
	}
	if p.DeliveryThreshold != nil {
		s.DeliveryThreshold = *p.DeliveryThreshold
	}
	if p.Timezone != nil {
		s.Timezone = *p.Timezone
	}
}

type GetStorePayload struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
}

func (p *GetStorePayload) Validate() error {
	return validation.Struct(p)
}
