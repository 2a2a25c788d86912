package model

import (
	"time"

	"github.com/deppfellow/storeops/internal/validation"
)

type MaintenancePriority string

const (
	PriorityLow    MaintenancePriority = "low"
	PriorityNormal MaintenancePriority = "normal"
	PriorityHigh   MaintenancePriority = "high"
	PriorityUrgent MaintenancePriority = "urgent"
)

type MaintenanceStatus string

const (
	MaintenanceOpen       MaintenanceStatus = "open"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceResolved   MaintenanceStatus = "resolved"
	MaintenanceClosed     MaintenanceStatus = "closed"
)

var maintenanceTransitions = map[MaintenanceStatus][]MaintenanceStatus{
	MaintenanceOpen:       {MaintenanceInProgress, MaintenanceClosed},
	MaintenanceInProgress: {MaintenanceResolved, MaintenanceOpen},
	MaintenanceResolved:   {MaintenanceClosed},
}

// CanTransition reports whether a request may move from s to next.
func (s MaintenanceStatus) CanTransition(next MaintenanceStatus) bool {
	for _, allowed := range maintenanceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type MaintenanceRequest struct {
	Base
	StoreID     int64               `json:"store_id"`
	ReportedBy  int64               `json:"reported_by"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    MaintenancePriority `json:"priority"`
	Status      MaintenanceStatus   `json:"status"`
	Assignee    string              `json:"assignee"`
	ResolvedAt  *time.Time          `json:"resolved_at"`
}

type MaintenanceFilter struct {
	StoreID *int64
	Status  MaintenanceStatus
}

// ------------------------------------------------------------------ payloads

type CreateMaintenancePayload struct {
	StoreID     *int64              `json:"store_id" validate:"omitempty,gt=0"`
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"max=4000"`
	Priority    MaintenancePriority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

func (p *CreateMaintenancePayload) Validate() error {
	return validation.Struct(p)
}

type UpdateMaintenanceStatusPayload struct {
	ID       int64             `param:"id" json:"-" validate:"required,gt=0"`
	Status   MaintenanceStatus `json:"status" validate:"required,oneof=open in_progress resolved closed"`
	Assignee *string           `json:"assignee" validate:"omitempty,max=120"`
}

func (p *UpdateMaintenanceStatusPayload) Validate() error {
	return validation.Struct(p)
}

type ListMaintenancePayload struct {
	StoreID *int64            `query:"store_id" validate:"omitempty,gt=0"`
	Status  MaintenanceStatus `query:"status" validate:"omitempty,oneof=open in_progress resolved closed"`
}

func (p *ListMaintenancePayload) Validate() error {
	return validation.Struct(p)
}

type GetMaintenancePayload struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
}

func (p *GetMaintenancePayload) Validate() error {
	return validation.Struct(p)
}
