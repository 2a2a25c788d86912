package model

import (
	"github.com/deppfellow/storeops/internal/validation"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// User is an employee account. Admins may have no store.
type User struct {
	Base
	StoreID      *int64              `json:"store_id"`
	Username     string              `json:"username"`
	PasswordHash string              `json:"-"`
	FullName     string              `json:"full_name"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
	Role         Role                `json:"role"`
	HourlyWage   decimal.NullDecimal `json:"hourly_wage"`
	Active       bool                `json:"active"`
	ExternalID   *string             `json:"external_id,omitempty"`
}

// Principal returns the authorization identity of u.
func (u *User) Principal() *Principal {
	return &Principal{UserID: u.ID, StoreID: u.StoreID, Role: u.Role}
}

// Principal is the authenticated caller attached to each request.
type Principal struct {
	UserID  int64  `json:"user_id"`
	StoreID *int64 `json:"store_id"`
	Role    Role   `json:"role"`
}

func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanManage reports whether the caller is a manager or an admin.
func (p *Principal) CanManage() bool {
	return p.Role == RoleAdmin || p.Role == RoleManager
}

// InStore reports whether the caller belongs to storeID.
func (p *Principal) InStore(storeID int64) bool {
	return p.StoreID != nil && *p.StoreID == storeID
}

// CanAccessStore is true for admins and for members of storeID.
func (p *Principal) CanAccessStore(storeID int64) bool {
	return p.IsAdmin() || p.InStore(storeID)
}

// ------------------------------------------------------------------ payloads

type LoginPayload struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

func (p *LoginPayload) Validate() error {
	return validation.Struct(p)
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	User      *User  `json:"user"`
}

type ChangePasswordPayload struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

func (p *ChangePasswordPayload) Validate() error {
	return validation.Struct(p)
}

type CreateEmployeePayload struct {
	StoreID    *int64           `json:"store_id" validate:"omitempty,gt=0"`
	Username   string           `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password   string           `json:"password" validate:"required,min=8,max=128"`
	FullName   string           `json:"full_name" validate:"required,max=120"`
	Email      string           `json:"email" validate:"omitempty,email"`
	Phone      string           `json:"phone" validate:"omitempty,e164"`
	Role       Role             `json:"role" validate:"required,oneof=admin manager staff"`
	HourlyWage *decimal.Decimal `json:"hourly_wage" validate:"omitempty,gte=0"`
	ExternalID *string          `json:"external_id" validate:"omitempty,max=128"`
}

func (p *CreateEmployeePayload) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	if p.Role != RoleAdmin && p.StoreID == nil {
		return validation.CustomValidationErrors{
			{Field: "store_id", Message: "is required for managers and staff"},
		}
	}
	return nil
}

type UpdateEmployeePayload struct {
	ID         int64            `param:"id" json:"-" validate:"required,gt=0"`
	StoreID    *int64           `json:"store_id" validate:"omitempty,gt=0"`
	FullName   *string          `json:"full_name" validate:"omitempty,max=120"`
	Email      *string          `json:"email" validate:"omitempty,email"`
	Phone      *string          `json:"phone" validate:"omitempty,e164"`
	Role       *Role            `json:"role" validate:"omitempty,oneof=admin manager staff"`
	HourlyWage *decimal.Decimal `json:"hourly_wage" validate:"omitempty,gte=0"`
	Active     *bool            `json:"active"`
	Password   *string          `json:"password" validate:"omitempty,min=8,max=128"`
}

func (p *UpdateEmployeePayload) Validate() error {
	return validation.Struct(p)
}

// Apply copies the set profile fields onto u. Password is handled by the caller.
func (p *UpdateEmployeePayload) Apply(u *User) {
	if p.StoreID != nil {
		id := *p.StoreID
		u.StoreID = &id
	}
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.HourlyWage != nil {
		u.HourlyWage = decimal.NewNullDecimal(*p.HourlyWage)
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
}

type ListEmployeesPayload struct {
	StoreID *int64 `query:"store_id" validate:"omitempty,gt=0"`
	Role    Role   `query:"role" validate:"omitempty,oneof=admin manager staff"`
	Active  *bool  `query:"active"`
}

func (p *ListEmployeesPayload) Validate() error {
	return validation.Struct(p)
}

// EmployeeFilter narrows employee listings.
type EmployeeFilter struct {
	StoreID *int64
	Role    Role
	Active  *bool
}

type GetEmployeePayload struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
}

func (p *GetEmployeePayload) Validate() error {
	return validation.Struct(p)
}
