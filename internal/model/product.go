package model

import (
	"github.com/deppfellow/storeops/internal/validation"
	"github.com/shopspring/decimal"
)

// Product is a catalogue item stores can order. FrequentDays and RareDays of
// zero disable the matching anomaly check.
type Product struct {
	Base
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Unit         string          `json:"unit"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Supplier     string          `json:"supplier"`
	FrequentDays int             `json:"frequent_days"`
	RareDays     int             `json:"rare_days"`
	Active       bool            `json:"active"`
}

// ------------------------------------------------------------------ payloads

type CreateProductPayload struct {
	Name         string          `json:"name" validate:"required,max=120"`
	Category     string          `json:"category" validate:"max=60"`
	Unit         string          `json:"unit" validate:"max=20"`
	UnitPrice    decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Supplier     string          `json:"supplier" validate:"max=120"`
	FrequentDays int             `json:"frequent_days" validate:"gte=0,lte=3650"`
	RareDays     int             `json:"rare_days" validate:"gte=0,lte=3650"`
}

func (p *CreateProductPayload) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	return validateWindows(p.FrequentDays, p.RareDays)
}

type UpdateProductPayload struct {
	ID           int64            `param:"id" json:"-" validate:"required,gt=0"`
	Name         *string          `json:"name" validate:"omitempty,max=120"`
	Category     *string          `json:"category" validate:"omitempty,max=60"`
	Unit         *string          `json:"unit" validate:"omitempty,max=20"`
	UnitPrice    *decimal.Decimal `json:"unit_price" validate:"omitempty,gte=0"`
	Supplier     *string          `json:"supplier" validate:"omitempty,max=120"`
	FrequentDays *int             `json:"frequent_days" validate:"omitempty,gte=0,lte=3650"`
	RareDays     *int             `json:"rare_days" validate:"omitempty,gte=0,lte=3650"`
	Active       *bool            `json:"active"`
}

func (p *UpdateProductPayload) Validate() error {
	return validation.Struct(p)
}

// Apply copies the set fields onto pr and re-checks the anomaly windows.
func (p *UpdateProductPayload) Apply(pr *Product) error {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Category != nil {
		pr.Category = *p.Category
	}
	if p.Unit != nil {
		pr.Unit = *p.Unit
	}
	if p.UnitPrice != nil {
		pr.UnitPrice = *p.UnitPrice
	}
	if p.Supplier != nil {
		pr.Supplier = *p.Supplier
	}
	if p.FrequentDays != nil {
		pr.FrequentDays = *p.FrequentDays
	}
	if p.RareDays != nil {
		pr.RareDays = *p.RareDays
	}
	if p.Active != nil {
		pr.Active = *p.Active
	}
	return validateWindows(pr.FrequentDays, pr.RareDays)
}

// validateWindows rejects a rare window that is not longer than the frequent one,
// which would flag every reorder.
func validateWindows(frequent, rare int) error {
	if frequent > 0 && rare > 0 && rare <= frequent {
		return validation.CustomValidationErrors{
			{Field: "rare_days", Message: "must be greater than frequent_days"},
		}
	}
	return nil
}
