package model

import (
	"github.com/deppfellow/storeops/internal/validation"
	"github.com/shopspring/decimal"
)

// Revenue is the takings of one store on one business day.
type Revenue struct {
	Base
	StoreID      int64           `json:"store_id"`
	BusinessDate Date            `json:"business_date"`
	Cash         decimal.Decimal `json:"cash"`
	Card         decimal.Decimal `json:"card"`
	Other        decimal.Decimal `json:"other"`
	Total        decimal.Decimal `json:"total"`
	Note         string          `json:"note"`
	RecordedBy   int64           `json:"recorded_by"`
}

// RevenueSummary totals a store's revenue over a date range.
type RevenueSummary struct {
	StoreID    *int64          `json:"store_id"`
	From       Date            `json:"from"`
	To         Date            `json:"to"`
	Days       int             `json:"days"`
	Cash       decimal.Decimal `json:"cash"`
	Card       decimal.Decimal `json:"card"`
	Other      decimal.Decimal `json:"other"`
	Total      decimal.Decimal `json:"total"`
	AveragePer decimal.Decimal `json:"average_per_day"`
}

// RevenueFilter narrows revenue listings; both dates inclusive.
type RevenueFilter struct {
	StoreID *int64
	From    *Date
	To      *Date
}

// ------------------------------------------------------------------ payloads

type RecordRevenuePayload struct {
	StoreID      *int64          `json:"store_id" validate:"omitempty,gt=0"`
	BusinessDate Date            `json:"business_date"`
	Cash         decimal.Decimal `json:"cash" validate:"gte=0"`
	Card         decimal.Decimal `json:"card" validate:"gte=0"`
	Other        decimal.Decimal `json:"other" validate:"gte=0"`
	Note         string          `json:"note" validate:"max=500"`
}

func (p *RecordRevenuePayload) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	if p.BusinessDate.IsZero() {
		return validation.CustomValidationErrors{
			{Field: "business_date", Message: "is required"},
		}
	}
	return nil
}

type ListRevenuePayload struct {
	StoreID *int64 `query:"store_id" validate:"omitempty,gt=0"`
	From    Date   `query:"from"`
	To      Date   `query:"to"`
}

func (p *ListRevenuePayload) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	return validateRange(p.From, p.To)
}
