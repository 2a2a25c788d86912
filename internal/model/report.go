package model

import (
	"time"

	"github.com/deppfellow/storeops/internal/validation"
	"github.com/shopspring/decimal"
)

// DailyReport is the flight report for one business day across stores.
type DailyReport struct {
	Date        Date          `json:"date"`
	GeneratedAt time.Time     `json:"generated_at"`
	Stores      []StoreReport `json:"stores"`
	Totals      ReportTotals  `json:"totals"`
}

// StoreReport is one store's line in the flight report.
type StoreReport struct {
	StoreID         int64               `json:"store_id"`
	StoreName       string              `json:"store_name"`
	Revenue         decimal.Decimal     `json:"revenue"`
	RevenueRecorded bool                `json:"revenue_recorded"`
	ClockedIn       int                 `json:"clocked_in"` // employees who clocked in that day
	Shifts          int                 `json:"shifts"`
	Employees       int                 `json:"employees"`
	OrdersByStatus  map[OrderStatus]int `json:"orders_by_status"`
	Anomalies       []Order             `json:"anomalies"`
	HeldTotal       decimal.Decimal     `json:"held_total"`
	Threshold       decimal.Decimal     `json:"delivery_threshold"`
	OpenMaintenance int                 `json:"open_maintenance"`
	UrgentOpen      int                 `json:"urgent_open"`
	OverdueProducts []OverdueProduct    `json:"overdue_products"`
}

type ReportTotals struct {
	Revenue         decimal.Decimal `json:"revenue"`
	Orders          int             `json:"orders"`
	Anomalies       int             `json:"anomalies"`
	OpenMaintenance int             `json:"open_maintenance"`
	ClockedIn       int             `json:"clocked_in"`
}

// ------------------------------------------------------------------ payloads

type DailyReportPayload struct {
	StoreID *int64 `query:"store_id" json:"store_id" validate:"omitempty,gt=0"`
	Date    Date   `query:"date" json:"date"`
}

func (p *DailyReportPayload) Validate() error {
	return validation.Struct(p)
}

// ReportQueued acknowledges an enqueued flight report.
type ReportQueued struct {
	Queued bool   `json:"queued"`
	Date   string `json:"date"`
}
