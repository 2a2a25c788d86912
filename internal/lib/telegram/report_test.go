package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/storeops/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFlightReport(t *testing.T) {
	days := 1
	since := 40
	last := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)

	report := &model.DailyReport{
		Date:        model.NewDate(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		GeneratedAt: time.Date(2025, 3, 1, 21, 0, 0, 0, time.UTC),
		Stores: []model.StoreReport{
			{
				StoreID:         1,
				StoreName:       "Kemang",
				Revenue:         decimal.RequireFromString("1250.5"),
				RevenueRecorded: true,
				ClockedIn:       2,
				Shifts:          5,
				Employees:       6,
				OrdersByStatus:  map[model.OrderStatus]int{model.OrderHeld: 2, model.OrderReview: 1},
				Anomalies: []model.Order{{
					Base:        model.Base{ID: 42},
					ProductName: "Fresh milk 1L",
					Quantity:    24,
					Anomaly:     model.AnomalyFrequent,
					AnomalyDays: &days,
				}},
				HeldTotal:       decimal.RequireFromString("300"),
				Threshold:       decimal.RequireFromString("500"),
				OpenMaintenance: 3,
				UrgentOpen:      1,
				OverdueProducts: []model.OverdueProduct{{ProductName: "Rice 5kg", LastOrdered: &last, DaysSince: &since}},
			},
			{
				StoreID:        2,
				StoreName:      "Depok",
				Shifts:         1,
				OrdersByStatus: map[model.OrderStatus]int{},
				HeldTotal:      decimal.Zero,
				Threshold:      decimal.Zero,
			},
		},
		Totals: model.ReportTotals{
			Revenue:         decimal.RequireFromString("1250.5"),
			Orders:          3,
			Anomalies:       1,
			OpenMaintenance: 3,
			ClockedIn:       2,
		},
	}

	text, err := FormatFlightReport(report)
	require.NoError(t, err)

	for _, want := range []string{
		"FLIGHT REPORT 2025-03-01",
		"[KEMANG]",
		"Revenue: 1250.50",
		"Staff: 2 clocked in, 5 shifts today, 6 employees",
		"Orders: held=2 review=1",
		"Basket: 300.00 held / 500.00 threshold",
		"! FREQUENT order #42: Fresh milk 1L x24, 1 day(s) since previous",
		"Maintenance: 3 open, 1 URGENT",
		"Overdue: Rice 5kg (40d)",
		"[DEPOK]",
		"Revenue: not recorded",
		"1 shift today",
		"Orders: none",
		"TOTAL revenue 1250.50 | orders 3 | anomalies 1",
		"Generated 2025-03-01 21:00 UTC",
	} {
		assert.Contains(t, text, want)
	}
	assert.NotContains(t, text, "<no value>")
	assert.Less(t, strings.Index(text, "[KEMANG]"), strings.Index(text, "[DEPOK]"))
}

func TestFormatFlightReport_NoStores(t *testing.T) {
	text, err := FormatFlightReport(&model.DailyReport{
		Date:        model.NewDate(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		GeneratedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Contains(t, text, "No stores.")
}
