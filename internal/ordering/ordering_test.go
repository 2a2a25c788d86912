package ordering

import (
	"testing"
	"time"

	"github.com/deppfellow/storeops/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func days(n int) *int { return &n }

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func TestEvaluate(t *testing.T) {
	now := at("2026-03-10T09:00:00Z")
	rules := Rules{FrequentDays: 3, RareDays: 30}

	tests := []struct {
		name string
		in   Input
		want Decision
	}{
		{
			name: "first order under threshold is held",
			in: Input{
				Rules: rules, OrderedAt: now, Location: time.UTC,
				Total: dec("40"), HeldTotal: dec("0"), Threshold: dec("100"),
			},
			want: Decision{Status: model.OrderHeld, Anomaly: model.AnomalyNone, Basket: dec("40")},
		},
		{
			name: "basket reaching threshold approves and releases",
			in: Input{
				Rules: rules, OrderedAt: now, PreviousAt: ptr(now.AddDate(0, 0, -7)), Location: time.UTC,
				Total: dec("40"), HeldTotal: dec("60"), Threshold: dec("100"),
			},
			want: Decision{Status: model.OrderApproved, Anomaly: model.AnomalyNone, DaysSince: days(7), Basket: dec("0"), ReleaseHeld: true},
		},
		{
			name: "no threshold approves immediately",
			in: Input{
				Rules: rules, OrderedAt: now, Location: time.UTC,
				Total: dec("5"), Threshold: dec("0"),
			},
			want: Decision{Status: model.OrderApproved, Anomaly: model.AnomalyNone, Basket: dec("0"), ReleaseHeld: true},
		},
		{
			name: "reorder inside frequent window goes to review",
			in: Input{
				Rules: rules, OrderedAt: now, PreviousAt: ptr(now.AddDate(0, 0, -2)), Location: time.UTC,
				Total: dec("500"), HeldTotal: dec("30"), Threshold: dec("100"),
			},
			want: Decision{Status: model.OrderReview, Anomaly: model.AnomalyFrequent, DaysSince: days(2), Basket: dec("30")},
		},
		{
			name: "gap equal to frequent window is fine",
			in: Input{
				Rules: rules, OrderedAt: now, PreviousAt: ptr(now.AddDate(0, 0, -3)), Location: time.UTC,
				Total: dec("10"), Threshold: dec("100"),
			},
			want: Decision{Status: model.OrderHeld, Anomaly: model.AnomalyNone, DaysSince: days(3), Basket: dec("10")},
		},
		{
			name: "gap beyond rare window goes to review",
			in: Input{
				Rules: rules, OrderedAt: now, PreviousAt: ptr(now.AddDate(0, 0, -31)), Location: time.UTC,
				Total: dec("10"), Threshold: dec("0"),
			},
			want: Decision{Status: model.OrderReview, Anomaly: model.AnomalyRare, DaysSince: days(31), Basket: dec("0")},
		},
		{
			name: "gap equal to rare window is fine",
			in: Input{
				Rules: rules, OrderedAt: now, PreviousAt: ptr(now.AddDate(0, 0, -30)), Location: time.UTC,
				Total: dec("10"), Threshold: dec("0"),
			},
			want: Decision{Status: model.OrderApproved, Anomaly: model.AnomalyNone, DaysSince: days(30), Basket: dec("0"), ReleaseHeld: true},
		},
		{
			name: "disabled windows never flag",
			in: Input{
				OrderedAt: now, PreviousAt: ptr(now), Location: time.UTC,
				Total: dec("10"), Threshold: dec("20"),
			},
			want: Decision{Status: model.OrderHeld, Anomaly: model.AnomalyNone, DaysSince: days(0), Basket: dec("10")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.in)
			if diff := cmp.Diff(tt.want, got, decimalEqual); diff != "" {
				t.Errorf("Evaluate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDaysBetween_StoreCalendar(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	// 16:50Z and 17:10Z straddle midnight in Jakarta (UTC+7).
	a := at("2026-03-10T16:50:00Z")
	b := at("2026-03-10T17:10:00Z")

	assert.Equal(t, 0, DaysBetween(a, b, time.UTC))
	assert.Equal(t, 1, DaysBetween(a, b, jakarta))
	assert.Equal(t, -1, DaysBetween(b, a, jakarta))
	assert.Equal(t, 0, DaysBetween(a, b, nil))
}

func TestDaysBetween_DST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// DST starts 2026-03-08 in New York; that day has 23 hours.
	a := time.Date(2026, 3, 7, 12, 0, 0, 0, ny)
	b := time.Date(2026, 3, 9, 12, 0, 0, 0, ny)
	assert.Equal(t, 2, DaysBetween(a, b, ny))
}

func TestFrequentAcrossMidnight(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	prev := at("2026-03-10T16:50:00Z")
	anomaly, d := DetectAnomaly(Rules{FrequentDays: 1}, &prev, at("2026-03-10T17:10:00Z"), jakarta)
	assert.Equal(t, model.AnomalyNone, anomaly)
	assert.Equal(t, 1, *d)

	anomaly, _ = DetectAnomaly(Rules{FrequentDays: 1}, &prev, at("2026-03-10T17:10:00Z"), time.UTC)
	assert.Equal(t, model.AnomalyFrequent, anomaly)
}

func TestThresholdStatus(t *testing.T) {
	got := ThresholdStatus(4, dec("100"), dec("35.50"), 2)
	want := model.DeliveryThresholdStatus{
		StoreID: 4, Threshold: dec("100"), HeldTotal: dec("35.50"), HeldCount: 2,
		Remaining: dec("64.50"), Reached: false,
	}
	if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
		t.Errorf("ThresholdStatus() mismatch (-want +got):\n%s", diff)
	}

	over := ThresholdStatus(4, dec("100"), dec("120"), 3)
	assert.True(t, over.Remaining.IsZero())
	assert.True(t, over.Reached)

	assert.True(t, ThresholdStatus(4, dec("0"), dec("0"), 0).Reached)
}

func TestOverdue(t *testing.T) {
	asOf := at("2026-03-31T12:00:00Z")

	overdue, d := Overdue(14, ptr(at("2026-03-01T12:00:00Z")), asOf, time.UTC)
	assert.True(t, overdue)
	assert.Equal(t, 30, *d)

	overdue, _ = Overdue(30, ptr(at("2026-03-01T12:00:00Z")), asOf, time.UTC)
	assert.False(t, overdue)

	overdue, d = Overdue(14, nil, asOf, time.UTC)
	assert.False(t, overdue)
	assert.Nil(t, d)

	overdue, _ = Overdue(0, ptr(at("2020-01-01T00:00:00Z")), asOf, time.UTC)
	assert.False(t, overdue)
}
