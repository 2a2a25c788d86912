// Package ordering evaluates the rules applied to every new product order:
// the frequent/rare anomaly checks and the per-store delivery threshold.
//
// Everything here is a pure function of its inputs so the rules can be tested
// without a database; the service layer loads the history and persists the
// Decision.
package ordering

import (
	"time"

	"github.com/deppfellow/storeops/internal/model"
	"github.com/shopspring/decimal"
)

// Rules are the per-product anomaly windows. Zero disables a check.
type Rules struct {
	FrequentDays int
	RareDays     int
}

// RulesFor extracts the anomaly windows of a product.
func RulesFor(p *model.Product) Rules {
	return Rules{FrequentDays: p.FrequentDays, RareDays: p.RareDays}
}

// Input is everything the evaluator needs about a new order.
type Input struct {
	Rules Rules
	// OrderedAt is the time of the new order.
	OrderedAt time.Time
	// PreviousAt is the time of the store's most recent non-rejected order of
	// the same product, nil when there is none.
	PreviousAt *time.Time
	// Location is the store's time zone; days are counted on its calendar.
	Location *time.Location
	// Total is the value of the new order.
	Total decimal.Decimal
	// HeldTotal is the value of the store's orders currently held.
	HeldTotal decimal.Decimal
	// Threshold is the store's delivery threshold. Zero or less disables the gate.
	Threshold decimal.Decimal
}

// Decision is the outcome for a new order.
type Decision struct {
	Status  model.OrderStatus
	Anomaly model.Anomaly
	// DaysSince is the calendar-day gap to the previous order, nil without one.
	DaysSince *int
	// Basket is the store's pending value after this decision.
	Basket decimal.Decimal
	// ReleaseHeld is set when the threshold was reached and every held order of
	// the store moves to approved together with this one.
	ReleaseHeld bool
}

// Evaluate applies the anomaly checks, then the delivery threshold.
//
// An anomalous order goes to review and does not join the basket. Otherwise the
// basket is the new order plus the held orders; reaching the threshold approves
// the order and releases the held ones, falling short holds it.
func Evaluate(in Input) Decision {
	anomaly, days := DetectAnomaly(in.Rules, in.PreviousAt, in.OrderedAt, in.Location)

	if anomaly != model.AnomalyNone {
		return Decision{
			Status:    model.OrderReview,
			Anomaly:   anomaly,
			DaysSince: days,
			Basket:    in.HeldTotal,
		}
	}

	basket := in.HeldTotal.Add(in.Total)
	d := Decision{
		Anomaly:   model.AnomalyNone,
		DaysSince: days,
		Basket:    basket,
	}

	if ThresholdReached(in.Threshold, basket) {
		d.Status = model.OrderApproved
		d.ReleaseHeld = true
		d.Basket = decimal.Zero
	} else {
		d.Status = model.OrderHeld
	}
	return d
}

// DetectAnomaly compares the gap since the previous order with the product's
// windows: strictly fewer days than FrequentDays is frequent, strictly more
// than RareDays is rare.
func DetectAnomaly(rules Rules, previous *time.Time, at time.Time, loc *time.Location) (model.Anomaly, *int) {
	if previous == nil {
		return model.AnomalyNone, nil
	}

	days := DaysBetween(*previous, at, loc)

	switch {
	case rules.FrequentDays > 0 && days < rules.FrequentDays:
		return model.AnomalyFrequent, &days
	case rules.RareDays > 0 && days > rules.RareDays:
		return model.AnomalyRare, &days
	default:
		return model.AnomalyNone, &days
	}
}

// DaysBetween counts calendar days from a to b on loc's calendar, so an order
// at 23:50 and another at 00:10 are one day apart. Negative when b precedes a.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	a = a.In(loc)
	b = b.In(loc)

	// Civil dates at UTC midnight avoid DST-length days.
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	return int(db.Sub(da).Hours() / 24)
}

// ThresholdReached reports whether basket satisfies threshold. A threshold of
// zero or less always passes.
func ThresholdReached(threshold, basket decimal.Decimal) bool {
	if !threshold.IsPositive() {
		return true
	}
	return basket.GreaterThanOrEqual(threshold)
}

// ThresholdStatus previews the delivery gate for a store.
func ThresholdStatus(storeID int64, threshold, heldTotal decimal.Decimal, heldCount int) model.DeliveryThresholdStatus {
	remaining := threshold.Sub(heldTotal)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return model.DeliveryThresholdStatus{
		StoreID:   storeID,
		Threshold: threshold,
		HeldTotal: heldTotal,
		HeldCount: heldCount,
		Remaining: remaining,
		Reached:   ThresholdReached(threshold, heldTotal),
	}
}

// Overdue reports whether a product last ordered at last has gone more than
// rareDays without an order as of asOf. Products never ordered, or without a
// rare window, are not overdue.
func Overdue(rareDays int, last *time.Time, asOf time.Time, loc *time.Location) (bool, *int) {
	if rareDays <= 0 || last == nil {
		return false, nil
	}
	days := DaysBetween(*last, asOf, loc)
	return days > rareDays, &days
}
