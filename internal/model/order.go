package model

import (
	"time"

	"github.com/deppfellow/storeops/internal/validation"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	// OrderHeld waits until the store's basket reaches the delivery threshold.
	OrderHeld OrderStatus = "held"
	// OrderReview was flagged by an anomaly check and needs a manager decision.
	OrderReview    OrderStatus = "review"
	OrderApproved  OrderStatus = "approved"
	OrderRejected  OrderStatus = "rejected"
	OrderDelivered OrderStatus = "delivered"
)

// Decidable reports whether a manager may still approve or reject the order.
func (s OrderStatus) Decidable() bool {
	return s == OrderHeld || s == OrderReview
}

type Anomaly string

const (
	AnomalyNone     Anomaly = "none"
	AnomalyFrequent Anomaly = "frequent"
	AnomalyRare     Anomaly = "rare"
)

type Order struct {
	Base
	StoreID     int64           `json:"store_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
	Status      OrderStatus     `json:"status"`
	Anomaly     Anomaly         `json:"anomaly"`
	AnomalyDays *int            `json:"anomaly_days"`
	Note        string          `json:"note"`
	RequestedBy int64           `json:"requested_by"`
	DecidedBy   *int64          `json:"decided_by"`
	DecidedAt   *time.Time      `json:"decided_at"`
	OrderedAt   time.Time       `json:"ordered_at"`
}

// OrderFilter narrows order listings. To is exclusive.
type OrderFilter struct {
	StoreID   *int64
	ProductID *int64
	Status    OrderStatus
	Anomaly   Anomaly
	From      *time.Time
	To        *time.Time
}

// PlaceOrderResult reports the stored order plus the held orders it released.
type PlaceOrderResult struct {
	Order    *Order          `json:"order"`
	Released []int64         `json:"released"`
	Basket   decimal.Decimal `json:"basket"`
}

// OverdueProduct is a product whose last order is older than its rare window.
type OverdueProduct struct {
	StoreID     int64      `json:"store_id"`
	ProductID   int64      `json:"product_id"`
	ProductName string     `json:"product_name"`
	RareDays    int        `json:"rare_days"`
	LastOrdered *time.Time `json:"last_ordered_at"`
	DaysSince   *int       `json:"days_since"`
}

// ------------------------------------------------------------------ payloads

type PlaceOrderPayload struct {
	StoreID   *int64 `json:"store_id" validate:"omitempty,gt=0"`
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gt=0,lte=100000"`
	Note      string `json:"note" validate:"max=500"`
}

func (p *PlaceOrderPayload) Validate() error {
	return validation.Struct(p)
}

type ListOrdersPayload struct {
	StoreID   *int64      `query:"store_id" validate:"omitempty,gt=0"`
	ProductID *int64      `query:"product_id" validate:"omitempty,gt=0"`
	Status    OrderStatus `query:"status" validate:"omitempty,oneof=held review approved rejected delivered"`
	Anomaly   Anomaly     `query:"anomaly" validate:"omitempty,oneof=none frequent rare"`
	From      Date        `query:"from"`
	To        Date        `query:"to"`
}

func (p *ListOrdersPayload) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	return validateRange(p.From, p.To)
}

type GetOrderPayload struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`
}

func (p *GetOrderPayload) Validate() error {
	return validation.Struct(p)
}

type DecideOrderPayload struct {
	ID     int64  `param:"id" json:"-" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"max=500"`
}

func (p *DecideOrderPayload) Validate() error {
	return validation.Struct(p)
}

type OverduePayload struct {
	StoreID *int64 `query:"store_id" validate:"omitempty,gt=0"`
	AsOf    Date   `query:"as_of"`
}

func (p *OverduePayload) Validate() error {
	return validation.Struct(p)
}
