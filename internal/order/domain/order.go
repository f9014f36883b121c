package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrStatusConflict means the order left the expected status between the
	// read and the conditional write.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusPaid      OrderStatus = "Paid"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
	StatusCancelled OrderStatus = "Cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped},
	StatusShipped: {StatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransition is the single source of truth for order status changes.
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type OrderItem struct {
	ProductID  string `json:"product_id"`
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

func (i OrderItem) LineTotalCents() int64 { return int64(i.Quantity) * i.PriceCents }

// Address is the shipping address frozen at order time.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
}

type Shipping struct {
	Method    string `json:"method"`
	CostCents int64  `json:"cost_cents"`
}

type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	Items           []OrderItem `json:"items"`
	SubtotalCents   int64       `json:"subtotal_cents"`
	DiscountCents   int64       `json:"discount_cents"`
	CouponCode      string      `json:"coupon_code,omitempty"`
	Shipping        Shipping    `json:"shipping"`
	TotalCents      int64       `json:"total_cents"`
	ShippingAddress Address     `json:"shipping_address"`
	Status          OrderStatus `json:"status"`
	PreferenceID    string      `json:"preference_id,omitempty"`
	PaymentID       string      `json:"payment_id,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// NewOrder snapshots items and prices. The discount is clamped to the
// subtotal so the total never goes below the shipping cost.
func NewOrder(id, userID string, items []OrderItem, couponCode string, discountCents int64, shipping Shipping, addr Address) Order {
	var subtotal int64
	for _, item := range items {
		subtotal += item.LineTotalCents()
	}
	if discountCents < 0 {
		discountCents = 0
	}
	if discountCents > subtotal {
		discountCents = subtotal
	}
	now := time.Now().UTC()
	return Order{
		ID:              id,
		UserID:          userID,
		Items:           items,
		SubtotalCents:   subtotal,
		DiscountCents:   discountCents,
		CouponCode:      couponCode,
		Shipping:        shipping,
		TotalCents:      subtotal - discountCents + shipping.CostCents,
		ShippingAddress: addr,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Transition describes one conditional status write. The store applies it
// only while the order still has status From; StockDecrements are applied in
// the same atomic write.
type Transition struct {
	OrderID         string
	From            OrderStatus
	To              OrderStatus
	PaymentID       string
	StockDecrements []OrderItem
}

// PlanTransition validates a move to status to and describes the write. The
// Pending -> Paid move carries the order's items as stock decrements.
func (o Order) PlanTransition(to OrderStatus, paymentID string) (Transition, error) {
	if !CanTransition(o.Status, to) {
		return Transition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	t := Transition{OrderID: o.ID, From: o.Status, To: to, PaymentID: paymentID}
	if o.Status == StatusPending && to == StatusPaid {
		t.StockDecrements = o.Items
	}
	return t, nil
}

func (t Transition) EventType() string {
	return "Order" + string(t.To)
}
