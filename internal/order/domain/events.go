package domain

type OrderCreated struct {
	OrderID    string
	UserID     string
	TotalCents int64
	CouponCode string
	Items      []OrderItem
}

type OrderStatusChanged struct {
	OrderID   string
	From      OrderStatus
	To        OrderStatus
	PaymentID string `json:",omitempty"`
}
