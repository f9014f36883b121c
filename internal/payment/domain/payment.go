package domain

import (
	"errors"
	"time"

	order "github.com/dmehra2102/storefront/internal/order/domain"
)

var (
	ErrPaymentUnavailable = errors.New("payment provider unavailable")
	ErrPaymentNotFound    = errors.New("payment not found at provider")
)

// Status is the payment status reported by the provider.
type Status string

const (
	StatusApproved   Status = "approved"
	StatusPending    Status = "pending"
	StatusInProcess  Status = "in_process"
	StatusAuthorized Status = "authorized"
	StatusRejected   Status = "rejected"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// OrderStatus maps a provider status to the order status it drives. The
// second result is false when the payment status does not move the order.
func (s Status) OrderStatus() (order.OrderStatus, bool) {
	switch s {
	case StatusApproved:
		return order.StatusPaid, true
	case StatusRejected, StatusCancelled:
		return order.StatusCancelled, true
	}
	return "", false
}

// Payment is the provider's view of a payment, fetched by id. Only the
// provider is trusted for status and amount, never the notification body.
type Payment struct {
	ID                string
	Status            Status
	StatusDetail      string
	ExternalReference string
	AmountCents       int64
	Currency          string
	ReceivedAt        time.Time
}

// Notification is the decoded webhook body.
type Notification struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

const NotificationTypePayment = "payment"

type PreferenceItem struct {
	ID             string
	Title          string
	Quantity       int
	UnitPriceCents int64
}

type Payer struct {
	Name  string
	Email string
}

type BackURLs struct {
	Success string
	Failure string
	Pending string
}

// PreferenceRequest is everything the provider needs to open a checkout for
// one order. DiscountCents and ShippingCents become synthetic lines.
type PreferenceRequest struct {
	OrderID         string
	Items           []PreferenceItem
	DiscountCents   int64
	ShippingCents   int64
	Payer           Payer
	BackURLs        BackURLs
	NotificationURL string
}

func NewPreferenceRequest(o order.Order, payer Payer, baseURL string) PreferenceRequest {
	items := make([]PreferenceItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, PreferenceItem{
			ID:             it.ProductID,
			Title:          it.Title,
			Quantity:       it.Quantity,
			UnitPriceCents: it.PriceCents,
		})
	}
	statusURL := baseURL + "/checkout/status"
	return PreferenceRequest{
		OrderID:         o.ID,
		Items:           items,
		DiscountCents:   o.DiscountCents,
		ShippingCents:   o.Shipping.CostCents,
		Payer:           payer,
		BackURLs:        BackURLs{Success: statusURL, Failure: statusURL, Pending: statusURL},
		NotificationURL: baseURL + "/checkout/webhook",
	}
}

// Preference is the provider checkout created for an order.
type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}
