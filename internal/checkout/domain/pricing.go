package domain

import (
	cart "github.com/dmehra2102/storefront/internal/cart/domain"
	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	order "github.com/dmehra2102/storefront/internal/order/domain"
)

// PricedLine is a cart line joined with its product at quote time.
type PricedLine struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// Quote is the priced view of a cart. It is derived data: rebuild it from the
// cart and the catalog whenever a total is shown.
type Quote struct {
	Lines          []PricedLine `json:"lines"`
	Missing        []string     `json:"missing,omitempty"`
	SubtotalCents  int64        `json:"subtotal_cents"`
	CouponCode     string       `json:"coupon_code,omitempty"`
	DiscountCents  int64        `json:"discount_cents"`
	ShippingMethod string       `json:"shipping_method,omitempty"`
	ShippingCents  int64        `json:"shipping_cents"`
	TotalCents     int64        `json:"total_cents"`
}

// Price sums quantity times effective price over the lines whose product is
// present in products. Lines for unknown products are reported in Missing
// and left out of the subtotal.
func Price(lines []cart.Line, products map[string]catalog.Product) Quote {
	q := Quote{Lines: make([]PricedLine, 0, len(lines))}
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			q.Missing = append(q.Missing, l.ProductID)
			continue
		}
		unit := p.EffectivePriceCents()
		line := PricedLine{
			ProductID:      p.ID,
			Name:           p.Name,
			Thumbnail:      p.Thumbnail(),
			Quantity:       l.Quantity,
			UnitPriceCents: unit,
			LineTotalCents: unit * int64(l.Quantity),
		}
		q.Lines = append(q.Lines, line)
		q.SubtotalCents += line.LineTotalCents
	}
	q.total()
	return q
}

// WithDiscount returns q with the coupon discount applied. The amount is
// clamped to the subtotal.
func (q Quote) WithDiscount(code string, cents int64) Quote {
	if cents < 0 {
		cents = 0
	}
	if cents > q.SubtotalCents {
		cents = q.SubtotalCents
	}
	q.CouponCode = code
	q.DiscountCents = cents
	q.total()
	return q
}

func (q Quote) WithShipping(method string, cents int64) Quote {
	if cents < 0 {
		cents = 0
	}
	q.ShippingMethod = method
	q.ShippingCents = cents
	q.total()
	return q
}

func (q *Quote) total() {
	goods := q.SubtotalCents - q.DiscountCents
	if goods < 0 {
		goods = 0
	}
	q.TotalCents = goods + q.ShippingCents
}

func (q Quote) IsEmpty() bool { return len(q.Lines) == 0 }

// Items snapshots the priced lines as order items.
func (q Quote) Items() []order.OrderItem {
	items := make([]order.OrderItem, 0, len(q.Lines))
	for _, l := range q.Lines {
		items = append(items, order.OrderItem{
			ProductID:  l.ProductID,
			Title:      l.Name,
			Quantity:   l.Quantity,
			PriceCents: l.UnitPriceCents,
		})
	}
	return items
}

// StockRequests lists the quantities to check against the catalog.
func (q Quote) StockRequests() []catalog.StockRequest {
	reqs := make([]catalog.StockRequest, 0, len(q.Lines))
	for _, l := range q.Lines {
		reqs = append(reqs, catalog.StockRequest{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return reqs
}
