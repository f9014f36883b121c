package domain

import "errors"

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AppliedCoupon only remembers the code. The discount amount is recomputed
// from the coupon record every time a total is shown.
type AppliedCoupon struct {
	Code string `json:"code"`
}

type ShippingChoice struct {
	Method    string `json:"method"`
	CostCents int64  `json:"cost_cents"`
	Days      int    `json:"days"`
}

// Cart is the per-session checkout state. It lives in the session store only.
type Cart struct {
	SessionID       string           `json:"session_id"`
	Lines           []Line           `json:"lines"`
	Coupon          *AppliedCoupon   `json:"coupon,omitempty"`
	ZipCode         string           `json:"zip_code,omitempty"`
	ShippingOptions []ShippingChoice `json:"shipping_options,omitempty"`
	Shipping        *ShippingChoice  `json:"shipping,omitempty"`
}

func New(sessionID string) *Cart {
	return &Cart{SessionID: sessionID}
}

// Add increments an existing line or appends a new one.
func (c *Cart) Add(productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity += qty
			return nil
		}
	}
	c.Lines = append(c.Lines, Line{ProductID: productID, Quantity: qty})
	return nil
}

// Update sets the quantity of a line; zero or negative removes it. Unknown
// products are ignored.
func (c *Cart) Update(productID string, qty int) {
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = qty
			return
		}
	}
}

func (c *Cart) Remove(productID string) {
	out := c.Lines[:0]
	for _, l := range c.Lines {
		if l.ProductID != productID {
			out = append(out, l)
		}
	}
	c.Lines = out
}

// Retain drops every line whose product is not in keep and reports whether
// anything was removed.
func (c *Cart) Retain(keep map[string]bool) bool {
	before := len(c.Lines)
	out := c.Lines[:0]
	for _, l := range c.Lines {
		if keep[l.ProductID] {
			out = append(out, l)
		}
	}
	c.Lines = out
	return len(out) != before
}

func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool { return len(c.Lines) == 0 }

// SelectShipping picks one of the previously quoted options by method name.
func (c *Cart) SelectShipping(method string) bool {
	for _, o := range c.ShippingOptions {
		if o.Method == method {
			choice := o
			c.Shipping = &choice
			return true
		}
	}
	return false
}

// Clear empties the cart after a successful checkout.
func (c *Cart) Clear() {
	c.Lines = nil
	c.Coupon = nil
	c.Shipping = nil
	c.ShippingOptions = nil
	c.ZipCode = ""
}
