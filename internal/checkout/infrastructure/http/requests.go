package http

import (
	"strings"
	"time"

	coupon "github.com/dmehra2102/storefront/internal/coupon/domain"
	shipping "github.com/dmehra2102/storefront/internal/shipping/domain"
	"github.com/shopspring/decimal"
)

type addItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (r addItemReq) validate() map[string]string {
	f := map[string]string{}
	if strings.TrimSpace(r.ProductID) == "" {
		f["product_id"] = "is required"
	}
	if r.Quantity < 1 {
		f["quantity"] = "must be at least 1"
	}
	return f
}

// updateItemReq allows zero, which removes the line.
type updateItemReq struct {
	Quantity *int `json:"quantity"`
}

func (r updateItemReq) validate() map[string]string {
	if r.Quantity == nil {
		return map[string]string{"quantity": "is required"}
	}
	return nil
}

type couponReq struct {
	Code string `json:"code"`
}

func (r couponReq) validate() map[string]string {
	if strings.TrimSpace(r.Code) == "" {
		return map[string]string{"code": "is required"}
	}
	return nil
}

type quoteReq struct {
	ZipCode string `json:"zip_code"`
}

func (r quoteReq) validate() map[string]string {
	if len(shipping.NormalizeZip(r.ZipCode)) != 8 {
		return map[string]string{"zip_code": "must have 8 digits"}
	}
	return nil
}

// selectReq names a quoted method. Any cost sent by the client is ignored.
type selectReq struct {
	Method string `json:"method"`
}

func (r selectReq) validate() map[string]string {
	if strings.TrimSpace(r.Method) == "" {
		return map[string]string{"method": "is required"}
	}
	return nil
}

type addressReq struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
}

func (r addressReq) validate() map[string]string {
	f := map[string]string{}
	for name, v := range map[string]string{
		"street": r.Street, "number": r.Number, "neighborhood": r.Neighborhood,
		"city": r.City, "state": r.State, "zip_code": r.ZipCode,
	} {
		if strings.TrimSpace(v) == "" {
			f[name] = "is required"
		}
	}
	if _, ok := f["zip_code"]; !ok && len(shipping.NormalizeZip(r.ZipCode)) != 8 {
		f["zip_code"] = "must have 8 digits"
	}
	if _, ok := f["state"]; !ok && len(strings.TrimSpace(r.State)) != 2 {
		f["state"] = "must be a two-letter code"
	}
	return f
}

type reviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Rating and comment rules live in the review domain.
func (r reviewReq) validate() map[string]string { return nil }

type shippingConfigReq struct {
	LocalCity      string `json:"local_city"`
	LocalCostCents int64  `json:"local_cost_cents"`
}

func (r shippingConfigReq) validate() map[string]string {
	f := map[string]string{}
	if strings.TrimSpace(r.LocalCity) == "" {
		f["local_city"] = "is required"
	}
	if r.LocalCostCents < 0 {
		f["local_cost_cents"] = "must not be negative"
	}
	return f
}

// couponCreateReq accepts discount_value as a JSON number or string.
type couponCreateReq struct {
	Code              string          `json:"code"`
	DiscountType      string          `json:"discount_type"`
	DiscountValue     decimal.Decimal `json:"discount_value"`
	FirstPurchaseOnly bool            `json:"first_purchase_only"`
	ExpiresAt         *time.Time      `json:"expires_at"`
}

func (r couponCreateReq) validate() map[string]string {
	f := map[string]string{}
	if coupon.NormalizeCode(r.Code) == "" {
		f["code"] = "is required"
	}
	t := coupon.DiscountType(r.DiscountType)
	if !t.Valid() {
		f["discount_type"] = "must be percentage or fixed"
	}
	switch {
	case !r.DiscountValue.IsPositive():
		f["discount_value"] = "must be positive"
	case t == coupon.Percentage && r.DiscountValue.GreaterThan(decimal.NewFromInt(100)):
		f["discount_value"] = "must not exceed 100 for a percentage"
	}
	return f
}
