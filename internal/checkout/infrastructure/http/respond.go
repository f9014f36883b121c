package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	cart "github.com/dmehra2102/storefront/internal/cart/domain"
	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/internal/checkout/application"
	coupon "github.com/dmehra2102/storefront/internal/coupon/domain"
	order "github.com/dmehra2102/storefront/internal/order/domain"
	payment "github.com/dmehra2102/storefront/internal/payment/domain"
	reviewapp "github.com/dmehra2102/storefront/internal/review/application"
	review "github.com/dmehra2102/storefront/internal/review/domain"
	shipping "github.com/dmehra2102/storefront/internal/shipping/domain"
	user "github.com/dmehra2102/storefront/internal/user/domain"
)

const maxBody = 64 << 10

type errorBody struct {
	Error     string                  `json:"error"`
	Fields    map[string]string       `json:"fields,omitempty"`
	Shortages []catalog.StockShortage `json:"shortages,omitempty"`
}

// validator is implemented by request bodies. A nil map means valid.
type validator interface {
	validate() map[string]string
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v and validates it. It writes the 400
// response itself and reports false when the request must stop.
func decode(w http.ResponseWriter, r *http.Request, v validator) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "empty request body"})
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON payload"})
		return false
	}
	if fields := v.validate(); len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: fields})
		return false
	}
	return true
}

type mapped struct {
	target error
	code   int
	msg    string
}

var errorTable = []mapped{
	{application.ErrLoginRequired, http.StatusUnauthorized, "login required"},
	{application.ErrAddressRequired, http.StatusUnprocessableEntity, "complete your shipping address before checkout"},
	{application.ErrEmptyCart, http.StatusConflict, "your cart is empty"},
	{application.ErrUnknownShipping, http.StatusUnprocessableEntity, "shipping option not available, quote shipping first"},
	{cart.ErrInvalidQuantity, http.StatusBadRequest, "quantity must be at least 1"},
	{catalog.ErrProductNotFound, http.StatusNotFound, "product not found"},
	{coupon.ErrCouponInvalid, http.StatusUnprocessableEntity, "coupon invalid or expired"},
	{coupon.ErrCouponExists, http.StatusConflict, "coupon code already exists"},
	{coupon.ErrCouponNotFound, http.StatusNotFound, "coupon not found"},
	{coupon.ErrCouponMalformed, http.StatusBadRequest, "invalid coupon"},
	{shipping.ErrInvalidZip, http.StatusBadRequest, "invalid postal code"},
	{order.ErrOrderNotFound, http.StatusNotFound, "order not found"},
	{order.ErrInvalidTransition, http.StatusConflict, "order cannot move to that status"},
	{order.ErrStatusConflict, http.StatusConflict, "order was updated concurrently, retry"},
	{payment.ErrPaymentUnavailable, http.StatusBadGateway, "could not start payment, please try again"},
	{user.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{review.ErrNotPurchased, http.StatusForbidden, "only purchased products can be reviewed"},
	{review.ErrAlreadyReviewed, http.StatusConflict, "you already reviewed this product"},
	{review.ErrReviewNotFound, http.StatusNotFound, "review not found"},
}

// writeError maps domain errors to responses. Anything unknown is logged and
// reported as a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *application.StockError
	if errors.As(err, &stockErr) {
		writeJSON(w, http.StatusConflict, errorBody{Error: "insufficient stock", Shortages: stockErr.Shortages})
		return
	}
	var invalid *reviewapp.InvalidError
	if errors.As(err, &invalid) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: invalid.Fields})
		return
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			writeJSON(w, m.code, errorBody{Error: m.msg})
			return
		}
	}
	h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}
