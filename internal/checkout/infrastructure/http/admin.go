package http

import (
	"net/http"

	coupon "github.com/dmehra2102/storefront/internal/coupon/domain"
	order "github.com/dmehra2102/storefront/internal/order/domain"
	shipping "github.com/dmehra2102/storefront/internal/shipping/domain"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) shipOrder(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, order.StatusShipped)
}

func (h *Handler) deliverOrder(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, order.StatusDelivered)
}

// advance goes through the same transition table as the webhook.
func (h *Handler) advance(w http.ResponseWriter, r *http.Request, to order.OrderStatus) {
	id := chi.URLParam(r, "id")
	o, err := h.svc.Orders.Transition(r.Context(), id, to, "")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info("order advanced by admin", "order_id", id, "status", o.Status, "admin_id", userID(r))
	writeJSON(w, http.StatusOK, o)
}

type shippingConfigResp struct {
	LocalCity      string `json:"local_city"`
	LocalCostCents int64  `json:"local_cost_cents"`
}

func (h *Handler) getShippingConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.svc.Shipping.Config(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shippingConfigResp{LocalCity: cfg.LocalCity, LocalCostCents: cfg.LocalCostCents})
}

func (h *Handler) updateShippingConfig(w http.ResponseWriter, r *http.Request) {
	var req shippingConfigReq
	if !decode(w, r, &req) {
		return
	}
	cfg := shipping.Config{LocalCity: req.LocalCity, LocalCostCents: req.LocalCostCents}
	if err := h.svc.Shipping.UpdateConfig(r.Context(), cfg); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shippingConfigResp(req))
}

func (h *Handler) approveReview(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reviews.Approve(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.Coupons.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if cs == nil {
		cs = []coupon.Coupon{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"coupons": cs})
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponCreateReq
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.Coupons.Create(r.Context(), coupon.Coupon{
		Code:              req.Code,
		Type:              coupon.DiscountType(req.DiscountType),
		Value:             req.DiscountValue,
		FirstPurchaseOnly: req.FirstPurchaseOnly,
		ExpiresAt:         req.ExpiresAt,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info("coupon created", "code", c.Code, "admin_id", userID(r))
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Coupons.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info("coupon deleted", "coupon_id", id, "admin_id", userID(r))
	w.WriteHeader(http.StatusNoContent)
}
