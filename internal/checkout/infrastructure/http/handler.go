package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	catalogapp "github.com/dmehra2102/storefront/internal/catalog/application"
	checkoutapp "github.com/dmehra2102/storefront/internal/checkout/application"
	couponapp "github.com/dmehra2102/storefront/internal/coupon/application"
	orderapp "github.com/dmehra2102/storefront/internal/order/application"
	paymentapp "github.com/dmehra2102/storefront/internal/payment/application"
	reviewapp "github.com/dmehra2102/storefront/internal/review/application"
	shippingapp "github.com/dmehra2102/storefront/internal/shipping/application"
	user "github.com/dmehra2102/storefront/internal/user/domain"
	"github.com/dmehra2102/storefront/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type AddressBook interface {
	UpdateAddress(ctx context.Context, id string, a user.Address) error
}

type Services struct {
	Catalog    *catalogapp.Service
	Coupons    *couponapp.Service
	Checkout   *checkoutapp.Service
	Reconciler *paymentapp.Reconciler
	Orders     *orderapp.Service
	Shipping   *shippingapp.Service
	Reviews    *reviewapp.Service
	Users      AddressBook
}

type Handler struct {
	log        *slog.Logger
	svc        Services
	metrics    *metrics.Registry
	sessionTTL time.Duration
	tracer     trace.Tracer
}

func NewHandler(log *slog.Logger, svc Services, m *metrics.Registry, sessionTTL time.Duration) *Handler {
	return &Handler{
		log:        log,
		svc:        svc,
		metrics:    m,
		sessionTTL: sessionTTL,
		tracer:     otel.Tracer("storefront-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLog)
	r.Use(identity)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.productDetail)
	r.Get("/categories/{category}/products", h.listCategory)
	r.Get("/offers", h.listOffers)

	// Provider callbacks carry no session.
	r.Post("/checkout/webhook", h.webhook)

	r.Group(func(r chi.Router) {
		r.Use(session(h.sessionTTL))

		r.Get("/checkout/cart", h.viewCart)
		r.Post("/checkout/cart/items", h.addItem)
		r.Put("/checkout/cart/items/{productID}", h.updateItem)
		r.Delete("/checkout/cart/items/{productID}", h.removeItem)
		r.Post("/checkout/coupon", h.applyCoupon)
		r.Delete("/checkout/coupon", h.removeCoupon)
		r.Post("/checkout/shipping/quote", h.quoteShipping)
		r.Post("/checkout/shipping/select", h.selectShipping)
		r.Get("/products/{id}/reviews", h.listReviews)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/checkout/review", h.review)
			r.Post("/checkout/payment-preference", h.createPreference)
			r.Get("/checkout/status", h.status)
			r.Get("/account/orders", h.listOrders)
			r.Put("/account/address", h.updateAddress)
			r.Post("/products/{id}/reviews", h.submitReview)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Post("/orders/{id}/ship", h.shipOrder)
		r.Post("/orders/{id}/deliver", h.deliverOrder)
		r.Get("/shipping-config", h.getShippingConfig)
		r.Put("/shipping-config", h.updateShippingConfig)
		r.Post("/reviews/{id}/approve", h.approveReview)
		r.Get("/coupons", h.listCoupons)
		r.Post("/coupons", h.createCoupon)
		r.Delete("/coupons/{id}", h.deleteCoupon)
	})

	return r
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Checkout.ViewCart(r.Context(), sessionID(r), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if !decode(w, r, &req) {
		return
	}
	n, err := h.svc.Checkout.AddToCart(r.Context(), sessionID(r), strings.TrimSpace(req.ProductID), req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"item_count": n})
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemReq
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.Checkout.UpdateLine(r.Context(), sessionID(r), userID(r), chi.URLParam(r, "productID"), *req.Quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Checkout.RemoveLine(r.Context(), sessionID(r), userID(r), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponReq
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.Checkout.ApplyCoupon(r.Context(), sessionID(r), userID(r), req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Checkout.RemoveCoupon(r.Context(), sessionID(r), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) quoteShipping(w http.ResponseWriter, r *http.Request) {
	var req quoteReq
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.Checkout.QuoteShipping(r.Context(), sessionID(r), userID(r), req.ZipCode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) selectShipping(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.Checkout.SelectShipping(r.Context(), sessionID(r), userID(r), req.Method)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type reviewResp struct {
	checkoutapp.View
	Customer struct {
		Name    string       `json:"name"`
		Email   string       `json:"email"`
		Address user.Address `json:"address"`
	} `json:"customer"`
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	rv, err := h.svc.Checkout.Review(r.Context(), sessionID(r), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp := reviewResp{View: rv.View}
	resp.Customer.Name = rv.User.Name
	resp.Customer.Email = rv.User.Email
	resp.Customer.Address = rv.User.Address
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) createPreference(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreatePaymentPreference")
	defer span.End()

	co, err := h.svc.Checkout.CreatePaymentPreference(ctx, sessionID(r), userID(r))
	if err != nil {
		span.RecordError(err)
		h.writeError(w, r, err)
		return
	}
	span.SetAttributes(attribute.String("order.id", co.OrderID))
	writeJSON(w, http.StatusCreated, co)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	paymentID, status, ref := q.Get("payment_id"), q.Get("status"), q.Get("external_reference")
	if paymentID == "" || status == "" || ref == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid payment information"})
		return
	}
	page, err := h.svc.Checkout.Status(r.Context(), userID(r), paymentID, status, ref)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
