package http

import (
	"net/http"
	"strconv"

	catalog "github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/go-chi/chi/v5"
)

type productView struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Description         string   `json:"description,omitempty"`
	Category            string   `json:"category,omitempty"`
	PriceCents          int64    `json:"price_cents"`
	OnSale              bool     `json:"on_sale"`
	SalePriceCents      int64    `json:"sale_price_cents,omitempty"`
	EffectivePriceCents int64    `json:"effective_price_cents"`
	Stock               int      `json:"stock"`
	InStock             bool     `json:"in_stock"`
	Thumbnail           string   `json:"thumbnail,omitempty"`
	ImageURLs           []string `json:"image_urls,omitempty"`
}

func toProductView(p catalog.Product) productView {
	return productView{
		ID:                  p.ID,
		Name:                p.Name,
		Description:         p.Description,
		Category:            p.Category,
		PriceCents:          p.PriceCents,
		OnSale:              p.OnSale,
		SalePriceCents:      p.SalePriceCents,
		EffectivePriceCents: p.EffectivePriceCents(),
		Stock:               p.Stock,
		InStock:             p.Stock > 0,
		Thumbnail:           p.Thumbnail(),
		ImageURLs:           p.ImageURLs,
	}
}

func toProductViews(ps []catalog.Product) []productView {
	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductView(p))
	}
	return out
}

// limitParam reads ?limit; zero means the service default.
func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: map[string]string{"limit": "must be a positive integer"}})
		return 0, false
	}
	return n, true
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	ps, err := h.svc.Catalog.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": toProductViews(ps)})
}

func (h *Handler) listCategory(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	category := chi.URLParam(r, "category")
	ps, err := h.svc.Catalog.ListByCategory(r.Context(), category, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": category, "products": toProductViews(ps)})
}

func (h *Handler) listOffers(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	ps, err := h.svc.Catalog.ListOnSale(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": toProductViews(ps)})
}

// productDetail bundles the approved reviews and whether the caller may add one.
func (h *Handler) productDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.svc.Catalog.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	reviews, err := h.svc.Reviews.ListApproved(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	can, err := h.svc.Reviews.CanReview(r.Context(), userID(r), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": toProductView(p), "reviews": reviews, "can_review": can})
}
