package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	reviews, err := h.svc.Reviews.ListApproved(r.Context(), productID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	can, err := h.svc.Reviews.CanReview(r.Context(), userID(r), productID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews, "can_review": can})
}

func (h *Handler) submitReview(w http.ResponseWriter, r *http.Request) {
	var req reviewReq
	if !decode(w, r, &req) {
		return
	}
	rv, err := h.svc.Reviews.Submit(r.Context(), userID(r), chi.URLParam(r, "id"), req.Rating, req.Comment)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, rv)
}
