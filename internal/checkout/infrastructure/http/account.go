package http

import (
	"net/http"
	"strings"

	shipping "github.com/dmehra2102/storefront/internal/shipping/domain"
	user "github.com/dmehra2102/storefront/internal/user/domain"
)

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders.ListByUser(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	var req addressReq
	if !decode(w, r, &req) {
		return
	}
	addr := user.Address{
		Street:       strings.TrimSpace(req.Street),
		Number:       strings.TrimSpace(req.Number),
		Complement:   strings.TrimSpace(req.Complement),
		Neighborhood: strings.TrimSpace(req.Neighborhood),
		City:         strings.TrimSpace(req.City),
		State:        strings.ToUpper(strings.TrimSpace(req.State)),
		ZipCode:      shipping.NormalizeZip(req.ZipCode),
	}
	if err := h.svc.Users.UpdateAddress(r.Context(), userID(r), addr); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addr)
}
