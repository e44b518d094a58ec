package checkout

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/billing-service/internal/common"
)

// Handler exposes billing previews and order confirmation over HTTP.
type Handler struct {
	Svc *Service
}

// Bill returns the tax-inclusive bill for the user's cart.
func (h *Handler) Bill(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "checkout service not configured", nil)
		return
	}
	bill, err := h.Svc.Bill(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, bill)
}

// ConfirmOrder converts the cart into an order.
func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "checkout service not configured", nil)
		return
	}
	out, err := h.Svc.ConfirmOrder(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, out)
}
