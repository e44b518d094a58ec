package cart

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/billing-service/internal/common"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc *Service
}

type addRequest struct {
	ProductID string   `json:"productId"`
	ServiceID string   `json:"serviceId"`
	ItemIDs   []string `json:"itemIds"`
}

func (p addRequest) refs() []string {
	refs := make([]string, 0, len(p.ItemIDs)+2)
	for _, ref := range append([]string{p.ProductID, p.ServiceID}, p.ItemIDs...) {
		if ref = strings.TrimSpace(ref); ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Add appends products and services to the cart.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "cart service not configured", nil)
		return
	}
	var payload addRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	user, err := h.Svc.AddToCart(r.Context(), chi.URLParam(r, "userId"), payload.refs()...)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, user)
}

// Remove drops an item from the cart.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "cart service not configured", nil)
		return
	}
	user, err := h.Svc.RemoveFromCart(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "itemId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, user)
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "cart service not configured", nil)
		return
	}
	user, err := h.Svc.ClearCart(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, user)
}

// Routes mounts the cart endpoints under /users/{userId}/cart.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Add)
	r.Delete("/", h.Clear)
	r.Delete("/{itemId}", h.Remove)
}
