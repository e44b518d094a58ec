package order

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/billing-service/internal/common"
)

// Handler exposes order history endpoints.
type Handler struct {
	Svc *Service
}

// List handles GET /api/v1/users/{userId}/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "order service not configured", nil)
		return
	}
	orders, err := h.Svc.ListByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	page, limit := common.ParsePagination(r, 20, 100)
	w.Header().Set("X-Total-Count", strconv.Itoa(len(orders)))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       common.Paginate(orders, page, limit),
		"pagination": common.Pagination{Page: page, PerPage: limit, TotalItems: len(orders)},
	})
}
