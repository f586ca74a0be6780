package order

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kopikita/backend-kopi/internal/common"
)

// Handler exposes the authenticated order history endpoints.
type Handler struct {
	Store        *Store
	DefaultLimit int
	MaxLimit     int
}

// List returns the caller's orders, newest first, paginated.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	defaultLimit := h.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	page, perPage := common.ParsePagination(r, defaultLimit)
	if h.MaxLimit > 0 && perPage > h.MaxLimit {
		perPage = h.MaxLimit
	}
	orders := h.Store.ListByUser(userID)
	windowed, total := common.PageSlice(orders, page, perPage)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": windowed,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: total,
		},
	})
}

// Get returns one of the caller's orders.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

// StatusTimeline returns the four-stage progress view for one of the
// caller's orders.
func (h *Handler) StatusTimeline(w http.ResponseWriter, r *http.Request) {
	o, ok := h.ownedOrder(w, r)
	if !ok {
		return
	}
	events := h.Store.Events(o.ID)
	common.JSONData(w, http.StatusOK, map[string]any{
		"orderId":  o.ID,
		"status":   ResolveStatus(events, o.Status),
		"timeline": Timeline(events, o.Status),
	})
}

// ownedOrder loads the order in the URL and checks it belongs to the
// caller. Foreign orders read as not found rather than forbidden, so order
// ids stay unguessable.
func (h *Handler) ownedOrder(w http.ResponseWriter, r *http.Request) (Order, bool) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return Order{}, false
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return Order{}, false
	}
	o, err := h.Store.Get(chi.URLParam(r, "orderId"))
	if err != nil || o.UserID != userID {
		if err != nil && !errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load order", nil)
			return Order{}, false
		}
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return Order{}, false
	}
	return o, true
}
