package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kopikita/backend-kopi/internal/cart"
	"github.com/kopikita/backend-kopi/internal/common"
	"github.com/kopikita/backend-kopi/internal/order"
)

// Handler exposes the checkout endpoints.
type Handler struct {
	Service *Service
}

// Slots lists the scheduable pickup times for a store today.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil || h.Service.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	storeID := r.URL.Query().Get("storeId")
	if storeID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "storeId query parameter is required", nil)
		return
	}
	store, err := h.Service.Catalog.Store(storeID)
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "store not found", nil)
		return
	}
	now := time.Now()
	if h.Service.Now != nil {
		now = h.Service.Now()
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"storeId": store.ID,
		"slots":   PickupSlots(store.Hours, now, h.Service.Slots),
	})
}

// Checkout places an order from the caller's cart.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	out, err := h.Service.Create(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, out)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrCartNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, order.ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "CART_EMPTY", "cart is empty", nil)
	case errors.Is(err, ErrFulfillmentUnavailable):
		common.JSONError(w, http.StatusUnprocessableEntity, "FULFILLMENT_UNAVAILABLE", err.Error(), nil)
	case errors.Is(err, ErrInvalidSlot):
		common.JSONError(w, http.StatusUnprocessableEntity, "SLOT_UNAVAILABLE", err.Error(), nil)
	case errors.Is(err, ErrUnknownPayment):
		common.JSONError(w, http.StatusUnprocessableEntity, "PAYMENT_METHOD_UNKNOWN", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout failed", nil)
	}
}
