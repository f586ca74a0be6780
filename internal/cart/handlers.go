package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kopikita/backend-kopi/internal/catalog"
	"github.com/kopikita/backend-kopi/internal/common"
	"github.com/kopikita/backend-kopi/internal/obs"
	"github.com/kopikita/backend-kopi/internal/promo"
	"github.com/kopikita/backend-kopi/internal/rewards"
)

var validate = validator.New()

// Handler exposes the cart session endpoints. Every route requires an
// authenticated user; carts belonging to other users read as not found.
type Handler struct {
	Carts   *Store
	Catalog *catalog.Service
	Rewards *rewards.Service
}

type createCartPayload struct {
	StoreID string `json:"storeId" validate:"required"`
}

// Create opens a new cart at a store.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authed(w, r)
	if !ok {
		return
	}
	var payload createCartPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "storeId is required", nil)
		return
	}
	if _, err := h.Catalog.Store(payload.StoreID); err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "store not found", nil)
		return
	}
	ledger := h.Carts.Create(userID, payload.StoreID)
	h.refreshPoints(r, ledger)
	common.JSONData(w, http.StatusCreated, ledger.Snapshot())
}

// Get returns the cart snapshot with recomputed totals.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ownedCart(w, r)
	if !ok {
		return
	}
	h.refreshPoints(r, ledger)
	common.JSONData(w, http.StatusOK, ledger.Snapshot())
}

type addItemPayload struct {
	ItemID      string   `json:"itemId" validate:"required"`
	Qty         int      `json:"qty" validate:"required,gt=0"`
	SizeLabel   string   `json:"sizeLabel"`
	SugarLabel  string   `json:"sugarLabel"`
	AddOnLabels []string `json:"addOnLabels"`
	Notes       string   `json:"notes"`
}

// AddItem adds a configured menu item to the cart, merging into an existing
// line when the configuration matches. The unit price comes from the
// catalog, never the client.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ownedCart(w, r)
	if !ok {
		return
	}
	var payload addItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "itemId and a positive qty are required", nil)
		return
	}
	item, err := h.Catalog.MenuItem(payload.ItemID)
	if err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "menu item not found", nil)
		return
	}
	ledger.AddItem(AddInput{
		ItemID:    item.ID,
		Name:      item.Name,
		Qty:       payload.Qty,
		UnitPrice: h.Catalog.UnitPrice(item, payload.SizeLabel, payload.AddOnLabels),
		Customizations: Customizations{
			SizeLabel:   payload.SizeLabel,
			SugarLabel:  payload.SugarLabel,
			AddOnLabels: payload.AddOnLabels,
		},
		Notes: payload.Notes,
	})
	common.JSONData(w, http.StatusOK, ledger.Snapshot())
}

type updateQtyPayload struct {
	Qty int `json:"qty"`
}

// UpdateItem sets a line's quantity; zero or below removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ownedCart(w, r)
	if !ok {
		return
	}
	var payload updateQtyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	ledger.UpdateQuantity(chi.URLParam(r, "lineId"), payload.Qty)
	common.JSONData(w, http.StatusOK, ledger.Snapshot())
}

// RemoveItem deletes a line. Removing an unknown line still succeeds.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ownedCart(w, r)
	if !ok {
		return
	}
	ledger.RemoveLine(chi.URLParam(r, "lineId"))
	common.JSONData(w, http.StatusOK, ledger.Snapshot())
}

type applyPromoPayload struct {
	Code string `json:"code"`
}

// ApplyPromo validates a promo code against the catalog and attaches it.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ownedCart(w, r)
	if !ok {
		return
	}
	var payload applyPromoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := ledger.ApplyPromo(h.Catalog.Promos(), payload.Code); err != nil {
		status, code := promoRejection(err)
		if obs.PromoApplyTotal != nil {
			obs.PromoApplyTotal.WithLabelValues(code).Inc()
		}
		common.JSONError(w, status, code, err.Error(), nil)
		return
	}
	if obs.PromoApplyTotal != nil {
		obs.PromoApplyTotal.WithLabelValues("applied").Inc()
	}
	common.JSONData(w, http.StatusOK, ledger.Snapshot())
}

// RemovePromo detaches the applied promo.
func (h *Handler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ownedCart(w, r)
	if !ok {
		return
	}
	ledger.RemovePromo()
	common.JSONData(w, http.StatusOK, ledger.Snapshot())
}

type redeemPayload struct {
	Points int `json:"points" validate:"gte=0"`
}

// RedeemPoints sets the loyalty points to spend on this cart, clamped to
// the member's balance and the policy cap.
func (h *Handler) RedeemPoints(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ownedCart(w, r)
	if !ok {
		return
	}
	var payload redeemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "points must not be negative", nil)
		return
	}
	h.refreshPoints(r, ledger)
	ledger.RedeemPoints(payload.Points)
	common.JSONData(w, http.StatusOK, ledger.Snapshot())
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ownedCart(w, r)
	if !ok {
		return
	}
	ledger.Clear()
	common.JSONData(w, http.StatusOK, ledger.Snapshot())
}

func (h *Handler) authed(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Carts == nil || h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return "", false
	}
	return userID, true
}

func (h *Handler) ownedCart(w http.ResponseWriter, r *http.Request) (*Ledger, bool) {
	userID, ok := h.authed(w, r)
	if !ok {
		return nil, false
	}
	ledger, err := h.Carts.Get(chi.URLParam(r, "cartId"))
	if err != nil || ledger.UserID() != userID {
		if err != nil && !errors.Is(err, ErrCartNotFound) {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load cart", nil)
			return nil, false
		}
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
		return nil, false
	}
	return ledger, true
}

// refreshPoints pulls the member's current balance so redeem clamping works
// against live data. A rewards outage degrades to the last known balance.
func (h *Handler) refreshPoints(r *http.Request, ledger *Ledger) {
	if h.Rewards == nil {
		return
	}
	balance, err := h.Rewards.Balance(r.Context(), ledger.UserID())
	if err != nil {
		return
	}
	ledger.SetAvailablePoints(balance)
}

// promoRejection maps promo sentinel errors onto HTTP status and error
// codes the client switches on.
func promoRejection(err error) (int, string) {
	switch {
	case errors.Is(err, promo.ErrMissingCode):
		return http.StatusBadRequest, "PROMO_REQUIRED"
	case errors.Is(err, promo.ErrNotRecognized):
		return http.StatusNotFound, "PROMO_UNKNOWN"
	case errors.Is(err, promo.ErrExpired):
		return http.StatusUnprocessableEntity, "PROMO_EXPIRED"
	case errors.Is(err, promo.ErrMinimumSpendUnmet):
		return http.StatusUnprocessableEntity, "PROMO_MIN_SPEND"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
