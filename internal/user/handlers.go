package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kopikita/backend-kopi/internal/common"
)

var validate = validator.New()

// Handler exposes the profile and address-book endpoints. Every route
// requires an authenticated user.
type Handler struct {
	Service *Service
}

// GetProfile returns the member's profile overlay.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authed(w, r)
	if !ok {
		return
	}
	profile, err := h.Service.Profile(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load profile", nil)
		return
	}
	common.JSONData(w, http.StatusOK, profile)
}

// UpdateProfile replaces the member's profile overlay.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authed(w, r)
	if !ok {
		return
	}
	var payload Profile
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	updated, err := h.Service.UpdateProfile(r.Context(), userID, payload)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to save profile", nil)
		return
	}
	common.JSONData(w, http.StatusOK, updated)
}

// ListAddresses returns the member's address book.
func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authed(w, r)
	if !ok {
		return
	}
	addresses, err := h.Service.Addresses(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load addresses", nil)
		return
	}
	if addresses == nil {
		addresses = []Address{}
	}
	common.JSONData(w, http.StatusOK, addresses)
}

// CreateAddress saves a new address.
func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authed(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeAddress(w, r)
	if !ok {
		return
	}
	address, err := h.Service.AddAddress(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, address)
}

// UpdateAddress edits an existing address.
func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authed(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeAddress(w, r)
	if !ok {
		return
	}
	address, err := h.Service.UpdateAddress(r.Context(), userID, chi.URLParam(r, "addressId"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, address)
}

// DeleteAddress removes an address.
func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authed(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteAddress(r.Context(), userID, chi.URLParam(r, "addressId")); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusNoContent, nil)
}

func (h *Handler) authed(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "user service not configured", nil)
		return "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return "", false
	}
	return userID, true
}

func (h *Handler) decodeAddress(w http.ResponseWriter, r *http.Request) (AddressInput, bool) {
	var in AddressInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return AddressInput{}, false
	}
	if err := validate.Struct(in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "label, line1, city and postalCode are required", nil)
		return AddressInput{}, false
	}
	return in, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "request failed", nil)
}
