package ratings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kopikita/backend-kopi/internal/common"
)

var validate = validator.New()

// Handler exposes the order-rating endpoints.
type Handler struct {
	Service *Service
}

type ratePayload struct {
	Score   int    `json:"score" validate:"required"`
	Comment string `json:"comment"`
}

// Rate records a score for the caller's completed order.
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authed(w, r)
	if !ok {
		return
	}
	var payload ratePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "score is required", nil)
		return
	}
	rating, err := h.Service.Rate(r.Context(), userID, chi.URLParam(r, "orderId"), payload.Score, payload.Comment)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rating)
}

// Get returns the caller's rating for an order.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authed(w, r)
	if !ok {
		return
	}
	rating, err := h.Service.Get(r.Context(), userID, chi.URLParam(r, "orderId"))
	if err != nil {
		if errors.Is(err, ErrNotRated) {
			common.JSONError(w, http.StatusNotFound, "NOT_RATED", "order has not been rated", nil)
			return
		}
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rating)
}

func (h *Handler) authed(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ratings service not configured", nil)
		return "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return "", false
	}
	return userID, true
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
