package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kopikita/backend-kopi/internal/common"
	"github.com/kopikita/backend-kopi/internal/obs"
)

var validate = validator.New()

// Handler exposes the OTP login endpoints.
type Handler struct {
	Service *Service
}

type requestOTPPayload struct {
	Contact string `json:"contact" validate:"required"`
}

// RequestOTP starts a login challenge for a phone number or email.
func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	var payload requestOTPPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "contact is required", nil)
		return
	}
	challenge, err := h.Service.RequestOTP(payload.Contact)
	if err != nil {
		if obs.OTPRequestsTotal != nil {
			obs.OTPRequestsTotal.WithLabelValues("rejected").Inc()
		}
		writeAuthError(w, err)
		return
	}
	if obs.OTPRequestsTotal != nil {
		obs.OTPRequestsTotal.WithLabelValues("issued").Inc()
	}
	common.JSONData(w, http.StatusOK, challenge)
}

type verifyOTPPayload struct {
	Token string `json:"token" validate:"required"`
	Code  string `json:"code" validate:"required"`
}

// VerifyOTP redeems a challenge for an access token.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	var payload verifyOTPPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "token and code are required", nil)
		return
	}
	session, err := h.Service.VerifyOTP(payload.Token, payload.Code)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, session)
}

// Me returns the authenticated user's seeded member record.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	user, err := h.Service.Me(userID)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, user)
}

func writeAuthError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "authentication failed", nil)
}
