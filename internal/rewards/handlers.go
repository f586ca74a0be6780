package rewards

import (
	"net/http"

	"github.com/kopikita/backend-kopi/internal/common"
)

// Handler serves the rewards summary endpoint.
type Handler struct {
	Service *Service
}

// Summary returns the caller's balance, tier progress, and activity feed.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rewards service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	ctx := r.Context()
	balance, err := h.Service.Balance(ctx, userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load rewards balance", nil)
		return
	}
	activity, err := h.Service.Activity(ctx, userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load rewards activity", nil)
		return
	}
	if activity == nil {
		activity = []Transaction{}
	}
	current, next := TierFor(balance)

	payload := map[string]any{
		"points":   balance,
		"tier":     current,
		"activity": activity,
	}
	if next != nil {
		payload["nextTier"] = next
		payload["pointsToNextTier"] = next.MinPoints - balance
	}
	common.JSONData(w, http.StatusOK, payload)
}
