package order

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/kopikita/backend-kopi/internal/common"
	"github.com/kopikita/backend-kopi/internal/events"
)

var validate = validator.New()

// AdminHandler ingests status feed entries pushed by store operations.
// Accepted entries are announced on the event bus so the notification
// feed tracks the order's progress.
type AdminHandler struct {
	Store  *Store
	Events *events.Bus
	Log    zerolog.Logger
	Now    func() time.Time
}

type statusEventPayload struct {
	Status    string     `json:"status" validate:"required,oneof=received preparing ready completed"`
	Timestamp *time.Time `json:"timestamp"`
}

// PushStatus appends one status event for an order. A missing timestamp
// defaults to the server clock.
func (h *AdminHandler) PushStatus(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	var payload statusEventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid status event", err.Error())
		return
	}
	ts := time.Now()
	if h.Now != nil {
		ts = h.Now()
	}
	if payload.Timestamp != nil {
		ts = *payload.Timestamp
	}
	ev := StatusEvent{
		OrderID:   chi.URLParam(r, "orderId"),
		Status:    Status(payload.Status),
		Timestamp: ts,
	}
	if err := h.Store.AppendEvent(ev); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if h.Events != nil {
		if _, err := h.Events.Emit(r.Context(), events.TopicOrderStatusChanged, ev.OrderID, map[string]any{
			"orderId": ev.OrderID,
			"status":  string(ev.Status),
		}); err != nil {
			// the feed entry is already recorded; fan-out failures are log-only
			h.Log.Warn().Err(err).Str("order_id", ev.OrderID).Msg("order.status_changed fan-out failed")
		}
	}
	common.JSONData(w, http.StatusAccepted, ev)
}
