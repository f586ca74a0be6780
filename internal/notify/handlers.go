package notify

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kopikita/backend-kopi/internal/common"
)

// Handler exposes the notification feed endpoints.
type Handler struct {
	Feed *Feed
}

// List returns the feed, newest first. Entries carrying a deep link are
// annotated with the parsed routing target so the client does not
// re-implement the grammar.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Feed == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "notification feed not configured", nil)
		return
	}
	if _, ok := common.UserID(r.Context()); !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	type entry struct {
		Notification
		Route map[string]string `json:"route,omitempty"`
	}
	list := h.Feed.List()
	out := make([]entry, 0, len(list))
	for _, n := range list {
		e := entry{Notification: n}
		if n.DeepLink != "" {
			if link, err := ParseDeepLink(n.DeepLink); err == nil {
				e.Route = map[string]string{"resource": link.Resource}
				if link.ID != "" {
					e.Route["id"] = link.ID
				}
			}
		}
		out = append(out, e)
	}
	common.JSONData(w, http.StatusOK, out)
}

// MarkRead flags one notification as read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if h.Feed == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "notification feed not configured", nil)
		return
	}
	if _, ok := common.UserID(r.Context()); !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	h.Feed.MarkRead(chi.URLParam(r, "notificationId"))
	common.JSON(w, http.StatusNoContent, nil)
}
