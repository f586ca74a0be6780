package favorites

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kopikita/backend-kopi/internal/catalog"
	"github.com/kopikita/backend-kopi/internal/common"
)

// Handler exposes the favorites endpoints.
type Handler struct {
	Svc     *Service
	Catalog *catalog.Service
}

// List returns the member's favorite menu items, resolved against the
// catalog so delisted items drop out silently.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authed(w, r)
	if !ok {
		return
	}
	ids, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load favorites", nil)
		return
	}
	items := make([]catalog.MenuItem, 0, len(ids))
	for _, id := range ids {
		if item, err := h.Catalog.MenuItem(id); err == nil {
			items = append(items, item)
		}
	}
	common.JSONData(w, http.StatusOK, items)
}

// Add marks a menu item as a favorite.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authed(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemId")
	if _, err := h.Catalog.MenuItem(itemID); err != nil {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "menu item not found", nil)
		return
	}
	if err := h.Svc.Add(r.Context(), userID, itemID); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to save favorite", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"itemId": itemID, "favorite": true})
}

// Remove unmarks a favorite.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authed(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemId")
	if err := h.Svc.Remove(r.Context(), userID, itemID); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to remove favorite", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{"itemId": itemID, "favorite": false})
}

func (h *Handler) authed(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Svc == nil || h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "favorites service not configured", nil)
		return "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return "", false
	}
	return userID, true
}
