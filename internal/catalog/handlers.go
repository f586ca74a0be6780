package catalog

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kopikita/backend-kopi/internal/common"
	"github.com/kopikita/backend-kopi/internal/promo"
)

// Handler exposes read-only catalog endpoints.
type Handler struct {
	Service      *Service
	DefaultLimit int
	MaxLimit     int
	Now          func() time.Time
}

func (h *Handler) now() time.Time {
	if h != nil && h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Menu lists menu items with optional category/tag/q filters and pagination.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
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
	q := r.URL.Query()
	items := h.Service.Menu(MenuFilter{
		CategoryID: q.Get("category"),
		Tag:        q.Get("tag"),
		Query:      q.Get("q"),
	})
	windowed, total := common.PageSlice(items, page, perPage)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": windowed,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: total,
		},
	})
}

// MenuItemDetail returns one menu item with the customization table.
func (h *Handler) MenuItemDetail(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	item, err := h.Service.MenuItem(chi.URLParam(r, "itemId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "menu item not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load menu item", nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"item":    item,
		"options": h.Service.Options(),
	})
}

// Stores lists outlets ordered by distance.
func (h *Handler) Stores(w http.ResponseWriter, _ *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	common.JSONData(w, http.StatusOK, h.Service.Stores())
}

// PaymentMethods lists the stored payment instruments.
func (h *Handler) PaymentMethods(w http.ResponseWriter, _ *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	common.JSONData(w, http.StatusOK, h.Service.PaymentMethods())
}

// Promos lists promos that have not yet expired, so the client can surface
// available codes without re-implementing eligibility rules.
func (h *Handler) Promos(w http.ResponseWriter, _ *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	now := h.now()
	active := make([]promo.Promo, 0)
	for _, p := range h.Service.Promos() {
		if !p.Expired(now) {
			active = append(active, p)
		}
	}
	common.JSONData(w, http.StatusOK, active)
}
