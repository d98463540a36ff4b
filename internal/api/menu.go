package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/notify"
	"github.com/appetiteclub/till/pkg/platform"
)

func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	platform.RespondSuccess(w, map[string]interface{}{
		"items":         h.deps.Menu.Filter(q.Get("category"), q.Get("q")),
		"categories":    h.deps.Menu.Categories(),
		"navCategories": h.deps.Menu.NavCategories(),
		"favorites":     h.deps.Menu.Favorites(),
		"status":        h.deps.Menu.Status(),
	})
}

// ReloadMenu always goes to the remote. A failed fetch still answers with
// the copy in use so the till keeps selling.
func (h *Handler) ReloadMenu(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Menu.Load(r.Context(), true); err != nil {
		h.log(r).Info("menu reload failed", "error", err)
		h.notify(notify.Error, "Menu could not be refreshed, using saved copy")
	}
	h.GetMenu(w, r)
}

func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	fav, err := h.deps.Menu.ToggleFavorite(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	platform.RespondSuccess(w, map[string]interface{}{"id": id, "favorite": fav})
}

func (h *Handler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	var req ledger.MenuItem
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.deps.Menu.AddItem(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(notify.Success, fmt.Sprintf("%s added to the menu", item.Name))
	platform.RespondCreated(w, item)
}

func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var req ledger.MenuItem
	if !h.decode(w, r, &req) {
		return
	}
	req.ID = id

	item, err := h.deps.Menu.UpdateItem(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	platform.RespondSuccess(w, item)
}

func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	if err := h.deps.Menu.DeleteItem(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.deps.Menu.AddCategory(r.Context(), req.Name); err != nil {
		h.fail(w, r, err)
		return
	}
	platform.RespondCreated(w, h.deps.Menu.Categories())
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Menu.DeleteCategory(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.fail(w, r, err)
		return
	}
	platform.RespondSuccess(w, h.deps.Menu.Categories())
}
