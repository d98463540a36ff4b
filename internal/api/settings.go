package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/till/internal/admin"
	"github.com/appetiteclub/till/internal/notify"
	"github.com/appetiteclub/till/pkg/platform"
)

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	platform.RespondSuccess(w, h.deps.Settings.Get())
}

func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	req := h.deps.Settings.Get()
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.deps.Settings.Save(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(notify.Success, "Settings saved")
	platform.RespondSuccess(w, h.deps.Settings.Get())
}

func (h *Handler) GetOfflineImage(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	img, err := h.deps.Settings.OfflineImage(r.Context(), kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	platform.RespondSuccess(w, map[string]string{"kind": kind, "dataUrl": img})
}

func (h *Handler) SetOfflineImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DataURL string `json:"dataUrl"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	kind := chi.URLParam(r, "kind")
	if err := h.deps.Settings.SetOfflineImage(r.Context(), kind, req.DataURL); err != nil {
		h.fail(w, r, err)
		return
	}
	platform.RespondSuccess(w, map[string]string{"kind": kind})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	token, err := h.deps.Guard.Login(r.Context(), req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	platform.RespondSuccess(w, map[string]string{"token": token})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.deps.Guard.Logout(r.Header.Get(admin.TokenHeader))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"current"`
		Next    string `json:"next"`
		Confirm string `json:"confirm"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.deps.Guard.ChangePassword(r.Context(), req.Current, req.Next, req.Confirm); err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(notify.Success, "Admin password changed")
	w.WriteHeader(http.StatusNoContent)
}
