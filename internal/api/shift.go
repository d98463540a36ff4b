package api

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/money"
	"github.com/appetiteclub/till/internal/notify"
	"github.com/appetiteclub/till/internal/shift"
	"github.com/appetiteclub/till/pkg/platform"
)

func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	platform.RespondSuccess(w, h.deps.Store.Snapshot())
}

func (h *Handler) GetActivityLog(w http.ResponseWriter, r *http.Request) {
	platform.RespondSuccess(w, h.deps.Store.Snapshot().ActivityLog)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	count, err := h.deps.Shifts.TodayCount(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := map[string]interface{}{
		"shift":      nil,
		"todayCount": count,
		"maxPerDay":  h.deps.Shifts.MaxPerDay(),
	}
	if s, summary, err := h.deps.Shifts.Current(); err == nil {
		resp["shift"] = s
		resp["summary"] = summary
	}
	platform.RespondSuccess(w, resp)
}

func (h *Handler) ListShiftHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.deps.Shifts.History(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	platform.RespondSuccess(w, history)
}

func (h *Handler) StartShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OpeningFloat decimal.Decimal `json:"openingFloat"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	s, err := h.deps.Shifts.StartShift(r.Context(), req.OpeningFloat)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(notify.Success, fmt.Sprintf("Shift %s started", s.ID))
	platform.RespondCreated(w, s)
}

func (h *Handler) RecordPaidInOut(w http.ResponseWriter, r *http.Request) {
	var req shift.PaidInOut
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.deps.Shifts.RecordPaidInOut(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	platform.RespondCreated(w, a)
}

func (h *Handler) OpenDrawer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.deps.Shifts.RecordManualDrawerOpen(r.Context(), req.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	platform.RespondCreated(w, a)
}

// CloseShift is final. Without an explicit confirmation nothing changes.
func (h *Handler) CloseShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		confirmation
		shift.EndShiftInput
	}
	if !h.decode(w, r, &req) {
		return
	}
	if !h.confirmed(w, req.confirmation) {
		return
	}

	closed, err := h.deps.Shifts.EndShift(r.Context(), req.EndShiftInput)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.log(r).Info("shift closed via api", "shift_id", closed.ID)
	h.notify(notify.Success, fmt.Sprintf("Shift %s closed, over/short %s", closed.ID, money.Format(*closed.CashOverShort)))
	platform.RespondSuccess(w, closed)
}
