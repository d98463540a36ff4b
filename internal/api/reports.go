package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/appetiteclub/till/internal/clock"
	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/report"
	"github.com/appetiteclub/till/pkg/platform"
)

const defaultTopProducts = 5

func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	top := defaultTopProducts
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			platform.RespondError(w, http.StatusBadRequest, "Invalid top value")
			return
		}
		top = n
	}

	d := h.deps.Store.Snapshot()
	orders := d.CompletedOrders
	platform.RespondSuccess(w, map[string]interface{}{
		"date":           d.Date,
		"summary":        report.DailySummary(orders),
		"products":       report.ProductBreakdown(orders),
		"topProducts":    report.TopProducts(orders, top),
		"categories":     report.CategoryBreakdown(orders),
		"payments":       report.PaymentBreakdown(orders),
		"hourly":         report.HourlyBreakdown(orders, h.deps.Location),
		"cancelledBills": report.CancelledBills(orders),
	})
}

// PeriodReport covers from..to inclusive (YYYYMMDD). Finished days come from
// the archive; today comes from the live ledger.
func (h *Handler) PeriodReport(w http.ResponseWriter, r *http.Request) {
	d := h.deps.Store.Snapshot()
	q := r.URL.Query()

	fromKey, toKey := q.Get("from"), q.Get("to")
	if fromKey == "" {
		fromKey = d.Date
	}
	if toKey == "" {
		toKey = d.Date
	}
	from, err := clock.ParseDayKey(fromKey, h.deps.Location)
	if err != nil {
		platform.RespondError(w, http.StatusBadRequest, "Invalid from date")
		return
	}
	to, err := clock.ParseDayKey(toKey, h.deps.Location)
	if err != nil || to.Before(from) {
		platform.RespondError(w, http.StatusBadRequest, "Invalid to date")
		return
	}
	end := to.AddDate(0, 0, 1)

	var orders []ledger.Order
	if h.deps.Archive != nil {
		archived, err := h.deps.Archive.Orders(r.Context(), from, end)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		orders = append(orders, archived...)
	}
	if fromKey <= d.Date && d.Date <= toKey {
		orders = append(orders, d.CompletedOrders...)
	}

	platform.RespondSuccess(w, report.PeriodSummary(orders, h.deps.Location))
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	platform.RespondSuccess(w, h.deps.Notify.Active())
}

func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Notify.Dismiss(chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
