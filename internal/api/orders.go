package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/notify"
	"github.com/appetiteclub/till/internal/order"
	"github.com/appetiteclub/till/pkg/platform"
)

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	platform.RespondSuccess(w, h.deps.Cart.View(h.deps.Engine.VatRate()))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.deps.Cart.Clear()
	h.GetCart(w, r)
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID   int `json:"itemId"`
		Quantity int `json:"quantity"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.deps.Menu.Item(req.ItemID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.deps.Cart.Add(item, req.Quantity); err != nil {
		h.fail(w, r, err)
		return
	}
	h.GetCart(w, r)
}

func (h *Handler) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.deps.Cart.SetQuantity(id, req.Quantity); err != nil {
		h.fail(w, r, err)
		return
	}
	h.GetCart(w, r)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	if err := h.deps.Cart.Remove(id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.GetCart(w, r)
}

func (h *Handler) SetCartDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Discount string `json:"discount"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	h.deps.Cart.SetDiscount(req.Discount)
	h.GetCart(w, r)
}

func (h *Handler) SetCartVat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	h.deps.Cart.SetVat(req.Enabled)
	h.GetCart(w, r)
}

type paymentRequest struct {
	PaymentMethod string           `json:"paymentMethod"`
	CashReceived  *decimal.Decimal `json:"cashReceived,omitempty"`
}

// Checkout pays for the till's cart. The cart is kept when payment fails.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	receipt, err := h.deps.Engine.Checkout(r.Context(), h.deps.Cart, req.PaymentMethod, req.CashReceived)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.notify(notify.Success, fmt.Sprintf("Order #%s placed", receipt.Order.ID))
	platform.RespondCreated(w, receipt)
}

// PlaceOrder takes the lines in the request instead of the till's cart.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req order.PlaceOrderInput
	if !h.decode(w, r, &req) {
		return
	}

	receipt, err := h.deps.Engine.PlaceOrder(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	platform.RespondCreated(w, receipt)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	platform.RespondSuccess(w, h.deps.Engine.Orders())
}

// CancelBill needs an admin token and an explicit confirmation.
func (h *Handler) CancelBill(w http.ResponseWriter, r *http.Request) {
	var req confirmation
	if !h.decode(w, r, &req) {
		return
	}
	if !h.confirmed(w, req) {
		return
	}

	id := chi.URLParam(r, "id")
	reversal, err := h.deps.Engine.CancelBill(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.log(r).Info("bill cancelled via api", "order_id", id, "reversal_id", reversal.ID)
	h.notify(notify.Success, fmt.Sprintf("Bill #%s cancelled", id))
	platform.RespondSuccess(w, reversal)
}

func (h *Handler) ListKitchen(w http.ResponseWriter, r *http.Request) {
	platform.RespondSuccess(w, h.deps.Engine.KitchenQueue())
}

func (h *Handler) UpdateKitchenStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	k, err := h.deps.Engine.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if k == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	platform.RespondSuccess(w, k)
}

func (h *Handler) CompleteKitchenOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Engine.CompleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SyncNow(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Sync.SyncOnce(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Failed > 0 {
		h.notify(notify.Error, fmt.Sprintf("%d bills failed to sync", res.Failed))
	} else if res.Synced > 0 {
		h.notify(notify.Success, fmt.Sprintf("Synced %d bills", res.Synced))
	}
	platform.RespondSuccess(w, res)
}

func itemID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		platform.RespondError(w, http.StatusBadRequest, "Invalid item ID")
		return 0, false
	}
	return id, true
}
