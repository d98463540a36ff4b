// Package order places bills against the open shift, runs the kitchen queue
// and cancels bills by appending reversal orders.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/admin"
	"github.com/appetiteclub/till/internal/clock"
	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/money"
	"github.com/appetiteclub/till/internal/shift"
	"github.com/appetiteclub/till/pkg/enums/drawer"
	"github.com/appetiteclub/till/pkg/enums/kitchenstatus"
	"github.com/appetiteclub/till/pkg/enums/paymentmethod"
	"github.com/appetiteclub/till/pkg/event"
	"github.com/appetiteclub/till/pkg/platform"
)

var (
	ErrEmptyCart              = errors.New("cart is empty")
	ErrInvalidQuantity        = errors.New("quantity must be positive")
	ErrInvalidPrice           = errors.New("price must not be negative")
	ErrInvalidPaymentMethod   = errors.New("payment method must be cash or qr")
	ErrInsufficientCash       = errors.New("cash received is less than the total")
	ErrAdminRequired          = errors.New("admin privilege required")
	ErrOrderNotFound          = errors.New("order not found")
	ErrAlreadyCancelled       = errors.New("order already cancelled")
	ErrReversalNotCancellable = errors.New("reversal orders cannot be cancelled")
	ErrKitchenOrderNotFound   = errors.New("kitchen order not found")
	ErrInvalidKitchenStatus   = errors.New("invalid kitchen status transition")
)

// errUnchanged lets a mutation finish without publishing a new snapshot.
var errUnchanged = errors.New("unchanged")

// DefaultVatRate is the flat Thai VAT rate.
var DefaultVatRate = decimal.RequireFromString("0.07")

// SyncRequester is told when orders need pushing to the remote store.
type SyncRequester interface {
	Request()
}

type Options struct {
	// VatRate overrides DefaultVatRate when set. Zero is a valid rate.
	VatRate   *decimal.Decimal
	Publisher platform.Publisher
	Sync      SyncRequester
}

type Engine struct {
	store     *ledger.Store
	clock     clock.Clock
	publisher platform.Publisher
	sync      SyncRequester
	vatRate   decimal.Decimal
	logger    platform.Logger
}

func NewEngine(store *ledger.Store, clk clock.Clock, opts Options, logger platform.Logger) *Engine {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	if clk == nil {
		clk = clock.New(nil)
	}
	vatRate := DefaultVatRate
	if opts.VatRate != nil {
		vatRate = *opts.VatRate
	}
	return &Engine{
		store:     store,
		clock:     clk,
		publisher: opts.Publisher,
		sync:      opts.Sync,
		vatRate:   vatRate,
		logger:    logger,
	}
}

// SetSync wires the sync requester after construction.
func (e *Engine) SetSync(s SyncRequester) {
	e.sync = s
}

func (e *Engine) VatRate() decimal.Decimal {
	return e.vatRate
}

type PlaceOrderInput struct {
	Lines         []ledger.CartLine `json:"lines"`
	PaymentMethod string            `json:"paymentMethod"`
	CashReceived  *decimal.Decimal  `json:"cashReceived,omitempty"`
	Discount      string            `json:"discount"`
	VatEnabled    bool              `json:"vatEnabled"`
}

// Receipt is what the till hands back after payment.
type Receipt struct {
	Order        ledger.Order     `json:"order"`
	CashReceived *decimal.Decimal `json:"cashReceived,omitempty"`
	Change       *decimal.Decimal `json:"change,omitempty"`
}

// PlaceOrder records a paid bill against the open shift and queues it for
// the kitchen. The remote push happens later through the sync requester.
func (e *Engine) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Receipt, error) {
	if len(in.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if l.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
	}

	method := paymentmethod.ByName(in.PaymentMethod)
	if method == nil || !method.Tender() {
		return nil, ErrInvalidPaymentMethod
	}

	totals := ComputeTotals(in.Lines, in.Discount, in.VatEnabled, e.vatRate)

	receipt := &Receipt{}
	if *method == paymentmethod.Methods.Cash && in.CashReceived != nil {
		if in.CashReceived.LessThan(totals.Total) {
			return nil, ErrInsufficientCash
		}
		cash := money.Round(*in.CashReceived)
		change := cash.Sub(totals.Total)
		receipt.CashReceived = &cash
		receipt.Change = &change
	}

	now := e.clock.Now()
	var placed ledger.Order
	var shiftID string

	d, err := e.store.Update(ctx, func(d *ledger.DailyData) error {
		if !d.CurrentShift.IsOpen() {
			return shift.ErrNoOpenShift
		}
		shiftID = d.CurrentShift.ID

		placed = ledger.Order{
			ID:            NextDailyID(d.Date, d.CompletedOrders),
			Items:         cloneLines(in.Lines),
			Subtotal:      totals.Subtotal,
			Tax:           totals.Tax,
			DiscountValue: totals.DiscountValue,
			Total:         totals.Total,
			Timestamp:     now,
			PaymentMethod: method.Code(),
			VatRate:       totals.VatRate,
			Status:        ledger.OrderCompleted,
			SyncStatus:    ledger.SyncPending,
		}
		d.CompletedOrders = append(d.CompletedOrders, placed.Clone())
		d.KitchenOrders = append(d.KitchenOrders, ledger.KitchenOrder{
			ID:        placed.ID,
			Items:     cloneLines(placed.Items),
			Timestamp: now,
			Status:    kitchenstatus.Statuses.Cooking.Code(),
		})
		d.CurrentShift.Activities = append(d.CurrentShift.Activities,
			ledger.NewActivity(now, drawer.Activities.Sale, placed.Total, *method, "Bill #"+placed.ID, placed.ID))
		d.Log(now, fmt.Sprintf("Order #%s placed, %s by %s", placed.ID, money.Format(placed.Total), method.Label()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("order placed", "order_id", placed.ID, "total", placed.Total.String(), "payment_method", placed.PaymentMethod)
	e.publish(ctx, event.OrderPlacedEvent{
		Metadata:      event.NewMetadata(event.EventOrderPlaced, d.Date, now),
		OrderID:       placed.ID,
		ShiftID:       shiftID,
		PaymentMethod: placed.PaymentMethod,
		ItemCount:     len(placed.Items),
		Subtotal:      placed.Subtotal,
		Discount:      placed.DiscountValue,
		Tax:           placed.Tax,
		Total:         placed.Total,
	})
	e.requestSync()

	receipt.Order = placed
	return receipt, nil
}

// Checkout places the cart's contents and clears it on success.
func (e *Engine) Checkout(ctx context.Context, cart *Cart, paymentMethod string, cashReceived *decimal.Decimal) (*Receipt, error) {
	view := cart.View(e.vatRate)
	receipt, err := e.PlaceOrder(ctx, PlaceOrderInput{
		Lines:         view.Lines,
		PaymentMethod: paymentMethod,
		CashReceived:  cashReceived,
		Discount:      view.Discount,
		VatEnabled:    view.VatEnabled,
	})
	if err != nil {
		return nil, err
	}
	cart.Clear()
	return receipt, nil
}

// CancelBill voids a bill. The original keeps its amounts and is marked
// cancelled; a reversal order with negated amounts is appended. Callers
// confirm with the operator first and must carry admin privilege in ctx.
func (e *Engine) CancelBill(ctx context.Context, orderID string) (*ledger.Order, error) {
	if !admin.IsAdmin(ctx) {
		return nil, ErrAdminRequired
	}

	now := e.clock.Now()
	var original, reversal ledger.Order
	var shiftID string

	d, err := e.store.Update(ctx, func(d *ledger.DailyData) error {
		idx := d.OrderIndex(orderID)
		if idx < 0 {
			return ErrOrderNotFound
		}
		o := d.CompletedOrders[idx]
		if o.IsCancelled() {
			return ErrAlreadyCancelled
		}
		if o.IsReversal() {
			return ErrReversalNotCancellable
		}

		reversal = ledger.Order{
			ID:            NextDailyID(d.Date, d.CompletedOrders),
			Items:         cloneLines(o.Items),
			Subtotal:      o.Subtotal.Neg(),
			Tax:           o.Tax.Neg(),
			DiscountValue: o.DiscountValue,
			Total:         o.Total.Neg(),
			Timestamp:     now,
			PaymentMethod: o.PaymentMethod,
			VatRate:       o.VatRate,
			Status:        ledger.OrderCompleted,
			SyncStatus:    ledger.SyncPending,
			ReversalOf:    o.ID,
		}

		cancelledAt := now
		d.CompletedOrders[idx].Status = ledger.OrderCancelled
		d.CompletedOrders[idx].CancelledAt = &cancelledAt
		d.CompletedOrders[idx].SyncStatus = ledger.SyncPending
		original = d.CompletedOrders[idx].Clone()
		d.CompletedOrders = append(d.CompletedOrders, reversal.Clone())

		if k := d.KitchenIndex(o.ID); k >= 0 {
			d.KitchenOrders = append(d.KitchenOrders[:k:k], d.KitchenOrders[k+1:]...)
		}

		if d.CurrentShift.IsOpen() {
			shiftID = d.CurrentShift.ID
			method := paymentmethod.ByName(o.PaymentMethod)
			if method == nil {
				method = &paymentmethod.Methods.Cash
			}
			d.CurrentShift.Activities = append(d.CurrentShift.Activities,
				ledger.NewActivity(now, drawer.Activities.Refund, o.Total, *method, "Bill cancellation #"+o.ID, o.ID))
		}

		d.Log(now, fmt.Sprintf("Bill #%s cancelled, reversal #%s for %s", o.ID, reversal.ID, money.Format(reversal.Total)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("bill cancelled", "order_id", original.ID, "reversal_id", reversal.ID, "total", original.Total.String())
	e.publish(ctx, event.BillCancelledEvent{
		Metadata:        event.NewMetadata(event.EventBillCancelled, d.Date, now),
		OrderID:         original.ID,
		ReversalOrderID: reversal.ID,
		ShiftID:         shiftID,
		PaymentMethod:   original.PaymentMethod,
		Total:           original.Total,
	})
	e.requestSync()

	return &reversal, nil
}

// UpdateOrderStatus moves a kitchen order forward. Marking ready stamps the
// preparation time once; a ready order stays as first stamped. "completed"
// hands off to CompleteOrder.
func (e *Engine) UpdateOrderStatus(ctx context.Context, orderID, status string) (*ledger.KitchenOrder, error) {
	target := kitchenstatus.ByName(status)
	if target == nil {
		return nil, ErrInvalidKitchenStatus
	}
	switch *target {
	case kitchenstatus.Statuses.Completed:
		return nil, e.CompleteOrder(ctx, orderID)
	case kitchenstatus.Statuses.Ready:
	default:
		return nil, ErrInvalidKitchenStatus
	}

	now := e.clock.Now()
	var updated ledger.KitchenOrder

	d, err := e.store.Update(ctx, func(d *ledger.DailyData) error {
		idx := d.KitchenIndex(orderID)
		if idx < 0 {
			return ErrKitchenOrderNotFound
		}
		k := &d.KitchenOrders[idx]
		if k.Status == kitchenstatus.Statuses.Ready.Code() {
			updated = k.Clone()
			return errUnchanged
		}

		readyAt := now
		prep := int64(readyAt.Sub(k.Timestamp) / time.Second)
		k.Status = kitchenstatus.Statuses.Ready.Code()
		k.ReadyAt = &readyAt
		k.PreparationTimeInSeconds = &prep
		updated = k.Clone()

		d.Log(now, fmt.Sprintf("Order #%s ready after %s", k.ID, time.Duration(prep)*time.Second))
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return &updated, nil
	}
	if err != nil {
		return nil, err
	}

	e.logger.Info("kitchen order ready", "order_id", orderID, "preparation_seconds", *updated.PreparationTimeInSeconds)
	e.publish(ctx, event.KitchenStatusChangedEvent{
		Metadata:                 event.NewMetadata(event.EventKitchenStatusChanged, d.Date, now),
		OrderID:                  orderID,
		NewStatus:                kitchenstatus.Statuses.Ready.Code(),
		PreviousStatus:           kitchenstatus.Statuses.Cooking.Code(),
		ReadyAt:                  updated.ReadyAt,
		PreparationTimeInSeconds: updated.PreparationTimeInSeconds,
	})
	return &updated, nil
}

// CompleteOrder takes an order off the kitchen queue once it is picked up.
// The order record itself is not touched.
func (e *Engine) CompleteOrder(ctx context.Context, orderID string) error {
	now := e.clock.Now()
	var previous string

	d, err := e.store.Update(ctx, func(d *ledger.DailyData) error {
		idx := d.KitchenIndex(orderID)
		if idx < 0 {
			return ErrKitchenOrderNotFound
		}
		previous = d.KitchenOrders[idx].Status
		d.KitchenOrders = append(d.KitchenOrders[:idx:idx], d.KitchenOrders[idx+1:]...)
		d.Log(now, fmt.Sprintf("Order #%s picked up", orderID))
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Debug("kitchen order completed", "order_id", orderID)
	e.publish(ctx, event.KitchenStatusChangedEvent{
		Metadata:       event.NewMetadata(event.EventKitchenStatusChanged, d.Date, now),
		OrderID:        orderID,
		NewStatus:      kitchenstatus.Statuses.Completed.Code(),
		PreviousStatus: previous,
	})
	return nil
}

// Orders returns today's orders, reversals included.
func (e *Engine) Orders() []ledger.Order {
	return e.store.Snapshot().CompletedOrders
}

// KitchenQueue returns the active kitchen orders, oldest first.
func (e *Engine) KitchenQueue() []ledger.KitchenOrder {
	return e.store.Snapshot().KitchenOrders
}

func (e *Engine) requestSync() {
	if e.sync != nil {
		e.sync.Request()
	}
}

func (e *Engine) publish(ctx context.Context, evt interface{}) {
	if err := event.Publish(ctx, e.publisher, event.LedgerTopic, evt); err != nil {
		e.logger.Error("cannot publish order event", "error", err)
	}
}

func cloneLines(lines []ledger.CartLine) []ledger.CartLine {
	out := make([]ledger.CartLine, len(lines))
	copy(out, lines)
	return out
}
