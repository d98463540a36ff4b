// Package seeding fills the till with a demo day.
package seeding

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/order"
	"github.com/appetiteclub/till/internal/shift"
	"github.com/appetiteclub/till/internal/storage"
	"github.com/appetiteclub/till/pkg/enums/drawer"
	"github.com/appetiteclub/till/pkg/platform"
)

const seedKeyPrefix = "seed:demo:"

// DemoMenu is used when the catalog has nothing loaded.
var DemoMenu = []ledger.MenuItem{
	{ID: 1, Name: "Takoyaki (6 pcs)", Price: decimal.NewFromInt(89), Category: "Takoyaki"},
	{ID: 2, Name: "Takoyaki (10 pcs)", Price: decimal.NewFromInt(139), Category: "Takoyaki"},
	{ID: 3, Name: "Cheese Takoyaki", Price: decimal.NewFromInt(119), Category: "Takoyaki"},
	{ID: 4, Name: "Yakisoba", Price: decimal.NewFromInt(99), Category: "Noodles"},
	{ID: 5, Name: "Green Tea", Price: decimal.NewFromInt(35), Category: "Drinks"},
	{ID: 6, Name: "Ramune", Price: decimal.NewFromInt(55), Category: "Drinks"},
}

type Deps struct {
	KV     storage.KV
	Store  *ledger.Store
	Shifts *shift.Manager
	Engine *order.Engine
	Menu   []ledger.MenuItem
}

type basket struct {
	lines    map[int]int
	method   string
	discount string
	vat      bool
}

var demoBaskets = []basket{
	{lines: map[int]int{1: 2, 5: 2}, method: "cash"},
	{lines: map[int]int{2: 1, 6: 1}, method: "qr", vat: true},
	{lines: map[int]int{3: 1, 4: 1}, method: "cash", discount: "10%"},
	{lines: map[int]int{4: 2, 5: 1}, method: "qr"},
	{lines: map[int]int{1: 1}, method: "cash", discount: "20"},
}

type seedMarker struct {
	Orders []string `json:"orders"`
}

// SeedDemoDay opens a shift if needed, rings up a handful of bills and moves
// some of them through the kitchen. It runs once per day and reports whether
// it did anything.
func SeedDemoDay(ctx context.Context, deps Deps, logger platform.Logger) (bool, error) {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}

	key := seedKeyPrefix + deps.Store.Today()
	var marker seedMarker
	err := storage.GetJSON(ctx, deps.KV, key, &marker)
	if err == nil {
		logger.Info("demo day already seeded, skipping", "key", key)
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("check seed status: %w", err)
	}

	menu := deps.Menu
	if len(menu) == 0 {
		menu = DemoMenu
	}
	byID := make(map[int]ledger.MenuItem, len(menu))
	for _, it := range menu {
		byID[it.ID] = it
	}

	if !deps.Store.Snapshot().CurrentShift.IsOpen() {
		if _, err := deps.Shifts.StartShift(ctx, decimal.NewFromInt(1000)); err != nil {
			return false, fmt.Errorf("open demo shift: %w", err)
		}
	}

	for i, b := range demoBaskets {
		in := order.PlaceOrderInput{
			PaymentMethod: b.method,
			Discount:      b.discount,
			VatEnabled:    b.vat,
		}
		for id := 1; id <= len(DemoMenu); id++ {
			qty, ok := b.lines[id]
			if !ok {
				continue
			}
			item, ok := byID[id]
			if !ok {
				item = menu[(id-1)%len(menu)]
			}
			in.Lines = append(in.Lines, ledger.CartLine{MenuItem: item, Quantity: qty})
		}

		r, err := deps.Engine.PlaceOrder(ctx, in)
		if err != nil {
			return false, fmt.Errorf("place demo order %d: %w", i+1, err)
		}
		marker.Orders = append(marker.Orders, r.Order.ID)
	}

	for i, id := range marker.Orders[:2] {
		if _, err := deps.Engine.UpdateOrderStatus(ctx, id, "ready"); err != nil {
			return false, err
		}
		if i == 0 {
			if err := deps.Engine.CompleteOrder(ctx, id); err != nil {
				return false, err
			}
		}
	}

	if _, err := deps.Shifts.RecordPaidInOut(ctx, shift.PaidInOut{
		Type:        drawer.Activities.PaidIn.Code(),
		Amount:      decimal.NewFromInt(200),
		Description: "Change from the bank",
	}); err != nil {
		return false, err
	}

	if err := storage.PutJSON(ctx, deps.KV, key, marker); err != nil {
		logger.Info("failed to mark demo seed as applied", "error", err)
	}

	logger.Info("demo day seeded", "date", deps.Store.Today(), "orders", len(marker.Orders))
	return true, nil
}

// ClearDemo forgets every demo seed marker so the next run seeds again.
func ClearDemo(ctx context.Context, kv storage.KV) (int, error) {
	keys, err := kv.Keys(ctx, seedKeyPrefix)
	if err != nil {
		return 0, err
	}
	for _, k := range keys {
		if err := kv.Delete(ctx, k); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}
