package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/ledger"
)

func TestRecordConversion(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	cancelled := at.Add(time.Hour)
	o := ledger.Order{
		ID: "1714555800001",
		Items: []ledger.CartLine{
			{MenuItem: ledger.MenuItem{ID: 3, Name: "Pad Thai", Price: decimal.RequireFromString("120"), Category: "Noodles"}, Quantity: 2},
			{MenuItem: ledger.MenuItem{ID: 7, Name: "Iced Tea", Price: decimal.RequireFromString("35.50"), Category: "Drinks"}, Quantity: 1},
		},
		Subtotal:      decimal.RequireFromString("275.50"),
		Tax:           decimal.RequireFromString("19.29"),
		DiscountValue: decimal.Zero,
		Total:         decimal.RequireFromString("294.79"),
		Timestamp:     at,
		PaymentMethod: "Cash",
		VatRate:       decimal.RequireFromString("0.07"),
		Status:        ledger.OrderCancelled,
		CancelledAt:   &cancelled,
		SyncStatus:    ledger.SyncPending,
	}

	rec := toRecord("20240501", o)
	if rec.Day != "20240501" {
		t.Errorf("Day = %s", rec.Day)
	}
	if len(rec.Lines) != 2 || rec.Lines[1].Position != 1 || rec.Lines[1].OrderID != o.ID {
		t.Fatalf("unexpected lines: %+v", rec.Lines)
	}

	got := rec.toOrder()
	if got.ID != o.ID || got.Status != o.Status || got.PaymentMethod != o.PaymentMethod {
		t.Errorf("header mismatch: %+v", got)
	}
	if !got.Total.Equal(o.Total) || !got.Tax.Equal(o.Tax) {
		t.Errorf("amounts mismatch: total %s tax %s", got.Total, got.Tax)
	}
	if got.CancelledAt == nil || !got.CancelledAt.Equal(cancelled) {
		t.Errorf("CancelledAt = %v", got.CancelledAt)
	}
	if len(got.Items) != 2 || got.Items[0].Name != "Pad Thai" || got.Items[0].Quantity != 2 {
		t.Errorf("items mismatch: %+v", got.Items)
	}
}

func TestArchiveNotStarted(t *testing.T) {
	a := NewGormArchive("", nil)
	ctx := context.Background()

	if err := a.Start(ctx); err == nil {
		t.Error("expected Start to fail without a dsn")
	}
	if err := a.ArchiveDay(ctx, ledger.NewDailyData("20240501")); !errors.Is(err, ErrNotStarted) {
		t.Errorf("ArchiveDay() error = %v, want ErrNotStarted", err)
	}
	if _, err := a.Orders(ctx, time.Time{}, time.Now()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Orders() error = %v, want ErrNotStarted", err)
	}
	if err := a.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
