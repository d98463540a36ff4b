package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/ledger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func line(id int, name, category, price string, qty int) ledger.CartLine {
	return ledger.CartLine{
		MenuItem: ledger.MenuItem{ID: id, Name: name, Category: category, Price: dec(price)},
		Quantity: qty,
	}
}

// fixtureOrders: three bills, the second one cancelled with its reversal.
func fixtureOrders() []ledger.Order {
	cancelledAt := base.Add(2 * time.Hour)
	return []ledger.Order{
		{
			ID: "20240501-0001", Timestamp: base, PaymentMethod: "cash", Status: ledger.OrderCompleted,
			Items: []ledger.CartLine{line(1, "Takoyaki", "Food", "60", 2)}, Subtotal: dec("120"), Total: dec("120"),
		},
		{
			ID: "20240501-0002", Timestamp: base.Add(time.Hour), PaymentMethod: "qr", Status: ledger.OrderCancelled, CancelledAt: &cancelledAt,
			Items: []ledger.CartLine{line(1, "Takoyaki", "Food", "60", 1), line(3, "Green Tea", "Drinks", "40", 1)}, Subtotal: dec("100"), Total: dec("100"),
		},
		{
			ID: "20240501-0003", Timestamp: base.Add(time.Hour), PaymentMethod: "cash", Status: ledger.OrderCompleted,
			Items: []ledger.CartLine{line(3, "Green Tea", "Drinks", "40", 1)}, Subtotal: dec("40"), Total: dec("40"),
		},
		{
			ID: "20240501-0004", Timestamp: cancelledAt, PaymentMethod: "qr", Status: ledger.OrderCompleted, ReversalOf: "20240501-0002",
			Items: []ledger.CartLine{line(1, "Takoyaki", "Food", "60", 1), line(3, "Green Tea", "Drinks", "40", 1)}, Subtotal: dec("-100"), Total: dec("-100"),
		},
	}
}

func TestDailySummary(t *testing.T) {
	tests := []struct {
		name      string
		orders    []ledger.Order
		wantGross string
		wantCanc  string
		wantCount int
		wantNet   string
		wantBills int
	}{
		{name: "empty", wantGross: "0", wantCanc: "0", wantNet: "0"},
		{name: "withCancellation", orders: fixtureOrders(), wantGross: "260", wantCanc: "100", wantCount: 1, wantNet: "160", wantBills: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DailySummary(tt.orders)
			if !s.GrossSales.Equal(dec(tt.wantGross)) {
				t.Errorf("gross = %s, want %s", s.GrossSales, tt.wantGross)
			}
			if !s.CancellationsTotal.Equal(dec(tt.wantCanc)) || s.CancellationsCount != tt.wantCount {
				t.Errorf("cancellations = %s/%d, want %s/%d", s.CancellationsTotal, s.CancellationsCount, tt.wantCanc, tt.wantCount)
			}
			if !s.NetSales.Equal(dec(tt.wantNet)) {
				t.Errorf("net = %s, want %s", s.NetSales, tt.wantNet)
			}
			if !s.NetSales.Equal(s.GrossSales.Sub(s.CancellationsTotal)) {
				t.Errorf("net %s != gross %s - cancellations %s", s.NetSales, s.GrossSales, s.CancellationsTotal)
			}
			if s.BillCount != tt.wantBills {
				t.Errorf("bills = %d, want %d", s.BillCount, tt.wantBills)
			}
		})
	}
}

func TestProductBreakdownNetsReversals(t *testing.T) {
	got := ProductBreakdown(fixtureOrders())
	if len(got) != 2 {
		t.Fatalf("lines = %+v, want 2", got)
	}
	if got[0].Name != "Takoyaki" || got[0].Quantity != 2 || !got[0].Total.Equal(dec("120")) {
		t.Errorf("first = %+v, want Takoyaki 2 / 120", got[0])
	}
	if got[1].Name != "Green Tea" || got[1].Quantity != 1 || !got[1].Total.Equal(dec("40")) {
		t.Errorf("second = %+v, want Green Tea 1 / 40", got[1])
	}
}

func TestProductBreakdownDropsFullyReversed(t *testing.T) {
	orders := fixtureOrders()[1:2]
	orders = append(orders, fixtureOrders()[3])
	if got := ProductBreakdown(orders); len(got) != 0 {
		t.Errorf("lines = %+v, want none", got)
	}
}

func TestTopProducts(t *testing.T) {
	if got := TopProducts(fixtureOrders(), 1); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("TopProducts(1) = %+v", got)
	}
	if got := TopProducts(fixtureOrders(), 10); len(got) != 2 {
		t.Errorf("TopProducts(10) = %d lines, want 2", len(got))
	}
}

func TestCategoryBreakdown(t *testing.T) {
	got := CategoryBreakdown(fixtureOrders())
	if len(got) != 2 || got[0].Category != "Food" || !got[0].Total.Equal(dec("120")) {
		t.Errorf("categories = %+v", got)
	}
}

func TestPaymentBreakdown(t *testing.T) {
	got := PaymentBreakdown(fixtureOrders())
	want := map[string]struct {
		bills int
		total string
	}{
		"cash": {bills: 2, total: "160"},
		"qr":   {bills: 0, total: "0"},
	}
	if len(got) != len(want) {
		t.Fatalf("methods = %+v", got)
	}
	for _, p := range got {
		w := want[p.Method]
		if p.Bills != w.bills || !p.Total.Equal(dec(w.total)) {
			t.Errorf("%s = %d/%s, want %d/%s", p.Method, p.Bills, p.Total, w.bills, w.total)
		}
	}
}

func TestHourlyBreakdown(t *testing.T) {
	got := HourlyBreakdown(fixtureOrders(), time.UTC)
	if len(got) != 24 {
		t.Fatalf("hours = %d, want 24", len(got))
	}
	if !got[9].Total.Equal(dec("120")) || got[9].Bills != 1 {
		t.Errorf("09:00 = %+v", got[9])
	}
	if !got[10].Total.Equal(dec("140")) || got[10].Bills != 1 {
		t.Errorf("10:00 = %+v", got[10])
	}
	if !got[11].Total.Equal(dec("-100")) {
		t.Errorf("11:00 = %+v", got[11])
	}
}

func TestCancelledBills(t *testing.T) {
	orders := fixtureOrders()
	later := base.Add(5 * time.Hour)
	orders[0].Status = ledger.OrderCancelled
	orders[0].CancelledAt = &later

	got := CancelledBills(orders)
	if len(got) != 2 || got[0].ID != "20240501-0001" || got[1].ID != "20240501-0002" {
		t.Errorf("cancelled = %v, want latest cancellation first", got)
	}
}

func TestPeriodSummary(t *testing.T) {
	orders := fixtureOrders()
	next := orders[0]
	next.ID = "20240502-0001"
	next.Timestamp = base.Add(24 * time.Hour)
	orders = append(orders, next)

	p := PeriodSummary(orders, time.UTC)
	if p.From != "20240501" || p.To != "20240502" || len(p.Days) != 2 {
		t.Fatalf("period = %+v", p)
	}
	if !p.Days[0].NetSales.Equal(dec("160")) || !p.Days[1].NetSales.Equal(dec("120")) {
		t.Errorf("days = %+v", p.Days)
	}
	if !p.Total.NetSales.Equal(dec("280")) {
		t.Errorf("total net = %s, want 280", p.Total.NetSales)
	}
}
