package order

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/ledger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(id int, price string, qty int) ledger.CartLine {
	return ledger.CartLine{
		MenuItem: ledger.MenuItem{ID: id, Name: "Item", Price: dec(price), Category: "Food"},
		Quantity: qty,
	}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name         string
		lines        []ledger.CartLine
		discount     string
		vat          bool
		wantSubtotal string
		wantDiscount string
		wantTax      string
		wantTotal    string
	}{
		{
			name:         "noDiscountNoVat",
			lines:        []ledger.CartLine{line(1, "60", 2), line(2, "80", 1)},
			wantSubtotal: "200",
			wantDiscount: "0",
			wantTax:      "0",
			wantTotal:    "200",
		},
		{
			name:         "percentDiscount",
			lines:        []ledger.CartLine{line(1, "100", 2)},
			discount:     "10%",
			wantSubtotal: "200",
			wantDiscount: "20",
			wantTax:      "0",
			wantTotal:    "180",
		},
		{
			name:         "flatDiscount",
			lines:        []ledger.CartLine{line(1, "100", 2)},
			discount:     "20",
			wantSubtotal: "200",
			wantDiscount: "20",
			wantTax:      "0",
			wantTotal:    "180",
		},
		{
			name:         "vatOnDiscountedSubtotal",
			lines:        []ledger.CartLine{line(1, "100", 2)},
			discount:     "10%",
			vat:          true,
			wantSubtotal: "200",
			wantDiscount: "20",
			wantTax:      "12.6",
			wantTotal:    "192.6",
		},
		{
			name:         "discountAboveSubtotal",
			lines:        []ledger.CartLine{line(1, "50", 1)},
			discount:     "80",
			vat:          true,
			wantSubtotal: "50",
			wantDiscount: "80",
			wantTax:      "0",
			wantTotal:    "0",
		},
		{
			name:         "emptyCart",
			wantSubtotal: "0",
			wantDiscount: "0",
			wantTax:      "0",
			wantTotal:    "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.lines, tt.discount, tt.vat, dec("0.07"))
			checks := []struct {
				field string
				got   decimal.Decimal
				want  string
			}{
				{"Subtotal", got.Subtotal, tt.wantSubtotal},
				{"DiscountValue", got.DiscountValue, tt.wantDiscount},
				{"Tax", got.Tax, tt.wantTax},
				{"Total", got.Total, tt.wantTotal},
			}
			for _, c := range checks {
				if !c.got.Equal(dec(c.want)) {
					t.Errorf("%s = %s, want %s", c.field, c.got, c.want)
				}
			}
		})
	}
}

func TestComputeTotalsVatRateRecorded(t *testing.T) {
	lines := []ledger.CartLine{line(1, "100", 1)}

	if got := ComputeTotals(lines, "", false, dec("0.07")); !got.VatRate.IsZero() {
		t.Errorf("VatRate with VAT off = %s, want 0", got.VatRate)
	}
	if got := ComputeTotals(lines, "", true, dec("0.07")); !got.VatRate.Equal(dec("0.07")) {
		t.Errorf("VatRate with VAT on = %s, want 0.07", got.VatRate)
	}
}
