package order

import (
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/money"
)

type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	VatRate       decimal.Decimal `json:"vatRate"`
}

// ComputeTotals prices a set of lines. VAT applies to the discounted
// subtotal; the recorded rate is zero when VAT is off.
func ComputeTotals(lines []ledger.CartLine, discount string, vatEnabled bool, vatRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount())
	}
	subtotal = money.Round(subtotal)

	t := Totals{
		Subtotal:      subtotal,
		DiscountValue: money.Discount(discount, subtotal),
		Tax:           decimal.Zero,
		VatRate:       decimal.Zero,
	}

	taxable := money.NonNegative(subtotal.Sub(t.DiscountValue))
	if vatEnabled {
		t.VatRate = vatRate
		t.Tax = money.Round(taxable.Mul(vatRate))
	}
	t.Total = money.NonNegative(subtotal.Sub(t.DiscountValue).Add(t.Tax))
	return t
}
