// Package money holds currency helpers for the till. Amounts are baht with two
// decimal places, represented as decimal.Decimal end to end.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Places = 2
	Symbol = "฿"
)

var hundred = decimal.NewFromInt(100)

func init() {
	// The remote order store reads amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Round rounds half away from zero to two places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Parse reads a user supplied amount. Blank input is zero.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// Discount resolves a discount entry against a subtotal. A trailing % makes it
// a percentage of the subtotal, anything else is a flat amount. Input that does
// not parse, or is negative, counts as no discount.
func Discount(raw string, subtotal decimal.Decimal) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}

	if strings.HasSuffix(raw, "%") {
		pct, err := Parse(strings.TrimSuffix(raw, "%"))
		if err != nil || pct.IsNegative() {
			return decimal.Zero
		}
		return Round(subtotal.Mul(pct).Div(hundred))
	}

	flat, err := Parse(raw)
	if err != nil || flat.IsNegative() {
		return decimal.Zero
	}
	return Round(flat)
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Format renders an amount as ฿1,234.50, with a leading minus for negatives.
func Format(d decimal.Decimal) string {
	d = Round(d)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	s := d.StringFixed(Places)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return sign + Symbol + b.String() + "." + frac
}
