// Package report folds order lists into sales figures. Every function is pure.
//
// Gross sales count every bill as rung up, cancelled ones included.
// Cancellations are the cancelled originals. Net sales are the plain sum of
// all totals, where each reversal order offsets its cancelled original, so
// net = gross - cancellations. Line breakdowns count reversal lines negative.
package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/clock"
	"github.com/appetiteclub/till/internal/ledger"
)

type Summary struct {
	GrossSales         decimal.Decimal `json:"grossSales"`
	CancellationsTotal decimal.Decimal `json:"cancellationsTotal"`
	CancellationsCount int             `json:"cancellationsCount"`
	NetSales           decimal.Decimal `json:"netSales"`
	TaxTotal           decimal.Decimal `json:"taxTotal"`
	DiscountTotal      decimal.Decimal `json:"discountTotal"`
	BillCount          int             `json:"billCount"`
	AverageBill        decimal.Decimal `json:"averageBill"`
}

func DailySummary(orders []ledger.Order) Summary {
	s := Summary{}
	for _, o := range orders {
		s.NetSales = s.NetSales.Add(o.Total)
		s.TaxTotal = s.TaxTotal.Add(o.Tax)
		if o.IsReversal() {
			continue
		}
		s.GrossSales = s.GrossSales.Add(o.Total)
		if o.IsCancelled() {
			s.CancellationsTotal = s.CancellationsTotal.Add(o.Total)
			s.CancellationsCount++
			continue
		}
		s.DiscountTotal = s.DiscountTotal.Add(o.DiscountValue)
		s.BillCount++
	}
	if s.BillCount > 0 {
		s.AverageBill = s.NetSales.Div(decimal.NewFromInt(int64(s.BillCount))).Round(2)
	}
	return s
}

// sign is -1 for orders that take money back, else 1.
func sign(o ledger.Order) int64 {
	if o.IsReversal() || o.Total.IsNegative() {
		return -1
	}
	return 1
}

type ProductLine struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Quantity int64           `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// ProductBreakdown nets quantities and line amounts per menu item, best
// sellers first. Items whose sales were fully reversed are left out.
func ProductBreakdown(orders []ledger.Order) []ProductLine {
	byID := map[int]*ProductLine{}
	var order []int
	for _, o := range orders {
		sg := sign(o)
		for _, l := range o.Items {
			p, ok := byID[l.ID]
			if !ok {
				p = &ProductLine{ID: l.ID, Name: l.Name, Category: l.Category}
				byID[l.ID] = p
				order = append(order, l.ID)
			}
			p.Quantity += sg * int64(l.Quantity)
			p.Total = p.Total.Add(l.Amount().Mul(decimal.NewFromInt(sg)))
		}
	}

	out := make([]ProductLine, 0, len(order))
	for _, id := range order {
		p := byID[id]
		if p.Quantity == 0 && p.Total.IsZero() {
			continue
		}
		out = append(out, *p)
	}
	slices.SortStableFunc(out, func(a, b ProductLine) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// TopProducts returns the n best selling items.
func TopProducts(orders []ledger.Order, n int) []ProductLine {
	all := ProductBreakdown(orders)
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

type CategoryLine struct {
	Category string          `json:"category"`
	Quantity int64           `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

func CategoryBreakdown(orders []ledger.Order) []CategoryLine {
	byName := map[string]*CategoryLine{}
	for _, p := range ProductBreakdown(orders) {
		c, ok := byName[p.Category]
		if !ok {
			c = &CategoryLine{Category: p.Category}
			byName[p.Category] = c
		}
		c.Quantity += p.Quantity
		c.Total = c.Total.Add(p.Total)
	}

	out := make([]CategoryLine, 0, len(byName))
	for _, c := range byName {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b CategoryLine) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

type PaymentLine struct {
	Method string          `json:"method"`
	Bills  int             `json:"bills"`
	Total  decimal.Decimal `json:"total"`
}

// PaymentBreakdown nets totals per payment method. Bills counts the bills
// still standing.
func PaymentBreakdown(orders []ledger.Order) []PaymentLine {
	byMethod := map[string]*PaymentLine{}
	for _, o := range orders {
		p, ok := byMethod[o.PaymentMethod]
		if !ok {
			p = &PaymentLine{Method: o.PaymentMethod}
			byMethod[o.PaymentMethod] = p
		}
		p.Total = p.Total.Add(o.Total)
		if !o.IsReversal() && !o.IsCancelled() {
			p.Bills++
		}
	}

	out := make([]PaymentLine, 0, len(byMethod))
	for _, p := range byMethod {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b PaymentLine) int { return cmp.Compare(a.Method, b.Method) })
	return out
}

type HourLine struct {
	Hour  int             `json:"hour"`
	Bills int             `json:"bills"`
	Total decimal.Decimal `json:"total"`
}

// HourlyBreakdown buckets net sales by the hour the order was rung up, in loc.
func HourlyBreakdown(orders []ledger.Order, loc *time.Location) []HourLine {
	if loc == nil {
		loc = time.Local
	}
	out := make([]HourLine, 24)
	for h := range out {
		out[h].Hour = h
	}
	for _, o := range orders {
		h := o.Timestamp.In(loc).Hour()
		out[h].Total = out[h].Total.Add(o.Total)
		if !o.IsReversal() && !o.IsCancelled() {
			out[h].Bills++
		}
	}
	return out
}

// CancelledBills lists cancelled originals, most recently cancelled first.
func CancelledBills(orders []ledger.Order) []ledger.Order {
	var out []ledger.Order
	for _, o := range orders {
		if o.IsCancelled() {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b ledger.Order) int {
		return cancelledAt(b).Compare(cancelledAt(a))
	})
	return out
}

func cancelledAt(o ledger.Order) time.Time {
	if o.CancelledAt != nil {
		return *o.CancelledAt
	}
	return o.Timestamp
}

type DayLine struct {
	Date string `json:"date"`
	Summary
}

type Period struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Days  []DayLine `json:"days"`
	Total Summary   `json:"total"`
}

// PeriodSummary groups orders by their day in loc and summarises each day
// and the whole period.
func PeriodSummary(orders []ledger.Order, loc *time.Location) Period {
	if loc == nil {
		loc = time.Local
	}
	byDay := map[string][]ledger.Order{}
	for _, o := range orders {
		day := clock.DayKey(o.Timestamp.In(loc))
		byDay[day] = append(byDay[day], o)
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	slices.Sort(days)

	p := Period{Days: make([]DayLine, 0, len(days)), Total: DailySummary(orders)}
	for _, d := range days {
		p.Days = append(p.Days, DayLine{Date: d, Summary: DailySummary(byDay[d])})
	}
	if len(days) > 0 {
		p.From, p.To = days[0], days[len(days)-1]
	}
	return p
}
