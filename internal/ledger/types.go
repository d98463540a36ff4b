package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxLogEntries caps the daily activity log.
const MaxLogEntries = 200

type OrderStatus string

const (
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// NeedsSync reports whether the reconciler should push an order in this state.
func (s SyncStatus) NeedsSync() bool {
	return s == SyncPending || s == SyncFailed
}

type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "OPEN"
	ShiftClosed ShiftStatus = "CLOSED"
)

type MenuItem struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Category string          `json:"category"`
}

// CartLine is a menu item snapshot with a quantity.
type CartLine struct {
	MenuItem
	Quantity int `json:"quantity"`
}

// Amount is price times quantity.
func (l CartLine) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a financial record. Only Status, CancelledAt and SyncStatus change
// after creation; cancellation appends a reversal order instead of editing
// amounts.
type Order struct {
	ID            string          `json:"id"`
	Items         []CartLine      `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	Total         decimal.Decimal `json:"total"`
	Timestamp     time.Time       `json:"timestamp"`
	PaymentMethod string          `json:"paymentMethod"`
	VatRate       decimal.Decimal `json:"vatRate"`
	Status        OrderStatus     `json:"status"`
	CancelledAt   *time.Time      `json:"cancelledAt,omitempty"`
	SyncStatus    SyncStatus      `json:"syncStatus"`
	ReversalOf    string          `json:"reversalOf,omitempty"`
}

func (o Order) IsReversal() bool {
	return o.ReversalOf != ""
}

func (o Order) IsCancelled() bool {
	return o.Status == OrderCancelled
}

// KitchenOrder is the kitchen screen projection of an order.
type KitchenOrder struct {
	ID                       string     `json:"id"`
	Items                    []CartLine `json:"items"`
	Timestamp                time.Time  `json:"timestamp"`
	Status                   string     `json:"status"`
	ReadyAt                  *time.Time `json:"readyAt,omitempty"`
	PreparationTimeInSeconds *int64     `json:"preparationTimeInSeconds,omitempty"`
}

type CashDrawerActivity struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	Description   string          `json:"description"`
	OrderID       string          `json:"orderId,omitempty"`
}

// Shift tracks one opening float through to the closing count. The closing
// figures are set exactly once, when the shift is closed.
type Shift struct {
	ID                 string               `json:"id"`
	Status             ShiftStatus          `json:"status"`
	StartTime          time.Time            `json:"startTime"`
	OpeningFloatAmount decimal.Decimal      `json:"openingFloatAmount"`
	Activities         []CashDrawerActivity `json:"activities"`

	EndTime              *time.Time       `json:"endTime,omitempty"`
	ClosingCashCounted   *decimal.Decimal `json:"closingCashCounted,omitempty"`
	ExpectedCashInDrawer *decimal.Decimal `json:"expectedCashInDrawer,omitempty"`
	CashOverShort        *decimal.Decimal `json:"cashOverShort,omitempty"`
	CashForNextShift     *decimal.Decimal `json:"cashForNextShift,omitempty"`
	CashToDeposit        *decimal.Decimal `json:"cashToDeposit,omitempty"`
	Totals               *ShiftTotals     `json:"totals,omitempty"`
}

func (s *Shift) IsOpen() bool {
	return s != nil && s.Status == ShiftOpen
}

// ShiftTotals are the sales figures frozen onto a closed shift.
type ShiftTotals struct {
	TotalSales              decimal.Decimal `json:"totalSales"`
	TotalCashSales          decimal.Decimal `json:"totalCashSales"`
	TotalQrSales            decimal.Decimal `json:"totalQrSales"`
	TotalPaidIn             decimal.Decimal `json:"totalPaidIn"`
	TotalPaidOut            decimal.Decimal `json:"totalPaidOut"`
	TotalRefunds            decimal.Decimal `json:"totalRefunds"`
	TotalCancellationsValue decimal.Decimal `json:"totalCancellationsValue"`
	TotalCancellationsCount int             `json:"totalCancellationsCount"`
}

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
}

// DailyData is the aggregate root for one calendar day.
type DailyData struct {
	Date            string         `json:"date"`
	CompletedOrders []Order        `json:"completedOrders"`
	KitchenOrders   []KitchenOrder `json:"kitchenOrders"`
	ActivityLog     []LogEntry     `json:"activityLog"`
	CurrentShift    *Shift         `json:"currentShift"`
}

// NewDailyData returns an empty day.
func NewDailyData(date string) *DailyData {
	return &DailyData{
		Date:            date,
		CompletedOrders: []Order{},
		KitchenOrders:   []KitchenOrder{},
		ActivityLog:     []LogEntry{},
	}
}

// Log prepends an entry and trims the log to MaxLogEntries.
func (d *DailyData) Log(at time.Time, action string) {
	entries := make([]LogEntry, 0, min(len(d.ActivityLog)+1, MaxLogEntries))
	entries = append(entries, LogEntry{Timestamp: at, Action: action})
	for _, e := range d.ActivityLog {
		if len(entries) == MaxLogEntries {
			break
		}
		entries = append(entries, e)
	}
	d.ActivityLog = entries
}

// OrderIndex returns the position of the order with id, or -1.
func (d *DailyData) OrderIndex(id string) int {
	for i := range d.CompletedOrders {
		if d.CompletedOrders[i].ID == id {
			return i
		}
	}
	return -1
}

// KitchenIndex returns the position of the kitchen order with id, or -1.
func (d *DailyData) KitchenIndex(id string) int {
	for i := range d.KitchenOrders {
		if d.KitchenOrders[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy. Mutations always operate on a clone so readers
// holding an earlier snapshot never observe partial changes.
func (d *DailyData) Clone() *DailyData {
	if d == nil {
		return nil
	}
	out := &DailyData{
		Date:            d.Date,
		CompletedOrders: make([]Order, len(d.CompletedOrders)),
		KitchenOrders:   make([]KitchenOrder, len(d.KitchenOrders)),
		ActivityLog:     make([]LogEntry, len(d.ActivityLog)),
		CurrentShift:    d.CurrentShift.Clone(),
	}
	for i, o := range d.CompletedOrders {
		out.CompletedOrders[i] = o.Clone()
	}
	for i, k := range d.KitchenOrders {
		out.KitchenOrders[i] = k.Clone()
	}
	copy(out.ActivityLog, d.ActivityLog)
	return out
}

func (o Order) Clone() Order {
	out := o
	out.Items = cloneLines(o.Items)
	out.CancelledAt = cloneTime(o.CancelledAt)
	return out
}

func (k KitchenOrder) Clone() KitchenOrder {
	out := k
	out.Items = cloneLines(k.Items)
	out.ReadyAt = cloneTime(k.ReadyAt)
	if k.PreparationTimeInSeconds != nil {
		v := *k.PreparationTimeInSeconds
		out.PreparationTimeInSeconds = &v
	}
	return out
}

func (s *Shift) Clone() *Shift {
	if s == nil {
		return nil
	}
	out := *s
	out.Activities = make([]CashDrawerActivity, len(s.Activities))
	copy(out.Activities, s.Activities)
	out.EndTime = cloneTime(s.EndTime)
	out.ClosingCashCounted = cloneDecimal(s.ClosingCashCounted)
	out.ExpectedCashInDrawer = cloneDecimal(s.ExpectedCashInDrawer)
	out.CashOverShort = cloneDecimal(s.CashOverShort)
	out.CashForNextShift = cloneDecimal(s.CashForNextShift)
	out.CashToDeposit = cloneDecimal(s.CashToDeposit)
	if s.Totals != nil {
		t := *s.Totals
		out.Totals = &t
	}
	return &out
}

func cloneLines(lines []CartLine) []CartLine {
	if lines == nil {
		return nil
	}
	out := make([]CartLine, len(lines))
	copy(out, lines)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
