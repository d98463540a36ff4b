package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LedgerTopic = "till.ledger"

	EventOrderPlaced    = "order.placed"
	EventBillCancelled  = "bill.cancelled"
	EventShiftOpened    = "shift.opened"
	EventShiftClosed    = "shift.closed"
	EventDrawerActivity = "drawer.activity"
	EventSyncCompleted  = "sync.completed"
)

type Metadata struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Date       string    `json:"date"`
}

func NewMetadata(eventType, date string, at time.Time) Metadata {
	return Metadata{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: at,
		Date:       date,
	}
}

type OrderPlacedEvent struct {
	Metadata
	OrderID       string          `json:"order_id"`
	ShiftID       string          `json:"shift_id,omitempty"`
	PaymentMethod string          `json:"payment_method"`
	ItemCount     int             `json:"item_count"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
}

// BillCancelledEvent is emitted once per cancellation, with the reversal
// order that offsets the original.
type BillCancelledEvent struct {
	Metadata
	OrderID         string          `json:"order_id"`
	ReversalOrderID string          `json:"reversal_order_id"`
	ShiftID         string          `json:"shift_id,omitempty"`
	PaymentMethod   string          `json:"payment_method"`
	Total           decimal.Decimal `json:"total"`
}

type ShiftOpenedEvent struct {
	Metadata
	ShiftID      string          `json:"shift_id"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
}

type ShiftClosedEvent struct {
	Metadata
	ShiftID              string          `json:"shift_id"`
	ExpectedCashInDrawer decimal.Decimal `json:"expected_cash_in_drawer"`
	ClosingCashCounted   decimal.Decimal `json:"closing_cash_counted"`
	CashOverShort        decimal.Decimal `json:"cash_over_short"`
	CashToDeposit        decimal.Decimal `json:"cash_to_deposit"`
	TotalSales           decimal.Decimal `json:"total_sales"`
}

type DrawerActivityEvent struct {
	Metadata
	ShiftID       string          `json:"shift_id"`
	ActivityID    string          `json:"activity_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Description   string          `json:"description,omitempty"`
}

type SyncCompletedEvent struct {
	Metadata
	Attempted int `json:"attempted"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}
