package archive

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/ledger"
)

// OrderRecord is one archived order row. Reversals are archived alongside the
// orders they cancel so period totals match the day they were taken on.
type OrderRecord struct {
	ID            string          `gorm:"primaryKey;size:32"`
	Day           string          `gorm:"size:8;index;not null"`
	Timestamp     time.Time       `gorm:"index;not null"`
	PaymentMethod string          `gorm:"size:16;not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tax           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VatRate       decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	Status        string          `gorm:"size:16;index;not null"`
	SyncStatus    string          `gorm:"size:16;not null"`
	CancelledAt   *time.Time
	ReversalOf    string `gorm:"size:32;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Lines []OrderLineRecord `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderRecord) TableName() string { return "archived_orders" }

type OrderLineRecord struct {
	ID       uint            `gorm:"primaryKey"`
	OrderID  string          `gorm:"size:32;index;not null"`
	Position int             `gorm:"not null"`
	ItemID   int             `gorm:"not null"`
	Name     string          `gorm:"size:128;not null"`
	Category string          `gorm:"size:64"`
	Price    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity int             `gorm:"not null"`
}

func (OrderLineRecord) TableName() string { return "archived_order_lines" }

func toRecord(day string, o ledger.Order) OrderRecord {
	rec := OrderRecord{
		ID:            o.ID,
		Day:           day,
		Timestamp:     o.Timestamp,
		PaymentMethod: o.PaymentMethod,
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		DiscountValue: o.DiscountValue,
		Total:         o.Total,
		VatRate:       o.VatRate,
		Status:        string(o.Status),
		SyncStatus:    string(o.SyncStatus),
		CancelledAt:   o.CancelledAt,
		ReversalOf:    o.ReversalOf,
		Lines:         make([]OrderLineRecord, 0, len(o.Items)),
	}
	for i, l := range o.Items {
		rec.Lines = append(rec.Lines, OrderLineRecord{
			OrderID:  o.ID,
			Position: i,
			ItemID:   l.ID,
			Name:     l.Name,
			Category: l.Category,
			Price:    l.Price,
			Quantity: l.Quantity,
		})
	}
	return rec
}

func (r OrderRecord) toOrder() ledger.Order {
	o := ledger.Order{
		ID:            r.ID,
		Subtotal:      r.Subtotal,
		Tax:           r.Tax,
		DiscountValue: r.DiscountValue,
		Total:         r.Total,
		Timestamp:     r.Timestamp,
		PaymentMethod: r.PaymentMethod,
		VatRate:       r.VatRate,
		Status:        ledger.OrderStatus(r.Status),
		CancelledAt:   r.CancelledAt,
		SyncStatus:    ledger.SyncStatus(r.SyncStatus),
		ReversalOf:    r.ReversalOf,
		Items:         make([]ledger.CartLine, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		o.Items = append(o.Items, ledger.CartLine{
			MenuItem: ledger.MenuItem{
				ID:       l.ItemID,
				Name:     l.Name,
				Price:    l.Price,
				Category: l.Category,
			},
			Quantity: l.Quantity,
		})
	}
	return o
}
