// Package shift runs the cash drawer shift lifecycle: open with a float,
// record drawer movements, close against a counted amount.
package shift

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/clock"
	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/money"
	"github.com/appetiteclub/till/pkg/enums/drawer"
	"github.com/appetiteclub/till/pkg/enums/paymentmethod"
	"github.com/appetiteclub/till/pkg/event"
	"github.com/appetiteclub/till/pkg/platform"
)

const DefaultMaxPerDay = 3

var (
	ErrShiftAlreadyOpen  = errors.New("a shift is already open")
	ErrShiftLimitReached = errors.New("daily shift limit reached")
	ErrNoOpenShift       = errors.New("no open shift")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidActivity   = errors.New("activity type must be PAID_IN or PAID_OUT")
)

type Options struct {
	MaxPerDay int
	Publisher platform.Publisher
}

type Manager struct {
	store     *ledger.Store
	history   *History
	clock     clock.Clock
	publisher platform.Publisher
	logger    platform.Logger
	maxPerDay int
}

func NewManager(store *ledger.Store, history *History, clk clock.Clock, opts Options, logger platform.Logger) *Manager {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	if clk == nil {
		clk = clock.New(nil)
	}
	if opts.MaxPerDay <= 0 {
		opts.MaxPerDay = DefaultMaxPerDay
	}
	return &Manager{
		store:     store,
		history:   history,
		clock:     clk,
		publisher: opts.Publisher,
		logger:    logger,
		maxPerDay: opts.MaxPerDay,
	}
}

func (m *Manager) MaxPerDay() int {
	return m.maxPerDay
}

// PaidInOut is a manual drawer movement.
type PaidInOut struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type EndShiftInput struct {
	Counted        decimal.Decimal `json:"counted"`
	NextShiftFloat decimal.Decimal `json:"nextShiftFloat"`
}

// StartShift opens the next shift of the day with the given opening float.
func (m *Manager) StartShift(ctx context.Context, openingFloat decimal.Decimal) (*ledger.Shift, error) {
	if openingFloat.IsNegative() {
		return nil, ErrInvalidAmount
	}
	openingFloat = money.Round(openingFloat)

	now := m.clock.Now()
	var opened *ledger.Shift

	// History is read under the store lock so a concurrent EndShift cannot
	// prepend between the count and the new id.
	d, err := m.store.Update(ctx, func(d *ledger.DailyData) error {
		if d.CurrentShift.IsOpen() {
			return ErrShiftAlreadyOpen
		}
		history, err := m.history.List(ctx)
		if err != nil {
			return fmt.Errorf("cannot read shift history: %w", err)
		}
		count := CountForDay(history, d.Date)
		if count >= m.maxPerDay {
			return ErrShiftLimitReached
		}

		opened = &ledger.Shift{
			ID:                 fmt.Sprintf("%s-S%d", d.Date, count+1),
			Status:             ledger.ShiftOpen,
			StartTime:          now,
			OpeningFloatAmount: openingFloat,
			Activities: []ledger.CashDrawerActivity{
				ledger.NewActivity(now, drawer.Activities.ShiftStart, openingFloat, paymentmethod.Methods.Cash, "Opening float", ""),
			},
		}
		d.CurrentShift = opened
		d.Log(now, fmt.Sprintf("Shift %s started with float %s", opened.ID, money.Format(openingFloat)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("shift started", "shift_id", opened.ID, "float", openingFloat.String())
	m.publish(ctx, event.ShiftOpenedEvent{
		Metadata:     event.NewMetadata(event.EventShiftOpened, d.Date, now),
		ShiftID:      opened.ID,
		OpeningFloat: openingFloat,
	})

	return d.CurrentShift, nil
}

// RecordPaidInOut appends a PAID_IN or PAID_OUT movement to the open shift.
func (m *Manager) RecordPaidInOut(ctx context.Context, in PaidInOut) (*ledger.CashDrawerActivity, error) {
	kind := drawer.ByName(in.Type)
	if kind == nil || !kind.Manual() {
		return nil, ErrInvalidActivity
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	activity := ledger.NewActivity(m.clock.Now(), *kind, money.Round(in.Amount), paymentmethod.Methods.Cash, in.Description, "")
	return m.appendActivity(ctx, activity, fmt.Sprintf("%s %s: %s", kind.Label(), money.Format(activity.Amount), in.Description))
}

// RecordManualDrawerOpen logs opening the drawer without a sale.
func (m *Manager) RecordManualDrawerOpen(ctx context.Context, description string) (*ledger.CashDrawerActivity, error) {
	if description == "" {
		description = "Drawer opened"
	}
	activity := ledger.NewActivity(m.clock.Now(), drawer.Activities.ManualOpen, decimal.Zero, paymentmethod.Methods.None, description, "")
	return m.appendActivity(ctx, activity, "Drawer opened manually: "+description)
}

func (m *Manager) appendActivity(ctx context.Context, a ledger.CashDrawerActivity, action string) (*ledger.CashDrawerActivity, error) {
	var shiftID string
	d, err := m.store.Update(ctx, func(d *ledger.DailyData) error {
		if !d.CurrentShift.IsOpen() {
			return ErrNoOpenShift
		}
		shiftID = d.CurrentShift.ID
		d.CurrentShift.Activities = append(d.CurrentShift.Activities, a)
		d.Log(a.Timestamp, action)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("drawer activity recorded", "shift_id", shiftID, "type", a.Type, "amount", a.Amount.String())
	m.publish(ctx, event.DrawerActivityEvent{
		Metadata:      event.NewMetadata(event.EventDrawerActivity, d.Date, a.Timestamp),
		ShiftID:       shiftID,
		ActivityID:    a.ID,
		Type:          a.Type,
		Amount:        a.Amount,
		PaymentMethod: a.PaymentMethod,
		Description:   a.Description,
	})
	return &a, nil
}

// Current returns the open shift with its running summary.
func (m *Manager) Current() (*ledger.Shift, Summary, error) {
	d := m.store.Snapshot()
	if !d.CurrentShift.IsOpen() {
		return nil, Summary{}, ErrNoOpenShift
	}
	return d.CurrentShift, ComputeSummary(d.CurrentShift, d.CompletedOrders), nil
}

// EndShift closes the open shift against the counted cash. Closing is final;
// callers confirm with the operator before calling it.
func (m *Manager) EndShift(ctx context.Context, in EndShiftInput) (*ledger.Shift, error) {
	if in.Counted.IsNegative() || in.NextShiftFloat.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if in.NextShiftFloat.GreaterThan(in.Counted) {
		return nil, fmt.Errorf("%w: next shift float exceeds counted cash", ErrInvalidAmount)
	}
	counted := money.Round(in.Counted)
	nextFloat := money.Round(in.NextShiftFloat)

	now := m.clock.Now()
	var closed *ledger.Shift

	d, err := m.store.Update(ctx, func(d *ledger.DailyData) error {
		if !d.CurrentShift.IsOpen() {
			return ErrNoOpenShift
		}

		summary := ComputeSummary(d.CurrentShift, d.CompletedOrders)
		overShort := counted.Sub(summary.ExpectedCashInDrawer)
		deposit := counted.Sub(nextFloat)
		totals := summary.ShiftTotals

		s := d.CurrentShift.Clone()
		s.Activities = append(s.Activities,
			ledger.NewActivity(now, drawer.Activities.ShiftEnd, counted, paymentmethod.Methods.Cash, "Closing count", ""))
		s.Status = ledger.ShiftClosed
		s.EndTime = &now
		s.ClosingCashCounted = &counted
		s.ExpectedCashInDrawer = &summary.ExpectedCashInDrawer
		s.CashOverShort = &overShort
		s.CashForNextShift = &nextFloat
		s.CashToDeposit = &deposit
		s.Totals = &totals

		if err := m.history.Prepend(ctx, s); err != nil {
			return fmt.Errorf("cannot store closed shift: %w", err)
		}

		closed = s
		d.CurrentShift = nil
		d.Log(now, fmt.Sprintf("Shift %s closed, counted %s, over/short %s", s.ID, money.Format(counted), money.Format(overShort)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("shift closed",
		"shift_id", closed.ID,
		"expected", closed.ExpectedCashInDrawer.String(),
		"counted", counted.String(),
		"over_short", closed.CashOverShort.String(),
	)
	m.publish(ctx, event.ShiftClosedEvent{
		Metadata:             event.NewMetadata(event.EventShiftClosed, d.Date, now),
		ShiftID:              closed.ID,
		ExpectedCashInDrawer: *closed.ExpectedCashInDrawer,
		ClosingCashCounted:   counted,
		CashOverShort:        *closed.CashOverShort,
		CashToDeposit:        *closed.CashToDeposit,
		TotalSales:           closed.Totals.TotalSales,
	})

	return closed, nil
}

// History lists closed shifts, newest first.
func (m *Manager) History(ctx context.Context) ([]ledger.Shift, error) {
	return m.history.List(ctx)
}

// TodayCount reports how many shifts have been opened today, open one included.
func (m *Manager) TodayCount(ctx context.Context) (int, error) {
	history, err := m.history.List(ctx)
	if err != nil {
		return 0, err
	}
	d := m.store.Snapshot()
	n := CountForDay(history, d.Date)
	if d.CurrentShift.IsOpen() && strings.HasPrefix(d.CurrentShift.ID, d.Date+"-S") {
		n++
	}
	return n, nil
}

func (m *Manager) publish(ctx context.Context, evt interface{}) {
	if err := event.Publish(ctx, m.publisher, event.LedgerTopic, evt); err != nil {
		m.logger.Error("cannot publish shift event", "error", err)
	}
}
