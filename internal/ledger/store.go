// Package ledger owns the day's orders, kitchen queue, activity log and open
// shift. All writes go through Store.Update, which derives the next snapshot
// from a private copy of the latest one and persists it before returning.
package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/appetiteclub/till/internal/clock"
	"github.com/appetiteclub/till/internal/storage"
	"github.com/appetiteclub/till/pkg/platform"
)

const newDayAction = "new day started"

var ErrNotLoaded = errors.New("ledger not loaded")

// Mutation derives the next snapshot in place. The snapshot it receives is a
// private copy; returning an error discards it.
type Mutation func(d *DailyData) error

// Archiver receives a finished day before its snapshot is purged.
type Archiver interface {
	ArchiveDay(ctx context.Context, d *DailyData) error
}

type Store struct {
	mu       sync.Mutex
	kv       storage.KV
	clock    clock.Clock
	archiver Archiver
	logger   platform.Logger

	current *DailyData
	loaded  bool
}

func NewStore(kv storage.KV, clk clock.Clock, logger platform.Logger) *Store {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	if clk == nil {
		clk = clock.New(nil)
	}
	return &Store{
		kv:     kv,
		clock:  clk,
		logger: logger,
	}
}

// SetArchiver installs the archive used on day rollover.
func (s *Store) SetArchiver(a Archiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archiver = a
}

func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Today is the day key the clock currently reports.
func (s *Store) Today() string {
	return clock.DayKey(s.clock.Now())
}

// Snapshot returns a copy of the current day. Before the initial load it
// returns an empty day for today.
func (s *Store) Snapshot() *DailyData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return NewDailyData(s.Today())
	}
	return s.current.Clone()
}

// InitializeForToday loads today's snapshot or starts a new day. A new day
// carries over a shift left open on an earlier day, archives the earlier days
// and purges their snapshots.
func (s *Store) InitializeForToday(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.Today()

	var d DailyData
	err := storage.GetJSON(ctx, s.kv, storage.DailyKey(today), &d)
	switch {
	case err == nil:
		rehydrate(&d, today)
		s.current = &d
		s.loaded = true
		s.logger.Info("ledger restored", "date", today, "orders", len(d.CompletedOrders))
		return nil
	case errors.Is(err, storage.ErrNotFound):
	default:
		s.logger.Error("cannot restore ledger, starting empty day", "date", today, "error", err)
	}

	s.startDayLocked(ctx, today, s.carriedShiftLocked(ctx, today))
	s.loaded = true
	return nil
}

// Update applies fn to a copy of the latest snapshot and publishes the result.
// A failed persist is logged; the in-memory snapshot stays authoritative and
// is written again by the next mutation.
func (s *Store) Update(ctx context.Context, fn Mutation) (*DailyData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return nil, ErrNotLoaded
	}

	if today := s.Today(); s.current.Date != today {
		s.rolloverLocked(ctx, today)
	}

	next := s.current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	s.current = next
	s.persistLocked(ctx)
	return next.Clone(), nil
}

// LogAction prepends a timestamped entry to the activity log. It does nothing
// until the store has loaded.
func (s *Store) LogAction(ctx context.Context, action string) {
	if !s.Loaded() {
		s.logger.Debug("log action before load ignored", "action", action)
		return
	}
	now := s.clock.Now()
	_, err := s.Update(ctx, func(d *DailyData) error {
		d.Log(now, action)
		return nil
	})
	if err != nil {
		s.logger.Error("cannot log action", "error", err)
	}
}

func (s *Store) rolloverLocked(ctx context.Context, today string) {
	finished := s.current
	s.logger.Info("day rollover", "from", finished.Date, "to", today)

	var carried *Shift
	if finished.CurrentShift.IsOpen() {
		carried = finished.CurrentShift.Clone()
	}
	s.archiveLocked(ctx, finished)
	s.startDayLocked(ctx, today, carried)
}

func (s *Store) startDayLocked(ctx context.Context, today string, carried *Shift) {
	d := NewDailyData(today)
	d.CurrentShift = carried
	d.Log(s.clock.Now(), newDayAction)
	s.current = d
	s.persistLocked(ctx)
	s.purgeStaleLocked(ctx, today)
}

// carriedShiftLocked finds a shift left open on the most recent earlier day
// and archives every earlier day it finds on the way.
func (s *Store) carriedShiftLocked(ctx context.Context, today string) *Shift {
	keys, err := s.kv.Keys(ctx, storage.DailyKeyPrefix)
	if err != nil {
		s.logger.Error("cannot list stale ledgers", "error", err)
		return nil
	}

	var carried *Shift
	for _, key := range keys {
		if key == storage.DailyKey(today) {
			continue
		}
		var old DailyData
		if err := storage.GetJSON(ctx, s.kv, key, &old); err != nil {
			s.logger.Error("cannot read stale ledger", "key", key, "error", err)
			continue
		}
		rehydrate(&old, old.Date)
		s.archiveLocked(ctx, &old)
		// Keys sort by date so the latest open shift wins.
		if old.CurrentShift.IsOpen() {
			carried = old.CurrentShift
		}
	}
	return carried
}

func (s *Store) archiveLocked(ctx context.Context, d *DailyData) {
	if s.archiver == nil || d == nil || len(d.CompletedOrders) == 0 {
		return
	}
	if err := s.archiver.ArchiveDay(ctx, d); err != nil {
		s.logger.Error("cannot archive day", "date", d.Date, "error", err)
	}
}

func (s *Store) purgeStaleLocked(ctx context.Context, today string) {
	keys, err := s.kv.Keys(ctx, storage.DailyKeyPrefix)
	if err != nil {
		s.logger.Error("cannot list stale ledgers", "error", err)
		return
	}
	for _, key := range keys {
		if key == storage.DailyKey(today) {
			continue
		}
		if err := s.kv.Delete(ctx, key); err != nil {
			s.logger.Error("cannot purge stale ledger", "key", key, "error", err)
			continue
		}
		s.logger.Debug("stale ledger purged", "key", key)
	}
}

func (s *Store) persistLocked(ctx context.Context) {
	if err := storage.PutJSON(ctx, s.kv, storage.DailyKey(s.current.Date), s.current); err != nil {
		s.logger.Error("cannot persist ledger", "date", s.current.Date, "error", err)
	}
}

// rehydrate fills fields older snapshots may lack.
func rehydrate(d *DailyData, date string) {
	if d.Date == "" {
		d.Date = date
	}
	if d.CompletedOrders == nil {
		d.CompletedOrders = []Order{}
	}
	if d.KitchenOrders == nil {
		d.KitchenOrders = []KitchenOrder{}
	}
	if d.ActivityLog == nil {
		d.ActivityLog = []LogEntry{}
	}
	for i := range d.CompletedOrders {
		if d.CompletedOrders[i].SyncStatus == "" {
			d.CompletedOrders[i].SyncStatus = SyncSynced
		}
	}
}
