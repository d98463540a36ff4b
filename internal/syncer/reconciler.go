// Package syncer pushes orders that the remote store has not acknowledged.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/appetiteclub/till/internal/clock"
	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/pkg/event"
	"github.com/appetiteclub/till/pkg/platform"
)

const (
	DefaultInterval    = 60 * time.Second
	DefaultConcurrency = 8
)

// Remote is the part of the remote client the reconciler needs.
type Remote interface {
	Configured() bool
	SaveOrder(ctx context.Context, o ledger.Order) error
}

type Options struct {
	Interval    time.Duration
	Concurrency int
	Publisher   platform.Publisher
}

// Result counts what one pass did. Skipped orders changed locally while their
// push was in flight and stay queued for the next pass.
type Result struct {
	Attempted int `json:"attempted"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type Reconciler struct {
	store       *ledger.Store
	remote      Remote
	clock       clock.Clock
	publisher   platform.Publisher
	logger      platform.Logger
	interval    time.Duration
	concurrency int

	requests chan struct{}
	flight   singleflight.Group

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewReconciler(store *ledger.Store, remote Remote, clk clock.Clock, opts Options, logger platform.Logger) *Reconciler {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	if clk == nil {
		clk = clock.New(nil)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Reconciler{
		store:       store,
		remote:      remote,
		clock:       clk,
		publisher:   opts.Publisher,
		logger:      logger,
		interval:    opts.Interval,
		concurrency: opts.Concurrency,
		requests:    make(chan struct{}, 1),
	}
}

// Request asks for a pass soon. It never blocks; requests made while one is
// already queued collapse into it.
func (r *Reconciler) Request() {
	select {
	case r.requests <- struct{}{}:
	default:
	}
}

// SyncOnce runs one pass. Concurrent callers share the pass in flight. The
// pass does not inherit the caller's cancellation; a caller whose ctx ends
// stops waiting and the pass completes for the others. Remote calls stay
// bounded by the client timeout.
func (r *Reconciler) SyncOnce(ctx context.Context) (Result, error) {
	ch := r.flight.DoChan("sync", func() (interface{}, error) {
		return r.syncOnce(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		return res.Val.(Result), nil
	}
}

type candidate struct {
	order       ledger.Order
	status      ledger.OrderStatus
	cancelledAt *time.Time
}

type outcome struct {
	id     string
	status ledger.SyncStatus
}

func (r *Reconciler) syncOnce(ctx context.Context) (Result, error) {
	if !r.store.Loaded() {
		return Result{}, ledger.ErrNotLoaded
	}

	if !r.remote.Configured() {
		return r.failPending(ctx)
	}

	var candidates []candidate
	for _, o := range r.store.Snapshot().CompletedOrders {
		if o.SyncStatus.NeedsSync() {
			candidates = append(candidates, candidate{order: o, status: o.Status, cancelledAt: o.CancelledAt})
		}
	}
	if len(candidates) == 0 {
		return Result{}, nil
	}

	r.store.LogAction(ctx, fmt.Sprintf("Syncing %d pending bills", len(candidates)))

	outcomes := make([]outcome, len(candidates))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			status := ledger.SyncSynced
			if err := r.remote.SaveOrder(ctx, c.order); err != nil {
				r.logger.Info("order sync failed", "order_id", c.order.ID, "error", err)
				status = ledger.SyncFailed
			}
			outcomes[i] = outcome{id: c.order.ID, status: status}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Attempted: len(candidates)}
	now := r.clock.Now()

	d, err := r.store.Update(ctx, func(d *ledger.DailyData) error {
		for i, out := range outcomes {
			idx := d.OrderIndex(out.id)
			if idx < 0 || changedSince(d.CompletedOrders[idx], candidates[i]) {
				res.Skipped++
				continue
			}
			d.CompletedOrders[idx].SyncStatus = out.status
			if out.status == ledger.SyncSynced {
				res.Synced++
			} else {
				res.Failed++
			}
		}
		if res.Synced > 0 {
			d.Log(now, fmt.Sprintf("Synced %d bills", res.Synced))
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	r.logger.Info("sync pass finished", "attempted", res.Attempted, "synced", res.Synced, "failed", res.Failed, "skipped", res.Skipped)
	r.publishResult(ctx, d.Date, now, res)
	return res, nil
}

// failPending marks every pending order failed without touching the network.
func (r *Reconciler) failPending(ctx context.Context) (Result, error) {
	var res Result
	pending := false
	for _, o := range r.store.Snapshot().CompletedOrders {
		if o.SyncStatus == ledger.SyncPending {
			pending = true
			break
		}
	}
	if !pending {
		return res, nil
	}

	now := r.clock.Now()
	d, err := r.store.Update(ctx, func(d *ledger.DailyData) error {
		for i := range d.CompletedOrders {
			if d.CompletedOrders[i].SyncStatus == ledger.SyncPending {
				d.CompletedOrders[i].SyncStatus = ledger.SyncFailed
				res.Failed++
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	if res.Failed > 0 {
		r.logger.Error("remote endpoint not configured, pending orders marked failed", "count", res.Failed)
		r.publishResult(ctx, d.Date, now, res)
	}
	return res, nil
}

// changedSince reports whether the order was cancelled or otherwise moved on
// after the pushed copy was taken.
func changedSince(o ledger.Order, c candidate) bool {
	if o.Status != c.status {
		return true
	}
	switch {
	case o.CancelledAt == nil && c.cancelledAt == nil:
		return false
	case o.CancelledAt == nil || c.cancelledAt == nil:
		return true
	}
	return !o.CancelledAt.Equal(*c.cancelledAt)
}

func (r *Reconciler) publishResult(ctx context.Context, date string, at time.Time, res Result) {
	err := event.Publish(ctx, r.publisher, event.LedgerTopic, event.SyncCompletedEvent{
		Metadata:  event.NewMetadata(event.EventSyncCompleted, date, at),
		Attempted: res.Attempted,
		Synced:    res.Synced,
		Failed:    res.Failed,
		Skipped:   res.Skipped,
	})
	if err != nil {
		r.logger.Error("cannot publish sync event", "error", err)
	}
}

// Run syncs immediately, then on every tick and every request, until ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	r.pass(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pass(ctx)
		case <-r.requests:
			r.pass(ctx)
		}
	}
}

func (r *Reconciler) pass(ctx context.Context) {
	if _, err := r.SyncOnce(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("sync pass failed", "error", err)
	}
}

// Start runs the reconciler in the background.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		r.Run(runCtx)
	}()
	r.logger.Info("sync reconciler started", "interval", r.interval.String())
	return nil
}

// Stop cancels the background loop. A pass already in flight runs to the end
// for any caller sharing it.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
