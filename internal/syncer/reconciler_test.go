package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/clock"
	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/storage"
)

func newStore(t *testing.T, orders ...ledger.Order) *ledger.Store {
	t.Helper()
	clk := clock.NewFixed(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	store := ledger.NewStore(storage.NewMemory(), clk, nil)
	if err := store.InitializeForToday(context.Background()); err != nil {
		t.Fatalf("InitializeForToday() error = %v", err)
	}
	_, err := store.Update(context.Background(), func(d *ledger.DailyData) error {
		d.CompletedOrders = append(d.CompletedOrders, orders...)
		return nil
	})
	if err != nil {
		t.Fatalf("seed orders: %v", err)
	}
	return store
}

func order(id string, status ledger.SyncStatus) ledger.Order {
	return ledger.Order{
		ID:         id,
		Total:      decimal.NewFromInt(100),
		Status:     ledger.OrderCompleted,
		SyncStatus: status,
	}
}

func statuses(store *ledger.Store) map[string]ledger.SyncStatus {
	out := map[string]ledger.SyncStatus{}
	for _, o := range store.Snapshot().CompletedOrders {
		out[o.ID] = o.SyncStatus
	}
	return out
}

func TestSyncOnce(t *testing.T) {
	tests := []struct {
		name      string
		orders    []ledger.Order
		saveFunc  func(ctx context.Context, o ledger.Order) error
		want      map[string]ledger.SyncStatus
		wantSaved int
		wantRes   Result
	}{
		{
			name:      "pendingAndFailedSynced",
			orders:    []ledger.Order{order("a", ledger.SyncPending), order("b", ledger.SyncFailed)},
			want:      map[string]ledger.SyncStatus{"a": ledger.SyncSynced, "b": ledger.SyncSynced},
			wantSaved: 2,
			wantRes:   Result{Attempted: 2, Synced: 2},
		},
		{
			name:      "syncedNotResent",
			orders:    []ledger.Order{order("a", ledger.SyncSynced)},
			want:      map[string]ledger.SyncStatus{"a": ledger.SyncSynced},
			wantSaved: 0,
		},
		{
			name:   "partialFailure",
			orders: []ledger.Order{order("a", ledger.SyncPending), order("b", ledger.SyncPending)},
			saveFunc: func(_ context.Context, o ledger.Order) error {
				if o.ID == "b" {
					return errors.New("timeout")
				}
				return nil
			},
			want:      map[string]ledger.SyncStatus{"a": ledger.SyncSynced, "b": ledger.SyncFailed},
			wantSaved: 2,
			wantRes:   Result{Attempted: 2, Synced: 1, Failed: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t, tt.orders...)
			remote := &MockRemote{SaveOrderFunc: tt.saveFunc}
			r := NewReconciler(store, remote, nil, Options{}, nil)

			res, err := r.SyncOnce(context.Background())
			if err != nil {
				t.Fatalf("SyncOnce() error = %v", err)
			}
			if res != tt.wantRes {
				t.Errorf("result = %+v, want %+v", res, tt.wantRes)
			}
			if got := remote.SavedCount(); got != tt.wantSaved {
				t.Errorf("saved = %d, want %d", got, tt.wantSaved)
			}
			got := statuses(store)
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("order %s = %s, want %s", id, got[id], want)
				}
			}
		})
	}
}

func TestSyncOnceIdempotent(t *testing.T) {
	store := newStore(t, order("a", ledger.SyncPending))
	remote := &MockRemote{}
	r := NewReconciler(store, remote, nil, Options{}, nil)

	for i := 0; i < 3; i++ {
		if _, err := r.SyncOnce(context.Background()); err != nil {
			t.Fatalf("SyncOnce() error = %v", err)
		}
	}
	if got := remote.SavedCount(); got != 1 {
		t.Errorf("saved = %d, want 1", got)
	}
}

func TestSyncOnceNotConfigured(t *testing.T) {
	store := newStore(t, order("a", ledger.SyncPending), order("b", ledger.SyncSynced), order("c", ledger.SyncFailed))
	remote := &MockRemote{ConfiguredFunc: func() bool { return false }}
	r := NewReconciler(store, remote, nil, Options{}, nil)

	res, err := r.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce() error = %v", err)
	}
	if res.Failed != 1 || remote.SavedCount() != 0 {
		t.Errorf("result = %+v, saved = %d; want 1 failed, no network", res, remote.SavedCount())
	}
	want := map[string]ledger.SyncStatus{"a": ledger.SyncFailed, "b": ledger.SyncSynced, "c": ledger.SyncFailed}
	got := statuses(store)
	for id, w := range want {
		if got[id] != w {
			t.Errorf("order %s = %s, want %s", id, got[id], w)
		}
	}
}

func TestSyncOnceSkipsOrdersCancelledInFlight(t *testing.T) {
	store := newStore(t, order("a", ledger.SyncPending), order("b", ledger.SyncPending))
	remote := &MockRemote{
		SaveOrderFunc: func(ctx context.Context, o ledger.Order) error {
			if o.ID != "a" {
				return nil
			}
			_, err := store.Update(ctx, func(d *ledger.DailyData) error {
				at := time.Date(2024, 5, 1, 10, 1, 0, 0, time.UTC)
				idx := d.OrderIndex("a")
				d.CompletedOrders[idx].Status = ledger.OrderCancelled
				d.CompletedOrders[idx].CancelledAt = &at
				d.CompletedOrders[idx].SyncStatus = ledger.SyncPending
				return nil
			})
			return err
		},
	}
	r := NewReconciler(store, remote, nil, Options{Concurrency: 1}, nil)

	res, err := r.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce() error = %v", err)
	}
	if res.Skipped != 1 || res.Synced != 1 {
		t.Errorf("result = %+v, want 1 skipped and 1 synced", res)
	}
	if got := statuses(store)["a"]; got != ledger.SyncPending {
		t.Errorf("cancelled order sync = %s, want pending", got)
	}
}

func TestSyncOnceSharedPassSurvivesCallerCancel(t *testing.T) {
	store := newStore(t, order("20240501-0001", ledger.SyncPending))
	entered := make(chan struct{})
	release := make(chan struct{})
	remote := &MockRemote{
		SaveOrderFunc: func(ctx context.Context, o ledger.Order) error {
			close(entered)
			select {
			case <-release:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
	r := NewReconciler(store, remote, nil, Options{Concurrency: 1}, nil)

	reqCtx, cancel := context.WithCancel(context.Background())
	reqDone := make(chan error, 1)
	go func() {
		_, err := r.SyncOnce(reqCtx)
		reqDone <- err
	}()
	<-entered

	type passResult struct {
		res Result
		err error
	}
	shared := make(chan passResult, 1)
	go func() {
		res, err := r.SyncOnce(context.Background())
		shared <- passResult{res: res, err: err}
	}()

	cancel()
	if err := <-reqDone; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller error = %v, want context.Canceled", err)
	}
	close(release)

	got := <-shared
	if got.err != nil {
		t.Fatalf("SyncOnce() error = %v", got.err)
	}
	if got.res.Synced != 1 || got.res.Failed != 0 {
		t.Errorf("result = %+v, want 1 synced", got.res)
	}
	if st := statuses(store)["20240501-0001"]; st != ledger.SyncSynced {
		t.Errorf("sync status = %s, want synced", st)
	}
}

func TestSyncOnceKeepsOrdersPlacedInFlight(t *testing.T) {
	store := newStore(t, order("a", ledger.SyncPending))
	remote := &MockRemote{
		SaveOrderFunc: func(ctx context.Context, o ledger.Order) error {
			_, err := store.Update(ctx, func(d *ledger.DailyData) error {
				d.CompletedOrders = append(d.CompletedOrders, order("late", ledger.SyncPending))
				return nil
			})
			return err
		},
	}
	r := NewReconciler(store, remote, nil, Options{}, nil)

	if _, err := r.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce() error = %v", err)
	}
	got := statuses(store)
	if got["late"] != ledger.SyncPending {
		t.Errorf("late order = %s, want pending", got["late"])
	}
	if got["a"] != ledger.SyncSynced {
		t.Errorf("order a = %s, want synced", got["a"])
	}
}

func TestRequestCoalesces(t *testing.T) {
	r := NewReconciler(newStore(t), &MockRemote{}, nil, Options{}, nil)
	r.Request()
	r.Request()
	r.Request()
	if n := len(r.requests); n != 1 {
		t.Errorf("queued requests = %d, want 1", n)
	}
}

func TestStartStop(t *testing.T) {
	store := newStore(t, order("a", ledger.SyncPending))
	done := make(chan struct{}, 1)
	remote := &MockRemote{
		SaveOrderFunc: func(context.Context, ledger.Order) error {
			select {
			case done <- struct{}{}:
			default:
			}
			return nil
		},
	}
	r := NewReconciler(store, remote, nil, Options{Interval: time.Hour}, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("initial sync pass did not run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}
