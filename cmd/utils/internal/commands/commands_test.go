package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/appetiteclub/till/internal/app"
	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/storage"
	"github.com/appetiteclub/till/pkg/event"
	"github.com/appetiteclub/till/pkg/platform"
)

type MockSubscriber struct {
	SubscribeFunc func(ctx context.Context, topic string, handler platform.HandlerFunc) error
	Topic         string
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler platform.HandlerFunc) error {
	m.Topic = topic
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	return nil
}

type MockConsumer struct {
	Messages []platform.StreamMessage
	Err      error
}

func (m *MockConsumer) Fetch(ctx context.Context, limit int) ([]platform.StreamMessage, error) {
	return m.Messages, m.Err
}

func fileConfig(t *testing.T) *platform.Config {
	t.Helper()
	cfg := platform.NewConfig()
	cfg.Set("storage.driver", app.DriverFile)
	cfg.Set("storage.file.dir", t.TempDir())
	return cfg
}

func TestSeedClearReset(t *testing.T) {
	ctx := context.Background()
	cfg := fileConfig(t)
	logger := platform.NewNoopLogger()

	if err := SeedDemo(ctx, cfg, logger); err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}

	env, err := openTill(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("openTill() error = %v", err)
	}
	if n := len(env.store.Snapshot().CompletedOrders); n == 0 {
		t.Error("expected seeded orders in the ledger")
	}
	_ = env.stop(ctx)

	if err := ClearDemo(ctx, cfg, logger); err != nil {
		t.Fatalf("ClearDemo() error = %v", err)
	}
	if err := ResetDB(ctx, cfg, logger); err != nil {
		t.Fatalf("ResetDB() error = %v", err)
	}

	kv, stop, err := app.OpenBackend(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("OpenBackend() error = %v", err)
	}
	defer stop(ctx)
	keys, err := kv.Keys(ctx, "")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys after reset = %v, want none", keys)
	}
}

func TestWriteSummary(t *testing.T) {
	d := ledger.NewDailyData("20240501")
	var buf bytes.Buffer
	if err := writeSummary(&buf, d); err != nil {
		t.Fatalf("writeSummary() error = %v", err)
	}

	var out map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if _, ok := out["sales"]; !ok {
		t.Error("summary should include sales")
	}
	if _, ok := out["shift"]; ok {
		t.Error("summary should omit shift when none is open")
	}
}

func TestPrintEvents(t *testing.T) {
	data, _ := json.Marshal(event.NewMetadata(event.EventShiftOpened, "20240501", time.Now()))

	tests := []struct {
		name     string
		consumer *MockConsumer
		want     string
		wantErr  bool
	}{
		{
			name:     "empty",
			consumer: &MockConsumer{},
			want:     "No events stored",
		},
		{
			name: "oneEvent",
			consumer: &MockConsumer{Messages: []platform.StreamMessage{
				{Data: data, Sequence: 7, Timestamp: time.Now().UnixNano()},
			}},
			want: event.EventShiftOpened,
		},
		{
			name: "unreadable",
			consumer: &MockConsumer{Messages: []platform.StreamMessage{
				{Data: []byte("{"), Sequence: 1},
			}},
			want: "unreadable",
		},
		{
			name:     "fetchError",
			consumer: &MockConsumer{Err: errors.New("boom")},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := printEvents(context.Background(), &buf, tt.consumer, 10)
			if (err != nil) != tt.wantErr {
				t.Fatalf("printEvents() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want it to contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestFollowEvents(t *testing.T) {
	data, _ := json.Marshal(event.NewMetadata(event.EventOrderPlaced, "20240501", time.Now()))

	tests := []struct {
		name    string
		sub     *MockSubscriber
		want    string
		wantErr bool
	}{
		{
			name: "printsDelivered",
			sub: &MockSubscriber{SubscribeFunc: func(ctx context.Context, topic string, h platform.HandlerFunc) error {
				return h(ctx, data)
			}},
			want: event.EventOrderPlaced,
		},
		{
			name: "subscribeError",
			sub: &MockSubscriber{SubscribeFunc: func(context.Context, string, platform.HandlerFunc) error {
				return errors.New("no stream")
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			var buf bytes.Buffer
			err := followEvents(ctx, &buf, tt.sub)
			if (err != nil) != tt.wantErr {
				t.Fatalf("followEvents() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.sub.Topic != event.LedgerTopic {
				t.Errorf("subscribed topic = %q, want %q", tt.sub.Topic, event.LedgerTopic)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want it to contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestBackupRestore(t *testing.T) {
	ctx := context.Background()
	logger := platform.NewNoopLogger()
	dir := t.TempDir()
	backupFile := filepath.Join(dir, "backup.json")

	src := fileConfig(t)
	if err := SeedDemo(ctx, src, logger); err != nil {
		t.Fatalf("SeedDemo() error = %v", err)
	}
	src.Set("file", backupFile)
	if err := Backup(ctx, src, logger); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	dst := fileConfig(t)
	dst.Set("file", backupFile)

	tests := []struct {
		name    string
		confirm bool
		wantErr error
	}{
		{name: "needsConfirm", wantErr: ErrRestoreNotConfirmed},
		{name: "confirmed", confirm: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst.Set("confirm", tt.confirm)
			if err := Restore(ctx, dst, logger); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Restore() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	env, err := openTill(ctx, dst, logger)
	if err != nil {
		t.Fatalf("openTill() error = %v", err)
	}
	defer env.stop(ctx)
	if len(env.store.Snapshot().CompletedOrders) == 0 {
		t.Error("restored storage should hold the seeded orders")
	}
}

func TestRestoreRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.json")
	if err := os.WriteFile(path, []byte(`{"other_app":{}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := fileConfig(t)
	cfg.Set("file", path)
	cfg.Set("confirm", true)

	err := Restore(context.Background(), cfg, platform.NewNoopLogger())
	if !errors.Is(err, storage.ErrInvalidBackup) {
		t.Fatalf("Restore() error = %v, want ErrInvalidBackup", err)
	}
}
