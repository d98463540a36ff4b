package api

import (
	"context"
	"time"

	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/remote"
	"github.com/appetiteclub/till/internal/syncer"
)

type MockMenuRemote struct {
	Menu       *remote.Menu
	MutateFunc func(ctx context.Context, action string, payload map[string]interface{}) (*remote.Reply, error)
}

func (m *MockMenuRemote) Configured() bool {
	return true
}

func (m *MockMenuRemote) FetchMenu(ctx context.Context) (*remote.Menu, error) {
	if m.Menu == nil {
		return &remote.Menu{}, nil
	}
	return m.Menu, nil
}

func (m *MockMenuRemote) Mutate(ctx context.Context, action string, payload map[string]interface{}) (*remote.Reply, error) {
	if m.MutateFunc != nil {
		return m.MutateFunc(ctx, action, payload)
	}
	return &remote.Reply{Status: "success"}, nil
}

type MockSyncRunner struct {
	Result syncer.Result
	Err    error
	Calls  int
}

func (m *MockSyncRunner) SyncOnce(ctx context.Context) (syncer.Result, error) {
	m.Calls++
	return m.Result, m.Err
}

type MockArchive struct {
	Stored []ledger.Order
}

func (m *MockArchive) Orders(ctx context.Context, from, to time.Time) ([]ledger.Order, error) {
	var out []ledger.Order
	for _, o := range m.Stored {
		if !o.Timestamp.Before(from) && o.Timestamp.Before(to) {
			out = append(out, o)
		}
	}
	return out, nil
}
