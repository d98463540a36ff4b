package syncer

import (
	"context"
	"sync"

	"github.com/appetiteclub/till/internal/ledger"
)

type MockRemote struct {
	ConfiguredFunc func() bool
	SaveOrderFunc  func(ctx context.Context, o ledger.Order) error

	mu    sync.Mutex
	Saved []string
}

func (m *MockRemote) Configured() bool {
	if m.ConfiguredFunc != nil {
		return m.ConfiguredFunc()
	}
	return true
}

func (m *MockRemote) SaveOrder(ctx context.Context, o ledger.Order) error {
	m.mu.Lock()
	m.Saved = append(m.Saved, o.ID)
	m.mu.Unlock()
	if m.SaveOrderFunc != nil {
		return m.SaveOrderFunc(ctx, o)
	}
	return nil
}

func (m *MockRemote) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Saved)
}
