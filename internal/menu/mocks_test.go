package menu

import (
	"context"

	"github.com/appetiteclub/till/internal/remote"
)

type MockRemote struct {
	FetchMenuFunc func(ctx context.Context) (*remote.Menu, error)
	MutateFunc    func(ctx context.Context, action string, payload map[string]interface{}) (*remote.Reply, error)

	Fetches int
	Actions []string
}

func (m *MockRemote) Configured() bool {
	return true
}

func (m *MockRemote) FetchMenu(ctx context.Context) (*remote.Menu, error) {
	m.Fetches++
	if m.FetchMenuFunc != nil {
		return m.FetchMenuFunc(ctx)
	}
	return &remote.Menu{}, nil
}

func (m *MockRemote) Mutate(ctx context.Context, action string, payload map[string]interface{}) (*remote.Reply, error) {
	m.Actions = append(m.Actions, action)
	if m.MutateFunc != nil {
		return m.MutateFunc(ctx, action, payload)
	}
	return &remote.Reply{Status: "success"}, nil
}

type MockJournal struct {
	Actions []string
}

func (m *MockJournal) LogAction(_ context.Context, action string) {
	m.Actions = append(m.Actions, action)
}
