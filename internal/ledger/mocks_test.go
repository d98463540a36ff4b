package ledger

import (
	"context"
)

type MockArchiver struct {
	ArchiveDayFunc func(ctx context.Context, d *DailyData) error
	Archived       []string
}

func (m *MockArchiver) ArchiveDay(ctx context.Context, d *DailyData) error {
	m.Archived = append(m.Archived, d.Date)
	if m.ArchiveDayFunc != nil {
		return m.ArchiveDayFunc(ctx, d)
	}
	return nil
}
