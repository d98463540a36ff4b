package shift

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/internal/storage"
	"github.com/appetiteclub/till/pkg/platform"
)

// History is the all-time list of closed shifts, newest first. It lives apart
// from the daily ledger and survives day rollover.
type History struct {
	mu     sync.Mutex
	kv     storage.KV
	logger platform.Logger
}

func NewHistory(kv storage.KV, logger platform.Logger) *History {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	return &History{kv: kv, logger: logger}
}

func (h *History) List(ctx context.Context) ([]ledger.Shift, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.listLocked(ctx)
}

func (h *History) listLocked(ctx context.Context) ([]ledger.Shift, error) {
	var shifts []ledger.Shift
	err := storage.GetJSON(ctx, h.kv, storage.ShiftHistoryKey, &shifts)
	if errors.Is(err, storage.ErrNotFound) {
		return []ledger.Shift{}, nil
	}
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			h.logger.Error("shift history unreadable, starting empty", "error", err)
			return []ledger.Shift{}, nil
		}
		return nil, err
	}
	return shifts, nil
}

// Prepend stores a closed shift at the head of the history.
func (h *History) Prepend(ctx context.Context, s *ledger.Shift) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	shifts, err := h.listLocked(ctx)
	if err != nil {
		return err
	}
	next := make([]ledger.Shift, 0, len(shifts)+1)
	next = append(next, *s.Clone())
	next = append(next, shifts...)
	return storage.PutJSON(ctx, h.kv, storage.ShiftHistoryKey, next)
}

// CountForDay counts shifts whose id was issued on day (YYYYMMDD).
func CountForDay(shifts []ledger.Shift, day string) int {
	prefix := day + "-S"
	n := 0
	for _, s := range shifts {
		if strings.HasPrefix(s.ID, prefix) {
			n++
		}
	}
	return n
}
