// Package notify holds short-lived operator notifications.
package notify

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/till/internal/clock"
	"github.com/appetiteclub/till/pkg/platform"
)

type Severity string

const (
	Success Severity = "success"
	Info    Severity = "info"
	Warning Severity = "warning"
	Error   Severity = "error"
)

const DefaultTTL = 5 * time.Second

var ErrNotFound = errors.New("notification not found")

func (s Severity) Valid() bool {
	switch s {
	case Success, Info, Warning, Error:
		return true
	}
	return false
}

type Notification struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Center keeps notifications until they expire or are dismissed.
type Center struct {
	mu     sync.Mutex
	clock  clock.Clock
	ttl    time.Duration
	logger platform.Logger
	items  []Notification
}

func NewCenter(clk clock.Clock, ttl time.Duration, logger platform.Logger) *Center {
	if logger == nil {
		logger = platform.NewNoopLogger()
	}
	if clk == nil {
		clk = clock.New(nil)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{clock: clk, ttl: ttl, logger: logger}
}

// Push adds a notification. Unknown severities are shown as info.
func (c *Center) Push(sev Severity, message string) Notification {
	if !sev.Valid() {
		sev = Info
	}
	now := c.clock.Now()
	n := Notification{
		ID:        uuid.NewString(),
		Severity:  sev,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	c.items = append(c.items, n)
	c.mu.Unlock()

	if sev == Error {
		c.logger.Error("notification", "message", message)
	} else {
		c.logger.Debug("notification", "severity", string(sev), "message", message)
	}
	return n
}

// Active returns live notifications, oldest first, dropping expired ones.
func (c *Center) Active() []Notification {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.items[:0]
	for _, n := range c.items {
		if now.Before(n.ExpiresAt) {
			live = append(live, n)
		}
	}
	c.items = live

	out := make([]Notification, len(live))
	copy(out, live)
	return out
}

func (c *Center) Dismiss(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
