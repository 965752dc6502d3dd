// Package notify keeps the transient user-facing notifications (toasts)
// raised by the booking store, the form controller and the realtime
// listener.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/detailcal/internal/logger"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one toast.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notifier is what producers depend on.
type Notifier interface {
	Notify(level Level, message string)
}

// DefaultCapacity is used when NewFeed gets a non-positive capacity.
const DefaultCapacity = 100

// Feed is a bounded ring of notifications. Oldest entries are dropped first.
type Feed struct {
	mu    sync.RWMutex
	items []Notification
	next  int
	full  bool
	log   logger.Logger
	now   func() time.Time
}

func NewFeed(capacity int, log logger.Logger) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		items: make([]Notification, capacity),
		log:   log,
		now:   time.Now,
	}
}

// Notify records a notification and mirrors it to the log.
func (f *Feed) Notify(level Level, message string) {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: f.now(),
	}

	f.mu.Lock()
	f.items[f.next] = n
	f.next = (f.next + 1) % len(f.items)
	if f.next == 0 {
		f.full = true
	}
	f.mu.Unlock()

	if f.log == nil {
		return
	}
	switch level {
	case LevelError:
		f.log.Error("notification", logger.String("level", string(level)), logger.String("message", message))
	case LevelWarning:
		f.log.Warn("notification", logger.String("level", string(level)), logger.String("message", message))
	default:
		f.log.Info("notification", logger.String("level", string(level)), logger.String("message", message))
	}
}

// Recent returns up to limit notifications, newest first. limit <= 0 returns all.
func (f *Feed) Recent(limit int) []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	size := f.next
	if f.full {
		size = len(f.items)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]Notification, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (f.next - i + len(f.items)) % len(f.items)
		out = append(out, f.items[idx])
	}
	return out
}

// Len returns how many notifications are currently held.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.full {
		return len(f.items)
	}
	return f.next
}

// Discard is a Notifier that drops everything.
type Discard struct{}

func (Discard) Notify(Level, string) {}
