// Package realtime keeps the booking store in step with remote changes.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
	"github.com/MrSnakeDoc/detailcal/internal/notify"
)

// Subscription is a live change feed. Events is closed once the
// subscription ends.
type Subscription interface {
	Events() <-chan domain.ChangeEvent
	Close() error
}

// Feed opens subscriptions to booking changes.
type Feed interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// Reconciler is the part of the booking store the listener drives.
type Reconciler interface {
	Refresh(ctx context.Context) error
	Apply(ev domain.ChangeEvent)
}

// Mode selects how an event is reconciled.
type Mode string

const (
	// ModeRefetch refreshes the whole collection on every event.
	ModeRefetch Mode = "refetch"
	// ModeApply applies the event payload to the collection by id.
	ModeApply Mode = "apply"
)

// ParseMode accepts refetch or apply. Empty means refetch.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeRefetch, nil
	case ModeRefetch, ModeApply:
		return m, nil
	default:
		return "", fmt.Errorf("unknown realtime mode %q", s)
	}
}

// ErrAlreadyStarted is returned by a second Start without Stop.
var ErrAlreadyStarted = errors.New("realtime listener already started")

// UpdatedMessage is the passive notification raised after each reconciliation.
const UpdatedMessage = "Bookings updated from remote"

// Listener subscribes to the feed and reconciles the store on every event.
type Listener struct {
	feed     Feed
	store    Reconciler
	notifier notify.Notifier
	logger   logger.Logger
	mode     Mode

	mu     sync.Mutex
	sub    Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

func NewListener(feed Feed, store Reconciler, notifier notify.Notifier, log logger.Logger, mode Mode) *Listener {
	if mode == "" {
		mode = ModeRefetch
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Listener{
		feed:     feed,
		store:    store,
		notifier: notifier,
		logger:   log,
		mode:     mode,
	}
}

// Start subscribes and processes events in one goroutine until Stop or
// until ctx is done.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sub != nil {
		return ErrAlreadyStarted
	}

	sub, err := l.feed.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to booking changes: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.sub, l.cancel, l.done = sub, cancel, done

	go l.run(runCtx, sub, done)

	l.logger.Info("realtime listener started", logger.String("mode", string(l.mode)))
	return nil
}

func (l *Listener) run(ctx context.Context, sub Subscription, done chan struct{}) {
	defer close(done)
	events := sub.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				l.logger.Info("booking change feed closed")
				return
			}
			l.handle(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

func (l *Listener) handle(ctx context.Context, ev domain.ChangeEvent) {
	l.logger.Debug("booking change received",
		logger.String("op", string(ev.Op)),
		logger.BookingID(ev.ID))

	if l.mode == ModeApply && ev.Op != "" {
		l.store.Apply(ev)
		l.notifier.Notify(notify.LevelInfo, UpdatedMessage)
		return
	}

	// Refresh logs and notifies its own failures.
	if err := l.store.Refresh(ctx); err != nil {
		return
	}
	l.notifier.Notify(notify.LevelInfo, UpdatedMessage)
}

// Stop unsubscribes and waits for the processing goroutine. Safe to call
// more than once.
func (l *Listener) Stop() {
	l.mu.Lock()
	sub, cancel, done := l.sub, l.cancel, l.done
	l.sub, l.cancel, l.done = nil, nil, nil
	l.mu.Unlock()

	if sub == nil {
		return
	}
	cancel()
	if err := sub.Close(); err != nil {
		l.logger.Warn("failed to close booking change subscription", logger.Error(err))
	}
	<-done
	l.logger.Info("realtime listener stopped")
}

// Running reports whether a subscription is active.
func (l *Listener) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sub != nil
}
