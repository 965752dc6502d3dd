package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
)

const (
	DefaultInterval    = 5 * time.Second
	DefaultBaseBackoff = 10 * time.Second
	DefaultMaxBackoff  = 30 * time.Minute
	DefaultMaxAttempts = 8
	DefaultBatchSize   = 50
)

// Queue is the durable store side effects are kept in until they succeed.
type Queue interface {
	Enqueue(ctx context.Context, e domain.SideEffect, due time.Time) error
	Due(ctx context.Context, now time.Time, limit int) ([]domain.SideEffect, error)
	Claim(ctx context.Context, e domain.SideEffect) (bool, error)
	Reschedule(ctx context.Context, e domain.SideEffect, due time.Time) error
	DeadLetter(ctx context.Context, e domain.SideEffect) error
}

// Options tunes the worker. Zero values take the defaults.
type Options struct {
	Interval    time.Duration
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	MaxAttempts int
	BatchSize   int
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = DefaultBaseBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = DefaultMaxBackoff
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}

// Worker drains due side effects on an interval.
type Worker struct {
	queue      Queue
	dispatcher *Dispatcher
	logger     logger.Logger
	opts       Options
	now        func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewWorker creates a new outbox worker
func NewWorker(queue Queue, dispatcher *Dispatcher, log logger.Logger, opts Options) *Worker {
	return &Worker{
		queue:      queue,
		dispatcher: dispatcher,
		logger:     log,
		opts:       opts.withDefaults(),
		now:        time.Now,
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start begins the periodic processing loop
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.Interval)
	go func() {
		defer close(w.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := w.ProcessDue(ctx); err != nil {
					w.logger.Error("failed to process outbox", logger.Error(err))
				}
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop stops the worker and waits for the batch in flight.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.done
}

// ProcessDue runs every due side effect once and returns how many succeeded.
func (w *Worker) ProcessDue(ctx context.Context) (int, error) {
	due, err := w.queue.Due(ctx, w.now(), w.opts.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list due side effects: %w", err)
	}

	succeeded := 0
	for _, e := range due {
		if ctx.Err() != nil {
			break
		}
		won, err := w.queue.Claim(ctx, e)
		if err != nil {
			w.logger.Warn("failed to claim side effect",
				logger.String("effect_id", e.ID),
				logger.Error(err))
			continue
		}
		if !won {
			continue
		}
		if w.run(ctx, e) {
			succeeded++
		}
	}

	if len(due) > 0 {
		w.logger.Debug("outbox batch processed",
			logger.Int("due", len(due)),
			logger.Int("succeeded", succeeded))
	}
	return succeeded, nil
}

func (w *Worker) run(ctx context.Context, e domain.SideEffect) bool {
	err := w.dispatcher.Dispatch(ctx, e)
	if err == nil {
		return true
	}

	e.Attempts++
	e.LastError = err.Error()

	if IsPermanent(err) || e.Attempts >= w.opts.MaxAttempts {
		w.logger.Error("side effect dead-lettered",
			logger.String("effect_id", e.ID),
			logger.String("kind", string(e.Kind)),
			logger.Int("attempts", e.Attempts),
			logger.Error(err))
		if dlErr := w.queue.DeadLetter(ctx, e); dlErr != nil {
			w.logger.Error("failed to dead-letter side effect",
				logger.String("effect_id", e.ID),
				logger.Error(dlErr))
		}
		return false
	}

	delay := Backoff(e.Attempts, w.opts.BaseBackoff, w.opts.MaxBackoff)
	w.logger.Warn("side effect failed, retrying",
		logger.String("effect_id", e.ID),
		logger.String("kind", string(e.Kind)),
		logger.Int("attempts", e.Attempts),
		logger.Duration("retry_in", delay),
		logger.Error(err))
	if rErr := w.queue.Reschedule(ctx, e, w.now().Add(delay)); rErr != nil {
		w.logger.Error("failed to reschedule side effect, effect lost",
			logger.String("effect_id", e.ID),
			logger.Error(rErr))
	}
	return false
}

// Backoff returns base doubled for every attempt after the first, capped at ceiling.
func Backoff(attempts int, base, ceiling time.Duration) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= ceiling {
			return ceiling
		}
	}
	if delay > ceiling {
		return ceiling
	}
	return delay
}
