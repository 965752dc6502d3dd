package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/logger"
)

// Refresher replaces the booking collection with the remote snapshot.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// BookingRefresher refetches bookings on demand and, optionally, on an interval
type BookingRefresher struct {
	store         Refresher
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewBookingRefresher creates a new booking refresher. A non-positive
// interval leaves only the initial load and manual triggers.
func NewBookingRefresher(
	store Refresher,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *BookingRefresher {
	return &BookingRefresher{
		store:         store,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start loads the initial snapshot and begins listening for triggers. A
// failed initial load is logged; the store starts empty and the next
// refresh fills it.
func (br *BookingRefresher) Start(ctx context.Context) error {
	if err := br.store.Refresh(ctx); err != nil {
		br.logger.Warn("initial booking load failed, starting empty",
			logger.Error(err))
	}

	tick, stopTicker := tickerChan(br.interval)
	go func() {
		defer stopTicker()
		for {
			select {
			case <-tick:
				br.refresh(ctx)
			case <-br.manualTrigger:
				br.logger.Info("manual booking refresh triggered")
				br.refresh(ctx)
			case <-br.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the refresher
func (br *BookingRefresher) Stop() {
	close(br.stopCh)
}

func (br *BookingRefresher) refresh(ctx context.Context) {
	if err := br.store.Refresh(ctx); err != nil {
		br.logger.Error("failed to refresh bookings", logger.Error(err))
	}
}

// Trigger requests a refresh without blocking. It reports false when a
// trigger is already pending.
func Trigger(ch chan struct{}) bool {
	if ch == nil {
		return false
	}
	select {
	case ch <- struct{}{}:
		return true
	default:
		return false
	}
}
