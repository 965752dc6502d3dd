package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
)

const (
	// DefaultReminderInterval is how often bookings are scanned for due reminders
	DefaultReminderInterval = time.Hour
	// DefaultReminderMarkerTTL keeps sent-reminder markers for a little over a year
	DefaultReminderMarkerTTL = 400 * 24 * time.Hour
	// ActionReminder is the alert action of a due reminder
	ActionReminder = "reminder"
)

// BookingLister exposes the current booking collection.
type BookingLister interface {
	Items() []*domain.Booking
}

// ReminderMarker records sent reminders. MarkReminder reports false when
// the reminder was already sent.
type ReminderMarker interface {
	MarkReminder(ctx context.Context, bookingID string, due time.Time, ttl time.Duration) (bool, error)
}

// Emitter queues side effects.
type Emitter interface {
	Emit(ctx context.Context, kind domain.SideEffectKind, payload any) (domain.SideEffect, error)
}

// ReminderScanner raises a push alert once a booking's reminder comes due:
// reminderFrequency months after its date.
type ReminderScanner struct {
	bookings  BookingLister
	marker    ReminderMarker
	effects   Emitter
	logger    logger.Logger
	loc       *time.Location
	interval  time.Duration
	markerTTL time.Duration
	now       func() time.Time
	stopCh    chan struct{}
}

// NewReminderScanner creates a new reminder scanner
func NewReminderScanner(
	bookings BookingLister,
	marker ReminderMarker,
	effects Emitter,
	log logger.Logger,
	loc *time.Location,
	interval time.Duration,
) *ReminderScanner {
	if interval <= 0 {
		interval = DefaultReminderInterval
	}
	if loc == nil {
		loc = time.Local
	}
	return &ReminderScanner{
		bookings:  bookings,
		marker:    marker,
		effects:   effects,
		logger:    log,
		loc:       loc,
		interval:  interval,
		markerTTL: DefaultReminderMarkerTTL,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic scan
func (rs *ReminderScanner) Start(ctx context.Context) error {
	ticker := time.NewTicker(rs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rs.Scan(ctx)
			case <-rs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the scanner
func (rs *ReminderScanner) Stop() {
	close(rs.stopCh)
}

// Scan queues an alert for every reminder that came due and was not sent
// yet. The marker is written before the alert is queued, so a reminder is
// sent at most once.
func (rs *ReminderScanner) Scan(ctx context.Context) int {
	now := rs.now()
	sent := 0

	for _, b := range rs.bookings.Items() {
		due, ok := ReminderDue(b, rs.loc)
		if !ok || now.Before(due) {
			continue
		}

		first, err := rs.marker.MarkReminder(ctx, b.ID, due, rs.markerTTL)
		if err != nil {
			rs.logger.Warn("failed to mark reminder",
				logger.BookingID(b.ID),
				logger.Error(err))
			continue
		}
		if !first {
			continue
		}

		_, err = rs.effects.Emit(ctx, domain.EffectPushAlert, domain.Alert{
			Action:    ActionReminder,
			BookingID: b.ID,
			Customer:  b.Customer,
			Title:     b.Title,
			Date:      b.Date,
			Actor:     domain.SystemActor,
			At:        now.UTC(),
		})
		if err != nil {
			rs.logger.Error("failed to queue reminder alert",
				logger.BookingID(b.ID),
				logger.Error(err))
			continue
		}

		rs.logger.Info("reminder due",
			logger.BookingID(b.ID),
			logger.String("customer", b.Customer),
			logger.Time("due", due))
		sent++
	}

	if sent > 0 {
		rs.logger.Info("reminder scan completed", logger.Int("sent", sent))
	} else {
		rs.logger.Debug("no reminders due")
	}
	return sent
}

// ReminderDue returns when the reminder of b comes due. Archived bookings,
// bookings without a reminder or without a parseable date have none.
func ReminderDue(b *domain.Booking, loc *time.Location) (time.Time, bool) {
	if b == nil || !b.HasReminder || b.IsArchived || b.ReminderFrequency <= 0 {
		return time.Time{}, false
	}
	start, ok := b.Start(loc)
	if !ok {
		return time.Time{}, false
	}
	return start.AddDate(0, b.ReminderFrequency, 0), true
}
