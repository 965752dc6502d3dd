package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/detailcal/internal/catalog"
	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
	"github.com/MrSnakeDoc/detailcal/internal/notify"
)

// Actions carried by alerts and evidence documents.
const (
	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionArchived   = "archived"
	ActionUnarchived = "unarchived"
	ActionConfirmed  = "confirmed"
	ActionDeleted    = "deleted"
)

// BookingStore is the subset of the booking store the form writes through.
type BookingStore interface {
	Get(id string) (*domain.Booking, bool)
	Add(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	Update(ctx context.Context, id string, patch domain.Patch) (*domain.Booking, bool)
	Remove(ctx context.Context, id string) bool
}

// ServiceMatcher canonicalizes free-typed service and add-on names.
type ServiceMatcher interface {
	MatchService(query string) (catalog.Offering, bool)
	MatchAddon(query string) (catalog.Offering, bool)
}

// Emitter queues side effects.
type Emitter interface {
	Emit(ctx context.Context, kind domain.SideEffectKind, payload any) (domain.SideEffect, error)
}

// Controller hands out edit sessions and runs the quick actions. It is
// built once and shared.
type Controller struct {
	store    BookingStore
	matcher  ServiceMatcher
	effects  Emitter
	notifier notify.Notifier
	logger   logger.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewController creates a new form controller. matcher and effects may be nil.
func NewController(
	store BookingStore,
	matcher ServiceMatcher,
	effects Emitter,
	notifier notify.Notifier,
	log logger.Logger,
	loc *time.Location,
) *Controller {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Controller{
		store:    store,
		matcher:  matcher,
		effects:  effects,
		notifier: notifier,
		logger:   log,
		loc:      loc,
		now:      time.Now,
	}
}

// Session is one edit session. It is not safe for concurrent use.
type Session struct {
	Form Form
	c    *Controller
}

// LoadForCreate starts a create session on defaultDate.
func (c *Controller) LoadForCreate(defaultDate time.Time) *Session {
	if defaultDate.IsZero() {
		defaultDate = c.now()
	}
	return &Session{Form: blank(defaultDate.In(c.loc)), c: c}
}

// LoadForEdit starts an edit session for b.
func (c *Controller) LoadForEdit(b *domain.Booking) *Session {
	if b == nil {
		return c.LoadForCreate(time.Time{})
	}
	return &Session{Form: fromBooking(b, c.loc), c: c}
}

// Submit wraps a form received from a client.
func (c *Controller) Submit(f Form) *Session {
	return &Session{Form: f, c: c}
}

// Duplicate clones b into a create session. The copy starts at DefaultTime
// on the same day, keeps the original duration and drops the id, the
// reminder and the archive flag.
func (c *Controller) Duplicate(b *domain.Booking) *Session {
	if b == nil {
		return c.LoadForCreate(time.Time{})
	}
	f := fromBooking(b, c.loc)
	f.ID = ""
	f.Time = DefaultTime
	f.HasReminder = false
	f.ReminderFrequency = 0
	f.IsArchived = false
	f.EndTime = ""

	start, okStart := b.Start(c.loc)
	end, okEnd := domain.ParseTimestamp(b.EndTime, c.loc)
	if f.Date != "" && okStart && okEnd && end.After(start) {
		day, _ := time.ParseInLocation(DateLayout, f.Date, c.loc)
		newStart, _ := atTime(day, DefaultTime, "", "time")
		newEnd := newStart.Add(end.Sub(start))
		if domain.SameDay(newStart, newEnd) {
			f.EndTime = newEnd.Format(TimeLayout)
		}
	}
	return &Session{Form: f, c: c}
}

// Validate checks the form. Customer and service are the blocking rules;
// date and time inputs must parse and an end time must follow the start.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.Form.Customer) == "" {
		return &domain.ValidationError{Field: "customer", Message: "Customer is required"}
	}
	if s.Form.Service() == "" {
		return &domain.ValidationError{Field: "title", Message: "Service is required"}
	}
	_, _, err := s.Form.times(s.c.loc)
	return err
}

// Save validates the form and writes it through the store. Side effects are
// queued afterwards and never fail the save.
func (s *Session) Save(ctx context.Context, actor domain.Actor) (*domain.Booking, error) {
	c := s.c
	if err := s.Validate(); err != nil {
		c.notifier.Notify(notify.LevelWarning, validationMessage(err))
		return nil, err
	}
	start, end, _ := s.Form.times(c.loc)

	service := s.Form.Service()
	if !s.Form.UseCustomService {
		service = c.canonicalService(service)
	}
	b := s.Form.toBooking(service, c.canonicalAddons(s.Form.Addons), start, end)

	var (
		saved  *domain.Booking
		action string
	)
	if b.ID == "" {
		added, err := c.store.Add(ctx, b)
		if err != nil {
			c.notifier.Notify(notify.LevelError, "Could not create booking")
			return nil, err
		}
		saved, action = added, ActionCreated
	} else {
		updated, ok := c.store.Update(ctx, b.ID, domain.PatchFrom(b))
		if !ok {
			c.notifier.Notify(notify.LevelError, "Booking no longer exists")
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, b.ID)
		}
		saved, action = updated, ActionUpdated
	}

	s.Form.ID = saved.ID
	s.Form.Title = saved.Title

	c.emit(ctx, action, saved, actor)
	if saved.Customer != "" {
		c.enqueue(ctx, domain.EffectCustomerSync, saved.ID, s.Form.contact())
	}

	if action == ActionCreated {
		c.notifier.Notify(notify.LevelSuccess, "Booking created")
	} else {
		c.notifier.Notify(notify.LevelSuccess, "Booking updated")
	}
	return saved, nil
}

func (c *Controller) canonicalService(name string) string {
	if c.matcher == nil {
		return name
	}
	if o, ok := c.matcher.MatchService(name); ok {
		return o.Name
	}
	return name
}

func (c *Controller) canonicalAddons(addons []string) []string {
	if len(addons) == 0 {
		return nil
	}
	out := make([]string, 0, len(addons))
	seen := make(map[string]bool, len(addons))
	for _, a := range addons {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if c.matcher != nil {
			if o, ok := c.matcher.MatchAddon(a); ok {
				a = o.Name
			}
		}
		key := strings.ToLower(a)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// emit queues the alert and, for non-admin actors, the evidence document.
func (c *Controller) emit(ctx context.Context, action string, b *domain.Booking, actor domain.Actor) {
	now := c.now()
	c.enqueue(ctx, domain.EffectPushAlert, b.ID, domain.Alert{
		Action:    action,
		BookingID: b.ID,
		Customer:  b.Customer,
		Title:     b.Title,
		Date:      b.Date,
		Actor:     actor,
		At:        now.UTC(),
	})

	if actor.IsAdmin() {
		return
	}
	ev, err := buildEvidence(action, b, actor, now)
	if err != nil {
		c.logger.Error("failed to build evidence",
			logger.BookingID(b.ID),
			logger.Error(err))
		return
	}
	c.enqueue(ctx, domain.EffectArchiveEvidence, b.ID, ev)
}

func (c *Controller) enqueue(ctx context.Context, kind domain.SideEffectKind, bookingID string, payload any) {
	if c.effects == nil {
		return
	}
	if _, err := c.effects.Emit(ctx, kind, payload); err != nil {
		c.logger.Warn("failed to queue side effect",
			logger.String("kind", string(kind)),
			logger.BookingID(bookingID),
			logger.Error(err))
	}
}

func validationMessage(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}
