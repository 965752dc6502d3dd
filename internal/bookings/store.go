// Package bookings holds the process-wide booking collection.
//
// The Store applies every mutation locally first and pushes it to the
// remote collaborator in the background. Refresh replaces the whole
// collection with the remote snapshot; the last refresh to resolve wins,
// so an optimistic add that the remote has not acknowledged yet can vanish
// until the next refresh that includes it.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/detailcal/internal/bg"
	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
	"github.com/MrSnakeDoc/detailcal/internal/notify"
)

// Remote is the persistence collaborator.
type Remote interface {
	FetchAll(ctx context.Context) ([]*domain.Booking, error)
	Upsert(ctx context.Context, b *domain.Booking) error
	Delete(ctx context.Context, id string) error
}

// Options tune remote write behavior.
type Options struct {
	// RemoteTimeout bounds each background write. Zero means no deadline
	// beyond the transport's own.
	RemoteTimeout time.Duration

	// RollbackOnFailure restores the pre-mutation state of an entity when
	// its remote write fails. Off by default: the local state is left as-is
	// until the next refresh.
	RollbackOnFailure bool
}

// Store is the optimistic in-memory booking collection.
type Store struct {
	mu          sync.RWMutex
	items       []*domain.Booking
	lastRefresh time.Time

	remote   Remote
	runner   bg.Runner
	notifier notify.Notifier
	logger   logger.Logger
	opts     Options
	now      func() time.Time
}

// New creates an empty store. Call Refresh to load the remote snapshot.
func New(remote Remote, runner bg.Runner, notifier notify.Notifier, log logger.Logger, opts Options) *Store {
	if runner == nil {
		runner = bg.Async{}
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Store{
		remote:   remote,
		runner:   runner,
		notifier: notifier,
		logger:   log,
		opts:     opts,
		now:      time.Now,
	}
}

// Items returns a copy of the full collection in store order.
func (s *Store) Items() []*domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Booking, len(s.items))
	for i, b := range s.items {
		out[i] = b.Clone()
	}
	return out
}

// Get returns a copy of the booking with id.
func (s *Store) Get(id string) (*domain.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return nil, false
}

// Count returns the number of bookings held.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// LastRefresh returns when the collection was last replaced by a snapshot.
func (s *Store) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// Add inserts b, assigning an id and createdAt when absent, and pushes it to
// the remote without waiting. The stored copy is returned.
func (s *Store) Add(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	if b == nil {
		return nil, errors.New("bookings: nil booking")
	}
	entity := b.Clone()
	if entity.ID == "" {
		entity.ID = uuid.NewString()
	}
	if entity.CreatedAt == "" {
		entity.CreatedAt = domain.FormatTimestamp(s.now().UTC())
	}
	entity.Status = entity.Status.Normalize()

	s.mu.Lock()
	if s.indexOf(entity.ID) >= 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateID, entity.ID)
	}
	s.items = append(s.items, entity)
	written := entity.Clone()
	s.mu.Unlock()

	s.logger.Debug("booking added locally", logger.BookingID(written.ID))

	s.dispatch(ctx, "create", written.ID, func(ctx context.Context) error {
		return s.remote.Upsert(ctx, written)
	}, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if i := s.indexOf(written.ID); i >= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		}
	})

	return written.Clone(), nil
}

// Update merges patch into the booking with id. An unknown id is a no-op
// that only logs a warning.
func (s *Store) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Booking, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		s.logger.Warn("update of unknown booking ignored", logger.BookingID(id))
		return nil, false
	}
	before := s.items[i].Clone()
	patch.Apply(s.items[i])
	written := s.items[i].Clone()
	s.mu.Unlock()

	s.dispatch(ctx, "update", id, func(ctx context.Context) error {
		return s.remote.Upsert(ctx, written)
	}, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if i := s.indexOf(id); i >= 0 {
			s.items[i] = before
		}
	})

	return written.Clone(), true
}

// Remove deletes the booking with id locally and remotely.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		s.logger.Warn("remove of unknown booking ignored", logger.BookingID(id))
		return false
	}
	removed := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.mu.Unlock()

	s.dispatch(ctx, "delete", id, func(ctx context.Context) error {
		return s.remote.Delete(ctx, id)
	}, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.indexOf(id) >= 0 {
			return
		}
		at := i
		if at > len(s.items) {
			at = len(s.items)
		}
		s.items = append(s.items[:at], append([]*domain.Booking{removed}, s.items[at:]...)...)
	})
	return true
}

// Refresh replaces the collection with the remote snapshot. On failure the
// collection is left untouched and a *domain.RemoteReadError is returned.
func (s *Store) Refresh(ctx context.Context) error {
	snapshot, err := s.remote.FetchAll(ctx)
	if err != nil {
		rerr := &domain.RemoteReadError{Op: "fetch bookings", Err: err}
		s.logger.Error("booking refresh failed", logger.Error(err))
		s.notifier.Notify(notify.LevelError, "Could not refresh bookings")
		return rerr
	}

	items := make([]*domain.Booking, 0, len(snapshot))
	for _, b := range snapshot {
		if b == nil {
			continue
		}
		c := b.Clone()
		c.Status = c.Status.Normalize()
		items = append(items, c)
	}

	s.mu.Lock()
	s.items = items
	s.lastRefresh = s.now()
	s.mu.Unlock()

	s.logger.Debug("bookings refreshed", logger.Int("count", len(items)))
	return nil
}

// Apply reconciles a single change event without a full refetch. New
// records are appended, known ones replaced in place.
func (s *Store) Apply(ev domain.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Op {
	case domain.ChangeDelete:
		if i := s.indexOf(ev.ID); i >= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		}
	case domain.ChangeUpsert:
		if ev.Booking == nil {
			return
		}
		b := ev.Booking.Clone()
		if b.ID == "" {
			b.ID = ev.ID
		}
		b.Status = b.Status.Normalize()
		if i := s.indexOf(b.ID); i >= 0 {
			s.items[i] = b
			return
		}
		s.items = append(s.items, b)
	}
}

// dispatch runs write in the background on a context detached from the
// caller. Failures are terminal here: logged, notified, optionally undone.
func (s *Store) dispatch(ctx context.Context, op, id string, write func(context.Context) error, undo func()) {
	if s.remote == nil {
		return
	}
	base := context.WithoutCancel(ctx)
	s.runner.Do(func() {
		wctx := base
		if s.opts.RemoteTimeout > 0 {
			var cancel context.CancelFunc
			wctx, cancel = context.WithTimeout(base, s.opts.RemoteTimeout)
			defer cancel()
		}

		err := write(wctx)
		if err == nil {
			return
		}
		werr := &domain.RemoteWriteError{Op: op, ID: id, Err: err}
		s.logger.Error("remote booking write failed",
			logger.String("op", op),
			logger.BookingID(id),
			logger.Bool("rollback", s.opts.RollbackOnFailure),
			logger.Error(werr))
		s.notifier.Notify(notify.LevelError, fmt.Sprintf("Could not %s booking, changes are not saved remotely", op))
		if s.opts.RollbackOnFailure && undo != nil {
			undo()
		}
	})
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, b := range s.items {
		if b.ID == id {
			return i
		}
	}
	return -1
}
