package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/detailcal/internal/bg"
	"github.com/MrSnakeDoc/detailcal/internal/bookings"
	"github.com/MrSnakeDoc/detailcal/internal/calendar"
	"github.com/MrSnakeDoc/detailcal/internal/catalog"
	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/form"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
	"github.com/MrSnakeDoc/detailcal/internal/notify"
	"github.com/MrSnakeDoc/detailcal/internal/realtime"
)

// sharedRemote is the collection every device writes to. Each write is
// published to all subscribers, like the Redis change channel.
type sharedRemote struct {
	mu    sync.Mutex
	items map[string]*domain.Booking
	subs  []chan domain.ChangeEvent
}

func newSharedRemote() *sharedRemote {
	return &sharedRemote{items: map[string]*domain.Booking{}}
}

func (r *sharedRemote) FetchAll(context.Context) ([]*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Booking, 0, len(r.items))
	for _, b := range r.items {
		out = append(out, b.Clone())
	}
	return out, nil
}

func (r *sharedRemote) Upsert(_ context.Context, b *domain.Booking) error {
	r.mu.Lock()
	r.items[b.ID] = b.Clone()
	subs := r.subs
	r.mu.Unlock()
	r.publish(subs, domain.ChangeEvent{Op: domain.ChangeUpsert, ID: b.ID, Booking: b.Clone()})
	return nil
}

func (r *sharedRemote) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.items, id)
	subs := r.subs
	r.mu.Unlock()
	r.publish(subs, domain.ChangeEvent{Op: domain.ChangeDelete, ID: id})
	return nil
}

func (r *sharedRemote) publish(subs []chan domain.ChangeEvent, ev domain.ChangeEvent) {
	for _, ch := range subs {
		ch <- ev
	}
}

func (r *sharedRemote) Subscribe(context.Context) (realtime.Subscription, error) {
	ch := make(chan domain.ChangeEvent, 16)
	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()
	return &subscription{remote: r, ch: ch}, nil
}

type subscription struct {
	remote *sharedRemote
	ch     chan domain.ChangeEvent
	once   sync.Once
}

func (s *subscription) Events() <-chan domain.ChangeEvent { return s.ch }

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.remote.mu.Lock()
		for i, ch := range s.remote.subs {
			if ch == s.ch {
				s.remote.subs = append(s.remote.subs[:i], s.remote.subs[i+1:]...)
				break
			}
		}
		s.remote.mu.Unlock()
		close(s.ch)
	})
	return nil
}

// device is one client of the shared collection: its own store, form
// controller and realtime listener.
type device struct {
	store    *bookings.Store
	forms    *form.Controller
	feed     *notify.Feed
	listener *realtime.Listener
}

func newDevice(t *testing.T, remote *sharedRemote, cat *catalog.Catalog, mode realtime.Mode) *device {
	t.Helper()
	feed := notify.NewFeed(20, nil)
	store := bookings.New(remote, bg.Sync{}, feed, logger.Nop(), bookings.Options{})
	d := &device{
		store:    store,
		forms:    form.NewController(store, cat, nil, feed, logger.Nop(), time.UTC),
		feed:     feed,
		listener: realtime.NewListener(remote, store, feed, logger.Nop(), mode),
	}
	require.NoError(t, store.Refresh(context.Background()))
	require.NoError(t, d.listener.Start(context.Background()))
	t.Cleanup(d.listener.Stop)
	return d
}

func testCatalog() *catalog.Catalog {
	cat := catalog.New()
	cat.Replace(catalog.Snapshot{
		Services: []catalog.Offering{
			{Name: "Full Detail", Kind: catalog.KindService},
			{Name: "Interior Detail", Kind: catalog.KindService},
		},
		Addons: []catalog.Offering{
			{Name: "Ceramic Coating", Kind: catalog.KindAddon},
		},
		Employees: []domain.Employee{{ID: "emp-1", Name: "Sam Rivera"}},
	})
	return cat
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	assert.Eventually(t, cond, 2*time.Second, 10*time.Millisecond, msg)
}

func TestBookingPropagatesAcrossDevices(t *testing.T) {
	for _, mode := range []realtime.Mode{realtime.ModeRefetch, realtime.ModeApply} {
		t.Run(string(mode), func(t *testing.T) {
			remote := newSharedRemote()
			cat := testCatalog()
			front := newDevice(t, remote, cat, mode)
			shop := newDevice(t, remote, cat, mode)

			day := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
			session := front.forms.LoadForCreate(day)
			session.Form.Customer = "Jane Doe"
			session.Form.Title = "interior detail"
			session.Form.Time = "13:00"
			session.Form.EndTime = "15:30"
			session.Form.Addons = []string{"ceramic"}

			saved, err := session.Save(context.Background(), domain.SystemActor)
			require.NoError(t, err)
			assert.Equal(t, "Interior Detail", saved.Title)

			eventually(t, func() bool {
				_, ok := shop.store.Get(saved.ID)
				return ok
			}, "booking never reached the second device")

			view := calendar.ProjectDay(shop.store.Items(), day, calendar.DefaultOptions(time.UTC))
			require.Len(t, view.Entries, 1)
			entry := view.Entries[0]
			assert.Equal(t, "Jane Doe", entry.CustomerLabel)
			assert.Equal(t, 150.0, entry.DurationMinutes())

			eventually(t, func() bool {
				notes := shop.feed.Recent(1)
				return len(notes) == 1 && notes[0].Message == realtime.UpdatedMessage
			}, "second device was not told about the remote change")

			require.NoError(t, shop.forms.Delete(context.Background(), saved.ID, true, domain.SystemActor))
			eventually(t, func() bool {
				_, ok := front.store.Get(saved.ID)
				return !ok
			}, "deletion never reached the first device")
		})
	}
}

func TestDuplicateAndArchiveScenario(t *testing.T) {
	remote := newSharedRemote()
	d := newDevice(t, remote, testCatalog(), realtime.ModeApply)
	ctx := context.Background()

	session := d.forms.LoadForCreate(time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC))
	session.Form.Customer = "Acme Fleet"
	session.Form.Title = "Full Detail"
	session.Form.Time = "08:00"
	session.Form.EndTime = "10:00"
	original, err := session.Save(ctx, domain.SystemActor)
	require.NoError(t, err)

	dup := d.forms.Duplicate(original)
	assert.Empty(t, dup.Form.ID)
	assert.Equal(t, form.DefaultTime, dup.Form.Time)
	assert.Equal(t, "11:00", dup.Form.EndTime)
	copyBooking, err := dup.Save(ctx, domain.SystemActor)
	require.NoError(t, err)
	assert.NotEqual(t, original.ID, copyBooking.ID)

	_, err = d.forms.ToggleArchive(ctx, original.ID, domain.SystemActor)
	require.NoError(t, err)

	opts := calendar.DefaultOptions(time.UTC)
	week := calendar.ProjectWeek(d.store.Items(), time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC), opts)
	var visible []string
	for _, cell := range week.Days {
		for _, e := range cell.Entries {
			visible = append(visible, e.Booking.ID)
		}
	}
	assert.Equal(t, []string{copyBooking.ID}, visible)

	opts.ShowArchived = true
	history := calendar.History(d.store.Items(), "", "acme fleet", opts)
	assert.Len(t, history, 2)

	eventually(t, func() bool {
		items, _ := remote.FetchAll(ctx)
		return len(items) == 2
	}, "remote should hold both bookings")
}
