package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/detailcal/internal/bg"
	"github.com/MrSnakeDoc/detailcal/internal/bookings"
	"github.com/MrSnakeDoc/detailcal/internal/catalog"
	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
	"github.com/MrSnakeDoc/detailcal/internal/notify"
)

type acceptRemote struct{}

func (acceptRemote) FetchAll(context.Context) ([]*domain.Booking, error) { return nil, nil }
func (acceptRemote) Upsert(context.Context, *domain.Booking) error      { return nil }
func (acceptRemote) Delete(context.Context, string) error               { return nil }

type emitted struct {
	kind    domain.SideEffectKind
	payload any
}

type recordingEmitter struct {
	mu   sync.Mutex
	got  []emitted
	fail error
}

func (r *recordingEmitter) Emit(_ context.Context, kind domain.SideEffectKind, payload any) (domain.SideEffect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return domain.SideEffect{}, r.fail
	}
	r.got = append(r.got, emitted{kind: kind, payload: payload})
	return domain.SideEffect{ID: "e"}, nil
}

func (r *recordingEmitter) kinds() []domain.SideEffectKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SideEffectKind, len(r.got))
	for i, e := range r.got {
		out[i] = e.kind
	}
	return out
}

type fixture struct {
	ctrl    *Controller
	store   *bookings.Store
	effects *recordingEmitter
	notes   *notify.Feed
}

var (
	admin    = domain.Actor{ID: "u1", Name: "Owner", Role: domain.RoleAdmin}
	detailer = domain.Actor{ID: "u2", Name: "Sam", Role: domain.RoleDetailer}
)

func newFixture(t *testing.T) fixture {
	t.Helper()
	cat := catalog.New()
	cat.Replace(catalog.Snapshot{
		Services: []catalog.Offering{{Name: "Full Detail", Kind: catalog.KindService}, {Name: "Interior Detail", Kind: catalog.KindService}},
		Addons:   []catalog.Offering{{Name: "Hand Wax", Kind: catalog.KindAddon}},
	})
	notes := notify.NewFeed(20, nil)
	store := bookings.New(acceptRemote{}, bg.Sync{}, notes, logger.Nop(), bookings.Options{})
	effects := &recordingEmitter{}
	ctrl := NewController(store, cat, effects, notes, logger.Nop(), time.UTC)
	ctrl.now = func() time.Time { return time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC) }
	return fixture{ctrl: ctrl, store: store, effects: effects, notes: notes}
}

func TestLoadForCreateDefaults(t *testing.T) {
	f := newFixture(t)
	s := f.ctrl.LoadForCreate(time.Date(2024, 6, 12, 15, 0, 0, 0, time.UTC))

	assert.Equal(t, "2024-06-12", s.Form.Date)
	assert.Equal(t, "09:00", s.Form.Time)
	assert.Equal(t, domain.StatusConfirmed, s.Form.Status)
	assert.Empty(t, s.Form.ID)
}

func TestSaveRejectsBlankCustomer(t *testing.T) {
	f := newFixture(t)
	s := f.ctrl.LoadForCreate(time.Time{})
	s.Form.Title = "Wax"

	_, err := s.Save(context.Background(), admin)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "customer", verr.Field)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, f.store.Count(), "no store mutation on validation failure")
	assert.Empty(t, f.effects.kinds())

	recent := f.notes.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, notify.LevelWarning, recent[0].Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Form)
		field string
	}{
		{name: "valid", edit: func(*Form) {}},
		{name: "blank service", edit: func(f *Form) { f.Title = "  " }, field: "title"},
		{name: "custom service used", edit: func(f *Form) { f.Title = ""; f.UseCustomService = true; f.CustomService = "Boat wash" }},
		{name: "custom toggle without value", edit: func(f *Form) { f.UseCustomService = true }, field: "title"},
		{name: "bad date", edit: func(f *Form) { f.Date = "10/06/2024" }, field: "date"},
		{name: "bad time", edit: func(f *Form) { f.Time = "9am" }, field: "time"},
		{name: "end before start", edit: func(f *Form) { f.EndTime = "08:00" }, field: "endTime"},
		{name: "end equals start", edit: func(f *Form) { f.EndTime = "09:00" }, field: "endTime"},
		{name: "no date at all", edit: func(f *Form) { f.Date = "" }},
	}

	fx := newFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fx.ctrl.LoadForCreate(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
			s.Form.Customer = "Jane Doe"
			s.Form.Title = "Full Detail"
			tt.edit(&s.Form)

			err := s.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSaveCreatesAndCanonicalizes(t *testing.T) {
	f := newFixture(t)
	s := f.ctrl.LoadForCreate(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	s.Form.Customer = " Jane Doe "
	s.Form.Title = "full detail"
	s.Form.Time = "10:30"
	s.Form.EndTime = "12:00"
	s.Form.Addons = []string{"wax", "Hand wax", ""}
	s.Form.CustomerPhone = "555-0100"

	saved, err := s.Save(context.Background(), admin)
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, saved.ID, s.Form.ID)
	assert.Equal(t, "Jane Doe", saved.Customer)
	assert.Equal(t, "Full Detail", saved.Title)
	assert.Equal(t, []string{"Hand Wax"}, saved.Addons)
	assert.Equal(t, "2024-06-10T10:30:00Z", saved.Date)
	assert.Equal(t, "2024-06-10T12:00:00Z", saved.EndTime)
	assert.Equal(t, domain.StatusConfirmed, saved.Status)
	assert.Equal(t, 1, f.store.Count())

	assert.Equal(t, []domain.SideEffectKind{domain.EffectPushAlert, domain.EffectCustomerSync}, f.effects.kinds(),
		"admins leave no evidence")
	contact := f.effects.got[1].payload.(domain.CustomerContact)
	assert.Equal(t, "555-0100", contact.Phone)

	alert := f.effects.got[0].payload.(domain.Alert)
	assert.Equal(t, ActionCreated, alert.Action)
	assert.Equal(t, "Booking created", f.notes.Recent(1)[0].Message)
}

func TestSaveKeepsCustomService(t *testing.T) {
	f := newFixture(t)
	s := f.ctrl.LoadForCreate(time.Time{})
	s.Form.Customer = "Jane"
	s.Form.UseCustomService = true
	s.Form.CustomService = "full detail"

	saved, err := s.Save(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, "full detail", saved.Title)
}

func TestSaveByDetailerArchivesEvidence(t *testing.T) {
	f := newFixture(t)
	s := f.ctrl.LoadForCreate(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	s.Form.Customer = "Jane Doe"
	s.Form.Title = "Interior"

	saved, err := s.Save(context.Background(), detailer)
	require.NoError(t, err)
	assert.Equal(t, "Interior Detail", saved.Title)

	require.Equal(t, []domain.SideEffectKind{domain.EffectPushAlert, domain.EffectArchiveEvidence, domain.EffectCustomerSync}, f.effects.kinds())
	ev := f.effects.got[1].payload.(domain.Evidence)
	assert.Equal(t, saved.ID, ev.BookingID)
	assert.Equal(t, ActionCreated, ev.Action)
	assert.Contains(t, ev.Document, "action: created")
	assert.Contains(t, ev.Document, "service: Interior Detail")
	assert.Contains(t, ev.Document, "role: detailer")
}

func TestSaveUpdatesExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orig, err := f.store.Add(ctx, &domain.Booking{Customer: "Jane", Title: "Full Detail", Date: "2024-06-10T09:00:00Z", Status: domain.StatusPending})
	require.NoError(t, err)

	s := f.ctrl.LoadForEdit(orig)
	assert.Equal(t, orig.ID, s.Form.ID)
	assert.Equal(t, "2024-06-10", s.Form.Date)
	assert.Equal(t, "09:00", s.Form.Time)
	assert.Equal(t, domain.StatusPending, s.Form.Status)

	s.Form.Notes = "gate code 1234"
	s.Form.Status = domain.StatusInProgress
	saved, err := s.Save(ctx, admin)
	require.NoError(t, err)

	assert.Equal(t, orig.ID, saved.ID)
	assert.Equal(t, orig.CreatedAt, saved.CreatedAt)
	assert.Equal(t, domain.StatusInProgress, saved.Status)
	assert.Equal(t, "gate code 1234", saved.Notes)
	assert.Equal(t, 1, f.store.Count())
	assert.Equal(t, ActionUpdated, f.effects.got[0].payload.(domain.Alert).Action)
}

func TestSaveUnknownIDIsNotFound(t *testing.T) {
	f := newFixture(t)
	s := f.ctrl.Submit(Form{ID: "gone", Customer: "Jane", Title: "Full Detail"})

	_, err := s.Save(context.Background(), admin)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, f.store.Count())
}

func TestSaveSurvivesEnqueueFailure(t *testing.T) {
	f := newFixture(t)
	f.effects.fail = errors.New("redis down")
	s := f.ctrl.Submit(Form{Customer: "Jane", Title: "Full Detail", Date: "2024-06-10"})

	_, err := s.Save(context.Background(), detailer)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.Count())
}

func TestDuplicate(t *testing.T) {
	f := newFixture(t)
	src := &domain.Booking{
		ID:                "b1",
		CreatedAt:         "2024-01-01T00:00:00Z",
		Customer:          "Jane",
		Title:             "Full Detail",
		Date:              "2024-06-10T13:15:00Z",
		EndTime:           "2024-06-10T15:45:00Z",
		Status:            domain.StatusDone,
		HasReminder:       true,
		ReminderFrequency: 3,
		IsArchived:        true,
		Addons:            []string{"Hand Wax"},
	}

	s := f.ctrl.Duplicate(src)

	assert.Empty(t, s.Form.ID)
	assert.Equal(t, "2024-06-10", s.Form.Date)
	assert.Equal(t, "09:00", s.Form.Time)
	assert.Equal(t, "11:30", s.Form.EndTime, "duration is kept")
	assert.False(t, s.Form.HasReminder)
	assert.Zero(t, s.Form.ReminderFrequency)
	assert.False(t, s.Form.IsArchived)
	assert.Equal(t, "Jane", s.Form.Customer)

	s.Form.Addons[0] = "changed"
	assert.Equal(t, "Hand Wax", src.Addons[0], "duplicate must not alias the source")

	saved, err := s.Save(context.Background(), admin)
	require.NoError(t, err)
	assert.NotEqual(t, "b1", saved.ID)
	assert.False(t, saved.HasReminder)
}

func TestDuplicateDropsEndCrossingMidnight(t *testing.T) {
	f := newFixture(t)
	s := f.ctrl.Duplicate(&domain.Booking{Customer: "Jane", Title: "Full Detail", Date: "2024-06-10T08:00:00Z", EndTime: "2024-06-11T07:00:00Z"})
	assert.Empty(t, s.Form.EndTime)
	assert.NoError(t, s.Validate())
}

func TestQuickActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.store.Add(ctx, &domain.Booking{Customer: "Jane", Title: "Full Detail", Status: domain.StatusTentative})
	require.NoError(t, err)

	archived, err := f.ctrl.ToggleArchive(ctx, b.ID, admin)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)

	restored, err := f.ctrl.ToggleArchive(ctx, b.ID, admin)
	require.NoError(t, err)
	assert.False(t, restored.IsArchived)

	confirmed, err := f.ctrl.Confirm(ctx, b.ID, detailer)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)

	err = f.ctrl.Delete(ctx, b.ID, false, admin)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, f.store.Count())

	require.NoError(t, f.ctrl.Delete(ctx, b.ID, true, admin))
	assert.Equal(t, 0, f.store.Count())

	assert.ErrorIs(t, f.ctrl.Delete(ctx, b.ID, true, admin), domain.ErrNotFound)
	_, err = f.ctrl.ToggleArchive(ctx, "missing", admin)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.ctrl.Confirm(ctx, "missing", admin)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var actions []string
	for _, e := range f.effects.got {
		if a, ok := e.payload.(domain.Alert); ok {
			actions = append(actions, a.Action)
		}
	}
	assert.Equal(t, []string{ActionArchived, ActionUnarchived, ActionConfirmed, ActionDeleted}, actions)
}

func TestVehicleLabel(t *testing.T) {
	assert.Equal(t, "2019 Honda Civic", vehicleLabel(&domain.Booking{VehicleYear: "2019", VehicleMake: "Honda", VehicleModel: "Civic"}))
	assert.Equal(t, "Blue truck", vehicleLabel(&domain.Booking{Vehicle: "Blue truck", VehicleMake: "Ford"}))
	assert.Equal(t, "Ford", vehicleLabel(&domain.Booking{VehicleMake: "Ford"}))
}
