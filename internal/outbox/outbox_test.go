package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/detailcal/internal/customers"
	"github.com/MrSnakeDoc/detailcal/internal/domain"
	"github.com/MrSnakeDoc/detailcal/internal/logger"
)

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(ctx context.Context, e domain.SideEffect, due time.Time) error {
	return m.Called(ctx, e, due).Error(0)
}

func (m *mockQueue) Due(ctx context.Context, now time.Time, limit int) ([]domain.SideEffect, error) {
	args := m.Called(ctx, now, limit)
	if v := args.Get(0); v != nil {
		return v.([]domain.SideEffect), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQueue) Claim(ctx context.Context, e domain.SideEffect) (bool, error) {
	args := m.Called(ctx, e)
	return args.Bool(0), args.Error(1)
}

func (m *mockQueue) Reschedule(ctx context.Context, e domain.SideEffect, due time.Time) error {
	return m.Called(ctx, e, due).Error(0)
}

func (m *mockQueue) DeadLetter(ctx context.Context, e domain.SideEffect) error {
	return m.Called(ctx, e).Error(0)
}

var fixedNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func newTestWorker(q Queue, d *Dispatcher) *Worker {
	w := NewWorker(q, d, logger.Nop(), Options{BaseBackoff: time.Second, MaxBackoff: time.Minute, MaxAttempts: 3, BatchSize: 10})
	w.now = func() time.Time { return fixedNow }
	return w
}

func effect(id string, kind domain.SideEffectKind, attempts int) domain.SideEffect {
	return domain.SideEffect{ID: id, Kind: kind, Payload: json.RawMessage(`{}`), Attempts: attempts, Raw: id}
}

func TestProcessDueSuccess(t *testing.T) {
	q := new(mockQueue)
	ctx := context.Background()
	e := effect("e1", domain.EffectPushAlert, 0)

	calls := 0
	d := NewDispatcher()
	d.Handle(domain.EffectPushAlert, func(context.Context, json.RawMessage) error {
		calls++
		return nil
	})

	q.On("Due", ctx, fixedNow, 10).Return([]domain.SideEffect{e}, nil)
	q.On("Claim", ctx, e).Return(true, nil)

	n, err := newTestWorker(q, d).ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, calls)
	q.AssertExpectations(t)
	q.AssertNotCalled(t, "Reschedule", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDueSkipsLostClaims(t *testing.T) {
	q := new(mockQueue)
	ctx := context.Background()
	e := effect("e1", domain.EffectPushAlert, 0)

	d := NewDispatcher()
	d.Handle(domain.EffectPushAlert, func(context.Context, json.RawMessage) error {
		t.Fatal("handler must not run without a claim")
		return nil
	})

	q.On("Due", ctx, fixedNow, 10).Return([]domain.SideEffect{e}, nil)
	q.On("Claim", ctx, e).Return(false, nil)

	n, err := newTestWorker(q, d).ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	q.AssertExpectations(t)
}

func TestProcessDueReschedulesWithBackoff(t *testing.T) {
	q := new(mockQueue)
	ctx := context.Background()
	e := effect("e1", domain.EffectArchiveEvidence, 1)

	d := NewDispatcher()
	d.Handle(domain.EffectArchiveEvidence, func(context.Context, json.RawMessage) error {
		return errors.New("redis down")
	})

	q.On("Due", ctx, fixedNow, 10).Return([]domain.SideEffect{e}, nil)
	q.On("Claim", ctx, e).Return(true, nil)
	q.On("Reschedule", ctx, mock.MatchedBy(func(got domain.SideEffect) bool {
		return got.ID == "e1" && got.Attempts == 2 && got.LastError == "redis down"
	}), fixedNow.Add(2*time.Second)).Return(nil)

	n, err := newTestWorker(q, d).ProcessDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	q.AssertExpectations(t)
}

func TestProcessDueDeadLettersAfterMaxAttempts(t *testing.T) {
	q := new(mockQueue)
	ctx := context.Background()
	e := effect("e1", domain.EffectCustomerSync, 2)

	d := NewDispatcher()
	d.Handle(domain.EffectCustomerSync, func(context.Context, json.RawMessage) error {
		return errors.New("db down")
	})

	q.On("Due", ctx, fixedNow, 10).Return([]domain.SideEffect{e}, nil)
	q.On("Claim", ctx, e).Return(true, nil)
	q.On("DeadLetter", ctx, mock.MatchedBy(func(got domain.SideEffect) bool {
		return got.Attempts == 3
	})).Return(nil)

	_, err := newTestWorker(q, d).ProcessDue(ctx)
	require.NoError(t, err)
	q.AssertExpectations(t)
	q.AssertNotCalled(t, "Reschedule", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDueDeadLettersUnknownKind(t *testing.T) {
	q := new(mockQueue)
	ctx := context.Background()
	e := effect("e1", domain.SideEffectKind("fax"), 0)

	q.On("Due", ctx, fixedNow, 10).Return([]domain.SideEffect{e}, nil)
	q.On("Claim", ctx, e).Return(true, nil)
	q.On("DeadLetter", ctx, mock.AnythingOfType("domain.SideEffect")).Return(nil)

	_, err := newTestWorker(q, NewDispatcher()).ProcessDue(ctx)
	require.NoError(t, err)
	q.AssertExpectations(t)
}

func TestProcessDueQueueError(t *testing.T) {
	q := new(mockQueue)
	ctx := context.Background()
	q.On("Due", ctx, fixedNow, 10).Return(nil, errors.New("timeout"))

	_, err := newTestWorker(q, NewDispatcher()).ProcessDue(ctx)
	assert.Error(t, err)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{4, 8 * time.Second},
		{10, time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempts, time.Second, time.Minute), "attempts=%d", tt.attempts)
	}
}

func TestEmitterEnqueuesDueNow(t *testing.T) {
	q := new(mockQueue)
	ctx := context.Background()
	em := NewEmitter(q)
	em.now = func() time.Time { return fixedNow }

	q.On("Enqueue", ctx, mock.MatchedBy(func(e domain.SideEffect) bool {
		return e.Kind == domain.EffectPushAlert && e.ID != "" && strings.Contains(string(e.Payload), `"bookingId":"b1"`)
	}), fixedNow).Return(nil)

	e, err := em.Emit(ctx, domain.EffectPushAlert, domain.Alert{Action: "created", BookingID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, e.CreatedAt)
	q.AssertExpectations(t)
}

type fakeAlerts struct{ got []domain.Alert }

func (f *fakeAlerts) PublishAlert(_ context.Context, a domain.Alert) error {
	f.got = append(f.got, a)
	return nil
}

type fakeSyncer struct{ err error }

func (f fakeSyncer) Sync(_ context.Context, c domain.CustomerContact) (customers.Customer, error) {
	return customers.Customer{Name: c.Name}, f.err
}

func TestHandlers(t *testing.T) {
	ctx := context.Background()

	alerts := &fakeAlerts{}
	require.NoError(t, AlertHandler(alerts)(ctx, json.RawMessage(`{"action":"updated","bookingId":"b1"}`)))
	require.Len(t, alerts.got, 1)
	assert.Equal(t, "updated", alerts.got[0].Action)

	err := AlertHandler(alerts)(ctx, json.RawMessage(`not json`))
	assert.True(t, IsPermanent(err))

	err = CustomerSyncHandler(fakeSyncer{err: &domain.ValidationError{Field: "name", Message: "required"}})(ctx, json.RawMessage(`{"name":""}`))
	assert.True(t, IsPermanent(err))

	err = CustomerSyncHandler(fakeSyncer{err: errors.New("db down")})(ctx, json.RawMessage(`{"name":"Jane"}`))
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}

func TestStartStop(t *testing.T) {
	q := new(mockQueue)
	q.On("Due", mock.Anything, mock.Anything, mock.Anything).Return([]domain.SideEffect{}, nil).Maybe()

	w := NewWorker(q, NewDispatcher(), logger.Nop(), Options{Interval: time.Millisecond})
	require.NoError(t, w.Start(context.Background()))
	time.Sleep(5 * time.Millisecond)
	w.Stop()
	w.Stop()
}
