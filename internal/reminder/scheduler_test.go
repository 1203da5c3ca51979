package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medremind-backend/internal/model"
	"medremind-backend/internal/parse"
	"medremind-backend/internal/store"
)

type sentMessage struct {
	To   string
	Body string
}

// recordingSender captures sends and optionally fails them.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	ch   chan sentMessage
	err  error
}

func newRecordingSender() *recordingSender {
	return &recordingSender{ch: make(chan sentMessage, 16)}
}

func (r *recordingSender) Send(ctx context.Context, to, body string) error {
	r.mu.Lock()
	r.sent = append(r.sent, sentMessage{To: to, Body: body})
	r.mu.Unlock()
	r.ch <- sentMessage{To: to, Body: body}
	return r.err
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func (r *recordingSender) await(t *testing.T) sentMessage {
	t.Helper()
	select {
	case m := <-r.ch:
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a reminder to be sent")
		return sentMessage{}
	}
}

type recordedEvent struct {
	Identity, Medicine, TimeOfDay string
	Status                        model.Status
}

// mockRecorder is a function-field fake of the Recorder interface.
type mockRecorder struct {
	mu         sync.Mutex
	events     []recordedEvent
	AppendFunc func() error
}

func (m *mockRecorder) AppendEvent(ctx context.Context, identity, medicine, timeOfDay string, status model.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendFunc != nil {
		if err := m.AppendFunc(); err != nil {
			return err
		}
	}
	m.events = append(m.events, recordedEvent{identity, medicine, timeOfDay, status})
	return nil
}

var morning = time.Date(2026, 10, 17, 8, 0, 0, 0, time.Local)

func TestNextOccurrence(t *testing.T) {
	testCases := []struct {
		name     string
		now      time.Time
		at       parse.Clock
		expected time.Time
	}{
		{
			name:     "Later today stays today",
			now:      time.Date(2026, 10, 17, 8, 0, 0, 0, time.Local),
			at:       parse.Clock{Hour: 9, Minute: 0},
			expected: time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local),
		},
		{
			name:     "Seconds are truncated",
			now:      time.Date(2026, 10, 17, 8, 59, 30, 500, time.Local),
			at:       parse.Clock{Hour: 9, Minute: 0},
			expected: time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local),
		},
		{
			name:     "Exactly now rolls to tomorrow",
			now:      time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local),
			at:       parse.Clock{Hour: 9, Minute: 0},
			expected: time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local),
		},
		{
			name:     "Within the same minute rolls to tomorrow",
			now:      time.Date(2026, 10, 17, 9, 0, 45, 0, time.Local),
			at:       parse.Clock{Hour: 9, Minute: 0},
			expected: time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local),
		},
		{
			name:     "Earlier today rolls to tomorrow",
			now:      time.Date(2026, 10, 17, 20, 0, 0, 0, time.Local),
			at:       parse.Clock{Hour: 7, Minute: 15},
			expected: time.Date(2026, 10, 18, 7, 15, 0, 0, time.Local),
		},
		{
			name:     "Rollover crosses the month",
			now:      time.Date(2026, 10, 31, 23, 0, 0, 0, time.Local),
			at:       parse.Clock{Hour: 22, Minute: 0},
			expected: time.Date(2026, 11, 1, 22, 0, 0, 0, time.Local),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.expected.Equal(NextOccurrence(tc.now, tc.at)))
		})
	}
}

func TestScheduler_ScheduleFiresOnce(t *testing.T) {
	clock := clockwork.NewFakeClockAt(morning)
	sender := newRecordingSender()
	recorder := &mockRecorder{}
	s := NewScheduler(clock, sender, recorder)

	id, err := s.Schedule(context.Background(), "+15550001", "ASPIRIN", "09:00")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	assert.Equal(t, []recordedEvent{{"+15550001", "ASPIRIN", "09:00", model.StatusScheduled}}, recorder.events)

	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)
	assert.True(t, pending[0].FireAt.Equal(time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local)))

	clock.Advance(59 * time.Minute)
	assert.Equal(t, 0, sender.count(), "reminder must not fire early")

	clock.Advance(time.Minute)
	msg := sender.await(t)
	assert.Equal(t, "+15550001", msg.To)
	assert.Equal(t, "⏰ Reminder: Take your medicine *ASPIRIN*.\nReply TAKEN or MISSED.", msg.Body)
	assert.Empty(t, s.Pending())

	// A one-shot job never fires again.
	clock.Advance(48 * time.Hour)
	assert.Never(t, func() bool { return sender.count() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestScheduler_DuplicateRequestsGetDistinctJobs(t *testing.T) {
	clock := clockwork.NewFakeClockAt(morning)
	sender := newRecordingSender()
	s := NewScheduler(clock, sender, &mockRecorder{})

	first, err := s.Schedule(context.Background(), "+15550001", "ASPIRIN", "09:00")
	require.NoError(t, err)
	second, err := s.Schedule(context.Background(), "+15550001", "ASPIRIN", "09:00")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, s.Pending(), 2)

	clock.Advance(time.Hour)
	sender.await(t)
	sender.await(t)
	assert.Empty(t, s.Pending())
}

func TestScheduler_PastTimeFiresTomorrow(t *testing.T) {
	clock := clockwork.NewFakeClockAt(morning)
	sender := newRecordingSender()
	s := NewScheduler(clock, sender, &mockRecorder{})

	_, err := s.Schedule(context.Background(), "+15550001", "VITAMIN", "07:30")
	require.NoError(t, err)

	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.True(t, pending[0].FireAt.Equal(time.Date(2026, 10, 18, 7, 30, 0, 0, time.Local)))

	clock.Advance(23 * time.Hour)
	assert.Equal(t, 0, sender.count())
	clock.Advance(30 * time.Minute)
	assert.Equal(t, "+15550001", sender.await(t).To)
}

func TestScheduler_InvalidTime(t *testing.T) {
	recorder := &mockRecorder{}
	s := NewScheduler(clockwork.NewFakeClockAt(morning), newRecordingSender(), recorder)

	for _, raw := range []string{"9AM", "25:00", "09:61", "9:00"} {
		_, err := s.Schedule(context.Background(), "+15550001", "ASPIRIN", raw)
		assert.True(t, errors.Is(err, ErrInvalidTimeFormat), raw)
	}
	assert.Empty(t, recorder.events)
	assert.Empty(t, s.Pending())
}

func TestScheduler_RecordFailureArmsNothing(t *testing.T) {
	clock := clockwork.NewFakeClockAt(morning)
	sender := newRecordingSender()
	recorder := &mockRecorder{AppendFunc: func() error { return store.ErrStorage }}
	s := NewScheduler(clock, sender, recorder)

	_, err := s.Schedule(context.Background(), "+15550001", "ASPIRIN", "09:00")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrStorage))
	assert.Empty(t, s.Pending())

	clock.Advance(2 * time.Hour)
	assert.Never(t, func() bool { return sender.count() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestScheduler_SlowFailedRecordNeverSends(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 17, 8, 59, 59, 999_000_000, time.Local))
	sender := newRecordingSender()
	recorder := &mockRecorder{AppendFunc: func() error {
		// The fire time passes while the write is in flight.
		clock.Advance(10 * time.Millisecond)
		return store.ErrStorage
	}}
	s := NewScheduler(clock, sender, recorder)

	_, err := s.Schedule(context.Background(), "+15550001", "ASPIRIN", "09:00")
	require.ErrorIs(t, err, store.ErrStorage)
	assert.Empty(t, s.Pending())

	clock.Advance(time.Hour)
	assert.Never(t, func() bool { return sender.count() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestScheduler_SlowRecordStillFiresOnce(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 17, 8, 59, 59, 999_000_000, time.Local))
	sender := newRecordingSender()
	recorder := &mockRecorder{AppendFunc: func() error {
		clock.Advance(10 * time.Millisecond)
		return nil
	}}
	s := NewScheduler(clock, sender, recorder)

	_, err := s.Schedule(context.Background(), "+15550001", "ASPIRIN", "09:00")
	require.NoError(t, err)

	// The fire time already passed, so the reminder goes out without waiting.
	assert.Equal(t, "+15550001", sender.await(t).To)
	assert.Eventually(t, func() bool { return len(s.Pending()) == 0 }, time.Second, 10*time.Millisecond)
	assert.Len(t, recorder.events, 1)

	clock.Advance(48 * time.Hour)
	assert.Never(t, func() bool { return sender.count() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestScheduler_SendFailureIsContained(t *testing.T) {
	clock := clockwork.NewFakeClockAt(morning)
	sender := newRecordingSender()
	sender.err = errors.New("gateway unavailable")
	s := NewScheduler(clock, sender, &mockRecorder{})

	_, err := s.Schedule(context.Background(), "+15550001", "ASPIRIN", "09:00")
	require.NoError(t, err)
	_, err = s.Schedule(context.Background(), "+15550002", "INSULIN", "10:00")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	assert.Equal(t, "+15550001", sender.await(t).To)

	// The failed send is not retried and does not stop later jobs.
	clock.Advance(time.Hour)
	assert.Equal(t, "+15550002", sender.await(t).To)
	assert.Never(t, func() bool { return sender.count() > 2 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestScheduler_PendingFor(t *testing.T) {
	s := NewScheduler(clockwork.NewFakeClockAt(morning), newRecordingSender(), &mockRecorder{})
	ctx := context.Background()

	_, err := s.Schedule(ctx, "+15550001", "INSULIN", "21:00")
	require.NoError(t, err)
	_, err = s.Schedule(ctx, "+15550002", "ASPIRIN", "09:00")
	require.NoError(t, err)
	_, err = s.Schedule(ctx, "+15550001", "ASPIRIN", "09:00")
	require.NoError(t, err)

	jobs := s.PendingFor("+15550001")
	require.Len(t, jobs, 2)
	assert.Equal(t, "ASPIRIN", jobs[0].Medicine, "ordered by fire time")
	assert.Equal(t, "INSULIN", jobs[1].Medicine)
	assert.Len(t, s.Pending(), 3)
}

func TestScheduler_StopDropsPendingJobs(t *testing.T) {
	clock := clockwork.NewFakeClockAt(morning)
	sender := newRecordingSender()
	s := NewScheduler(clock, sender, &mockRecorder{})

	_, err := s.Schedule(context.Background(), "+15550001", "ASPIRIN", "09:00")
	require.NoError(t, err)

	s.Stop()
	assert.Empty(t, s.Pending())

	_, err = s.Schedule(context.Background(), "+15550001", "ASPIRIN", "09:00")
	assert.ErrorIs(t, err, ErrStopped)

	clock.Advance(2 * time.Hour)
	assert.Never(t, func() bool { return sender.count() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}
