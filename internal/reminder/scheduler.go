// Package reminder turns "take MEDICINE at HH:MM" into one-shot timed jobs
// that notify the patient exactly once.
//
// Pending jobs live only in memory: a process restart drops them.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lithammer/shortuuid/v4"

	"medremind-backend/internal/model"
	"medremind-backend/internal/notification"
	"medremind-backend/internal/parse"
)

// ErrInvalidTimeFormat is returned by Schedule for a malformed HH:MM time.
var ErrInvalidTimeFormat = errors.New("invalid time format")

// ErrStopped is returned by Schedule after Stop.
var ErrStopped = errors.New("scheduler stopped")

const defaultSendTimeout = 10 * time.Second

// Recorder is the write side of the event store.
type Recorder interface {
	AppendEvent(ctx context.Context, identity, medicine, timeOfDay string, status model.Status) error
}

// Job is one pending reminder.
type Job struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	Medicine  string    `json:"medicine"`
	TimeOfDay string    `json:"time_of_day"`
	FireAt    time.Time `json:"fire_at"`
	CreatedAt time.Time `json:"created_at"`
}

type entry struct {
	job   Job
	timer clockwork.Timer
}

// Scheduler owns the table of pending jobs and their timers.
type Scheduler struct {
	clock       clockwork.Clock
	sender      notification.Sender
	recorder    Recorder
	sendTimeout time.Duration

	mu      sync.Mutex
	jobs    map[string]*entry
	stopped bool
	firing  sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSendTimeout bounds each reminder send.
func WithSendTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.sendTimeout = d
		}
	}
}

// NewScheduler creates a scheduler that sends reminders through sender and
// records every scheduled reminder through recorder.
func NewScheduler(clock clockwork.Clock, sender notification.Sender, recorder Recorder, opts ...Option) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Scheduler{
		clock:       clock,
		sender:      sender,
		recorder:    recorder,
		sendTimeout: defaultSendTimeout,
		jobs:        make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NextOccurrence returns today's date at the given wall-clock time with
// zero seconds, moved one calendar day forward when that is not after now.
// There is only ever a single day of rollover.
func NextOccurrence(now time.Time, at parse.Clock) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// ReminderBody is the text sent to the patient when a job fires.
func ReminderBody(medicine string) string {
	return fmt.Sprintf("⏰ Reminder: Take your medicine *%s*.\nReply TAKEN or MISSED.", medicine)
}

// Schedule registers a one-shot reminder for identity at the next occurrence
// of timeStr and records a SCHEDULED event. Every call creates a new job,
// even for an identical identity, medicine and time.
func (s *Scheduler) Schedule(ctx context.Context, identity, medicine, timeStr string) (string, error) {
	at, err := parse.ParseClock(timeStr)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidTimeFormat, err)
	}

	now := s.clock.Now()
	job := Job{
		ID:        newJobID(identity, medicine, timeStr, now),
		Identity:  identity,
		Medicine:  medicine,
		TimeOfDay: timeStr,
		FireAt:    NextOccurrence(now, at),
		CreatedAt: now,
	}

	if s.isStopped() {
		return "", ErrStopped
	}

	// The SCHEDULED event is written before the timer is armed.
	if err := s.recorder.AppendEvent(ctx, identity, medicine, timeStr, model.StatusScheduled); err != nil {
		return "", fmt.Errorf("record scheduled reminder: %w", err)
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return "", ErrStopped
	}
	e := &entry{job: job}
	s.jobs[job.ID] = e
	// A fire time already passed during the write yields a zero delay and
	// the reminder goes out at once. The callback takes s.mu, so it cannot
	// observe e before timer is set.
	e.timer = s.clock.AfterFunc(job.FireAt.Sub(s.clock.Now()), func() { s.fire(job.ID) })
	s.mu.Unlock()

	log.Printf("Scheduled reminder %s for %s at %s", job.ID, identity, job.FireAt.Format(time.RFC3339))
	return job.ID, nil
}

// Pending returns a snapshot of the pending jobs ordered by fire time.
func (s *Scheduler) Pending() []Job {
	return s.snapshot(func(Job) bool { return true })
}

// PendingFor returns the pending jobs of one identity ordered by fire time.
func (s *Scheduler) PendingFor(identity string) []Job {
	return s.snapshot(func(j Job) bool { return j.Identity == identity })
}

// Stop disarms every pending timer and waits for reminders already being
// sent. Jobs that have not fired are dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	dropped := len(s.jobs)
	for id, e := range s.jobs {
		e.timer.Stop()
		delete(s.jobs, id)
	}
	s.mu.Unlock()

	s.firing.Wait()
	if dropped > 0 {
		log.Printf("Reminder scheduler stopped; dropped %d pending jobs", dropped)
	}
}

// fire consumes the job and sends its reminder. Removing the job under the
// lock makes a second invocation for the same id a no-op.
func (s *Scheduler) fire(id string) {
	s.mu.Lock()
	e, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.jobs, id)
	s.firing.Add(1)
	s.mu.Unlock()
	defer s.firing.Done()

	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()

	if err := s.sender.Send(ctx, e.job.Identity, ReminderBody(e.job.Medicine)); err != nil {
		log.Printf("Error sending reminder %s: %v", id, err)
		return
	}
	log.Printf("Reminder sent for %s to %s", e.job.Medicine, e.job.Identity)
}

func (s *Scheduler) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Scheduler) snapshot(keep func(Job) bool) []Job {
	s.mu.Lock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, e := range s.jobs {
		if keep(e.job) {
			jobs = append(jobs, e.job)
		}
	}
	s.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].FireAt.Equal(jobs[j].FireAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].FireAt.Before(jobs[j].FireAt)
	})
	return jobs
}

// newJobID joins the request fields with the creation instant. The random
// suffix keeps ids distinct when two requests share an instant.
func newJobID(identity, medicine, timeStr string, createdAt time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%d_%s", identity, medicine, timeStr, createdAt.UnixNano(), shortuuid.New())
}
