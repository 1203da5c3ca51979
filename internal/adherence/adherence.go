// Package adherence derives adherence percentages from the medication log.
//
// The all-time figure only counts TAKEN and MISSED events in its
// denominator, while the daily and weekly windows count every event in the
// window, SCHEDULED included. Both definitions are user-visible.
package adherence

import (
	"context"

	"github.com/jonboulle/clockwork"

	"medremind-backend/internal/model"
	"medremind-backend/internal/store"
)

// Window names the date range a report aggregates over.
type Window string

const (
	WindowAllTime Window = "all_time"
	WindowDaily   Window = "daily"
	WindowWeekly  Window = "weekly"
)

// weeklyLookbackDays is subtracted from today to open the weekly window.
// The comparison is inclusive, so the window spans eight calendar dates.
const weeklyLookbackDays = 7

// Counter is the read side of the event store.
type Counter interface {
	CountEvents(ctx context.Context, identity string, filter store.EventFilter) (int64, error)
}

// Report is the outcome of one adherence computation.
type Report struct {
	Window  Window `json:"window"`
	Start   string `json:"start,omitempty"` // first date of the window, empty for all-time
	Taken   int64  `json:"taken"`
	Total   int64  `json:"total"`
	Percent int    `json:"percent"`
	Defined bool   `json:"defined"` // false when Total is zero
}

// Ratio returns floor(100*taken/total). The second result is false when
// total is zero and the ratio is undefined.
func Ratio(taken, total int64) (int, bool) {
	if total <= 0 {
		return 0, false
	}
	return int(100 * taken / total), true
}

// Service computes reports for an identity.
type Service struct {
	counter Counter
	clock   clockwork.Clock
}

// NewService creates an adherence service reading from counter.
func NewService(counter Counter, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{counter: counter, clock: clock}
}

// AllTime reports TAKEN over TAKEN+MISSED across the whole history.
func (s *Service) AllTime(ctx context.Context, identity string) (Report, error) {
	return s.report(ctx, identity, WindowAllTime, "",
		store.EventFilter{Status: model.StatusTaken},
		store.EventFilter{NotStatus: model.StatusScheduled},
	)
}

// Daily reports TAKEN over every event recorded today.
func (s *Service) Daily(ctx context.Context, identity string) (Report, error) {
	today := s.clock.Now().Format(model.DateLayout)
	return s.report(ctx, identity, WindowDaily, today,
		store.EventFilter{Status: model.StatusTaken, On: today},
		store.EventFilter{On: today},
	)
}

// Weekly reports TAKEN over every event recorded since today minus seven days.
func (s *Service) Weekly(ctx context.Context, identity string) (Report, error) {
	start := s.clock.Now().AddDate(0, 0, -weeklyLookbackDays).Format(model.DateLayout)
	return s.report(ctx, identity, WindowWeekly, start,
		store.EventFilter{Status: model.StatusTaken, OnOrAfter: start},
		store.EventFilter{OnOrAfter: start},
	)
}

func (s *Service) report(ctx context.Context, identity string, window Window, start string, takenFilter, totalFilter store.EventFilter) (Report, error) {
	taken, err := s.counter.CountEvents(ctx, identity, takenFilter)
	if err != nil {
		return Report{}, err
	}
	total, err := s.counter.CountEvents(ctx, identity, totalFilter)
	if err != nil {
		return Report{}, err
	}

	percent, defined := Ratio(taken, total)
	return Report{
		Window:  window,
		Start:   start,
		Taken:   taken,
		Total:   total,
		Percent: percent,
		Defined: defined,
	}, nil
}
