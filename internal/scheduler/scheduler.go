package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lol-reporter/internal/domain"
)

// CycleFn is one report cycle handler. Handlers contain their own failures;
// the scheduler never inspects their outcome.
type CycleFn func(ctx context.Context)

// Scheduler fires the daily cycle once per day at a configured time-of-day and
// the monthly cycle whenever a daily firing lands on the first of a month.
//
// There is no persisted schedule state: on start the next firing is computed
// purely from the wall clock, so a restart across the target time skips (or,
// exactly at the boundary, double-fires) a cycle. That is an accepted
// limitation, not something to patch over with hidden state.
type Scheduler struct {
	hour   int
	minute int
	loc    *time.Location
	logger zerolog.Logger

	// now is the wall clock, replaceable in tests.
	now func() time.Time

	mu        sync.Mutex
	next      time.Time
	lastFired map[domain.CycleKind]time.Time
}

func New(hour, minute int, loc *time.Location, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		hour:      hour,
		minute:    minute,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
		lastFired: make(map[domain.CycleKind]time.Time),
	}
}

// Run drives cycles until ctx is cancelled; it only ever returns ctx.Err().
//
// Cycle handlers run inline, so autonomous cycles serialize: a handler that
// outlives its interval delays the next firing but never duplicates it. The
// sleep is recomputed from the wall clock every iteration rather than
// accumulated, so handler latency does not drift the target time.
func (s *Scheduler) Run(ctx context.Context, onDaily, onMonthly CycleFn) error {
	next := nextFiring(s.now().In(s.loc), s.hour, s.minute)
	s.setNext(next)

	for {
		sleep := next.Sub(s.now())
		s.logger.Info().Time("next", next).Dur("sleep", sleep).Msg("scheduler waiting for next cycle")

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		onDaily(ctx)
		s.markFired(domain.CycleDaily)

		if next.Day() == 1 {
			onMonthly(ctx)
			s.markFired(domain.CycleMonthly)
		}

		// Cancellation takes effect between steps, never mid-handler.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		next = next.Add(24 * time.Hour)
		s.setNext(next)
	}
}

// nextFiring combines today's date with the target time-of-day; a target
// already in the past is advanced one day so the first sleep is never
// negative and start-up never fires a spurious immediate cycle.
func nextFiring(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

func (s *Scheduler) setNext(t time.Time) {
	s.mu.Lock()
	s.next = t
	s.mu.Unlock()
}

func (s *Scheduler) markFired(kind domain.CycleKind) {
	s.mu.Lock()
	s.lastFired[kind] = s.now()
	s.mu.Unlock()
}

// Status reports the live schedule state for operators.
type Status struct {
	NextFiring  time.Time `json:"next_firing"`
	LastDaily   time.Time `json:"last_daily,omitempty"`
	LastMonthly time.Time `json:"last_monthly,omitempty"`
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		NextFiring:  s.next,
		LastDaily:   s.lastFired[domain.CycleDaily],
		LastMonthly: s.lastFired[domain.CycleMonthly],
	}
}
