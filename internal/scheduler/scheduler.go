package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PatrickWalther/unfollow-watch-go/internal/metrics"
)

var (
	ErrInvalidInterval = errors.New("interval must be positive")
	ErrAlreadyStarted  = errors.New("scheduler already started")
	ErrNotStarted      = errors.New("scheduler not started")
	ErrStopping        = errors.New("scheduler is stopping")
)

type Task func(ctx context.Context) error

// Scheduler runs a task on a repeating timer. At most one run of the task is
// in flight at any time, whether it was started by a tick or by TryRun/Exclusive.
// Ticks that land while a run is in flight are skipped.
type Scheduler struct {
	name    string
	metrics metrics.Recorder

	mu       sync.Mutex
	base     context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	interval time.Duration
	task     Task
	stopping bool

	inFlight atomic.Bool
	wg       sync.WaitGroup
}

func New(name string, rec metrics.Recorder) *Scheduler {
	if rec == nil {
		rec = metrics.Noop()
	}
	return &Scheduler{name: name, metrics: rec}
}

func (s *Scheduler) Name() string {
	return s.name
}

// Start arms the timer and fires the task once straight away. Runs use ctx,
// so cancelling it aborts any in-flight run and stops the loop.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration, task Task) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	if task == nil {
		return fmt.Errorf("failed to start %s scheduler: nil task", s.name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	s.base = ctx
	s.task = task
	s.arm(interval, true)

	slog.Info("Scheduler started", "name", s.name, "interval", interval)
	return nil
}

// Stop disarms the timer and waits for the loop and any in-flight run.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	wasRunning := s.cancel != nil
	s.disarm()
	s.stopping = true
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	s.stopping = false
	s.mu.Unlock()

	if wasRunning {
		slog.Info("Scheduler stopped", "name", s.name)
	}
}

// Reconfigure replaces the period. The old loop has exited before the new one
// is armed. An in-flight run is left to finish.
func (s *Scheduler) Reconfigure(interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return ErrNotStarted
	}
	if interval == s.interval {
		return nil
	}

	previous := s.interval
	s.disarm()
	s.arm(interval, false)

	slog.Info("Scheduler reconfigured", "name", s.name, "from", previous, "to", interval)
	return nil
}

func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Scheduler) Running() bool {
	return s.inFlight.Load()
}

// TryRun runs the scheduled task now, unless a run is already in flight.
func (s *Scheduler) TryRun(ctx context.Context) (bool, error) {
	s.mu.Lock()
	task := s.task
	s.mu.Unlock()

	if task == nil {
		return false, ErrNotStarted
	}
	return s.Exclusive(ctx, task)
}

// Exclusive runs fn synchronously under the same single-flight guard as the
// scheduled task. It reports false without calling fn when a run is in flight,
// and returns ErrStopping while Stop is waiting for runs to drain.
func (s *Scheduler) Exclusive(ctx context.Context, fn Task) (bool, error) {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return false, ErrStopping
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.mu.Unlock()
		s.metrics.IncSkippedTicks(s.name)
		slog.Debug("Run skipped, previous still in flight", "name", s.name, "trigger", "manual")
		return false, nil
	}
	// Add under mu so it never races with the Wait in Stop.
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.inFlight.Store(false)
		s.wg.Done()
	}()

	return true, fn(ctx)
}

// arm must be called with mu held.
func (s *Scheduler) arm(interval time.Duration, immediate bool) {
	loopCtx, cancel := context.WithCancel(s.base)
	done := make(chan struct{})

	s.cancel = cancel
	s.done = done
	s.interval = interval

	go s.loop(loopCtx, s.base, s.task, interval, immediate, done)
}

// disarm must be called with mu held.
func (s *Scheduler) disarm() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

// loop never touches mu: disarm waits on done while holding it.
func (s *Scheduler) loop(ctx, base context.Context, task Task, interval time.Duration, immediate bool, done chan struct{}) {
	defer close(done)

	if immediate {
		s.fire(base, task)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(base, task)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, task Task) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.metrics.IncSkippedTicks(s.name)
		slog.Debug("Tick skipped, previous run still in flight", "name", s.name)
		return
	}

	s.wg.Add(1)
	go func() {
		defer func() {
			s.inFlight.Store(false)
			s.wg.Done()
		}()

		if err := task(ctx); err != nil {
			slog.Error("Scheduled run failed", "name", s.name, "error", err)
		}
	}()
}
