// Package scheduler runs the recurring global scan. It is a two-state
// machine: disarmed (no timer) and armed (ticker firing the task). Settings
// saves drive the transitions.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

type Task func(ctx context.Context) error

type Scheduler struct {
	name string
	task Task

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(name string, task Task) *Scheduler {
	return &Scheduler{name: name, task: task}
}

// Apply transitions the machine to match the persisted setting. Arming
// while already armed and disarming while already disarmed are no-ops, so
// unrelated settings saves never restart the timer.
//
// Disarming waits for the loop to drain, but outside the mutex: a pass
// still winding down must not stall Armed() or a re-arm.
func (s *Scheduler) Apply(enabled bool, interval time.Duration) {
	s.mu.Lock()
	armed := s.cancel != nil
	switch {
	case enabled && !armed:
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.done = make(chan struct{})
		go s.loop(ctx, interval, s.done)
		s.mu.Unlock()
		log.Printf("[%s] armed, interval %s", s.name, interval)
	case !enabled && armed:
		cancel := s.cancel
		done := s.done
		s.cancel, s.done = nil, nil
		s.mu.Unlock()
		cancel()
		<-done
		log.Printf("[%s] disarmed", s.name)
	default:
		s.mu.Unlock()
	}
}

func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Stop disarms for process shutdown.
func (s *Scheduler) Stop() {
	s.Apply(false, 0)
}

// loop fires the task on each tick. The task itself guards against
// overlapping runs; here a long pass simply makes the next tick's attempt
// report busy.
func (s *Scheduler) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.task(ctx); err != nil {
				log.Printf("[%s] error: %v", s.name, err)
			}
		}
	}
}
