package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
)

// An evaluation pass must finish well inside one interval
const passTimeout = 30 * time.Second

// Evaluator runs one trigger evaluation pass
type Evaluator interface {
	Evaluate(ctx context.Context) error
}

// Scheduler drives the trigger evaluator: a fixed cron interval plus
// debounced ad hoc wake-ups (page connect, focus regain). It owns its timer
// handle and listener goroutine; construct one and pass it where needed
// instead of stashing a handle on a global.
type Scheduler struct {
	cron      *cron.Cron
	entry     cron.EntryID
	evaluator Evaluator
	interval  time.Duration
	debounce  time.Duration
	log       *logger.Logger

	mu      sync.Mutex
	running bool
	wake    chan string
	stopCh  chan struct{}
}

// NewScheduler creates a new scheduler loop
func NewScheduler(evaluator Evaluator, interval, debounce time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		evaluator: evaluator,
		interval:  interval,
		debounce:  debounce,
		log:       log,
		wake:      make(chan string, 8),
	}
}

// Start registers the interval entry and the wake listener. Starting an
// already running scheduler is a logged no-op, so a double start never
// creates duplicate intervals.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("Scheduler already started")
		return nil
	}

	entry, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.runPass("interval")
	})
	if err != nil {
		return err
	}

	s.entry = entry
	s.stopCh = make(chan struct{})
	go s.wakeLoop(s.stopCh)
	s.cron.Start()
	s.running = true

	s.log.Info("Scheduler started", "interval", s.interval, "debounce", s.debounce)
	return nil
}

// Stop cancels the interval entry and detaches the wake listener
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cron.Remove(s.entry)
	s.cron.Stop()
	close(s.stopCh)
	s.running = false
	s.log.Info("Scheduler stopped")
}

// Running reports whether the loop is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ActiveEntries returns the number of registered interval entries
func (s *Scheduler) ActiveEntries() int {
	return len(s.cron.Entries())
}

// Wake requests an ad hoc evaluation pass. Rapid calls are coalesced by the
// debounce delay; calls on a stopped scheduler are dropped.
func (s *Scheduler) Wake(reason string) {
	select {
	case s.wake <- reason:
	default:
	}
}

// wakeLoop debounces wake requests into evaluation passes
func (s *Scheduler) wakeLoop(stopCh chan struct{}) {
	var timer *time.Timer
	var fire <-chan time.Time
	reason := ""

	for {
		select {
		case r := <-s.wake:
			reason = r
			if timer == nil {
				timer = time.NewTimer(s.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.debounce)
			}
		case <-fire:
			timer = nil
			fire = nil
			s.runPass(reason)
		case <-stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// runPass executes one evaluation pass. Errors are logged, never propagated:
// a storage hiccup must not kill the periodic timer.
func (s *Scheduler) runPass(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	if err := s.evaluator.Evaluate(ctx); err != nil {
		s.log.Error("Evaluation pass failed", "reason", reason, "error", err)
	}
}
