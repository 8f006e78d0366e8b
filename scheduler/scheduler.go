package scheduler

import (
	"context"
	"log"
	"math/rand"
	"time"

	"store-monitor/config"
	"store-monitor/models"
)

// CycleRunner is the single entry point the scheduler drives.
type CycleRunner interface {
	RunCycle(ctx context.Context) models.RunStats
}

// Scheduler triggers monitoring cycles on a fixed cadence with a random
// jitter so successive runs do not hit the site at a predictable time.
type Scheduler struct {
	runner CycleRunner
	cfg    config.SchedulerConfig
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler around the given runner.
func NewScheduler(runner CycleRunner, cfg config.SchedulerConfig) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner: runner,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start starts the scheduler in a goroutine.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop stops the scheduler and waits for an in-flight cycle to wind down.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.done
	log.Println("Scheduler stopped")
}

func (s *Scheduler) run() {
	defer close(s.done)

	if s.cfg.RunOnStart {
		s.runOnce()
	}

	timer := time.NewTimer(s.nextDelay())
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
			s.runOnce()
			timer.Reset(s.nextDelay())
		}
	}
}

func (s *Scheduler) runOnce() {
	stats := s.runner.RunCycle(s.ctx)
	log.Printf("Scheduled cycle %s finished in %s: %d/%d targets ok\n",
		stats.RunID, stats.Duration.Round(time.Second),
		stats.TargetsSucceeded, stats.TargetsProcessed)
}

// nextDelay returns the interval plus a random jitter in [-j, +j].
func (s *Scheduler) nextDelay() time.Duration {
	delay := s.cfg.Interval
	if s.cfg.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(2*s.cfg.Jitter))) - s.cfg.Jitter
	}
	if delay < time.Minute {
		delay = time.Minute
	}
	return delay
}
