package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"store-monitor/config"
	"store-monitor/models"
)

type countingRunner struct {
	runs int64
}

func (c *countingRunner) RunCycle(_ context.Context) models.RunStats {
	atomic.AddInt64(&c.runs, 1)
	return models.RunStats{RunID: "test"}
}

func TestRunOnStart(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, config.SchedulerConfig{
		Interval:   time.Hour,
		RunOnStart: true,
	})
	s.Start()

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt64(&runner.runs) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.Stop()

	if atomic.LoadInt64(&runner.runs) != 1 {
		t.Errorf("runs = %d, want 1", runner.runs)
	}
}

func TestStopWithoutRun(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(runner, config.SchedulerConfig{Interval: time.Hour})
	s.Start()
	s.Stop()

	if atomic.LoadInt64(&runner.runs) != 0 {
		t.Errorf("runs = %d, want 0", runner.runs)
	}
}

func TestNextDelayBounds(t *testing.T) {
	s := NewScheduler(&countingRunner{}, config.SchedulerConfig{
		Interval: 3 * time.Hour,
		Jitter:   15 * time.Minute,
	})
	for i := 0; i < 100; i++ {
		d := s.nextDelay()
		if d < 3*time.Hour-15*time.Minute || d > 3*time.Hour+15*time.Minute {
			t.Fatalf("delay %s outside jitter window", d)
		}
	}
}

func TestNextDelayFloor(t *testing.T) {
	s := NewScheduler(&countingRunner{}, config.SchedulerConfig{Interval: time.Second})
	if d := s.nextDelay(); d < time.Minute {
		t.Errorf("delay %s below the one-minute floor", d)
	}
}
