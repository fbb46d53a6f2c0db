package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Michal0lszewski/Whisper2Obsidian/internal/config"
	"github.com/Michal0lszewski/Whisper2Obsidian/internal/pipeline"
)

type scriptedRunner struct {
	mu       sync.Mutex
	script   []runResult
	calls    int
	lastCtx  context.Context
	stopOnce func()
}

type runResult struct {
	outcome pipeline.Outcome
	err     error
}

func (s *scriptedRunner) Run(ctx context.Context) (pipeline.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCtx = ctx
	idx := s.calls
	s.calls++
	if idx >= len(s.script) {
		if s.stopOnce != nil {
			stop := s.stopOnce
			s.stopOnce = nil
			go stop()
		}
		return pipeline.Outcome{Processed: false}, nil
	}
	return s.script[idx].outcome, s.script[idx].err
}

func (s *scriptedRunner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.sleeps...)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Workflow.PollInterval = 60
	cfg.Workflow.ErrorRetryInterval = 10
	return &cfg
}

func TestLoopRepollsImmediatelyAfterWork(t *testing.T) {
	runner := &scriptedRunner{script: []runResult{
		{outcome: pipeline.Outcome{Processed: true}},
		{outcome: pipeline.Outcome{Processed: true}},
		{outcome: pipeline.Outcome{Processed: false}},
	}}
	recorder := &sleepRecorder{}
	manager := NewManager(testConfig(), runner, nil, WithSleeper(recorder.sleep))
	runner.stopOnce = manager.Stop

	manager.Start(context.Background())
	waitFor(t, func() bool { return runner.callCount() >= 4 })
	manager.Stop()

	sleeps := recorder.recorded()
	if len(sleeps) == 0 {
		t.Fatal("loop never slept")
	}
	// The two processed runs must not be separated by a sleep: the first
	// recorded sleep comes only after the idle pass.
	if sleeps[0] != 60*time.Second {
		t.Fatalf("first sleep = %v, want poll interval", sleeps[0])
	}
}

func TestLoopBacksOffAfterFailure(t *testing.T) {
	runner := &scriptedRunner{script: []runResult{
		{err: errors.New("transcription engine missing")},
	}}
	recorder := &sleepRecorder{}
	manager := NewManager(testConfig(), runner, nil, WithSleeper(recorder.sleep))
	runner.stopOnce = manager.Stop

	manager.Start(context.Background())
	waitFor(t, func() bool { return runner.callCount() >= 2 })
	manager.Stop()

	sleeps := recorder.recorded()
	if len(sleeps) == 0 || sleeps[0] != 10*time.Second {
		t.Fatalf("sleeps = %v, want error retry interval first", sleeps)
	}
}

func TestStopWaitsForLoopExit(t *testing.T) {
	runner := &scriptedRunner{}
	manager := NewManager(testConfig(), runner, nil, WithSleeper(func(ctx context.Context, _ time.Duration) error {
		return ctx.Err()
	}))

	manager.Start(context.Background())
	waitFor(t, func() bool { return runner.callCount() >= 1 })
	manager.Stop()

	before := runner.callCount()
	time.Sleep(20 * time.Millisecond)
	if after := runner.callCount(); after != before {
		t.Fatalf("runner still invoked after Stop: %d -> %d", before, after)
	}

	// Stop on a stopped manager must not block or panic.
	manager.Stop()
}

func TestStartTwiceIsNoop(t *testing.T) {
	runner := &scriptedRunner{}
	stop := make(chan struct{})
	manager := NewManager(testConfig(), runner, nil, WithSleeper(func(ctx context.Context, _ time.Duration) error {
		select {
		case <-stop:
			return context.Canceled
		case <-ctx.Done():
			return ctx.Err()
		}
	}))

	manager.Start(context.Background())
	manager.Start(context.Background())
	waitFor(t, func() bool { return runner.callCount() >= 1 })
	if runner.callCount() > 1 {
		t.Fatalf("two loops running: %d calls before any sleep returned", runner.callCount())
	}
	close(stop)
	manager.Stop()
}

func TestRunOnceDelegates(t *testing.T) {
	runner := &scriptedRunner{script: []runResult{
		{outcome: pipeline.Outcome{Processed: true}},
	}}
	manager := NewManager(testConfig(), runner, nil)

	outcome, err := manager.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !outcome.Processed {
		t.Fatal("outcome not passed through")
	}
	if runner.callCount() != 1 {
		t.Fatalf("runner calls = %d, want 1", runner.callCount())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
