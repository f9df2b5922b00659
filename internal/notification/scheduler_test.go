package notification

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) RunAutomaticPass(ctx context.Context) ([]*LogEntry, error) {
	r.calls.Add(1)

	return nil, r.err
}

func TestScheduler_RunsImmediatelyThenPeriodically(t *testing.T) {
	runner := &countingRunner{}
	sched := NewScheduler(runner, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sched.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		return runner.calls.Load() >= 3
	}, time.Second, time.Millisecond, "expected an immediate pass plus ticks")

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancellation")
	}
}

func TestScheduler_KeepsRunningAfterErrors(t *testing.T) {
	runner := &countingRunner{err: ErrPassInFlight}
	sched := NewScheduler(runner, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)
		sched.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		return runner.calls.Load() >= 2
	}, time.Second, time.Millisecond, "a skipped pass must not stop the loop")

	cancel()
	<-done
}
