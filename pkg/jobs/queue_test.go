package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveJob(queue, jobType, outcome string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingObserver) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.outcomes...)
}

func TestQueueProcessesJobs(t *testing.T) {
	var handled atomic.Int32
	done := make(chan struct{}, 3)
	q := NewQueue("mail", func(ctx context.Context, job Job) error {
		handled.Add(1)
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "otp_mail"}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.Equal(t, int32(3), handled.Load())
}

func TestQueueRetriesThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	succeeded := make(chan struct{})
	observer := &recordingObserver{}
	q := NewQueue("mail", func(ctx context.Context, job Job) error {
		if attempts.Add(1) < 3 {
			return errors.New("smtp unavailable")
		}
		close(succeeded)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond, Observer: observer})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "otp_mail"}))
	select {
	case <-succeeded:
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
	assert.Eventually(t, func() bool { return len(observer.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{OutcomeRetried, OutcomeRetried, OutcomeSucceeded}, observer.snapshot())
}

func TestQueueDropsAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	observer := &recordingObserver{}
	q := NewQueue("mail", func(ctx context.Context, job Job) error {
		attempts.Add(1)
		return errors.New("permanent")
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond, Observer: observer})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	assert.Eventually(t, func() bool {
		out := observer.snapshot()
		return len(out) == 2 && out[1] == OutcomeDropped
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestQueueRejectsWhenClosed(t *testing.T) {
	q := NewQueue("mail", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	assert.ErrorIs(t, q.Enqueue(Job{ID: "early"}), ErrQueueClosed)

	q.Start(context.Background())
	q.Stop()
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(Job{ID: "late"}), ErrQueueClosed)
}

func TestQueueStopCancelsPendingRetry(t *testing.T) {
	failed := make(chan struct{}, 1)
	q := NewQueue("mail", func(ctx context.Context, job Job) error {
		select {
		case failed <- struct{}{}:
		default:
		}
		return errors.New("retry later")
	}, QueueConfig{MaxRetries: 5, RetryDelay: time.Hour})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	<-failed
	q.Stop()
}
