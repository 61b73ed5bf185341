package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchFunc func(ctx context.Context)

func (f fetchFunc) Execute(ctx context.Context) { f(ctx) }
func (fetchFunc) Cancel()                       {}

func closePool(t *testing.T, p *Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Close(ctx))
}

func TestPoolRunsEveryFetch(t *testing.T) {
	p := New(Config{Workers: 3})

	var wg sync.WaitGroup
	var ran atomic.Int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		p.Submit(fetchFunc(func(ctx context.Context) {
			defer wg.Done()
			assert.NoError(t, ctx.Err())
			ran.Add(1)
		}))
	}
	wg.Wait()
	assert.Equal(t, int32(50), ran.Load())
	closePool(t, p)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := New(Config{Workers: 2})
	defer closePool(t, p)

	var cur, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		p.Submit(fetchFunc(func(context.Context) {
			defer wg.Done()
			n := cur.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			cur.Add(-1)
		}))
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPoolRateLimited(t *testing.T) {
	p := New(Config{Workers: 4, RatePerSecond: 100, Burst: 1})
	defer closePool(t, p)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		p.Submit(fetchFunc(func(context.Context) { wg.Done() }))
	}
	wg.Wait()
	// one token up front, then one every 10ms
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestCloseCancelsRunningFetches(t *testing.T) {
	p := New(Config{Workers: 1})

	started := make(chan struct{})
	cause := make(chan error, 1)
	p.Submit(fetchFunc(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		cause <- context.Cause(ctx)
	}))
	<-started
	closePool(t, p)
	assert.ErrorIs(t, <-cause, ErrClosed)
}

func TestSubmitAfterCloseRunsWithCanceledContext(t *testing.T) {
	p := New(Config{})
	closePool(t, p)

	got := make(chan error, 1)
	p.Submit(fetchFunc(func(ctx context.Context) { got <- context.Cause(ctx) }))

	select {
	case err := <-got:
		assert.True(t, errors.Is(err, ErrClosed))
	case <-time.After(2 * time.Second):
		t.Fatal("fetch submitted after Close never ran")
	}
}

func TestCloseHonorsContext(t *testing.T) {
	p := New(Config{Workers: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	p.Submit(fetchFunc(func(context.Context) {
		close(started)
		<-release // ignores cancellation
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Close(ctx), context.DeadlineExceeded)
	close(release)
}
