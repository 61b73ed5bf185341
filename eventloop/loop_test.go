package eventloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New()
	errc := make(chan error, 1)
	go func() { errc <- l.Run(context.Background()) }()
	t.Cleanup(func() {
		l.Close()
		require.NoError(t, <-errc)
	})
	return l
}

func TestLoopRunsTasksInOrderAndOwnsTheirContext(t *testing.T) {
	l := startLoop(t)

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func(ctx context.Context) {
			assert.True(t, l.Owns(ctx))
			got = append(got, i)
		})
	}
	require.NoError(t, l.Do(context.Background(), func(context.Context) {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)

	assert.False(t, l.Owns(context.Background()))
	assert.False(t, New().Owns(contextOf(t, l)))
}

func contextOf(t *testing.T, l *Loop) context.Context {
	t.Helper()
	var out context.Context
	require.NoError(t, l.Do(context.Background(), func(ctx context.Context) { out = ctx }))
	return out
}

func TestLoopAfterFuncFiresOnLoop(t *testing.T) {
	l := startLoop(t)

	fired := make(chan bool, 1)
	l.AfterFunc(5*time.Millisecond, func(ctx context.Context) { fired <- l.Owns(ctx) })

	select {
	case owned := <-fired:
		assert.True(t, owned)
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestLoopStoppedTimerNeverRuns(t *testing.T) {
	l := startLoop(t)

	var ran atomic.Bool
	tm := l.AfterFunc(10*time.Millisecond, func(context.Context) { ran.Store(true) })
	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, l.Do(context.Background(), func(context.Context) {}))
	assert.False(t, ran.Load())
}

func TestLoopStopAfterFireReportsFalse(t *testing.T) {
	l := startLoop(t)

	fired := make(chan struct{})
	tm := l.AfterFunc(time.Millisecond, func(context.Context) { close(fired) })
	<-fired
	assert.False(t, tm.Stop())
}

func TestLoopRunTwice(t *testing.T) {
	l := startLoop(t)
	require.NoError(t, l.Do(context.Background(), func(context.Context) {}))
	assert.ErrorIs(t, l.Run(context.Background()), ErrAlreadyRunning)
}

func TestLoopRunStopsOnContextCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}

func TestLoopDoAfterClose(t *testing.T) {
	l := New()
	l.Close()
	l.Close()
	assert.ErrorIs(t, l.Do(context.Background(), func(context.Context) {}), ErrClosed)
}
