package batchload_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unkn0wn-root/batchload"
)

type calls struct {
	ok   []string
	errs []error
}

func newFuncFetch(c *calls, fn func(ctx context.Context) (string, error)) *batchload.FuncFetch[string] {
	return batchload.NewFetch(fn,
		func(v string) { c.ok = append(c.ok, v) },
		func(err error) { c.errs = append(c.errs, err) })
}

func TestFuncFetchReports(t *testing.T) {
	var c calls
	f := newFuncFetch(&c, func(context.Context) (string, error) { return "v", nil })
	f.Execute(context.Background())
	f.Execute(context.Background())
	assert.Equal(t, []string{"v"}, c.ok, "runs once")

	boom := errors.New("boom")
	f = newFuncFetch(&c, func(context.Context) (string, error) { return "", boom })
	f.Execute(context.Background())
	assert.Equal(t, []error{boom}, c.errs)
}

func TestFuncFetchCanceledBeforeExecute(t *testing.T) {
	var c calls
	ran := false
	f := newFuncFetch(&c, func(context.Context) (string, error) { ran = true; return "v", nil })
	f.Cancel()
	f.Execute(context.Background())
	assert.False(t, ran)
	assert.True(t, f.Canceled())
	assert.Empty(t, c.ok)
}

func TestFuncFetchCancelWhileRunning(t *testing.T) {
	var c calls
	var f *batchload.FuncFetch[string]
	f = newFuncFetch(&c, func(ctx context.Context) (string, error) {
		f.Cancel()
		<-ctx.Done()
		return "v", nil
	})
	f.Execute(context.Background())
	assert.Empty(t, c.ok, "callbacks are suppressed after Cancel")
	assert.Empty(t, c.errs)
}
