package batchload

import (
	"errors"
	"testing"
)

type countingListener struct {
	ok, failed int
	err        error
}

func (l *countingListener) OnCacheMiss(*Container[string, int])     {}
func (l *countingListener) OnSuccess(*Container[string, int], bool) { l.ok++ }
func (l *countingListener) OnError(err error)                       { l.failed++; l.err = err }

func TestBatchedFetchAttachDetach(t *testing.T) {
	l := &countingListener{}
	a := newContainer[string, int](nil, "k", "a", l)
	b := newContainer[string, int](nil, "k", "b", l)
	c := newContainer[string, int](nil, "k", "c", l)

	bf := newBatchedFetch("k", a)
	if n := bf.attach(b); n != 2 {
		t.Fatalf("attach: got %d want 2", n)
	}
	bf.attach(c)

	if !bf.detach(b) {
		t.Fatalf("detach of attached container failed")
	}
	if bf.detach(b) {
		t.Fatalf("second detach must report false")
	}
	if bf.containers[0] != a || bf.containers[1] != c {
		t.Fatalf("insertion order not kept after detach")
	}
	bf.detach(a)
	bf.detach(c)
	if !bf.empty() {
		t.Fatalf("expected empty record")
	}
}

func TestBatchedFetchResultSetOnce(t *testing.T) {
	bf := newBatchedFetch[string, int]("k", nil)
	if !bf.succeed(1) {
		t.Fatalf("first result must be recorded")
	}
	if bf.succeed(2) || bf.fail(errors.New("x")) {
		t.Fatalf("result slot must be set at most once")
	}
	if bf.value != 1 || bf.err != nil {
		t.Fatalf("unexpected slot: %v %v", bf.value, bf.err)
	}
}

func TestBatchedFetchDeliverSkipsReleased(t *testing.T) {
	l := &countingListener{}
	a := newContainer[string, int](nil, "k", "a", l)
	b := newContainer[string, int](nil, "k", "b", l)
	bf := newBatchedFetch("k", a)
	bf.attach(b)
	b.release()

	bf.succeed(7)
	if n := bf.deliver(); n != 1 {
		t.Fatalf("deliver: got %d want 1", n)
	}
	if v, ok := a.Value(); !ok || v != 7 {
		t.Fatalf("value not set on delivered container: %v %v", v, ok)
	}
	if _, ok := b.Value(); ok {
		t.Fatalf("released container must not receive a value")
	}
	if a.Active() || l.ok != 1 {
		t.Fatalf("container must be released after delivery")
	}
	if bf.deliver() != 0 {
		t.Fatalf("second deliver must be a no-op")
	}
}

func TestBatchedFetchDeliverError(t *testing.T) {
	l := &countingListener{}
	boom := errors.New("boom")
	bf := newBatchedFetch("k", newContainer[string, int](nil, "k", "a", l))
	bf.attach(newContainer[string, int](nil, "k", "b", l))
	bf.fail(boom)
	bf.deliver()
	if l.failed != 2 || l.err != boom {
		t.Fatalf("error fan-out: failed=%d err=%v", l.failed, l.err)
	}
}
