package sloghooks

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/batchload"
	"github.com/unkn0wn-root/batchload/internal/keyutil"
)

type Options struct {
	// Sampling for the hot-path events; 0/1 = log all.
	HitEvery    uint64
	MissEvery   uint64
	AttachEvery uint64
	// Delivery passes faster than this are not logged. 0 = log all.
	SlowBatch time.Duration
	// Optional key redactor. Defaults to SHA-256 prefix. URLs in cache keys
	// may carry credentials, so keys are never logged raw by default.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr    atomic.Uint64
	missCtr   atomic.Uint64
	attachCtr atomic.Uint64
}

var _ batchload.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return keyutil.Digest([]byte(k))
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) CacheHit(key string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("batchload.cache_hit", "key", h.redact(key))
}

func (h *Hooks) CacheMiss(key string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Debug("batchload.cache_miss", "key", h.redact(key))
}

func (h *Hooks) FetchSubmitted(key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("batchload.fetch_submitted", "key", h.redact(key))
}

func (h *Hooks) FetchAttached(key string, waiters int) {
	if h.l == nil || !sample(h.opts.AttachEvery, &h.attachCtr) {
		return
	}
	h.l.Debug("batchload.fetch_attached",
		"key", h.redact(key),
		"waiters", waiters)
}

func (h *Hooks) FetchCanceled(key string) {
	if h.l == nil {
		return
	}
	h.l.Info("batchload.fetch_canceled", "key", h.redact(key))
}

func (h *Hooks) FetchFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("batchload.fetch_failed",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) BatchDelivered(batches, containers int, waited time.Duration) {
	if h.l == nil || waited < h.opts.SlowBatch {
		return
	}
	h.l.Info("batchload.batch_delivered",
		"fetches", batches,
		"containers", containers,
		"waited", waited)
}
