// Package sloghooks implements beatbox.Hooks on top of log/slog.
package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/beatbox"
	"github.com/unkn0wn-root/beatbox/internal/util"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	MissEvery     uint64
	RecordedEvery uint64
	// Optional key redactor. Defaults to a SHA-256 prefix; call keys embed
	// full arguments.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	missCtr     atomic.Uint64
	recordedCtr atomic.Uint64
}

var _ beatbox.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	return util.ShortKey(k)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) StorageRecovered(path, backup string, cause error) {
	if h.l == nil {
		return
	}
	h.l.Warn("beatbox.storage_recovered",
		"path", path,
		"backup", backup,
		"err", cause)
}

func (h *Hooks) PersistFailed(path string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("beatbox.persist_failed",
		"path", path,
		"err", err)
}

func (h *Hooks) PlaybackMiss(identity, key string) {
	if h.l == nil || !sample(h.opts.MissEvery, &h.missCtr) {
		return
	}
	h.l.Info("beatbox.playback_miss",
		"fn", identity,
		"key", h.redact(key))
}

func (h *Hooks) Recorded(identity, key string, raised bool) {
	if h.l == nil || !sample(h.opts.RecordedEvery, &h.recordedCtr) {
		return
	}
	h.l.Debug("beatbox.recorded",
		"fn", identity,
		"key", h.redact(key),
		"raised", raised)
}

func (h *Hooks) DecodeFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("beatbox.decode_failed",
		"key", h.redact(key),
		"err", err)
}
