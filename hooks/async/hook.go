// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    MissEvery:     10, // sample logs: ~every 10th playback miss
//	    RecordedEvery: 100,
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	bb, _ := beatbox.New(beatbox.Options{
//	    Path:  "testdata/recordings.json",
//	    Mode:  beatbox.Record,
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/beatbox"
)

// Hooks moves hook calls off the call path onto a bounded queue. Events
// that do not fit are dropped and counted.
type Hooks struct {
	inner   beatbox.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ beatbox.Hooks = (*Hooks)(nil)

func New(inner beatbox.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers. Events after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded because the queue was full.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on closed queue after Close
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) StorageRecovered(path, backup string, cause error) {
	h.try(func() { h.inner.StorageRecovered(path, backup, cause) })
}
func (h *Hooks) PersistFailed(path string, err error) {
	h.try(func() { h.inner.PersistFailed(path, err) })
}
func (h *Hooks) PlaybackMiss(id, key string) { h.try(func() { h.inner.PlaybackMiss(id, key) }) }
func (h *Hooks) Recorded(id, key string, raised bool) {
	h.try(func() { h.inner.Recorded(id, key, raised) })
}
func (h *Hooks) DecodeFailed(key string, err error) { h.try(func() { h.inner.DecodeFailed(key, err) }) }
