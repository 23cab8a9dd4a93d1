package beatbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/unkn0wn-root/beatbox/codec"
	"github.com/unkn0wn-root/beatbox/fingerprint"
	"github.com/unkn0wn-root/beatbox/storage"
)

// Options configure a Beatbox.
// Only Path (or Store) is required; others have sensible defaults.
type Options struct {
	// Path is the recording file. Required unless Store is set.
	Path string

	Mode          Mode                      // "" => Bypass
	Format        string                    // document format for Path; "" => json
	Store         storage.Store             // overrides Path; owned by the Beatbox after New
	Registry      *codec.Registry           // nil => codec.DefaultRegistry()
	ClosurePolicy fingerprint.ClosurePolicy // identity of function literals; default anonymous
	RecordErrors  bool                      // store errors returned by the callable and replay them
	AsyncPersist  bool                      // write the file off the call path; see Flush
	MaxFileBytes  int                       // refuse to load larger files; 0 => unlimited
	Logger        Logger                    // if nil, NopLogger is used
	Hooks         Hooks                     // if nil, NopHooks is used
}

// Beatbox routes calls according to its Mode. One Beatbox owns one store;
// two instances never observe each other's recordings.
// Safe for concurrent use.
type Beatbox struct {
	mu   sync.RWMutex
	mode Mode

	path         string
	store        storage.Store
	dec          *codec.Decoder
	policy       fingerprint.ClosurePolicy
	recordErrors bool
	log          Logger
	hooks        Hooks
}

// New builds a Beatbox. It does not read the recording file; that happens
// on the first Record or Playback call.
func New(opts Options) (*Beatbox, error) {
	if opts.Store == nil && opts.Path == "" {
		return nil, fmt.Errorf("beatbox: path is required")
	}
	if opts.Mode != "" && !opts.Mode.Valid() {
		return nil, &ModeError{Mode: opts.Mode}
	}

	b := &Beatbox{
		mode:         coalesce(opts.Mode, Bypass),
		path:         opts.Path,
		dec:          codec.NewDecoder(opts.Registry),
		policy:       opts.ClosurePolicy,
		recordErrors: opts.RecordErrors,
	}

	// defaults
	b.log = coalesce[Logger](opts.Logger, NopLogger{})
	b.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})

	if opts.Store != nil {
		b.store = opts.Store
		return b, nil
	}

	fs, err := storage.Open(storage.Options{
		Path:         opts.Path,
		Format:       opts.Format,
		MaxFileBytes: opts.MaxFileBytes,
		Async:        opts.AsyncPersist,
		OnRecover: func(path, backup string, cause error) {
			b.log.Warn("recording file unreadable; moved to backup", Fields{"path": path, "backup": backup, "err": cause})
			b.hooks.StorageRecovered(path, backup, cause)
		},
		OnPersistError: func(path string, err error) {
			b.log.Error("persist recordings failed", Fields{"path": path, "err": err})
			b.hooks.PersistFailed(path, err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("beatbox: %w", err)
	}
	b.store = fs
	return b, nil
}

// SetMode switches the mode for subsequent calls. It does not validate m;
// an invalid mode fails the next call with a ModeError.
func (b *Beatbox) SetMode(m Mode) {
	b.mu.Lock()
	b.mode = m
	b.mu.Unlock()
}

// Mode returns the current mode.
func (b *Beatbox) Mode() Mode {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mode
}

// Path returns the configured recording file, if any.
func (b *Beatbox) Path() string { return b.path }

// Decoder returns the decoder used to rebuild recorded results.
func (b *Beatbox) Decoder() *codec.Decoder { return b.dec }

// Flush blocks until every recording made so far is durable.
func (b *Beatbox) Flush(ctx context.Context) error {
	return b.store.Flush(ctx)
}

// Close flushes and releases the store.
func (b *Beatbox) Close(ctx context.Context) error {
	return b.store.Close(ctx)
}
