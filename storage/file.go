package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/beatbox/codec"
	"github.com/unkn0wn-root/beatbox/internal/util"
	"github.com/unkn0wn-root/beatbox/internal/wire"
	"github.com/unkn0wn-root/beatbox/value"
)

// Options configures a FileStore.
type Options struct {
	// Path is the recording file. Required.
	Path string

	// Format names the document codec (see codec.Format). Default "json".
	Format string

	// Codec overrides Format when set.
	Codec codec.Codec[codec.Document]

	// MaxFileBytes refuses to load larger files. An oversized file is treated
	// as corrupt. 0 disables the limit.
	MaxFileBytes int

	// Perm is the mode of the written file. Default 0o644.
	Perm os.FileMode

	// Async moves writes off the Put path onto a background writer.
	// Put then returns before the file reflects the recording; call Flush
	// to wait for it.
	Async bool

	// OnRecover is called after an unreadable file was moved to backup.
	OnRecover func(path, backup string, cause error)

	// OnPersistError is called when a background write fails.
	// Synchronous writes return the error from Put instead.
	OnPersistError func(path string, err error)
}

// FileStore keeps recordings in memory and mirrors them to one file.
//
// The file is read on first use. Every write replaces the whole file
// atomically; writes are serialized and never move the file backwards to an
// older state.
type FileStore struct {
	path  string
	codec codec.Codec[codec.Document]
	perm  os.FileMode
	opts  Options

	mu     sync.Mutex // guards everything below up to sem
	loaded bool
	recs   map[string]value.Value
	rev    uint64 // bumped on every Put
	closed bool

	sem       chan struct{} // one writer at a time
	persisted uint64        // rev on disk; guarded by sem

	kick      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ Store = (*FileStore)(nil)

// Open returns a FileStore for opts.Path. It does not touch the file.
func Open(opts Options) (*FileStore, error) {
	if opts.Path == "" {
		return nil, errors.New("storage: Path is required")
	}
	c := opts.Codec
	if c == nil {
		var err error
		if c, err = codec.Format(opts.Format); err != nil {
			return nil, err
		}
	}
	if opts.MaxFileBytes > 0 {
		c = codec.LimitCodec[codec.Document]{Inner: c, MaxDecode: opts.MaxFileBytes}
	}
	perm := opts.Perm
	if perm == 0 {
		perm = 0o644
	}

	s := &FileStore{
		path:  opts.Path,
		codec: c,
		perm:  perm,
		opts:  opts,
		sem:   make(chan struct{}, 1),
	}
	if opts.Async {
		s.kick = make(chan struct{}, 1)
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.writer()
	}
	return s, nil
}

// Path returns the recording file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(_ context.Context, key string) (value.Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, false, err
	}
	v, ok := s.recs[key]
	return v, ok, nil
}

func (s *FileStore) Put(ctx context.Context, key string, v value.Value) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if err := s.loadLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.recs[key] = v
	s.rev++
	s.mu.Unlock()

	if s.opts.Async {
		select {
		case s.kick <- struct{}{}:
		default: // a write is already pending and will pick this up
		}
		return nil
	}
	return s.persist(ctx)
}

// Keys returns the recorded call keys in ascending order.
func (s *FileStore) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	return util.SortedKeys(s.recs), nil
}

// Flush writes any recording not yet on disk and waits for it.
func (s *FileStore) Flush(ctx context.Context) error {
	return s.persist(ctx)
}

// Close stops the background writer and flushes. Further Puts fail.
func (s *FileStore) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		if s.stop != nil {
			close(s.stop)
			<-s.done
		}
	})
	return s.persist(ctx)
}

func (s *FileStore) writer() {
	defer close(s.done)
	for {
		select {
		case <-s.kick:
			if err := s.persist(context.Background()); err != nil && s.opts.OnPersistError != nil {
				s.opts.OnPersistError(s.path, err)
			}
		case <-s.stop:
			return
		}
	}
}

// persist writes the newest in-memory state unless it is already on disk.
func (s *FileStore) persist(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.sem }()

	s.mu.Lock()
	if !s.loaded || s.rev == s.persisted {
		s.mu.Unlock()
		return nil
	}
	rev := s.rev
	snap := make(map[string]value.Value, len(s.recs))
	for k, v := range s.recs {
		snap[k] = v
	}
	s.mu.Unlock()

	b, err := wire.EncodeDocument(s.codec, snap)
	if err != nil {
		return fmt.Errorf("persist %s: %w", s.path, err)
	}
	if err := WriteFileAtomic(s.path, b, s.perm); err != nil {
		return fmt.Errorf("persist %s: %w", s.path, err)
	}
	s.persisted = rev
	return nil
}

// loadLocked reads the file once. A missing file is an empty mapping; an
// unreadable one is moved aside and then treated as missing.
func (s *FileStore) loadLocked() error {
	if s.loaded {
		return nil
	}
	b, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.recs = make(map[string]value.Value)
	case err != nil:
		return fmt.Errorf("load %s: %w", s.path, err)
	default:
		recs, derr := wire.DecodeDocument(s.codec, b)
		if derr != nil {
			backup, berr := s.backup(b)
			if berr != nil {
				return fmt.Errorf("load %s: %w (backup failed: %v)", s.path, derr, berr)
			}
			if s.opts.OnRecover != nil {
				s.opts.OnRecover(s.path, backup, derr)
			}
			recs = make(map[string]value.Value)
		}
		s.recs = recs
	}
	s.loaded = true
	return nil
}

// BackupPath returns the name an unreadable file at path is moved to.
func BackupPath(path string, now time.Time) string {
	return fmt.Sprintf("%s.corrupt-%s-%s", path, now.UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
}

// backup moves the unreadable file aside. If the rename fails the bytes
// already read are copied instead, so the original is never lost.
func (s *FileStore) backup(b []byte) (string, error) {
	dst := BackupPath(s.path, time.Now())
	if err := os.Rename(s.path, dst); err == nil {
		return dst, nil
	}
	if err := os.WriteFile(dst, b, s.perm); err != nil {
		return "", err
	}
	return dst, nil
}
