package beatbox

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The dispatcher calls them on the call path.
type Hooks interface {
	// An unreadable recording file was moved to backup and replaced by an
	// empty mapping.
	StorageRecovered(path, backup string, cause error)

	// Writing the recording file failed. The recordings stay in memory and
	// are retried by the next write or Flush.
	PersistFailed(path string, err error)

	// A Playback lookup found nothing.
	PlaybackMiss(identity, key string)

	// A Record call stored its result. raised is true when the stored
	// outcome is an error returned by the callable.
	Recorded(identity, key string, raised bool)

	// A recording could not be decoded into the type the caller asked for.
	DecodeFailed(key string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) StorageRecovered(string, string, error) {}
func (NopHooks) PersistFailed(string, error)            {}
func (NopHooks) PlaybackMiss(string, string)            {}
func (NopHooks) Recorded(string, string, bool)          {}
func (NopHooks) DecodeFailed(string, error)             {}
