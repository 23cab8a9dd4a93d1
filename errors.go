package beatbox

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/beatbox/internal/util"
)

var (
	// ErrInvalidMode is matched by every ModeError.
	ErrInvalidMode = errors.New("beatbox: invalid mode")
	// ErrNoRecording is matched by every NoRecordingError.
	ErrNoRecording = errors.New("beatbox: no recording")
	// ErrDecode is matched by every DecodeError.
	ErrDecode = errors.New("beatbox: decode recording")
)

// ModeError reports a mode outside Bypass, Record and Playback. It is
// returned before the callable runs or storage is touched.
type ModeError struct {
	Mode Mode
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("beatbox: Invalid mode %q (want %s, %s or %s)", string(e.Mode), Bypass, Record, Playback)
}

func (e *ModeError) Unwrap() error { return ErrInvalidMode }

// NoRecordingError reports a Playback lookup miss.
type NoRecordingError struct {
	Identity string
	Key      string
}

func (e *NoRecordingError) Error() string {
	return fmt.Sprintf("beatbox: no recording for %s call (key %s)", e.Identity, util.ShortKey(e.Key))
}

func (e *NoRecordingError) Unwrap() error { return ErrNoRecording }

// DecodeError reports a recording that exists but does not fit the Go type
// the caller expects back.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("beatbox: recording %s: %v", util.ShortKey(e.Key), e.Err)
}

func (e *DecodeError) Unwrap() []error {
	errs := make([]error, 0, 2)
	errs = append(errs, ErrDecode)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
