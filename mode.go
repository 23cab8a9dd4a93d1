package beatbox

import "strings"

// Mode selects how a Beatbox routes calls.
type Mode string

const (
	// Bypass runs the callable and touches no storage.
	Bypass Mode = "bypass"
	// Record runs the callable and stores its result.
	Record Mode = "record"
	// Playback returns the stored result without running the callable.
	Playback Mode = "playback"
)

// Valid reports whether m is one of the three modes.
func (m Mode) Valid() bool {
	switch m {
	case Bypass, Record, Playback:
		return true
	}
	return false
}

func (m Mode) String() string { return string(m) }

// ParseMode parses a mode name, ignoring case and surrounding space.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", &ModeError{Mode: Mode(s)}
	}
	return m, nil
}

// UnmarshalText implements encoding.TextUnmarshaler so a Mode can be read
// from configuration.
func (m *Mode) UnmarshalText(b []byte) error {
	p, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = p
	return nil
}
