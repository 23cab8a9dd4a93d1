// Package logrus adapts a *logrus.Entry to beatbox.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/beatbox"
)

var _ beatbox.Logger = Logger{}

// Logger forwards beatbox log events to E. An error under "err" is attached
// with WithError so hooks and formatters see it under logrus.ErrorKey.
type Logger struct{ E *logrus.Entry }

// New returns a Logger tagged component=beatbox.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "beatbox")}
}

func (l Logger) Debug(msg string, f beatbox.Fields) { l.entry(f).Debug(msg) }
func (l Logger) Info(msg string, f beatbox.Fields)  { l.entry(f).Info(msg) }
func (l Logger) Warn(msg string, f beatbox.Fields)  { l.entry(f).Warn(msg) }
func (l Logger) Error(msg string, f beatbox.Fields) { l.entry(f).Error(msg) }

func (l Logger) entry(f beatbox.Fields) *logrus.Entry {
	e := l.E
	rest := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			e = e.WithError(err)
			continue
		}
		rest[k] = v
	}
	return e.WithFields(rest)
}
