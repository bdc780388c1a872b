// mission package notify.go - one-way status messages

// Copyright (C) 2018  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package mission

import "github.com/rs/zerolog"

// Severity of a notification, ordered as MAVLink does it (lower is more severe).
type Severity uint8

// Severities
const (
	SeverityEmergency Severity = iota
	SeverityAlert
	SeverityCritical
	SeverityError
	SeverityWarning
	SeverityNotice
	SeverityInfo
	SeverityDebug
)

func (s Severity) String() string {
	switch s {
	case SeverityEmergency:
		return "emergency"
	case SeverityAlert:
		return "alert"
	case SeverityCritical:
		return "critical"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNotice:
		return "notice"
	case SeverityInfo:
		return "info"
	case SeverityDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// Notifier receives status text.  Implementations must not block.
type Notifier interface {
	Notify(sev Severity, msg string)
}

// NopNotifier discards everything.
type NopNotifier struct{}

// Notify does nothing
func (NopNotifier) Notify(Severity, string) {}

// MultiNotifier fans a notification out to several Notifiers in order.
type MultiNotifier []Notifier

// Notify passes the message to every non-nil member
func (m MultiNotifier) Notify(sev Severity, msg string) {
	for _, n := range m {
		if n != nil {
			n.Notify(sev, msg)
		}
	}
}

// LogNotifier writes notifications to a zerolog.Logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

// NewLogNotifier returns a LogNotifier tagged with the mission component.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger.With().Str("component", "mission").Logger()}
}

// Notify logs msg at the zerolog level matching sev
func (l *LogNotifier) Notify(sev Severity, msg string) {
	l.Logger.WithLevel(sev.level()).Str("severity", sev.String()).Msg(msg)
}

func (s Severity) level() zerolog.Level {
	switch {
	case s <= SeverityError:
		return zerolog.ErrorLevel
	case s == SeverityWarning:
		return zerolog.WarnLevel
	case s <= SeverityInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
