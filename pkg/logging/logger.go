// Package logging implements the procshim logging subsystem.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Level represents the logging level.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelNotice
	LevelWarn
	LevelError
	// LevelSilent suppresses every message.
	LevelSilent
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelNotice:
		return "NOTICE"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelSilent:
		return "SILENT"
	default:
		return "UNKNOWN"
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLevel converts a level name to a Level. Unknown names yield
// LevelInfo and an error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "notice":
		return LevelNotice, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "none", "off":
		return LevelSilent, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// levelKey carries our own level name through logrus, which has no notice level.
const levelKey = "procshim.level"

// Logger provides leveled diagnostic logging for procshim. A nil *Logger
// discards everything.
type Logger struct {
	level *atomic.Int32
	entry *logrus.Entry
}

// New creates a new Logger writing to stderr with the specified minimum level.
func New(level Level) *Logger {
	return NewWithOutput(os.Stderr, level)
}

// NewWithOutput creates a Logger that writes to w.
func NewWithOutput(w io.Writer, level Level) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetFormatter(&lineFormatter{})
	base.SetLevel(logrus.DebugLevel)

	lvl := new(atomic.Int32)
	lvl.Store(int32(level))
	return &Logger{level: lvl, entry: logrus.NewEntry(base)}
}

// Discard returns a Logger that drops all output.
func Discard() *Logger {
	return NewWithOutput(io.Discard, LevelSilent)
}

// SetLevel changes the minimum logging level. Derived loggers share it.
func (l *Logger) SetLevel(level Level) {
	if l == nil {
		return
	}
	l.level.Store(int32(level))
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelSilent
	}
	return Level(l.level.Load())
}

// WithField returns a logger that attaches key=value to every message.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{level: l.level, entry: l.entry.WithField(key, value)}
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if l == nil || level < l.Level() {
		return
	}
	l.entry.WithField(levelKey, level.String()).Log(level.logrus(), fmt.Sprintf(format, args...))
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Notice logs at notice level.
func (l *Logger) Notice(format string, args ...interface{}) {
	l.log(LevelNotice, format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// ProcessStarted logs a successful launch.
func (l *Logger) ProcessStarted(pid int, path string) {
	l.log(LevelInfo, "Started background process '%s' with PID %d", path, pid)
}

// ProcessExited logs a reaped child and its exit code. The PID comes from
// the logger's fields (see WithField).
func (l *Logger) ProcessExited(code int) {
	if code == 0 {
		l.log(LevelDebug, "Process exited with code 0")
		return
	}
	l.log(LevelNotice, "Process exited with code %d", code)
}

// ProcessFailed logs a launch failure.
func (l *Logger) ProcessFailed(path string, err error) {
	l.log(LevelError, "Failed to start '%s': %v", path, err)
}

// lineFormatter renders "[hh:mm:ss] LEVEL: message key=value".
type lineFormatter struct{}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	name, _ := e.Data[levelKey].(string)
	if name == "" {
		name = strings.ToUpper(e.Level.String())
	}
	fmt.Fprintf(&b, "[%s] %s: %s", e.Time.Format("15:04:05"), name, e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k != levelKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}
