// Package logging provides leveled stderr logging for volinit.
//
// Levels follow the syslog numbering (0 = EMERGENCY ... 7 = DEBUG) with an
// additional TRACE level at 8. Lower numbers are more severe; a message is
// emitted when its level is at or below the logger's threshold.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/volinit-project/volinit/pkg/errclass"
)

// Level is a numeric log level, 0 (most severe) through 8.
type Level int

const (
	Emergency Level = iota
	Alert
	Critical
	Err
	Warning
	Notice
	Info
	Debug
	Trace
)

var levelNames = map[Level]string{
	Emergency: "EMERGENCY",
	Alert:     "ALERT",
	Critical:  "CRIT",
	Err:       "ERR",
	Warning:   "WARNING",
	Notice:    "NOTICE",
	Info:      "INFO",
	Debug:     "DEBUG",
	Trace:     "TRACE",
}

// Name aliases accepted by ParseLevelName. Matching is case-sensitive.
var levelAliases = map[string]Level{
	"EMERGENCY": Emergency,
	"EMERG":     Emergency,
	"ALERT":     Alert,
	"CRIT":      Critical,
	"CRITICAL":  Critical,
	"ERR":       Err,
	"ERROR":     Err,
	"WARNING":   Warning,
	"WARN":      Warning,
	"NOTICE":    Notice,
	"INFO":      Info,
	"DEBUG":     Debug,
	"TRACE":     Trace,
}

// String returns the canonical level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevelName resolves a level name or alias.
func ParseLevelName(name string) (Level, error) {
	if lvl, ok := levelAliases[name]; ok {
		return lvl, nil
	}
	return 0, errclass.ErrUnknownLevel.WithMessagef("no such level name: %q", name)
}

// ParseLevelNumber resolves a numeric level in the range 0-8.
func ParseLevelNumber(n int) (Level, error) {
	if n < int(Emergency) || n > int(Trace) {
		return 0, errclass.ErrUnknownLevel.WithMessagef("level number out of range: %d", n)
	}
	return Level(n), nil
}

// ParseLevel resolves either form: a decimal level number or a level name.
func ParseLevel(s string) (Level, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return ParseLevelNumber(n)
	}
	return ParseLevelName(s)
}

// Logger writes threshold-filtered, single-line messages to one writer.
// Threshold and fallback are fixed at construction; configuration is read
// once at startup and never re-read mid-run.
type Logger struct {
	mu        sync.Mutex
	threshold Level
	fallback  Level
	out       io.Writer
	tag       string
}

// New creates a logger writing to stderr. The fallback level is used by
// EmitAt when a level string cannot be resolved.
func New(threshold, fallback Level) *Logger {
	return &Logger{
		threshold: threshold,
		fallback:  fallback,
		out:       os.Stderr,
		tag:       "volinit",
	}
}

// SetOutput redirects output, primarily for tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// Threshold returns the active threshold level.
func (l *Logger) Threshold() Level { return l.threshold }

// Emit writes one formatted line if level is at or below the threshold.
func (l *Logger) Emit(level Level, format string, args ...any) {
	if level > l.threshold {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] %-9s: %s\n", l.tag, level.String(), fmt.Sprintf(format, args...))
}

// EmitAt resolves spec as a level name or number and emits at that level.
// An unresolvable spec falls back to the configured fallback level, and the
// fallback itself is reported at ERR.
func (l *Logger) EmitAt(spec string, format string, args ...any) {
	level, err := ParseLevel(spec)
	if err != nil {
		l.Emit(Err, "unknown log level %q, falling back to %s", spec, l.fallback)
		level = l.fallback
	}
	l.Emit(level, format, args...)
}

func (l *Logger) Debugf(format string, args ...any)  { l.Emit(Debug, format, args...) }
func (l *Logger) Infof(format string, args ...any)   { l.Emit(Info, format, args...) }
func (l *Logger) Noticef(format string, args ...any) { l.Emit(Notice, format, args...) }
func (l *Logger) Warnf(format string, args ...any)   { l.Emit(Warning, format, args...) }
func (l *Logger) Errf(format string, args ...any)    { l.Emit(Err, format, args...) }
func (l *Logger) Critf(format string, args ...any)   { l.Emit(Critical, format, args...) }
