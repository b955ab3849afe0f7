// Package logger provides structured logging utilities.
package logger

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents logging severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLevel parses a string into a Level.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// TimeSource supplies the timestamp written on every entry.
type TimeSource func() time.Time

// Logger is a structured JSON logger.
//
// A nil *Logger is valid and discards everything, so components can take an
// optional logger without guarding every call site.
type Logger struct {
	out    *output
	level  Level
	now    TimeSource
	fields map[string]interface{}
}

// output is shared between a logger and the children derived from it so
// that writes stay serialized.
type output struct {
	mu sync.Mutex
	w  io.Writer
}

// New creates a new Logger with the specified output and level.
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{
		out:    &output{w: w},
		level:  ParseLevel(level),
		now:    time.Now,
		fields: make(map[string]interface{}),
	}
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	return New(io.Discard, "error")
}

// With returns a new Logger with additional fields.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	if l == nil {
		return nil
	}
	child := l.clone()
	addPairs(child.fields, keyvals)
	return child
}

// WithTimeSource returns a child logger that stamps entries using now. The
// harness uses it to log virtual instead of wall-clock time.
func (l *Logger) WithTimeSource(now TimeSource) *Logger {
	if l == nil {
		return nil
	}
	child := l.clone()
	if now != nil {
		child.now = now
	}
	return child
}

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= l.level
}

// Debug logs a message at debug level.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.log(LevelDebug, msg, keyvals...)
}

// Info logs a message at info level.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.log(LevelInfo, msg, keyvals...)
}

// Warn logs a message at warn level.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.log(LevelWarn, msg, keyvals...)
}

// Error logs a message at error level.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.log(LevelError, msg, keyvals...)
}

func (l *Logger) clone() *Logger {
	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{
		out:    l.out,
		level:  l.level,
		now:    l.now,
		fields: fields,
	}
}

// log writes a log entry if the level is enabled.
func (l *Logger) log(level Level, msg string, keyvals ...interface{}) {
	if !l.Enabled(level) {
		return
	}

	entry := make(map[string]interface{}, len(l.fields)+len(keyvals)/2+3)
	for k, v := range l.fields {
		entry[k] = v
	}

	entry["time"] = l.now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["msg"] = msg

	addPairs(entry, keyvals)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	_, _ = l.out.w.Write(append(data, '\n'))
}

// addPairs copies alternating key/value arguments into dst, skipping pairs
// whose key is not a string. Error values are flattened to their message.
func addPairs(dst map[string]interface{}, keyvals []interface{}) {
	for i := 0; i < len(keyvals)-1; i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keyvals[i+1].(error); isErr && err != nil {
			dst[key] = err.Error()
			continue
		}
		dst[key] = keyvals[i+1]
	}
}
