// Package logging provides leveled, component-scoped logging for Paralens.
//
// The contract is deliberately minimal so packages can depend on it without
// pulling in the file-sink setup; construct concrete loggers once at startup
// and pass them down.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the level name.
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
		return "?"
	}
}

// ParseLevel maps a config string to a Level. Unknown values map to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger defines a minimal, printf-style logging contract.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

// sink is the shared destination for all component loggers.
type sink struct {
	mu     sync.Mutex
	out    *log.Logger
	level  Level
	closer *os.File
}

// componentLogger scopes a sink to one component name.
type componentLogger struct {
	sink      *sink
	component string
}

// Options configures a logging sink.
type Options struct {
	// Path is the log file location. Empty means stderr.
	Path  string
	Level Level
}

// Sink owns the log destination and hands out component loggers.
type Sink struct {
	s *sink
}

// NewSink opens the log destination. The parent directory is created when a
// file path is given.
func NewSink(opts Options) (*Sink, error) {
	s := &sink{level: opts.Level}

	if opts.Path == "" {
		s.out = log.New(os.Stderr, "", 0)
		return &Sink{s: s}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	s.out = log.New(file, "", 0)
	s.closer = file
	return &Sink{s: s}, nil
}

// Component returns a logger scoped to the given component name.
func (k *Sink) Component(component string) Logger {
	return &componentLogger{sink: k.s, component: component}
}

// Close closes the underlying log file, if any.
func (k *Sink) Close() error {
	if k.s.closer != nil {
		return k.s.closer.Close()
	}
	return nil
}

func (c *componentLogger) log(level Level, format string, args ...any) {
	if level < c.sink.level {
		return
	}

	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()

	ts := time.Now().Format("2006-01-02 15:04:05.000")
	c.sink.out.Printf("%s [%s] [%s] %s", ts, level, c.component, fmt.Sprintf(format, args...))
}

func (c *componentLogger) Debug(format string, args ...any) { c.log(LevelDebug, format, args...) }
func (c *componentLogger) Info(format string, args ...any)  { c.log(LevelInfo, format, args...) }
func (c *componentLogger) Warn(format string, args ...any)  { c.log(LevelWarn, format, args...) }
func (c *componentLogger) Error(format string, args ...any) { c.log(LevelError, format, args...) }
