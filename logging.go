package gpuparticles

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

// Logger is the logging surface used by the driver, the particle system and the
// backends. Implementations must tolerate calls from the render thread every frame.
type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger prints "[prefix] LEVEL: message" lines. Debug and info go to one
// writer, warnings and errors to the other.
type DefaultLogger struct {
	debug  *atomic.Bool
	prefix string
	out    *log.Logger
	err    *log.Logger
}

// NewDefaultLogger logs to stdout and stderr.
func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewWriterLogger(prefix, debug, os.Stdout, os.Stderr)
}

func NewWriterLogger(prefix string, debug bool, out, errOut io.Writer) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	l := &DefaultLogger{
		debug:  new(atomic.Bool),
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(errOut, "", flags),
	}
	l.debug.Store(debug)
	return l
}

// Named derives a logger for a component, e.g. "particles/gl33". The debug switch
// stays shared with l.
func (l *DefaultLogger) Named(name string) Logger {
	child := *l
	if l.prefix != "" {
		child.prefix = l.prefix + "/" + name
	} else {
		child.prefix = name
	}
	return &child
}

func (l *DefaultLogger) DebugEnabled() bool    { return l.debug.Load() }
func (l *DefaultLogger) SetDebug(enabled bool) { l.debug.Store(enabled) }

func (l *DefaultLogger) print(to *log.Logger, level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.prefix == "" {
		to.Print(level + ": " + msg)
		return
	}
	to.Printf("[%s] %s: %s", l.prefix, level, msg)
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if l.debug.Load() {
		l.print(l.out, "DEBUG", format, args...)
	}
}

func (l *DefaultLogger) Infof(format string, args ...any)  { l.print(l.out, "INFO", format, args...) }
func (l *DefaultLogger) Warnf(format string, args ...any)  { l.print(l.err, "WARN", format, args...) }
func (l *DefaultLogger) Errorf(format string, args ...any) { l.print(l.err, "ERROR", format, args...) }

type nopLogger struct{}

func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) DebugEnabled() bool                { return false }
func (nopLogger) SetDebug(enabled bool)             {}
func (nopLogger) Debugf(format string, args ...any) {}
func (nopLogger) Infof(format string, args ...any)  {}
func (nopLogger) Warnf(format string, args ...any)  {}
func (nopLogger) Errorf(format string, args ...any) {}

// orNop never returns nil.
func orNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}

// named narrows l to a component when it supports it.
func named(l Logger, name string) Logger {
	if n, ok := l.(interface{ Named(string) Logger }); ok {
		return n.Named(name)
	}
	return l
}
