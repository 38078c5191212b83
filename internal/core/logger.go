package core

import (
	"fmt"
	"log"
	"strings"
)

// Logger is the structured logging surface used by the service. Arguments
// after the message are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// StdLogger writes "[LEVEL] msg key=value ..." lines to a *log.Logger.
type StdLogger struct {
	l     *log.Logger
	debug bool
}

// NewStdLogger wraps l. Debug lines are dropped unless debug is set.
func NewStdLogger(l *log.Logger, debug bool) *StdLogger {
	if l == nil {
		l = log.Default()
	}
	return &StdLogger{l: l, debug: debug}
}

// Debug logs at debug level.
func (s *StdLogger) Debug(msg string, args ...any) {
	if s.debug {
		s.write("DEBUG", msg, args)
	}
}

// Info logs at info level.
func (s *StdLogger) Info(msg string, args ...any) { s.write("INFO", msg, args) }

// Warn logs at warn level.
func (s *StdLogger) Warn(msg string, args ...any) { s.write("WARN", msg, args) }

// Error logs at error level.
func (s *StdLogger) Error(msg string, args ...any) { s.write("ERROR", msg, args) }

func (s *StdLogger) write(level, msg string, args []any) {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level)
	b.WriteString("] ")
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	s.l.Print(b.String())
}
