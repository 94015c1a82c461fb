package common

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Severity represents log message severity levels
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the logging contract for the analyzer. Decoders and the call
// stack builder log register reads, fallback decisions, and per-frame
// symbolization failures through it.
type Logger interface {
	// Log logs a message with the specified severity
	Log(severity Severity, msg string)

	// Logf logs a formatted message with the specified severity
	Logf(severity Severity, format string, args ...interface{})

	// Error logs an error
	Error(err error)

	// Debug logs a debug message
	Debug(msg string)
}

// StdLogger implements Logger on top of Go's standard logger, writing
// warnings and errors to one stream and everything else to another.
type StdLogger struct {
	out      *log.Logger
	err      *log.Logger
	minLevel Severity
}

// NewStdLogger creates a logger writing to stdout/stderr.
func NewStdLogger(minLevel Severity) *StdLogger {
	return NewStdLoggerWithWriter(os.Stdout, os.Stderr, minLevel)
}

// NewStdLoggerWithWriter creates a logger with custom writers.
func NewStdLoggerWithWriter(stdout, stderr io.Writer, minLevel Severity) *StdLogger {
	return &StdLogger{
		out:      log.New(stdout, "", log.Ltime),
		err:      log.New(stderr, "", log.Ltime),
		minLevel: minLevel,
	}
}

// Log logs a message with the specified severity
func (l *StdLogger) Log(severity Severity, msg string) {
	if severity < l.minLevel {
		return
	}
	dest := l.out
	if severity >= SeverityWarning {
		dest = l.err
	}
	dest.Printf("%s: %s", severity, msg)
}

// Logf logs a formatted message with the specified severity
func (l *StdLogger) Logf(severity Severity, format string, args ...interface{}) {
	l.Log(severity, fmt.Sprintf(format, args...))
}

// Error logs an error
func (l *StdLogger) Error(err error) {
	if err != nil {
		l.Log(SeverityError, err.Error())
	}
}

// Debug logs a debug message
func (l *StdLogger) Debug(msg string) {
	l.Log(SeverityDebug, msg)
}

// NoOpLogger is a logger that doesn't log anything
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-op logger
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Log does nothing
func (l *NoOpLogger) Log(severity Severity, msg string) {}

// Logf does nothing
func (l *NoOpLogger) Logf(severity Severity, format string, args ...interface{}) {}

// Error does nothing
func (l *NoOpLogger) Error(err error) {}

// Debug does nothing
func (l *NoOpLogger) Debug(msg string) {}
