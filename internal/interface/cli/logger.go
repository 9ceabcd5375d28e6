package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// LogLevel controls which messages the CLI logger emits.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Logger provides leveled logging for the CLI. The import command points
// the output at an io.MultiWriter so every line lands on the console and
// in the log file.
type Logger struct {
	mu       sync.RWMutex
	minLevel LogLevel
	output   io.Writer
}

// NewLogger creates a logger with the given minimum level and output.
func NewLogger(minLevel LogLevel, output io.Writer) *Logger {
	return &Logger{minLevel: minLevel, output: output}
}

// SetOutput changes the output writer.
func (l *Logger) SetOutput(output io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = output
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LogLevelDebug, "DEBUG", format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LogLevelInfo, "INFO", format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LogLevelWarn, "WARN", format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LogLevelError, "ERROR", format, args...)
}

func (l *Logger) log(level LogLevel, prefix string, format string, args ...interface{}) {
	l.mu.RLock()
	minLevel := l.minLevel
	output := l.output
	l.mu.RUnlock()

	if level >= minLevel {
		fmt.Fprintf(output, "%s: %s\n", prefix, fmt.Sprintf(format, args...))
	}
}

// LogLevelFromString converts a level name to a LogLevel, defaulting to
// info for unknown values.
func LogLevelFromString(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

var globalLogger *Logger

// InitGlobalLogger initializes the CLI logger.
func InitGlobalLogger(level string, output io.Writer) *Logger {
	globalLogger = NewLogger(LogLevelFromString(level), output)
	return globalLogger
}

// GetLogger returns the CLI logger, initializing a default one on first use.
func GetLogger() *Logger {
	if globalLogger == nil {
		globalLogger = NewLogger(LogLevelInfo, os.Stderr)
	}
	return globalLogger
}
