// Package logger provides a small leveled logger used throughout hifictl.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level represents a log severity.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Config holds logger configuration.
type Config struct {
	Level  string
	Output io.Writer
}

// Logger is a structured, leveled logger with component prefixes.
type Logger struct {
	level  Level
	logger *log.Logger
}

// Field is a structured logging key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

// New creates a new Logger.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	return &Logger{
		level:  parseLevel(cfg.Level),
		logger: log.New(output, "", log.LstdFlags),
	}
}

// WithComponent returns a child logger that prefixes messages with component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		level:  l.level,
		logger: log.New(l.logger.Writer(), fmt.Sprintf("[%s] ", component), log.LstdFlags),
	}
}

func (l *Logger) Debug(msg string, fields ...Field) {
	if l.level <= DebugLevel {
		l.log("DEBUG", msg, fields...)
	}
}

func (l *Logger) Info(msg string, fields ...Field) {
	if l.level <= InfoLevel {
		l.log("INFO", msg, fields...)
	}
}

func (l *Logger) Warn(msg string, fields ...Field) {
	if l.level <= WarnLevel {
		l.log("WARN", msg, fields...)
	}
}

func (l *Logger) Error(msg string, fields ...Field) {
	if l.level <= ErrorLevel {
		l.log("ERROR", msg, fields...)
	}
}

func (l *Logger) log(level, msg string, fields ...Field) {
	if len(fields) == 0 {
		l.logger.Printf("[%s] %s", level, msg)
		return
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
	}
	l.logger.Printf("[%s] %s %s", level, msg, strings.Join(parts, " "))
}

func parseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Field constructors.

func String(key, val string) Field    { return Field{Key: key, Value: val} }
func Int(key string, val int) Field   { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field { return Field{Key: key, Value: val} }
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration renders a time.Duration field in its short string form
// (e.g. "250ms") rather than the raw nanosecond count.
func Duration(key string, val time.Duration) Field {
	return Field{Key: key, Value: val.String()}
}
