// Package logging provides a small leveled wrapper over the standard
// library logger so core packages never reach for fmt.Printf directly.
package logging

import (
	"log"
	"os"
)

// Level is a minimum-severity threshold.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
	// Silent disables all output.
	Silent
)

// ParseLevel maps a config string ("DEBUG"/"INFO"/"WARN"/"ERROR") to a Level,
// defaulting to Info for anything unrecognized.
func ParseLevel(s string) Level {
	switch s {
	case "DEBUG":
		return Debug
	case "INFO":
		return Info
	case "WARN":
		return Warn
	case "ERROR":
		return Error
	default:
		return Info
	}
}

// Logger is a named, leveled logger created with New. The zero value has no
// output logger and is not usable.
type Logger struct {
	name  string
	level Level
	std   *log.Logger
}

// defaultLevel is the level new loggers start at; SetDefaultLevel adjusts it
// for loggers created afterward (SetLevel adjusts an existing one directly).
var defaultLevel = Info

// SetDefaultLevel changes the level future New loggers start at. Call it
// once, early, from Config.Debug.LogLevel before constructing components.
func SetDefaultLevel(level Level) {
	defaultLevel = level
}

// New creates a Logger with the given category name, logging to stderr.
func New(name string) *Logger {
	return &Logger{
		name:  name,
		level: defaultLevel,
		std:   log.New(os.Stderr, "", log.LstdFlags),
	}
}

// SetLevel adjusts the minimum severity this logger emits.
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

func (l *Logger) logf(level Level, tag, format string, args ...any) {
	if level < l.level {
		return
	}
	l.std.Printf("["+tag+"] "+l.name+": "+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(Debug, "DEBUG", format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(Info, "INFO", format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(Warn, "WARN", format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(Error, "ERROR", format, args...) }
