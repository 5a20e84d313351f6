// Package telemetry provides the migration engine's ambient
// observability: a leveled logger matching the teacher's terse,
// prefix-tagged logging style, and an optional Prometheus metrics
// endpoint exposed for the duration of a run.
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package telemetry

import (
	"fmt"
	"log"
	"os"
)

// Level gates verbosity, mirroring the teacher's FastV/verbose-flag
// style rather than a full structured-logging library — this tool is a
// short-lived CLI process, not a daemon, so a leveled wrapper over the
// standard logger is the simplest thing that fits.
type Level int

const (
	LevelInfo Level = iota
	LevelVerbose
)

// Logger is a small wrapper around *log.Logger with a run-wide verbosity
// gate. Safe for concurrent use (the underlying *log.Logger already is).
type Logger struct {
	level Level
	std   *log.Logger
}

// New returns a Logger writing to stderr with the standard date/time
// prefix, at the given level.
func New(level Level) *Logger {
	return &Logger{level: level, std: log.New(os.Stderr, "", log.LstdFlags)}
}

// Infof logs unconditionally.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.std.Output(2, fmt.Sprintf(format, args...))
}

// Verbose reports whether the logger is at LevelVerbose, letting a
// caller skip building an expensive diagnostic payload (e.g. a checksum
// pass over a staged file) that Verbosef would otherwise discard.
func (l *Logger) Verbose() bool { return l.level >= LevelVerbose }

// Verbosef logs only when the logger was constructed with LevelVerbose.
func (l *Logger) Verbosef(format string, args ...interface{}) {
	if l.level < LevelVerbose {
		return
	}
	l.std.Output(2, fmt.Sprintf(format, args...))
}

// Warnf logs a warning unconditionally, tagged so it's greppable out of
// an otherwise verbose audit stream.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.std.Output(2, "WARNING "+fmt.Sprintf(format, args...))
}

// Errorf logs an error unconditionally, tagged the same way.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.std.Output(2, "ERROR "+fmt.Sprintf(format, args...))
}
