// Package logging provides the leveled logger shared by every component of
// assetsync. It is a thin layer over zerolog that keeps the printf-style
// call sites used throughout the code base.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

type Format int

const (
	FormatConsole Format = iota
	FormatJSON
)

type Config struct {
	Level  Level
	Format Format
	Output io.Writer // defaults to os.Stderr
}

type Logger struct {
	log zerolog.Logger
}

func NewLogger(c Config) *Logger {
	w := c.Output
	if w == nil {
		w = os.Stderr
	}
	if c.Format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	return &Logger{log: zerolog.New(w).Level(zerologLevel(c.Level)).With().Timestamp().Logger()}
}

// NewNoOpLogger returns a logger that discards everything. Used as the
// default by components constructed without a logger.
func NewNoOpLogger() *Logger {
	return &Logger{log: zerolog.Nop()}
}

// With returns a child logger that adds the key/value pair to every entry.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{log: l.log.With().Str(key, value).Logger()}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

// Enabled reports whether entries at the given level are emitted.
func (l *Logger) Enabled(level Level) bool {
	return l.log.GetLevel() <= zerologLevel(level)
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case Debug:
		return zerolog.DebugLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
