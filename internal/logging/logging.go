// Package logging builds the zerolog loggers used across the tool.
//
// Every logger writes to the diagnostic stream handed in by the caller, never
// to the result stream. Components tag their events with a "component" field.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// EnvLevel is the environment variable that overrides the configured log level.
const EnvLevel = "SYMSEG_LOG_LEVEL"

// DefaultLevel is used when no level is configured.
const DefaultLevel = zerolog.WarnLevel

// Output formats accepted by NewFormat.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// ParseLevel converts a level name (debug, info, warn, error, disabled) into a
// zerolog level. The empty string selects DefaultLevel.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off", "none":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q (want debug, info, warn, error or disabled)", s)
}

// New returns a JSON logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewConsole returns a human-readable logger writing to w at the given level.
func NewConsole(w io.Writer, level zerolog.Level) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: w, NoColor: true}, level)
}

// ParseFormat normalizes a format name. The empty string selects FormatJSON.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatConsole:
		return f, nil
	}
	return "", fmt.Errorf("unknown log format %q (want %s or %s)", s, FormatJSON, FormatConsole)
}

// NewFormat returns a logger writing to w in the named format.
func NewFormat(w io.Writer, format string, level zerolog.Level) (zerolog.Logger, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return zerolog.Nop(), err
	}
	if f == FormatConsole {
		return NewConsole(w, level), nil
	}
	return New(w, level), nil
}

// Component returns a child of l that tags every event with component.
func Component(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}

// Collaborator returns the logger handed to an external collaborator such as a
// classifier backend.
//
// Collaborators are chatty, so their events are limited to errors unless l is
// already at debug level or below. Silencing is confined to the returned
// logger; l itself is unchanged.
func Collaborator(l zerolog.Logger, component string) zerolog.Logger {
	scoped := Component(l, component)
	if l.GetLevel() <= zerolog.DebugLevel {
		return scoped
	}
	if l.GetLevel() < zerolog.ErrorLevel {
		return scoped.Level(zerolog.ErrorLevel)
	}
	return scoped
}
