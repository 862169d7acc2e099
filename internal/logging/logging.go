// Package logging owns the process logger shared by the CLI and the staging components.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	debug   bool
	quiet   bool
	noColor bool
	out     io.Writer = os.Stderr
)

// SetDebug enables or disables debug level output.
func SetDebug(enable bool) {
	mu.Lock()
	defer mu.Unlock()
	debug = enable
}

// IsDebug returns whether debug mode is enabled.
func IsDebug() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debug
}

// SetQuiet restricts output to warnings and errors. Debug wins over quiet.
func SetQuiet(enable bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = enable
}

// SetNoColor enables or disables colored output.
func SetNoColor(disable bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = disable
}

// SetOutput redirects log output. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// Level returns the level implied by the current flags.
func Level() zerolog.Level {
	mu.RLock()
	defer mu.RUnlock()
	return level()
}

func level() zerolog.Level {
	switch {
	case debug:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger builds a console logger from the current settings.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	console := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: "15:04:05.000",
	}
	return zerolog.New(console).
		Level(level()).
		With().
		Timestamp().
		Logger()
}

// Debug prints a formatted debug message through a fresh logger.
func Debug(format string, args ...interface{}) {
	if !IsDebug() {
		return
	}
	l := Logger()
	l.Debug().Msg(fmt.Sprintf(format, args...))
}

// DebugSection prints a section header at debug level.
func DebugSection(section string) {
	Debug("=== %s ===", section)
}

// Elapsed logs the time since start at debug level.
func Elapsed(l zerolog.Logger, what string, start time.Time) {
	l.Debug().Str("op", what).Dur("elapsed", time.Since(start)).Msg("done")
}
