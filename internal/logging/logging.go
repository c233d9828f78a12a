// Package logging configures the zerolog file logger. The TUI owns the
// terminal, so logs always go to a file, never to stdout.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Open creates a file-backed logger at the given level. The returned close
// function flushes and closes the underlying file.
func Open(path, level string) (zerolog.Logger, func(), error) {
	if path == "" {
		var err error
		path, err = DefaultLogPath()
		if err != nil {
			return zerolog.Nop(), func() {}, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), func() {}, fmt.Errorf("open log file: %w", err)
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	log := zerolog.New(f).Level(lvl).With().Timestamp().Logger()
	return log, func() { f.Close() }, nil
}

// DefaultLogPath resolves the log file location under the state directory.
func DefaultLogPath() (string, error) {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "quizdeck", "quizdeck.log"), nil
}
