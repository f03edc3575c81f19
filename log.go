package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"

	"github.com/dgnsrekt/parley/internal/config"
)

// logFile is the open log file, set by setupLog.
var logFile io.Writer = io.Discard

func getLogFilePath() (string, error) {
	if p := os.Getenv("PARLEY_LOG_FILE"); p != "" {
		return config.ExpandPath(p), nil
	}
	dir, err := gap.NewScope(gap.User, "parley").CacheDir()
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return filepath.Join(dir, "parley.log"), nil
}

func setupLog() (func() error, error) {
	path, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}
	logFile = f
	log.SetOutput(f)
	log.SetLevel(log.InfoLevel)
	return f.Close, nil
}

// parseLogLevel maps a log_level setting to a level. "none" disables
// logging.
func parseLogLevel(name string) (log.Level, bool, error) {
	if strings.EqualFold(name, "none") {
		return log.FatalLevel, false, nil
	}
	level, err := log.ParseLevel(strings.ToLower(name))
	if err != nil {
		return 0, false, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, true, nil
}

// configureLog applies the configured level. With tee set, records also go
// to stderr.
func configureLog(name string, tee bool) error {
	level, enabled, err := parseLogLevel(name)
	if err != nil {
		return err
	}
	if tee {
		level = min(level, log.DebugLevel)
		enabled = true
	}

	switch {
	case !enabled:
		log.SetOutput(io.Discard)
	case tee:
		log.SetOutput(io.MultiWriter(logFile, os.Stderr))
	default:
		log.SetOutput(logFile)
	}
	log.SetLevel(level)
	return nil
}
