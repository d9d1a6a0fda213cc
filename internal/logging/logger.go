package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the global logger instance
	Logger *log.Logger

	// logFile is the file handle for the log file
	logFile *os.File

	// discard is handed out before Init so callers never hold a nil logger
	discard = log.New(io.Discard)
)

// Init initializes the logging system under dataDir/logs.
func Init(dataDir string, level log.Level) error {
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	// Create log file with date
	logFileName := fmt.Sprintf("realstream-%s.log", time.Now().Format("2006-01-02"))
	logPath := filepath.Join(logDir, logFileName)

	var err error
	logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	// The terminal belongs to the TUI, so everything goes to the file.
	Logger = log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})

	Logger.Info("RealStream started", "version", Version)
	return nil
}

// Version is stamped into the startup line.
var Version = "0.1.0"

// Close closes the log file
func Close() {
	if Logger != nil {
		Logger.Info("RealStream shutting down")
	}
	if logFile != nil {
		logFile.Close()
	}
}

// For returns a component logger with the given prefix.
// Before Init it returns a logger that discards everything.
func For(prefix string) *log.Logger {
	if Logger != nil {
		return Logger.WithPrefix(prefix)
	}
	return discard.WithPrefix(prefix)
}
