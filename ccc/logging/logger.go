package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is the logging interface used throughout the vault. Callers must
// never pass plaintext document content or key material as arguments.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// rotatingWriter writes to a new log file each day.
type rotatingWriter struct {
	logDir   string
	baseName string
	file     *os.File
	fileDate string
	mu       sync.Mutex
}

func newRotatingWriter(logDir, baseName string) *rotatingWriter {
	return &rotatingWriter{
		logDir:   logDir,
		baseName: baseName,
	}
}

// Write implements io.Writer.
func (w *rotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// log files are named by local date
	date := time.Now().Format("2006-01-02")

	if w.file == nil || w.fileDate != date {
		if err := w.rotate(date); err != nil {
			return 0, err
		}
	}

	return w.file.Write(p)
}

func (w *rotatingWriter) rotate(date string) error {
	if w.file != nil {
		w.file.Close()
	}

	name := fmt.Sprintf("%s-%s.log", w.baseName, date)
	path := filepath.Join(w.logDir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	w.file = file
	w.fileDate = date
	return nil
}

// Close closes the currently open log file.
func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// CreateLogger creates a logger that writes JSON lines to daily rotating
// files under logDir. If the directory cannot be created, it falls back to
// stdout so the service still starts.
func CreateLogger(logLevel LogLevel, logDir string, serviceName string) Logger {

	var level slog.Level
	switch logLevel {
	case LogLevelDebug:
		level = slog.LevelDebug
	case LogLevelInfo:
		level = slog.LevelInfo
	case LogLevelWarn:
		level = slog.LevelWarn
	case LogLevelError:
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)).With("service", serviceName)
	}

	writer := newRotatingWriter(logDir, serviceName)

	return slog.New(slog.NewJSONHandler(writer, opts)).With("service", serviceName)
}

// nopLogger is a no-operation logger that implements the Logger interface.
type nopLogger struct{}

// NopLogger is a singleton Logger that performs no operations. Services fall
// back to it when constructed without a logger.
var NopLogger Logger = &nopLogger{}

func (l *nopLogger) Info(msg string, args ...any)  {}
func (l *nopLogger) Warn(msg string, args ...any)  {}
func (l *nopLogger) Error(msg string, args ...any) {}
func (l *nopLogger) Debug(msg string, args ...any) {}
