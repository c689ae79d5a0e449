package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// DualLogger writes to stdout and, when a path is given, to an append-only file.
type DualLogger struct {
	Logger *slog.Logger
	file   *os.File
}

// New falls back to stdout only if the file cannot be opened; the failure
// is logged rather than returned.
func New(path, level string) *DualLogger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if path == "" {
		return &DualLogger{Logger: slog.New(slog.NewTextHandler(os.Stdout, opts))}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l := slog.New(slog.NewTextHandler(os.Stdout, opts))
		l.Error("failed to open log file", "path", path, "err", err)
		return &DualLogger{Logger: l}
	}
	mw := io.MultiWriter(os.Stdout, f)
	l := slog.New(slog.NewTextHandler(mw, opts))
	l.Info("logger initialized", "file", path)
	return &DualLogger{Logger: l, file: f}
}

func (d *DualLogger) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
