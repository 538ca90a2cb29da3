package debug

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Output logs a formatted debug message if debugging is enabled
func Output(logger *slog.Logger, enabled bool, format string, args ...any) {
	if !enabled {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug(fmt.Sprintf(format, args...))
}

// Timing measures and logs execution time if debugging is enabled. Call the
// returned func when the operation completes.
func Timing(logger *slog.Logger, enabled bool, operation string) func() {
	if !enabled {
		return func() {}
	}
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	logger.Debug("starting", "operation", operation)

	return func() {
		logger.Debug("completed", "operation", operation, "duration", time.Since(start))
	}
}

// NewLogger returns a text logger at debug level when enabled, info otherwise.
func NewLogger(enabled bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if enabled {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
