package logging

import (
	"log/slog"
	"os"
)

// Setup installs the process-wide logger: JSON to stdout, fanned out to any
// extra handlers via MultiHandler. Called once at boot, and again after the
// database is up to add the error-log sink.
func Setup(extra ...slog.Handler) {
	stdout := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	if len(extra) == 0 {
		slog.SetDefault(slog.New(stdout))
		return
	}

	handlers := append([]slog.Handler{stdout}, extra...)
	slog.SetDefault(slog.New(NewMultiHandler(handlers...)))
}
