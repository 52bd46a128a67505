package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMultiHandlerFansOutByLevel(t *testing.T) {
	var all, errorsOnly bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&all, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errorsOnly, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	log := slog.New(h)
	log.Info("listing served")
	log.Error("upload failed")

	require.True(t, strings.Contains(all.String(), "listing served"))
	require.True(t, strings.Contains(all.String(), "upload failed"))

	// The stricter handler only sees records it is enabled for.
	require.False(t, strings.Contains(errorsOnly.String(), "listing served"))
	require.True(t, strings.Contains(errorsOnly.String(), "upload failed"))
}

func TestMultiHandlerEnabledIsAnyHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	require.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	require.True(t, h.Enabled(context.Background(), slog.LevelError))
}
