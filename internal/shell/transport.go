package shell

import (
	"context"
	"log/slog"

	"github.com/roscale/veshell-prototype/internal/surface"
)

// LogTransport is a development stand-in for the wire transport. It logs
// every command instead of signaling a client.
type LogTransport struct{}

func (LogTransport) RequestResize(ctx context.Context, id surface.ID, width, height uint32) error {
	slog.Info("Resize request", "surface", id, "width", width, "height", height)
	return nil
}

func (LogTransport) RequestClose(ctx context.Context, id surface.ID) error {
	slog.Info("Close request", "surface", id)
	return nil
}
