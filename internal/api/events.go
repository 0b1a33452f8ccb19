package api

import (
	"context"
	"log/slog"
	"net/http"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/roscale/veshell-prototype/internal/bus"
	"github.com/roscale/veshell-prototype/internal/shell"
	"github.com/roscale/veshell-prototype/internal/wm"
	"github.com/roscale/veshell-prototype/internal/xwayland"
)

// Event is the envelope streamed over the events websocket.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// newEventHub bridges the bus events the presentation layer cares about into
// a single fan-out hub.
func newEventHub(b *bus.Bus) *bus.Hub[Event] {
	hub := bus.NewHub[Event]()

	bus.Subscribe(b, "api.events", func(ctx context.Context, event xwayland.EventSurfaceMapped) error {
		return hub.Broadcast(ctx, Event{Type: "x11_surface_mapped", Data: event})
	})
	bus.Subscribe(b, "api.events", func(ctx context.Context, event xwayland.EventSurfaceUnmapped) error {
		return hub.Broadcast(ctx, Event{Type: "x11_surface_unmapped", Data: event})
	})
	bus.Subscribe(b, "api.events", func(ctx context.Context, event wm.EventWindowCreated) error {
		return hub.Broadcast(ctx, Event{Type: "window_created", Data: event})
	})
	bus.Subscribe(b, "api.events", func(ctx context.Context, event wm.EventWindowClosed) error {
		return hub.Broadcast(ctx, Event{Type: "window_closed", Data: event})
	})
	bus.Subscribe(b, "api.events", func(ctx context.Context, event wm.EventWindowTitleChanged) error {
		return hub.Broadcast(ctx, Event{Type: "window_title_changed", Data: event})
	})
	bus.Subscribe(b, "api.events", func(ctx context.Context, event shell.EventWorkspaceChanged) error {
		return hub.Broadcast(ctx, Event{Type: "workspace_changed", Data: event})
	})

	return hub
}

func (srv *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Error("Failed to accept websocket", "package", "api", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	ctx := r.Context()
	eventC, cancel := srv.hub.Subscribe(ctx)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case event := <-eventC:
			if err := wsjson.Write(ctx, conn, event); err != nil {
				return
			}
		}
	}
}
