package shell

import (
	"context"
	"fmt"
	"testing"

	"github.com/roscale/veshell-prototype/internal/bus"
	"github.com/roscale/veshell-prototype/internal/surface"
	"github.com/roscale/veshell-prototype/internal/wm"
	"github.com/roscale/veshell-prototype/internal/workspace"
	"github.com/roscale/veshell-prototype/internal/xwayland"
)

type recordingTransport struct {
	requests []string
}

func (t *recordingTransport) RequestResize(_ context.Context, id surface.ID, width, height uint32) error {
	t.requests = append(t.requests, fmt.Sprintf("resize %d %dx%d", id, width, height))
	return nil
}

func (t *recordingTransport) RequestClose(_ context.Context, id surface.ID) error {
	t.requests = append(t.requests, fmt.Sprintf("close %d", id))
	return nil
}

type fixture struct {
	shell     *Shell
	bus       *bus.Bus
	transport *recordingTransport
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := bus.New()
	transport := &recordingTransport{}
	return &fixture{
		shell:     New(b, transport),
		bus:       b,
		transport: transport,
	}
}

func (f *fixture) apply(events ...any) {
	ctx := context.Background()
	for _, event := range events {
		f.shell.Handle(ctx, event)
	}
}

// The launch-to-close round trip: a launch reserves a workspace tile, the
// client's first toplevel binds to it, closing the tile asks the client to
// quit, and the window slot outlives the surface.
func TestLaunchBindCloseRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.apply(EventLaunchSucceeded{AppID: "org.gnome.Terminal"})

	ws := f.shell.Workspace()
	if ws.Len() != 2 {
		t.Fatalf("Len() = %d, want tile + launcher", ws.Len())
	}
	tile := ws.Tiles()[0]
	if tile.Kind != workspace.EntryWindow {
		t.Fatalf("tiles[0] = %+v, want window", tile)
	}

	info, err := f.shell.Manager().Window(tile.Window)
	if err != nil {
		t.Fatalf("Window() error = %v", err)
	}
	if info.AppID != "org.gnome.Terminal" || info.Surface != nil {
		t.Fatalf("Window() = %+v, want pending org.gnome.Terminal", info)
	}

	// The client maps its first toplevel with a matching app id.
	f.apply(
		EventSurfaceCreated{Surface: 1},
		EventToplevelCreated{Surface: 1, AppID: "org.gnome.Terminal", Title: "bash"},
		EventDrawableAttached{Surface: 1, Handle: 7},
	)

	// Matched the pending window instead of creating a second tile.
	if ws.Len() != 2 {
		t.Fatalf("Len() = %d after bind, want 2", ws.Len())
	}
	info, _ = f.shell.Manager().Window(tile.Window)
	if info.Surface == nil || *info.Surface != 1 || info.Title != "bash" {
		t.Fatalf("Window() = %+v, want surface 1 title bash", info)
	}

	if err := ws.SetFocusedIndex(0); err != nil {
		t.Fatalf("SetFocusedIndex() error = %v", err)
	}
	if err := f.shell.CloseFocused(ctx); err != nil {
		t.Fatalf("CloseFocused() error = %v", err)
	}
	if len(f.transport.requests) != 1 || f.transport.requests[0] != "close 1" {
		t.Fatalf("requests = %v, want [close 1]", f.transport.requests)
	}
	if ws.Len() != 1 {
		t.Fatalf("Len() = %d after close, want launcher only", ws.Len())
	}

	// The client obliges and tears the surface down. The persistent window
	// slot stays behind, unbound.
	f.apply(EventSurfaceDestroyed{Surface: 1})
	info, err = f.shell.Manager().Window(tile.Window)
	if err != nil {
		t.Fatalf("Window() after destroy error = %v", err)
	}
	if info.Surface != nil {
		t.Fatalf("Surface = %v, want nil", *info.Surface)
	}
	if f.shell.Registry().Has(1) {
		t.Fatal("surface 1 still registered after destroy")
	}
}

func TestUnlaunchedToplevelGetsOwnTile(t *testing.T) {
	f := newFixture(t)

	f.apply(
		EventSurfaceCreated{Surface: 1},
		EventToplevelCreated{Surface: 1, AppID: "org.mozilla.firefox"},
	)

	ws := f.shell.Workspace()
	if ws.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ws.Len())
	}
	windowID, ok := f.shell.Manager().WindowBySurface(1)
	if !ok {
		t.Fatal("WindowBySurface() found nothing")
	}
	if ws.Tiles()[0].Window != windowID {
		t.Fatalf("tiles[0] = %+v, want %s", ws.Tiles()[0], windowID)
	}
}

func TestPendingWindowsMatchInLaunchOrder(t *testing.T) {
	f := newFixture(t)

	f.apply(
		EventLaunchSucceeded{AppID: "app"},
		EventLaunchSucceeded{AppID: "app"},
	)
	ws := f.shell.Workspace()
	first := ws.Tiles()[0].Window
	second := ws.Tiles()[1].Window

	f.apply(
		EventSurfaceCreated{Surface: 1},
		EventToplevelCreated{Surface: 1, AppID: "app"},
		EventSurfaceCreated{Surface: 2},
		EventToplevelCreated{Surface: 2, AppID: "app"},
	)

	if got, _ := f.shell.Manager().WindowBySurface(1); got != first {
		t.Fatalf("surface 1 bound to %s, want %s", got, first)
	}
	if got, _ := f.shell.Manager().WindowBySurface(2); got != second {
		t.Fatalf("surface 2 bound to %s, want %s", got, second)
	}
}

func TestDialogAttachesToParentWindow(t *testing.T) {
	f := newFixture(t)

	f.apply(
		EventSurfaceCreated{Surface: 1},
		EventToplevelCreated{Surface: 1, AppID: "app"},
		EventSurfaceCreated{Surface: 2},
		EventDialogCreated{Surface: 2, ParentSurface: 1},
	)

	parentID, _ := f.shell.Manager().WindowBySurface(1)
	dialogs := f.shell.Manager().Dialogs(parentID)
	if len(dialogs) != 1 {
		t.Fatalf("Dialogs() = %v, want one", dialogs)
	}

	// Dialogs never get workspace tiles.
	if got := f.shell.Workspace().Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	f.apply(EventSurfaceDestroyed{Surface: 2})
	if dialogs := f.shell.Manager().Dialogs(parentID); len(dialogs) != 0 {
		t.Fatalf("Dialogs() = %v after destroy, want none", dialogs)
	}
}

func TestTitleAndAppIDPropagation(t *testing.T) {
	f := newFixture(t)

	f.apply(
		EventSurfaceCreated{Surface: 1},
		EventToplevelCreated{Surface: 1, AppID: "app"},
		EventTitleChanged{Surface: 1, Title: "Document A"},
		EventAppIDChanged{Surface: 1, AppID: "app.renamed"},
	)

	windowID, _ := f.shell.Manager().WindowBySurface(1)
	info, _ := f.shell.Manager().Window(windowID)
	if info.Title != "Document A" || info.AppID != "app.renamed" {
		t.Fatalf("Window() = %+v", info)
	}
}

func TestClientRequestedClose(t *testing.T) {
	f := newFixture(t)

	f.apply(
		EventSurfaceCreated{Surface: 1},
		EventToplevelCreated{Surface: 1, AppID: "app"},
		EventClientRequestedClose{Surface: 1},
	)

	if len(f.transport.requests) != 1 || f.transport.requests[0] != "close 1" {
		t.Fatalf("requests = %v, want [close 1]", f.transport.requests)
	}
}

func TestX11RootWindowBecomesShellWindow(t *testing.T) {
	f := newFixture(t)

	f.apply(
		EventXWindowCreated{Window: 10},
		EventSurfaceCreated{Surface: 1},
		EventXWindowMapped{Window: 10, Map: xwayland.MapRequest{
			Surface: 1,
			Title:   "xterm",
			Class:   "XTerm",
		}},
		EventDrawableAttached{Surface: 1, Handle: 7},
	)

	windowID, ok := f.shell.Manager().WindowBySurface(1)
	if !ok {
		t.Fatal("mapped X11 surface has no shell window")
	}
	info, _ := f.shell.Manager().Window(windowID)
	if info.AppID != "XTerm" || info.Title != "xterm" {
		t.Fatalf("Window() = %+v, want XTerm/xterm", info)
	}
	if got := f.shell.Workspace().Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestOverrideRedirectX11WindowBypassesShell(t *testing.T) {
	f := newFixture(t)

	f.apply(
		EventXWindowCreated{Window: 10},
		EventSurfaceCreated{Surface: 1},
		EventXWindowMapped{Window: 10, Map: xwayland.MapRequest{
			Surface:          1,
			OverrideRedirect: true,
		}},
		EventDrawableAttached{Surface: 1, Handle: 7},
	)

	if _, ok := f.shell.Manager().WindowBySurface(1); ok {
		t.Fatal("override-redirect window got a shell window")
	}
	if got := f.shell.Workspace().Len(); got != 1 {
		t.Fatalf("Len() = %d, want launcher only", got)
	}
}

func TestSurfaceDestroyedUnmapsBoundX11Window(t *testing.T) {
	f := newFixture(t)

	f.apply(
		EventXWindowCreated{Window: 10},
		EventSurfaceCreated{Surface: 1},
		EventXWindowMapped{Window: 10, Map: xwayland.MapRequest{Surface: 1}},
		EventDrawableAttached{Surface: 1, Handle: 7},
		EventSurfaceDestroyed{Surface: 1},
	)

	mapped, err := f.shell.Tracker().Mapped(10)
	if err != nil {
		t.Fatalf("Mapped() error = %v", err)
	}
	if mapped {
		t.Fatal("window still mapped after its surface was destroyed")
	}
	if got := f.shell.Pins().Outstanding(); got != 0 {
		t.Fatalf("Outstanding() = %d, want 0: %v", got, f.shell.Pins().Held())
	}
}

func TestWorkspaceEventsPublished(t *testing.T) {
	f := newFixture(t)

	var events []EventWorkspaceChanged
	bus.Subscribe(f.bus, "test", func(_ context.Context, e EventWorkspaceChanged) error {
		events = append(events, e)
		return nil
	})

	f.apply(EventLaunchSucceeded{AppID: "app"})
	if len(events) != 1 {
		t.Fatalf("events = %v, want one", events)
	}
	if events[0].Tiles != 2 {
		t.Fatalf("Tiles = %d, want 2", events[0].Tiles)
	}

	f.shell.SetVisibleLength(2)
	if len(events) != 2 {
		t.Fatalf("events = %v, want two", events)
	}
	if events[1].VisibleStart != 0 || events[1].VisibleEnd != 2 {
		t.Fatalf("range = %d..%d, want 0..2", events[1].VisibleStart, events[1].VisibleEnd)
	}
}

func TestRejectedEventLeavesStateIntact(t *testing.T) {
	f := newFixture(t)

	f.apply(
		EventSurfaceCreated{Surface: 1},
		EventToplevelCreated{Surface: 1, AppID: "app"},
		// Second role assignment must be dropped, not crash the loop.
		EventToplevelCreated{Surface: 1, AppID: "other"},
	)

	if got := f.shell.Workspace().Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	windowID, _ := f.shell.Manager().WindowBySurface(1)
	info, _ := f.shell.Manager().Window(windowID)
	if info.AppID != "app" {
		t.Fatalf("AppID = %s, want app", info.AppID)
	}
}

var _ wm.Transport = (*recordingTransport)(nil)
