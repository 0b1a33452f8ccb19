package shell

import (
	"github.com/jezek/xgb/xproto"

	"github.com/roscale/veshell-prototype/internal/surface"
	"github.com/roscale/veshell-prototype/internal/xwayland"
)

// Inbound events from the protocol/transport layer. The transport submits
// them with Shell.Submit; the shell loop applies them one at a time.

type EventSurfaceCreated struct {
	Surface surface.ID
}

type EventSurfaceDestroyed struct {
	Surface surface.ID
}

type EventDrawableAttached struct {
	Surface surface.ID
	Handle  surface.Handle
}

type EventDrawableDetached struct {
	Surface surface.ID
}

// EventToplevelCreated announces a Wayland surface that took the toplevel
// role. AppID is matched against windows waiting for their launched client.
type EventToplevelCreated struct {
	Surface surface.ID
	AppID   string
	Title   string
}

// EventDialogCreated announces a surface that declared itself transient-for
// another surface's window.
type EventDialogCreated struct {
	Surface       surface.ID
	ParentSurface surface.ID
}

type EventTitleChanged struct {
	Surface surface.ID
	Title   string
}

type EventAppIDChanged struct {
	Surface surface.ID
	AppID   string
}

type EventXWindowCreated struct {
	Window   xproto.Window
	Geometry xwayland.Geometry
}

type EventXWindowMapped struct {
	Window xproto.Window
	Map    xwayland.MapRequest
}

type EventXWindowConfigured struct {
	Window   xproto.Window
	Geometry xwayland.Geometry
}

type EventXWindowReparented struct {
	Window xproto.Window
	Parent *xproto.Window
}

type EventXWindowUnmapped struct {
	Window xproto.Window
}

type EventXWindowDestroyed struct {
	Window xproto.Window
}

type EventClientRequestedClose struct {
	Surface surface.ID
}

// EventLaunchSucceeded comes from the application-launch collaborator once a
// desktop entry has been spawned.
type EventLaunchSucceeded struct {
	AppID string
}

// EventWorkspaceChanged is published on the bus after any mutation of the
// tile list, focus or visible length, for streaming consumers.
type EventWorkspaceChanged struct {
	Focused      int
	VisibleStart int
	VisibleEnd   int
	Tiles        int
}
