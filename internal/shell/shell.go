// Package shell wires the surface registry, the X11 tracker, the window
// manager and the workspace into one event-driven core. Every mutation runs
// on the shell loop's goroutine; transport events and external commands are
// funneled through the same channel pair so no entity is ever mutated
// concurrently.
package shell

import (
	"context"
	"log/slog"

	"github.com/roscale/veshell-prototype/internal/bus"
	"github.com/roscale/veshell-prototype/internal/pin"
	"github.com/roscale/veshell-prototype/internal/surface"
	"github.com/roscale/veshell-prototype/internal/wm"
	"github.com/roscale/veshell-prototype/internal/workspace"
	"github.com/roscale/veshell-prototype/internal/xwayland"
)

func New(b *bus.Bus, transport wm.Transport) *Shell {
	pins := pin.NewSet()
	reg := surface.NewRegistry()
	tracker := xwayland.NewTracker(reg, b, pins)
	manager := wm.NewManager(reg, transport, b)
	ws := workspace.New()

	s := &Shell{
		bus:       b,
		pins:      pins,
		reg:       reg,
		tracker:   tracker,
		manager:   manager,
		ws:        ws,
		eventC:    make(chan any, 64),
		dispatchC: make(chan func()),
		pending:   make(map[string][]string),
	}

	// X11 root windows surface into the shell as persistent windows, except
	// override-redirect ones (menus, tooltips) which bypass management.
	bus.Subscribe(b, "shell.x11-mapped", func(ctx context.Context, event xwayland.EventSurfaceMapped) error {
		s.onX11SurfaceMapped(ctx, event)
		return nil
	})

	return s
}

type Shell struct {
	bus     *bus.Bus
	pins    *pin.Set
	reg     *surface.Registry
	tracker *xwayland.Tracker
	manager *wm.Manager
	ws      *workspace.Workspace

	eventC    chan any
	dispatchC chan func()
	// pending tracks persistent windows waiting for their launched client's
	// first toplevel, keyed by app id.
	pending map[string][]string
}

func (s *Shell) String() string {
	return "shell"
}

// Serve runs the event loop until the context is done.
func (s *Shell) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-s.eventC:
			s.Handle(ctx, event)
		case fn := <-s.dispatchC:
			fn()
		}
	}
}

// Submit queues a transport event for the shell loop.
func (s *Shell) Submit(event any) {
	s.eventC <- event
}

// Dispatch runs fn on the shell loop and waits for it, giving external
// callers (the HTTP API) serialized access to state.
func (s *Shell) Dispatch(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.dispatchC <- func() {
		fn()
		close(done)
	}:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (s *Shell) Registry() *surface.Registry     { return s.reg }
func (s *Shell) Tracker() *xwayland.Tracker      { return s.tracker }
func (s *Shell) Manager() *wm.Manager            { return s.manager }
func (s *Shell) Workspace() *workspace.Workspace { return s.ws }
func (s *Shell) Pins() *pin.Set                  { return s.pins }

// Handle applies one transport event. A misbehaving client must not bring
// the shell down, so precondition violations are logged and dropped.
func (s *Shell) Handle(ctx context.Context, event any) {
	var err error
	switch ev := event.(type) {
	case EventSurfaceCreated:
		err = s.reg.Add(ev.Surface)
	case EventSurfaceDestroyed:
		s.onSurfaceDestroyed(ev.Surface)
	case EventDrawableAttached:
		err = s.reg.AttachTexture(ev.Surface, ev.Handle)
	case EventDrawableDetached:
		err = s.reg.DetachTexture(ev.Surface)
	case EventToplevelCreated:
		err = s.onToplevelCreated(ev)
	case EventDialogCreated:
		err = s.onDialogCreated(ev)
	case EventTitleChanged:
		err = s.onTitleChanged(ev)
	case EventAppIDChanged:
		err = s.onAppIDChanged(ev)
	case EventXWindowCreated:
		if err = s.tracker.Initialize(ev.Window); err == nil {
			err = s.tracker.SetGeometry(ev.Window, ev.Geometry)
		}
	case EventXWindowMapped:
		err = s.tracker.Map(ev.Window, ev.Map)
	case EventXWindowConfigured:
		err = s.tracker.SetGeometry(ev.Window, ev.Geometry)
	case EventXWindowReparented:
		err = s.tracker.Reparent(ev.Window, ev.Parent)
	case EventXWindowUnmapped:
		err = s.tracker.Unmap(ev.Window)
	case EventXWindowDestroyed:
		s.tracker.Dispose(ev.Window)
	case EventClientRequestedClose:
		err = s.onClientRequestedClose(ctx, ev)
	case EventLaunchSucceeded:
		s.onLaunchSucceeded(ev)
	default:
		slog.Warn("Unknown transport event", "package", "shell", "event", event)
	}

	if err != nil {
		slog.Error("Rejected transport event", "package", "shell", "event", event, "error", err)
	}
}

func (s *Shell) onSurfaceDestroyed(id surface.ID) {
	// An X11 window bound to this surface unmaps first so its subscription
	// and reverse index never dangle.
	if wid, ok := s.tracker.WindowBySurface(id); ok {
		if err := s.tracker.Unmap(wid); err != nil {
			slog.Error("Failed to unmap X11 window of destroyed surface", "window", wid, "error", err)
		}
	}
	s.manager.SurfaceDestroyed(id)
	if err := s.reg.Remove(id); err != nil {
		slog.Error("Failed to remove surface", "surface", id, "error", err)
	}
}

func (s *Shell) onToplevelCreated(ev EventToplevelCreated) error {
	if err := s.reg.AssignRole(ev.Surface, surface.RoleToplevel); err != nil {
		return err
	}

	windowID, ok := s.takePending(ev.AppID)
	if !ok {
		// A client not launched through the shell still gets a window slot.
		windowID = s.manager.CreatePersistentWindow(ev.AppID)
		s.ws.AddWindow(windowID)
		s.publishWorkspace()
	}

	if err := s.manager.AttachSurface(windowID, ev.Surface); err != nil {
		return err
	}
	if ev.Title != "" {
		return s.manager.SetTitle(windowID, ev.Title)
	}
	return nil
}

func (s *Shell) onDialogCreated(ev EventDialogCreated) error {
	parentID, ok := s.manager.WindowBySurface(ev.ParentSurface)
	if !ok {
		return wm.ErrNotFound
	}
	_, err := s.manager.CreateDialog(parentID, ev.Surface)
	return err
}

func (s *Shell) onTitleChanged(ev EventTitleChanged) error {
	windowID, ok := s.manager.WindowBySurface(ev.Surface)
	if !ok {
		return wm.ErrNotFound
	}
	return s.manager.SetTitle(windowID, ev.Title)
}

func (s *Shell) onAppIDChanged(ev EventAppIDChanged) error {
	windowID, ok := s.manager.WindowBySurface(ev.Surface)
	if !ok {
		return wm.ErrNotFound
	}
	return s.manager.SetAppID(windowID, ev.AppID)
}

func (s *Shell) onClientRequestedClose(ctx context.Context, ev EventClientRequestedClose) error {
	windowID, ok := s.manager.WindowBySurface(ev.Surface)
	if !ok {
		return wm.ErrNotFound
	}
	return s.manager.CloseWindow(ctx, windowID)
}

func (s *Shell) onLaunchSucceeded(ev EventLaunchSucceeded) {
	windowID := s.manager.CreatePersistentWindow(ev.AppID)
	s.pending[ev.AppID] = append(s.pending[ev.AppID], windowID)
	s.ws.AddWindow(windowID)
	s.publishWorkspace()
}

func (s *Shell) takePending(appID string) (string, bool) {
	queue := s.pending[appID]
	if len(queue) == 0 {
		return "", false
	}
	windowID := queue[0]
	if len(queue) == 1 {
		delete(s.pending, appID)
	} else {
		s.pending[appID] = queue[1:]
	}
	return windowID, true
}

func (s *Shell) onX11SurfaceMapped(ctx context.Context, event xwayland.EventSurfaceMapped) {
	info, err := s.tracker.Window(event.Window)
	if err != nil {
		slog.Error("Mapped X11 window vanished", "window", event.Window, "error", err)
		return
	}
	if info.OverrideRedirect {
		return
	}
	if _, ok := s.manager.WindowBySurface(event.Surface); ok {
		return
	}

	windowID := s.manager.CreatePersistentWindow(info.Class)
	if err := s.manager.AttachSurface(windowID, event.Surface); err != nil {
		slog.Error("Failed to attach X11 surface", "window", windowID, "surface", event.Surface, "error", err)
		return
	}
	if info.Title != "" {
		_ = s.manager.SetTitle(windowID, info.Title)
	}
	s.ws.AddWindow(windowID)
	s.publishWorkspace()
}

func (s *Shell) publishWorkspace() {
	start, end := s.ws.VisibleRange()
	bus.Publish(s.bus, EventWorkspaceChanged{
		Focused:      s.ws.FocusedIndex(),
		VisibleStart: start,
		VisibleEnd:   end,
		Tiles:        s.ws.Len(),
	})
}

// Workspace commands used by the HTTP API, run via Dispatch.

func (s *Shell) SetFocusedIndex(i int) error {
	if err := s.ws.SetFocusedIndex(i); err != nil {
		return err
	}
	s.publishWorkspace()
	return nil
}

func (s *Shell) MoveFocus(right bool) {
	if right {
		s.ws.MoveFocusRight()
	} else {
		s.ws.MoveFocusLeft()
	}
	s.publishWorkspace()
}

func (s *Shell) SetVisibleLength(n int) {
	s.ws.SetVisibleLength(n)
	s.publishWorkspace()
}

func (s *Shell) CloseFocused(ctx context.Context) error {
	if err := s.ws.CloseFocused(ctx, s.manager); err != nil {
		return err
	}
	s.publishWorkspace()
	return nil
}
