// Package wm owns logical windows: persistent application windows that
// survive their surface closing, and transient dialogs tied to a parent
// window. It binds windows to surfaces and turns window-level operations
// into close/resize requests against the transport layer.
package wm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roscale/veshell-prototype/internal/bus"
	"github.com/roscale/veshell-prototype/internal/surface"
)

var (
	ErrNotFound        = errors.New("wm: window not found")
	ErrSurfaceAttached = errors.New("wm: window already has a surface")
	ErrSurfaceInUse    = errors.New("wm: surface already attached to another window")
)

type Kind uint8

const (
	KindPersistent Kind = iota
	KindDialog
)

func (k Kind) String() string {
	if k == KindDialog {
		return "dialog"
	}
	return "persistent"
}

// Transport is the protocol layer that turns our commands into client
// signals. Requests are fire-and-forget; nothing here blocks on the client
// acknowledging them.
type Transport interface {
	RequestResize(ctx context.Context, id surface.ID, width, height uint32) error
	RequestClose(ctx context.Context, id surface.ID) error
}

type EventWindowCreated struct {
	Window string
	AppID  string
	Kind   Kind
}

type EventWindowClosed struct {
	Window string
	Kind   Kind
}

type EventWindowTitleChanged struct {
	Window string
	Title  string
}

func NewManager(reg *surface.Registry, transport Transport, b *bus.Bus) *Manager {
	return &Manager{
		reg:       reg,
		transport: transport,
		bus:       b,
		windows:   make(map[string]*window),
		bySurface: make(map[surface.ID]string),
		dialogs:   make(map[string]map[string]struct{}),
	}
}

type Manager struct {
	reg       *surface.Registry
	transport Transport
	bus       *bus.Bus

	windows   map[string]*window
	bySurface map[surface.ID]string
	// dialogs is a derived index from parent window id to attached dialog
	// ids, maintained on dialog creation/destruction only.
	dialogs map[string]map[string]struct{}
}

type window struct {
	id         string
	kind       Kind
	appID      string
	title      string
	surface    surface.ID
	hasSurface bool
	parent     string
}

// CreatePersistentWindow registers an application window with no surface yet.
// The surface arrives asynchronously once the launched client maps its first
// toplevel.
func (m *Manager) CreatePersistentWindow(appID string) string {
	id := uuid.NewString()
	m.windows[id] = &window{
		id:    id,
		kind:  KindPersistent,
		appID: appID,
	}
	bus.Publish(m.bus, EventWindowCreated{Window: id, AppID: appID, Kind: KindPersistent})
	return id
}

// CreateDialog registers a transient window attached to a parent window and
// binds it to its surface immediately.
func (m *Manager) CreateDialog(parentID string, surfaceID surface.ID) (string, error) {
	parent, ok := m.windows[parentID]
	if !ok {
		return "", fmt.Errorf("%w: parent %s", ErrNotFound, parentID)
	}
	if bound, ok := m.bySurface[surfaceID]; ok {
		return "", fmt.Errorf("%w: surface %d on %s", ErrSurfaceInUse, surfaceID, bound)
	}

	id := uuid.NewString()
	m.windows[id] = &window{
		id:         id,
		kind:       KindDialog,
		appID:      parent.appID,
		surface:    surfaceID,
		hasSurface: true,
		parent:     parentID,
	}
	m.bySurface[surfaceID] = id

	set, ok := m.dialogs[parentID]
	if !ok {
		set = make(map[string]struct{})
		m.dialogs[parentID] = set
	}
	set[id] = struct{}{}

	bus.Publish(m.bus, EventWindowCreated{Window: id, AppID: parent.appID, Kind: KindDialog})
	return id, nil
}

// AttachSurface binds a surface to a window that has none.
func (m *Manager) AttachSurface(windowID string, surfaceID surface.ID) error {
	w, ok := m.windows[windowID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, windowID)
	}
	if w.hasSurface {
		return fmt.Errorf("%w: %s has surface %d", ErrSurfaceAttached, windowID, w.surface)
	}
	if bound, ok := m.bySurface[surfaceID]; ok {
		return fmt.Errorf("%w: surface %d on %s", ErrSurfaceInUse, surfaceID, bound)
	}
	w.surface = surfaceID
	w.hasSurface = true
	m.bySurface[surfaceID] = windowID
	return nil
}

// CloseWindow issues a close request for the bound surface. A persistent
// window keeps its logical slot pending relaunch; a dialog is removed
// entirely.
func (m *Manager) CloseWindow(ctx context.Context, windowID string) error {
	w, ok := m.windows[windowID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, windowID)
	}

	if w.hasSurface {
		if err := m.transport.RequestClose(ctx, w.surface); err != nil {
			return fmt.Errorf("close request for surface %d: %w", w.surface, err)
		}
	}

	if w.kind == KindDialog {
		m.remove(w)
	}
	return nil
}

// ResizeWindow issues a resize request if a surface is bound. A window with
// no surface yet is legitimate, not an error.
func (m *Manager) ResizeWindow(ctx context.Context, windowID string, width, height uint32) error {
	w, ok := m.windows[windowID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, windowID)
	}
	if !w.hasSurface {
		return nil
	}
	if err := m.transport.RequestResize(ctx, w.surface, width, height); err != nil {
		return fmt.Errorf("resize request for surface %d: %w", w.surface, err)
	}
	return nil
}

// SurfaceDestroyed reacts to the client releasing a bound surface: a
// persistent window drops the binding and stays, a dialog is destroyed.
func (m *Manager) SurfaceDestroyed(surfaceID surface.ID) {
	windowID, ok := m.bySurface[surfaceID]
	if !ok {
		return
	}
	w := m.windows[windowID]

	if w.kind == KindDialog {
		m.remove(w)
		return
	}

	delete(m.bySurface, surfaceID)
	w.surface = 0
	w.hasSurface = false
}

func (m *Manager) remove(w *window) {
	if w.hasSurface {
		delete(m.bySurface, w.surface)
	}
	if w.kind == KindDialog {
		if set, ok := m.dialogs[w.parent]; ok {
			delete(set, w.id)
			if len(set) == 0 {
				delete(m.dialogs, w.parent)
			}
		}
	}
	delete(m.windows, w.id)
	bus.Publish(m.bus, EventWindowClosed{Window: w.id, Kind: w.kind})
}

func (m *Manager) SetTitle(windowID, title string) error {
	w, ok := m.windows[windowID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, windowID)
	}
	w.title = title
	bus.Publish(m.bus, EventWindowTitleChanged{Window: windowID, Title: title})
	return nil
}

func (m *Manager) SetAppID(windowID, appID string) error {
	w, ok := m.windows[windowID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, windowID)
	}
	w.appID = appID
	return nil
}
