// Package xwayland tracks X11 windows living on top of the surface registry.
// Windows form a tree through parent/children ids; a window is mapped iff it
// is bound to a surface that currently has a texture handle. Only root-level
// windows emit global mapped/unmapped events, child windows are carried
// visually by their ancestor.
package xwayland

import (
	"errors"
	"fmt"

	"github.com/jezek/xgb/xproto"

	"github.com/roscale/veshell-prototype/internal/bus"
	"github.com/roscale/veshell-prototype/internal/pin"
	"github.com/roscale/veshell-prototype/internal/surface"
)

var (
	ErrNotInitialized     = errors.New("xwayland: window not initialized")
	ErrAlreadyInitialized = errors.New("xwayland: window already initialized")
	ErrAlreadyMapped      = errors.New("xwayland: window already mapped")
	ErrNotMapped          = errors.New("xwayland: window not mapped")
	ErrSurfaceBound       = errors.New("xwayland: surface already bound to another window")
	ErrCycle              = errors.New("xwayland: reparent would create a cycle")
)

type Geometry struct {
	X      int16
	Y      int16
	Width  uint16
	Height uint16
}

// EventSurfaceMapped fires when a root-level window gains a drawable surface.
type EventSurfaceMapped struct {
	Window  xproto.Window
	Surface surface.ID
}

// EventSurfaceUnmapped fires when a root-level window loses its drawable
// surface, including through unmap and disposal.
type EventSurfaceUnmapped struct {
	Window  xproto.Window
	Surface surface.ID
}

// MapRequest carries everything XWayland tells us when a window is mapped.
type MapRequest struct {
	Surface          surface.ID
	OverrideRedirect bool
	Geometry         Geometry
	Parent           *xproto.Window
	Title            string
	Class            string
	Instance         string
	StartupID        string
}

func NewTracker(reg *surface.Registry, b *bus.Bus, pins *pin.Set) *Tracker {
	return &Tracker{
		reg:       reg,
		bus:       b,
		pins:      pins,
		windows:   make(map[xproto.Window]*window),
		bySurface: make(map[surface.ID]xproto.Window),
	}
}

type Tracker struct {
	reg       *surface.Registry
	bus       *bus.Bus
	pins      *pin.Set
	windows   map[xproto.Window]*window
	bySurface map[surface.ID]xproto.Window
}

type window struct {
	id               xproto.Window
	surface          surface.ID
	hasSurface       bool
	overrideRedirect bool
	geometry         Geometry
	parent           xproto.Window
	hasParent        bool
	children         []xproto.Window
	title            string
	class            string
	instance         string
	startupID        string
	mapped           bool
	cancelWatch      func()
	indexPin         pin.Token
	rootPin          pin.Token
}

// Initialize registers an X11 window in the unmapped state.
func (t *Tracker) Initialize(id xproto.Window) error {
	if _, ok := t.windows[id]; ok {
		return fmt.Errorf("%w: %d", ErrAlreadyInitialized, id)
	}
	t.windows[id] = &window{id: id}
	return nil
}

// getOrCreate is for parent references only. XWayland may name a parent we
// have not seen yet; it starts out unmapped with no surface.
func (t *Tracker) getOrCreate(id xproto.Window) *window {
	w, ok := t.windows[id]
	if !ok {
		w = &window{id: id}
		t.windows[id] = w
	}
	return w
}

// Map binds a surface to the window, wires the readiness subscription and
// recomputes the derived mapped flag. The surface may already have a texture
// handle, in which case the window maps immediately.
func (t *Tracker) Map(id xproto.Window, req MapRequest) error {
	w, ok := t.windows[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotInitialized, id)
	}
	if w.hasSurface {
		return fmt.Errorf("%w: %d", ErrAlreadyMapped, id)
	}
	if bound, ok := t.bySurface[req.Surface]; ok {
		return fmt.Errorf("%w: surface %d bound to %d", ErrSurfaceBound, req.Surface, bound)
	}
	if req.Parent != nil {
		if err := t.checkCycle(id, *req.Parent); err != nil {
			return err
		}
	}

	if err := t.reg.AssignRole(req.Surface, surface.RoleX11); err != nil {
		// A surface can only ever be an X11 surface, so a rebind after unmap
		// keeps the role it already has.
		if role, roleErr := t.reg.Role(req.Surface); roleErr != nil || role != surface.RoleX11 {
			return err
		}
	}

	w.surface = req.Surface
	w.hasSurface = true
	w.overrideRedirect = req.OverrideRedirect
	w.geometry = req.Geometry
	w.title = req.Title
	w.class = req.Class
	w.instance = req.Instance
	w.startupID = req.StartupID

	t.reparent(w, req.Parent)

	t.bySurface[req.Surface] = id
	w.indexPin = t.pins.Acquire(fmt.Sprintf("xwayland: surface %d index", req.Surface))

	cancel, err := t.reg.Watch(req.Surface, func(bool) {
		t.checkIfMapped(w)
	})
	if err != nil {
		// Roll back the binding, the surface vanished under us.
		delete(t.bySurface, req.Surface)
		_ = w.indexPin.Release()
		w.hasSurface = false
		return err
	}
	w.cancelWatch = cancel

	t.checkIfMapped(w)
	return nil
}

// Unmap clears the surface binding. The unmapped event, if the window was
// contributing to global visibility, fires before any state is torn down.
func (t *Tracker) Unmap(id xproto.Window) error {
	w, ok := t.windows[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotInitialized, id)
	}
	if !w.hasSurface {
		return fmt.Errorf("%w: %d", ErrNotMapped, id)
	}
	t.clearSurface(w)
	t.detachFromParent(w)
	return nil
}

// Dispose tears the window down without requiring a prior Unmap. A second
// disposal is a no-op and never double-emits an unmapped event.
func (t *Tracker) Dispose(id xproto.Window) {
	w, ok := t.windows[id]
	if !ok {
		return
	}
	if w.hasSurface {
		t.clearSurface(w)
	}
	t.detachFromParent(w)
	// Children are not reparented; they tear down on their own disposal.
	delete(t.windows, id)
}

// clearSurface performs the shared unmap/dispose teardown: emit the unmapped
// event if applicable, release pins, cancel the readiness subscription and
// unlink the reverse index.
func (t *Tracker) clearSurface(w *window) {
	if w.mapped && !w.hasParent {
		bus.Publish(t.bus, EventSurfaceUnmapped{Window: w.id, Surface: w.surface})
		_ = w.rootPin.Release()
	}
	w.mapped = false

	if w.cancelWatch != nil {
		w.cancelWatch()
		w.cancelWatch = nil
	}

	delete(t.bySurface, w.surface)
	_ = w.indexPin.Release()

	w.surface = 0
	w.hasSurface = false
}

// checkIfMapped recomputes the derived mapped flag and emits global
// visibility transitions for root-level windows.
func (t *Tracker) checkIfMapped(w *window) {
	mapped := w.hasSurface && t.reg.IsReady(w.surface)
	if mapped == w.mapped {
		return
	}
	w.mapped = mapped

	if w.hasParent {
		return
	}
	if mapped {
		w.rootPin = t.pins.Acquire(fmt.Sprintf("xwayland: root window %d", w.id))
		bus.Publish(t.bus, EventSurfaceMapped{Window: w.id, Surface: w.surface})
	} else {
		bus.Publish(t.bus, EventSurfaceUnmapped{Window: w.id, Surface: w.surface})
		_ = w.rootPin.Release()
	}
}

// reparent atomically moves the window between children sets. It is the only
// mutation path for parent/children fields besides detachFromParent.
func (t *Tracker) reparent(w *window, parent *xproto.Window) {
	if parent == nil {
		t.detachFromParent(w)
		return
	}
	if w.hasParent && w.parent == *parent {
		return
	}
	t.detachFromParent(w)

	p := t.getOrCreate(*parent)
	p.children = append(p.children, w.id)
	w.parent = *parent
	w.hasParent = true
}

func (t *Tracker) detachFromParent(w *window) {
	if !w.hasParent {
		return
	}
	if p, ok := t.windows[w.parent]; ok {
		for i, c := range p.children {
			if c == w.id {
				p.children = append(p.children[:i], p.children[i+1:]...)
				break
			}
		}
	}
	w.parent = 0
	w.hasParent = false
}

// checkCycle rejects a parent that is the window itself or one of its
// descendants.
func (t *Tracker) checkCycle(id, parent xproto.Window) error {
	cur := parent
	for {
		if cur == id {
			return fmt.Errorf("%w: %d under %d", ErrCycle, parent, id)
		}
		w, ok := t.windows[cur]
		if !ok || !w.hasParent {
			return nil
		}
		cur = w.parent
	}
}

// SetGeometry applies an X11 configure to a known window.
func (t *Tracker) SetGeometry(id xproto.Window, geometry Geometry) error {
	w, ok := t.windows[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotInitialized, id)
	}
	w.geometry = geometry
	return nil
}

// Reparent moves an already-mapped window under a new parent, as XWayland
// reports reparenting separately from mapping.
func (t *Tracker) Reparent(id xproto.Window, parent *xproto.Window) error {
	w, ok := t.windows[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotInitialized, id)
	}
	if parent != nil {
		if err := t.checkCycle(id, *parent); err != nil {
			return err
		}
	}
	wasRoot := !w.hasParent
	t.reparent(w, parent)

	// Moving in or out of the root level changes who is responsible for the
	// global visibility of this window.
	if w.mapped && wasRoot && w.hasParent {
		bus.Publish(t.bus, EventSurfaceUnmapped{Window: w.id, Surface: w.surface})
		_ = w.rootPin.Release()
	} else if w.mapped && !wasRoot && !w.hasParent {
		w.rootPin = t.pins.Acquire(fmt.Sprintf("xwayland: root window %d", w.id))
		bus.Publish(t.bus, EventSurfaceMapped{Window: w.id, Surface: w.surface})
	}
	return nil
}

func (t *Tracker) SetTitle(id xproto.Window, title string) error {
	w, ok := t.windows[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotInitialized, id)
	}
	w.title = title
	return nil
}
