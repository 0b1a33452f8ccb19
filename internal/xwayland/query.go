package xwayland

import (
	"fmt"

	"github.com/jezek/xgb/xproto"

	"github.com/roscale/veshell-prototype/internal/surface"
)

// Info is a copy of one window's state for callers outside the tracker.
type Info struct {
	ID               xproto.Window
	Surface          *surface.ID
	OverrideRedirect bool
	Geometry         Geometry
	Parent           *xproto.Window
	Children         []xproto.Window
	Title            string
	Class            string
	Instance         string
	StartupID        string
	Mapped           bool
}

func (t *Tracker) Window(id xproto.Window) (Info, error) {
	w, ok := t.windows[id]
	if !ok {
		return Info{}, fmt.Errorf("%w: %d", ErrNotInitialized, id)
	}
	return t.info(w), nil
}

func (t *Tracker) Mapped(id xproto.Window) (bool, error) {
	w, ok := t.windows[id]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrNotInitialized, id)
	}
	return w.mapped, nil
}

func (t *Tracker) Children(id xproto.Window) ([]xproto.Window, error) {
	w, ok := t.windows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotInitialized, id)
	}
	children := make([]xproto.Window, len(w.children))
	copy(children, w.children)
	return children, nil
}

// WindowBySurface resolves the reverse surface index.
func (t *Tracker) WindowBySurface(id surface.ID) (xproto.Window, bool) {
	wid, ok := t.bySurface[id]
	return wid, ok
}

// Snapshot lists every tracked window, root windows first.
func (t *Tracker) Snapshot() []Info {
	infos := make([]Info, 0, len(t.windows))
	for _, w := range t.windows {
		if !w.hasParent {
			infos = append(infos, t.info(w))
		}
	}
	for _, w := range t.windows {
		if w.hasParent {
			infos = append(infos, t.info(w))
		}
	}
	return infos
}

func (t *Tracker) info(w *window) Info {
	info := Info{
		ID:               w.id,
		OverrideRedirect: w.overrideRedirect,
		Geometry:         w.geometry,
		Title:            w.title,
		Class:            w.class,
		Instance:         w.instance,
		StartupID:        w.startupID,
		Mapped:           w.mapped,
	}
	if w.hasSurface {
		sid := w.surface
		info.Surface = &sid
	}
	if w.hasParent {
		parent := w.parent
		info.Parent = &parent
	}
	info.Children = make([]xproto.Window, len(w.children))
	copy(info.Children, w.children)
	return info
}
