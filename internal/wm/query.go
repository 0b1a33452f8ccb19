package wm

import (
	"fmt"
	"sort"

	"github.com/roscale/veshell-prototype/internal/surface"
)

// Info is a copy of one logical window's state.
type Info struct {
	ID      string
	Kind    Kind
	AppID   string
	Title   string
	Surface *surface.ID
	Parent  string
}

func (m *Manager) Window(windowID string) (Info, error) {
	w, ok := m.windows[windowID]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, windowID)
	}
	return m.info(w), nil
}

func (m *Manager) WindowBySurface(surfaceID surface.ID) (string, bool) {
	id, ok := m.bySurface[surfaceID]
	return id, ok
}

// Dialogs reads the derived parent→dialogs index. Reading never creates
// windows.
func (m *Manager) Dialogs(parentID string) []string {
	set, ok := m.dialogs[parentID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) Snapshot() []Info {
	infos := make([]Info, 0, len(m.windows))
	for _, w := range m.windows {
		infos = append(infos, m.info(w))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

func (m *Manager) info(w *window) Info {
	info := Info{
		ID:     w.id,
		Kind:   w.kind,
		AppID:  w.appID,
		Title:  w.title,
		Parent: w.parent,
	}
	if w.hasSurface {
		sid := w.surface
		info.Surface = &sid
	}
	return info
}
