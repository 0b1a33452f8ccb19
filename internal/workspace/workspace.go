// Package workspace tracks the ordered tiles of one workspace: bound windows
// plus the persistent application-launcher slot that always trails the list.
// It owns the focused index and how many tiles are shown at once, and derives
// the visibility window the presentation layer paints.
package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/roscale/veshell-prototype/internal/wm"
)

var (
	ErrIndexOutOfRange = errors.New("workspace: index out of range")
	ErrNotFound        = errors.New("workspace: window not in workspace")
)

type EntryKind uint8

const (
	EntryWindow EntryKind = iota
	EntryLauncher
)

// Entry is one tileable slot. Window is set for EntryWindow only.
type Entry struct {
	Kind   EntryKind
	Window string
}

func New() *Workspace {
	return &Workspace{
		tiles:   []Entry{{Kind: EntryLauncher}},
		focused: 0,
		visible: 1,
	}
}

type Workspace struct {
	tiles   []Entry
	focused int
	visible int
}

// AddWindow appends a tile for the window just before the trailing launcher
// entry. The focused entry keeps its identity.
func (ws *Workspace) AddWindow(windowID string) {
	at := len(ws.tiles) - 1
	ws.tiles = append(ws.tiles, Entry{})
	copy(ws.tiles[at+1:], ws.tiles[at:])
	ws.tiles[at] = Entry{Kind: EntryWindow, Window: windowID}

	if ws.focused >= at {
		ws.focused++
	}
	ws.clampVisible()
}

// RemoveWindow drops the window's tile. Removing at or before the focused
// index pulls focus one step left so it stays on the same logical neighbor,
// never below zero.
func (ws *Workspace) RemoveWindow(windowID string) error {
	at := -1
	for i, tile := range ws.tiles {
		if tile.Kind == EntryWindow && tile.Window == windowID {
			at = i
			break
		}
	}
	if at == -1 {
		return fmt.Errorf("%w: %s", ErrNotFound, windowID)
	}

	ws.tiles = append(ws.tiles[:at], ws.tiles[at+1:]...)
	if at <= ws.focused {
		ws.focused = max(ws.focused-1, 0)
	}
	ws.clampVisible()
	return nil
}

// SetFocusedIndex rejects out-of-range indexes without touching state.
func (ws *Workspace) SetFocusedIndex(i int) error {
	if i < 0 || i >= len(ws.tiles) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(ws.tiles))
	}
	ws.focused = i
	return nil
}

// MoveFocusLeft and MoveFocusRight stop at the boundary instead of wrapping.
func (ws *Workspace) MoveFocusLeft() {
	if ws.focused > 0 {
		ws.focused--
	}
}

func (ws *Workspace) MoveFocusRight() {
	if ws.focused < len(ws.tiles)-1 {
		ws.focused++
	}
}

// SetVisibleLength clamps to [1, tile count].
func (ws *Workspace) SetVisibleLength(n int) {
	ws.visible = n
	ws.clampVisible()
}

func (ws *Workspace) clampVisible() {
	if ws.visible < 1 {
		ws.visible = 1
	}
	if ws.visible > len(ws.tiles) {
		ws.visible = len(ws.tiles)
	}
}

// CloseFocused issues the window-manager close for the focused tile before
// removing it; the close request is observed by the manager's state, not
// ours. Focusing the launcher makes this a no-op.
func (ws *Workspace) CloseFocused(ctx context.Context, manager *wm.Manager) error {
	tile := ws.tiles[ws.focused]
	if tile.Kind != EntryWindow {
		return nil
	}
	if err := manager.CloseWindow(ctx, tile.Window); err != nil {
		return err
	}
	return ws.RemoveWindow(tile.Window)
}

func (ws *Workspace) FocusedIndex() int {
	return ws.focused
}

func (ws *Workspace) Focused() Entry {
	return ws.tiles[ws.focused]
}

func (ws *Workspace) VisibleLength() int {
	return ws.visible
}

func (ws *Workspace) Len() int {
	return len(ws.tiles)
}

func (ws *Workspace) Tiles() []Entry {
	tiles := make([]Entry, len(ws.tiles))
	copy(tiles, ws.tiles)
	return tiles
}

// VisibleRange derives the contiguous window of tiles the presentation layer
// shows: visible-length entries positioned so the focused tile stays in view.
func (ws *Workspace) VisibleRange() (start, end int) {
	start = ws.focused - ws.visible + 1
	if start < 0 {
		start = 0
	}
	if start > len(ws.tiles)-ws.visible {
		start = len(ws.tiles) - ws.visible
	}
	return start, start + ws.visible
}

func (ws *Workspace) VisibleTiles() []Entry {
	start, end := ws.VisibleRange()
	tiles := make([]Entry, end-start)
	copy(tiles, ws.tiles[start:end])
	return tiles
}
