// Package surface owns the canonical set of client surfaces announced by the
// transport layer. A surface becomes "ready" once the renderer has imported a
// committed buffer for it and handed us a texture handle.
package surface

import (
	"errors"
	"fmt"
)

// ID is the compositor-wide surface identity, allocated by the transport
// layer. It shares no namespace with X11 window ids.
type ID uint64

// Handle is the renderer's proof that a surface has committed pixel content.
type Handle int64

type Role uint8

const (
	RoleNone Role = iota
	RoleToplevel
	RoleX11
)

func (r Role) String() string {
	switch r {
	case RoleToplevel:
		return "toplevel"
	case RoleX11:
		return "x11"
	default:
		return "none"
	}
}

var (
	ErrNotFound     = errors.New("surface: not found")
	ErrExists       = errors.New("surface: already exists")
	ErrRoleAssigned = errors.New("surface: role already assigned")
)

func NewRegistry() *Registry {
	return &Registry{
		surfaces: make(map[ID]*state),
	}
}

// Registry is the single authoritative holder of surface state. All mutation
// goes through it on the shell's event turn.
type Registry struct {
	surfaces map[ID]*state
}

type state struct {
	role        Role
	handle      Handle
	hasHandle   bool
	lastWatcher int
	watchers    map[int]func(ready bool)
}

func (r *Registry) Add(id ID) error {
	if _, ok := r.surfaces[id]; ok {
		return fmt.Errorf("%w: %d", ErrExists, id)
	}
	r.surfaces[id] = &state{
		watchers: make(map[int]func(ready bool)),
	}
	return nil
}

// Remove drops the surface. Watchers see a final not-ready transition if the
// surface still had a texture, then the entry is gone.
func (r *Registry) Remove(id ID) error {
	s, ok := r.surfaces[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	wasReady := s.hasHandle
	s.hasHandle = false
	s.handle = 0
	if wasReady {
		s.notify(false)
	}
	delete(r.surfaces, id)
	return nil
}

func (r *Registry) Has(id ID) bool {
	_, ok := r.surfaces[id]
	return ok
}

// AssignRole sets the surface role. A role is assigned at most once and never
// changes afterward.
func (r *Registry) AssignRole(id ID, role Role) error {
	s, ok := r.surfaces[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if s.role != RoleNone {
		return fmt.Errorf("%w: %d is %s", ErrRoleAssigned, id, s.role)
	}
	s.role = role
	return nil
}

func (r *Registry) Role(id ID) (Role, error) {
	s, ok := r.surfaces[id]
	if !ok {
		return RoleNone, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return s.role, nil
}

func (r *Registry) AttachTexture(id ID, handle Handle) error {
	s, ok := r.surfaces[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.handle = handle
	s.hasHandle = true
	s.notify(true)
	return nil
}

func (r *Registry) DetachTexture(id ID) error {
	s, ok := r.surfaces[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.handle = 0
	s.hasHandle = false
	s.notify(false)
	return nil
}

func (r *Registry) IsReady(id ID) bool {
	s, ok := r.surfaces[id]
	return ok && s.hasHandle
}

func (r *Registry) Texture(id ID) (Handle, bool) {
	s, ok := r.surfaces[id]
	if !ok || !s.hasHandle {
		return 0, false
	}
	return s.handle, true
}

// Watch subscribes to texture attach/detach transitions of one surface.
// Notifications run synchronously on the mutating call. The returned cancel
// is idempotent.
func (r *Registry) Watch(id ID, fn func(ready bool)) (func(), error) {
	s, ok := r.surfaces[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	s.lastWatcher += 1
	key := s.lastWatcher
	s.watchers[key] = fn

	return func() {
		delete(s.watchers, key)
	}, nil
}

func (s *state) notify(ready bool) {
	for _, fn := range s.watchers {
		fn(ready)
	}
}
