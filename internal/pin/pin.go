// Package pin tracks keep-alive tokens for entities that must outlive their
// last external reference, such as a mapped root X11 window or a live
// surface reverse index. Every Acquire must be paired with exactly one
// Release; an unbalanced pin is a correctness bug, not just a leak.
package pin

import "fmt"

func NewSet() *Set {
	return &Set{
		pins: make(map[int]string),
	}
}

type Set struct {
	lastID int
	pins   map[int]string
}

type Token struct {
	set *Set
	id  int
}

// Acquire pins an entity under a descriptive name and returns the token that
// releases it.
func (s *Set) Acquire(name string) Token {
	s.lastID += 1
	id := s.lastID

	s.pins[id] = name
	return Token{set: s, id: id}
}

// Release consumes the token. Releasing twice, or releasing the zero Token,
// returns an error so tests can assert pairing.
func (t Token) Release() error {
	if t.set == nil {
		return fmt.Errorf("pin: release of zero token")
	}
	if _, ok := t.set.pins[t.id]; !ok {
		return fmt.Errorf("pin %d: already released", t.id)
	}
	delete(t.set.pins, t.id)
	return nil
}

func (s *Set) Outstanding() int {
	return len(s.pins)
}

// Held reports the names of all outstanding pins, for diagnostics.
func (s *Set) Held() []string {
	names := make([]string, 0, len(s.pins))
	for i := 1; i <= s.lastID; i++ {
		if name, ok := s.pins[i]; ok {
			names = append(names, name)
		}
	}
	return names
}
