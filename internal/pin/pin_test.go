package pin

import "testing"

func TestAcquireRelease(t *testing.T) {
	s := NewSet()

	a := s.Acquire("a")
	b := s.Acquire("b")
	if got := s.Outstanding(); got != 2 {
		t.Fatalf("Outstanding() = %d, want 2", got)
	}

	if err := a.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := b.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if got := s.Outstanding(); got != 0 {
		t.Fatalf("Outstanding() = %d, want 0", got)
	}
}

func TestDoubleReleaseFails(t *testing.T) {
	s := NewSet()

	tok := s.Acquire("a")
	if err := tok.Release(); err != nil {
		t.Fatalf("first Release() error = %v", err)
	}
	if err := tok.Release(); err == nil {
		t.Fatal("second Release() should fail")
	}
}

func TestZeroTokenReleaseFails(t *testing.T) {
	var tok Token
	if err := tok.Release(); err == nil {
		t.Fatal("zero token Release() should fail")
	}
}

func TestHeld(t *testing.T) {
	s := NewSet()

	a := s.Acquire("first")
	s.Acquire("second")
	if err := a.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	held := s.Held()
	if len(held) != 1 || held[0] != "second" {
		t.Fatalf("Held() = %v, want [second]", held)
	}
}
