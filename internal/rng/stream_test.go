package rng

import "testing"

func TestSameSeedSameSequence(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 1000; i++ {
		if av, bv := a.Float64(), b.Float64(); av != bv {
			t.Fatalf("draw %d diverged: %v vs %v", i, av, bv)
		}
	}
	if a.Draws() != b.Draws() {
		t.Fatalf("draw counts diverged: %d vs %d", a.Draws(), b.Draws())
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)

	same := true
	for i := 0; i < 16; i++ {
		if a.Float64() != b.Float64() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("seeds 1 and 2 produced identical prefixes")
	}
}

func TestIntnRangeBounds(t *testing.T) {
	s := New(7)
	for i := 0; i < 500; i++ {
		v := s.IntnRange(3, 9)
		if v < 3 || v > 9 {
			t.Fatalf("IntnRange(3,9) = %d out of bounds", v)
		}
	}
	if got := s.IntnRange(5, 5); got != 5 {
		t.Fatalf("degenerate range returned %d, want 5", got)
	}
}

func TestUniformBounds(t *testing.T) {
	s := New(7)
	for i := 0; i < 500; i++ {
		v := s.Uniform(-1, 1)
		if v < -1 || v >= 1 {
			t.Fatalf("Uniform(-1,1) = %v out of bounds", v)
		}
	}
}

func TestPickEmpty(t *testing.T) {
	s := New(3)
	before := s.Draws()
	if got := s.Pick(0); got != -1 {
		t.Fatalf("Pick(0) = %d, want -1", got)
	}
	if s.Draws() != before {
		t.Fatal("Pick(0) consumed a draw")
	}
}

func TestDrawCounterAdvances(t *testing.T) {
	s := New(9)
	s.Float64()
	s.Intn(10)
	s.Chance(0.5)
	if s.Draws() != 3 {
		t.Fatalf("Draws() = %d, want 3", s.Draws())
	}
}
