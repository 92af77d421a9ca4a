package road

import (
	"math"
	"testing"
)

func TestConnectRefusesSelfAndDuplicates(t *testing.T) {
	a := NewSegment("a", v(0, 0, 0), v(0, 0, 1))
	b := NewSegment("b", v(0, 0, 2), v(0, 0, 3))

	if a.Connect(a) {
		t.Fatal("self connection accepted")
	}
	if !a.Connect(b) {
		t.Fatal("first connection refused")
	}
	if a.Connect(b) {
		t.Fatal("duplicate connection accepted")
	}
	if a.Connect(nil) {
		t.Fatal("nil connection accepted")
	}
	if got := len(a.Next()); got != 1 {
		t.Fatalf("len(Next) = %d, want 1", got)
	}
	a.ClearConnections()
	if len(a.Next()) != 0 {
		t.Fatal("connections not cleared")
	}
}

func TestTarget(t *testing.T) {
	pts := []struct{ x, z float64 }{{0, 0}, {0, 10}, {10, 10}, {10, 20}}
	s := NewSegment("s")
	for _, p := range pts {
		s.Append(v(p.x, 0, p.z))
	}

	s.Mode = ModeStraight
	if got := s.Target(1); got != v(0, 0, 10) {
		t.Fatalf("straight Target(1) = %v", got)
	}

	s.Mode = ModeCurved
	if got := s.Target(0); got != v(0, 0, 0) {
		t.Fatalf("curved Target(0) = %v, want raw first waypoint", got)
	}
	if got := s.Target(3); got != v(10, 0, 20) {
		t.Fatalf("curved Target(3) = %v, want raw last waypoint", got)
	}
	got := s.Target(1)
	want := v(5, 0, 10.625)
	if Distance(got, want) > 1e-9 {
		t.Fatalf("curved Target(1) = %v, want %v", got, want)
	}

	if got := s.Target(99); got != v(10, 0, 20) {
		t.Fatalf("Target out of range = %v, want clamped", got)
	}
	if got := (&Segment{}).Target(0); got != v(0, 0, 0) {
		t.Fatalf("empty Target = %v", got)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeStraight, ModeCurved} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("wiggly"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestGeometry(t *testing.T) {
	if got := AngleDeg(v(0, 0, 0), v(1, 0, 0)); got != 0 {
		t.Fatalf("angle with zero vector = %v", got)
	}
	if got := AngleDeg(v(1, 0, 0), v(0, 0, 1)); math.Abs(got-90) > 1e-9 {
		t.Fatalf("orthogonal angle = %v", got)
	}
	if got := AngleDeg(v(1, 0, 0), v(-2, 0, 0)); math.Abs(got-180) > 1e-9 {
		t.Fatalf("opposite angle = %v", got)
	}
	if got := Normalize(v(1e-7, 0, 0)); got != v(0, 0, 0) {
		t.Fatalf("tiny vector normalised to %v", got)
	}
	for _, yaw := range []float64{0, 0.5, -2, math.Pi / 2} {
		if got := Heading(Forward(yaw)); math.Abs(got-yaw) > 1e-9 {
			t.Fatalf("Heading(Forward(%v)) = %v", yaw, got)
		}
	}
}
