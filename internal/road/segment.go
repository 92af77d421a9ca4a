package road

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Mode selects how the AI approach point is derived from the raw waypoints.
type Mode int

const (
	ModeStraight Mode = iota
	ModeCurved
)

func (m Mode) String() string {
	switch m {
	case ModeStraight:
		return "straight"
	case ModeCurved:
		return "curved"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode is the inverse of Mode.String. The empty string maps to ModeStraight.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "straight":
		return ModeStraight, nil
	case "curved":
		return ModeCurved, nil
	}
	return 0, fmt.Errorf("unknown segment mode %q", s)
}

// Segment is one drivable road piece: an ordered polyline of waypoints plus
// the segments a vehicle may continue onto from its last waypoint.
type Segment struct {
	ID        string
	Name      string
	Waypoints []r3.Vec
	Mode      Mode

	next []*Segment
}

// NewSegment creates a segment with a fresh ID.
func NewSegment(name string, pts ...r3.Vec) *Segment {
	return &Segment{
		ID:        uuid.NewString(),
		Name:      name,
		Waypoints: pts,
	}
}

func (s *Segment) String() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Len is the number of waypoints.
func (s *Segment) Len() int { return len(s.Waypoints) }

// Usable reports whether the segment has enough waypoints to define a direction.
func (s *Segment) Usable() bool { return len(s.Waypoints) >= 2 }

func (s *Segment) First() r3.Vec { return s.Waypoints[0] }

func (s *Segment) Last() r3.Vec { return s.Waypoints[len(s.Waypoints)-1] }

// Append adds a waypoint at the end of the polyline.
func (s *Segment) Append(p r3.Vec) { s.Waypoints = append(s.Waypoints, p) }

// Next returns the outgoing connections in insertion order. The slice is
// owned by the segment and must not be modified.
func (s *Segment) Next() []*Segment { return s.next }

// ConnectedTo reports whether s already has a connection to t.
func (s *Segment) ConnectedTo(t *Segment) bool {
	for _, n := range s.next {
		if n == t {
			return true
		}
	}
	return false
}

// Connect adds a directed connection s->t. Self-loops, nil targets and
// duplicates are refused; the return value reports whether an edge was added.
func (s *Segment) Connect(t *Segment) bool {
	if t == nil || t == s || s.ConnectedTo(t) {
		return false
	}
	s.next = append(s.next, t)
	return true
}

// ClearConnections drops all outgoing connections.
func (s *Segment) ClearConnections() { s.next = s.next[:0] }

// Waypoint returns the raw waypoint at i, clamped to the valid range.
func (s *Segment) Waypoint(i int) r3.Vec {
	n := len(s.Waypoints)
	if n == 0 {
		return r3.Vec{}
	}
	if i < 0 {
		i = 0
	} else if i >= n {
		i = n - 1
	}
	return s.Waypoints[i]
}

// Target returns the point a vehicle steers toward for waypoint i. Curved
// segments soften interior corners by aiming at the Catmull-Rom midpoint of
// the neighbouring span instead of the raw node.
func (s *Segment) Target(i int) r3.Vec {
	n := len(s.Waypoints)
	if n == 0 {
		return r3.Vec{}
	}
	if i < 0 {
		i = 0
	} else if i >= n {
		i = n - 1
	}
	p1 := s.Waypoints[i]
	if s.Mode != ModeCurved || i == 0 || i == n-1 {
		return p1
	}
	p0 := s.Waypoints[i-1]
	p2 := s.Waypoints[i+1]
	return CatmullRom(0.5, p0, p1, p2, p2)
}
