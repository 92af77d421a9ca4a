package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// GroundFunc describes the terrain under a horizontal position: its height
// and a surface tag such as "Road" or "Water".
type GroundFunc func(x, z float64) (height float64, tag string)

// Contact is reported once when two active bodies start touching, from the
// point of view of Self. Normal points from Other toward Self.
type Contact struct {
	Self, Other      *Body
	Point            r3.Vec
	Normal           r3.Vec
	RelativeVelocity r3.Vec
}

type cellKey struct{ X, Z int }

type pairKey struct{ A, B int }

// Space owns a set of bodies, integrates the dynamic ones and answers
// proximity queries through a uniform grid over the XZ plane.
type Space struct {
	Gravity        float64
	LinearDamping  float64
	AngularDamping float64
	Restitution    float64
	Friction       float64
	Ground         GroundFunc

	bodies    []*Body
	maxRadius float64

	cellSize float64
	cells    map[cellKey][]int
	dirty    bool

	touching  map[pairKey]bool
	onContact []func(Contact)
}

func NewSpace(cellSize float64) *Space {
	if cellSize <= 0 {
		cellSize = 16
	}
	return &Space{
		Gravity:        9.81,
		LinearDamping:  0.1,
		AngularDamping: 0.5,
		Restitution:    0.25,
		Friction:       1.5,
		cellSize:       cellSize,
		cells:          make(map[cellKey][]int),
		touching:       make(map[pairKey]bool),
	}
}

// NewBody adds an inactive dynamic body on the given layer mask.
func (s *Space) NewBody(layer uint32, radius, mass float64) *Body {
	b := &Body{
		space:  s,
		idx:    len(s.bodies),
		layer:  layer,
		radius: radius,
		mass:   mass,
	}
	s.bodies = append(s.bodies, b)
	if radius > s.maxRadius {
		s.maxRadius = radius
	}
	return b
}

func (s *Space) Bodies() []*Body { return s.bodies }

// OnContact registers a callback for contact-enter events.
func (s *Space) OnContact(fn func(Contact)) {
	s.onContact = append(s.onContact, fn)
}

func (s *Space) key(x, z float64) cellKey {
	return cellKey{X: int(math.Floor(x / s.cellSize)), Z: int(math.Floor(z / s.cellSize))}
}

func (s *Space) rebuildGrid() {
	if !s.dirty {
		return
	}
	for k, c := range s.cells {
		s.cells[k] = c[:0]
	}
	for i, b := range s.bodies {
		if !b.active {
			continue
		}
		k := s.key(b.pos.X, b.pos.Z)
		s.cells[k] = append(s.cells[k], i)
	}
	s.dirty = false
}

// queryNeighbors calls fn for every active body whose sphere touches the
// sphere (center, radius) and whose layer intersects mask. Returning false
// from fn stops the walk.
func (s *Space) queryNeighbors(center r3.Vec, radius float64, mask uint32, fn func(*Body) bool) {
	s.rebuildGrid()
	reach := radius + s.maxRadius
	lo := s.key(center.X-reach, center.Z-reach)
	hi := s.key(center.X+reach, center.Z+reach)
	for gz := lo.Z; gz <= hi.Z; gz++ {
		for gx := lo.X; gx <= hi.X; gx++ {
			for _, idx := range s.cells[cellKey{X: gx, Z: gz}] {
				b := s.bodies[idx]
				if b.layer&mask == 0 {
					continue
				}
				lim := radius + b.radius
				if r3.Norm2(r3.Sub(b.pos, center)) > lim*lim {
					continue
				}
				if !fn(b) {
					return
				}
			}
		}
	}
}

// Occupied reports whether any active body on mask overlaps the sphere.
func (s *Space) Occupied(center r3.Vec, radius float64, mask uint32) bool {
	hit := false
	s.queryNeighbors(center, radius, mask, func(*Body) bool {
		hit = true
		return false
	})
	return hit
}

// Overlap collects the active bodies on mask overlapping the sphere.
func (s *Space) Overlap(center r3.Vec, radius float64, mask uint32) []*Body {
	var out []*Body
	s.queryNeighbors(center, radius, mask, func(b *Body) bool {
		out = append(out, b)
		return true
	})
	return out
}

// GroundTag casts straight down from `from` and returns the surface tag when
// the ground lies within maxDist.
func (s *Space) GroundTag(from r3.Vec, maxDist float64) (string, bool) {
	if s.Ground == nil {
		return "", false
	}
	h, tag := s.Ground(from.X, from.Z)
	if from.Y < h || from.Y-h > maxDist {
		return "", false
	}
	return tag, true
}

func (s *Space) groundHeight(x, z float64) float64 {
	if s.Ground == nil {
		return 0
	}
	h, _ := s.Ground(x, z)
	return h
}

func damp(rate, dt float64) float64 {
	f := 1 - rate*dt
	if f < 0 {
		return 0
	}
	return f
}

// Step integrates dynamic bodies by dt and reports new contacts.
func (s *Space) Step(dt float64) {
	if dt <= 0 {
		return
	}
	for _, b := range s.bodies {
		if !b.active || b.kinematic {
			continue
		}
		b.vel.Y -= s.Gravity * dt
		b.vel = r3.Scale(damp(s.LinearDamping, dt), b.vel)
		b.pos = r3.Add(b.pos, r3.Scale(dt, b.vel))
		b.yaw += b.angVel.Y * dt
		b.angVel = r3.Scale(damp(s.AngularDamping, dt), b.angVel)

		floor := s.groundHeight(b.pos.X, b.pos.Z) + b.radius
		if b.pos.Y < floor {
			b.pos.Y = floor
			if b.vel.Y < 0 {
				b.vel.Y = -b.vel.Y * s.Restitution
			}
			f := damp(s.Friction, dt)
			b.vel.X *= f
			b.vel.Z *= f
		}
		s.dirty = true
	}
	s.detectContacts()
}

func (s *Space) detectContacts() {
	now := make(map[pairKey]bool, len(s.touching))
	for i, a := range s.bodies {
		if !a.active {
			continue
		}
		s.queryNeighbors(a.pos, a.radius, ^uint32(0), func(b *Body) bool {
			if b.idx <= i {
				return true
			}
			k := pairKey{A: i, B: b.idx}
			now[k] = true
			if !s.touching[k] {
				s.emit(a, b)
				s.emit(b, a)
			}
			return true
		})
	}
	s.touching = now
}

func (s *Space) emit(self, other *Body) {
	if len(s.onContact) == 0 {
		return
	}
	d := r3.Sub(self.pos, other.pos)
	n := r3.Norm(d)
	normal := r3.Vec{Y: 1}
	if n > 1e-9 {
		normal = r3.Scale(1/n, d)
	}
	c := Contact{
		Self:             self,
		Other:            other,
		Point:            r3.Add(other.pos, r3.Scale(other.radius, normal)),
		Normal:           normal,
		RelativeVelocity: r3.Sub(self.vel, other.vel),
	}
	for _, fn := range s.onContact {
		fn(c)
	}
}
