package traffic

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"taxitraffic/internal/road"
)

// ContactPoint is one point of a reported collision.
type ContactPoint struct {
	Point  r3.Vec
	Normal r3.Vec
}

// Collision describes an impact on a traffic body as reported by the
// physics collaborator. Normals point away from the traffic body.
type Collision struct {
	Layer            uint32
	Contacts         []ContactPoint
	RelativeVelocity r3.Vec
}

// Handoff converts vehicle impacts into impulses that put an agent under
// physics control.
type Handoff struct {
	Force    float64
	MaxSpeed float64
	Mask     uint32
}

func NewHandoff(cfg Config) Handoff {
	return Handoff{
		Force:    cfg.ImpactForce,
		MaxSpeed: cfg.MaxImpactSpeed,
		Mask:     cfg.TrafficLayer,
	}
}

// Impulse computes the impulse and application point for c. It returns false
// for collisions that are not with traffic or carry no contact.
func (h Handoff) Impulse(c Collision) (impulse, point r3.Vec, ok bool) {
	if c.Layer&h.Mask == 0 || len(c.Contacts) == 0 {
		return r3.Vec{}, r3.Vec{}, false
	}
	contact := c.Contacts[0]

	dir := r3.Scale(-1, contact.Normal)
	dir.Y = math.Abs(dir.Y * 0.25)
	dir = road.Normalize(dir)
	if dir == (r3.Vec{}) {
		return r3.Vec{}, r3.Vec{}, false
	}

	speed := clampF(r3.Norm(c.RelativeVelocity), 0, h.MaxSpeed)
	return r3.Scale(h.Force*speed, dir), contact.Point, true
}

// Apply hands the agent to physics when c is a traffic impact.
func (h Handoff) Apply(a *Agent, c Collision) bool {
	impulse, point, ok := h.Impulse(c)
	if !ok {
		return false
	}
	return a.BeginHandoff(impulse, point)
}
