package traffic

import (
	"gonum.org/v1/gonum/spatial/r3"

	"taxitraffic/internal/road"
)

// Body is the physical embodiment of an agent. While kinematic the agent
// drives it directly; velocity writes on a kinematic body are ignored, so
// velocities must be cleared before switching back.
type Body interface {
	Position() r3.Vec
	SetPosition(r3.Vec)
	Yaw() float64
	SetYaw(float64)

	Kinematic() bool
	SetKinematic(bool)
	Velocity() r3.Vec
	SetVelocity(r3.Vec)
	AngularVelocity() r3.Vec
	SetAngularVelocity(r3.Vec)
	AddImpulseAt(impulse, point r3.Vec)

	// SetActive adds or removes the body from the simulated world.
	SetActive(bool)
}

// World answers spatial questions about the simulated scene.
type World interface {
	// Occupied reports whether an active body on a layer in mask overlaps
	// the sphere.
	Occupied(center r3.Vec, radius float64, mask uint32) bool
	// GroundTag probes straight down from `from` up to maxDist.
	GroundTag(from r3.Vec, maxDist float64) (tag string, ok bool)
}

// Observer supplies the reference point for spawn and despawn decisions.
type Observer interface {
	Position() r3.Vec
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func() r3.Vec

func (f ObserverFunc) Position() r3.Vec { return f() }

// Embodier creates the body for pooled agent id.
type Embodier interface {
	Embody(id int, arch Archetype) Body
}

// EmbodierFunc adapts a function to Embodier.
type EmbodierFunc func(id int, arch Archetype) Body

func (f EmbodierFunc) Embody(id int, arch Archetype) Body { return f(id, arch) }

// Router finds a route for an agent that has left its road.
type Router interface {
	NearestRoute(pos r3.Vec, exclude *road.Segment) *road.Segment
}
