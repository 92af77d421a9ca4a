package physics

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Body is a sphere rigid body. Kinematic bodies are moved by their owner and
// ignore forces and velocity writes; dynamic bodies are integrated by Space.
type Body struct {
	space  *Space
	idx    int
	layer  uint32
	radius float64
	mass   float64

	pos    r3.Vec
	yaw    float64
	vel    r3.Vec
	angVel r3.Vec

	kinematic bool
	active    bool
}

func (b *Body) Layer() uint32   { return b.layer }
func (b *Body) Radius() float64 { return b.radius }
func (b *Body) Mass() float64   { return b.mass }

func (b *Body) Position() r3.Vec { return b.pos }

func (b *Body) SetPosition(p r3.Vec) {
	b.pos = p
	b.space.dirty = true
}

func (b *Body) Yaw() float64 { return b.yaw }

func (b *Body) SetYaw(y float64) { b.yaw = y }

func (b *Body) Kinematic() bool { return b.kinematic }

// SetKinematic switches between owner-driven and simulated motion. Stored
// velocities are kept as they are.
func (b *Body) SetKinematic(k bool) { b.kinematic = k }

func (b *Body) Velocity() r3.Vec { return b.vel }

// SetVelocity is ignored on kinematic bodies.
func (b *Body) SetVelocity(v r3.Vec) {
	if b.kinematic {
		return
	}
	b.vel = v
}

func (b *Body) AngularVelocity() r3.Vec { return b.angVel }

// SetAngularVelocity is ignored on kinematic bodies.
func (b *Body) SetAngularVelocity(w r3.Vec) {
	if b.kinematic {
		return
	}
	b.angVel = w
}

// AddImpulseAt applies an instantaneous impulse at a world point. Off-centre
// impulses also spin the body.
func (b *Body) AddImpulseAt(impulse, point r3.Vec) {
	if b.kinematic || b.mass <= 0 {
		return
	}
	b.vel = r3.Add(b.vel, r3.Scale(1/b.mass, impulse))

	// Solid sphere inertia: 2/5 m r^2.
	inertia := 0.4 * b.mass * b.radius * b.radius
	if inertia <= 0 {
		return
	}
	arm := r3.Sub(point, b.pos)
	b.angVel = r3.Add(b.angVel, r3.Scale(1/inertia, r3.Cross(arm, impulse)))
}

func (b *Body) Active() bool { return b.active }

// SetActive adds or removes the body from simulation and queries.
func (b *Body) SetActive(on bool) {
	if b.active == on {
		return
	}
	b.active = on
	b.space.dirty = true
}
