package traffic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"taxitraffic/internal/road"
)

// State is the controller state of an agent.
type State int

const (
	// StateIdle agents are in the pool, waiting to be placed.
	StateIdle State = iota
	// StateFollowing agents drive toward the current waypoint.
	StateFollowing
	// StateAwaitingTransition only exists while an agent at the end of its
	// segment chooses the next one; it never survives an Update.
	StateAwaitingTransition
	// StateExternallyControlled agents are flying under physics after an
	// impact.
	StateExternallyControlled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFollowing:
		return "following"
	case StateAwaitingTransition:
		return "awaiting-transition"
	case StateExternallyControlled:
		return "externally-controlled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Env is what an agent needs from its surroundings. Agents of one pool share
// a single Env owned by their coordinator.
type Env struct {
	Config *Config
	World  World
	Router Router
	Rand   *Rand
	Events *EventBus
}

// Agent is one pooled traffic vehicle. It follows the waypoints of its
// current segment and picks a connected segment at the end.
type Agent struct {
	ID        int
	Archetype Archetype

	Speed         float64
	TurnRate      float64
	ReachDistance float64

	body  Body
	env   *Env
	seg   *road.Segment
	index int
	state State

	handoffLeft float64
}

// NewAgent creates an idle agent around body.
func NewAgent(id int, arch Archetype, body Body, env *Env) *Agent {
	cfg := env.Config
	a := &Agent{
		ID:            id,
		Archetype:     arch,
		Speed:         cfg.Speed,
		TurnRate:      cfg.TurnRate,
		ReachDistance: cfg.ReachDistance,
		body:          body,
		env:           env,
	}
	if arch.Speed > 0 {
		a.Speed = arch.Speed
	}
	if arch.TurnRate > 0 {
		a.TurnRate = arch.TurnRate
	}
	return a
}

func (a *Agent) State() State           { return a.state }
func (a *Agent) Active() bool           { return a.state != StateIdle }
func (a *Agent) Segment() *road.Segment { return a.seg }
func (a *Agent) Index() int             { return a.index }
func (a *Agent) Body() Body             { return a.body }
func (a *Agent) Position() r3.Vec       { return a.body.Position() }

// HandoffRemaining is the time left under physics control.
func (a *Agent) HandoffRemaining() float64 { return a.handoffLeft }

// Bind assigns the route without moving or activating the agent.
func (a *Agent) Bind(seg *road.Segment, index int) {
	a.seg = seg
	a.index = index
}

// Place binds the agent to (seg, index), puts it on that waypoint facing the
// next one and activates it under autonomous control.
func (a *Agent) Place(seg *road.Segment, index int) {
	a.Bind(seg, index)

	start := seg.Waypoints[index]
	pos := start
	pos.Y += a.env.Config.SpawnLift
	yaw := a.body.Yaw()
	if index+1 < seg.Len() {
		dir := road.Flat(r3.Sub(seg.Waypoints[index+1], start))
		if r3.Norm2(dir) > 0 {
			yaw = road.Heading(dir)
		}
	}

	a.body.SetPosition(pos)
	a.body.SetYaw(yaw)
	a.body.SetActive(true)
	a.resetToAutonomous()
	a.handoffLeft = 0
	a.state = StateFollowing
	a.env.Events.Emit(Event{Type: EventAgentSpawned, Agent: a.ID, Pos: pos})
}

// Deactivate returns the agent to the pool.
func (a *Agent) Deactivate() {
	if a.state == StateIdle {
		return
	}
	pos := a.body.Position()
	a.resetToAutonomous()
	a.body.SetActive(false)
	a.state = StateIdle
	a.seg = nil
	a.index = 0
	a.handoffLeft = 0
	a.env.Events.Emit(Event{Type: EventAgentRecycled, Agent: a.ID, Pos: pos})
}

// Update advances the agent by dt seconds.
func (a *Agent) Update(dt float64) {
	if dt <= 0 {
		return
	}
	switch a.state {
	case StateFollowing:
		a.follow(dt)
	case StateExternallyControlled:
		a.handoffLeft -= dt
		if a.handoffLeft <= 0 {
			a.endHandoff()
		}
	}
}

func (a *Agent) follow(dt float64) {
	if a.seg == nil || a.seg.Len() == 0 || a.index < 0 {
		a.Deactivate()
		return
	}
	if a.index >= a.seg.Len() && !a.transition() {
		return
	}

	target := a.seg.Target(a.index)
	pos := a.body.Position()
	yaw := a.body.Yaw()

	flat := road.Flat(r3.Sub(target, pos))
	if r3.Norm2(flat) > 1e-6 {
		diff := angDiff(yaw, road.Heading(flat))
		maxTurn := a.TurnRate * dt
		if math.Abs(diff) <= maxTurn {
			yaw += diff
		} else if diff > 0 {
			yaw += maxTurn
		} else {
			yaw -= maxTurn
		}
		yaw = wrapAngle(yaw)
	}

	step := a.Speed * dt
	pos = r3.Add(pos, r3.Scale(step, road.Forward(yaw)))
	// Follow the road surface height instead of flying off slopes.
	pos.Y = approach(pos.Y, target.Y+a.env.Config.SpawnLift, step)

	a.body.SetYaw(yaw)
	a.body.SetPosition(pos)

	if road.Distance(pos, target) < a.ReachDistance {
		a.index++
		if a.index >= a.seg.Len() {
			a.transition()
		}
	}
}

// transition moves the agent onto a random connected segment with at least
// one waypoint, or deactivates it when there is none.
func (a *Agent) transition() bool {
	a.state = StateAwaitingTransition

	next := a.seg.Next()
	candidates := make([]*road.Segment, 0, len(next))
	for _, s := range next {
		if s != nil && s.Len() > 0 {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		a.Deactivate()
		return false
	}
	a.seg = candidates[a.env.Rand.Intn(len(candidates))]
	a.index = 0
	a.state = StateFollowing
	return true
}

// BeginHandoff gives the body to the physics simulation: velocities are
// cleared, the impulse is applied at point and autonomous driving pauses for
// the configured duration. Only following agents can be handed off.
func (a *Agent) BeginHandoff(impulse, point r3.Vec) bool {
	if a.state != StateFollowing || !a.body.Kinematic() {
		return false
	}
	a.state = StateExternallyControlled
	a.body.SetKinematic(false)
	a.body.SetVelocity(r3.Vec{})
	a.body.SetAngularVelocity(r3.Vec{})
	a.body.AddImpulseAt(impulse, point)
	a.handoffLeft = a.env.Config.HandoffDuration
	a.env.Events.Emit(Event{
		Type:  EventHandoffStarted,
		Agent: a.ID,
		Pos:   point,
		Data:  r3.Norm(impulse),
	})
	return true
}

func (a *Agent) endHandoff() {
	a.resetToAutonomous()
	a.handoffLeft = 0
	a.state = StateFollowing
	a.env.Events.Emit(Event{Type: EventHandoffEnded, Agent: a.ID, Pos: a.body.Position()})
	a.settle()
}

// resetToAutonomous stops the body and makes it kinematic again. Angular
// velocity can only be cleared while the body is still dynamic.
func (a *Agent) resetToAutonomous() {
	a.body.SetVelocity(r3.Vec{})
	if !a.body.Kinematic() {
		a.body.SetAngularVelocity(r3.Vec{})
	}
	a.body.SetKinematic(true)
}

// settle checks where the impact left the agent. Off the road it is moved to
// the start of the nearest route, or recycled when none is in reach.
func (a *Agent) settle() {
	cfg := a.env.Config
	if a.env.World == nil || cfg.RoadTag == "" {
		return
	}
	pos := a.body.Position()
	if tag, ok := a.env.World.GroundTag(r3.Add(pos, road.Up), cfg.GroundProbe); ok && tag == cfg.RoadTag {
		return
	}
	if a.env.Router == nil {
		a.Deactivate()
		return
	}
	seg := a.env.Router.NearestRoute(pos, nil)
	if seg == nil {
		a.Deactivate()
		return
	}
	a.Place(seg, 0)
}
