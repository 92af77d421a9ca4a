package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"taxitraffic/internal/physics"
	"taxitraffic/internal/road"
)

// LayerPlayer is the physics layer of the player's taxi.
const LayerPlayer uint32 = 1 << 1

// Player is the taxi. It is a dynamic body steered arcade style: throttle
// accelerates along the heading, steering turns proportionally to speed and
// grip bleeds off sideways slide.
type Player struct {
	Body *physics.Body

	MaxSpeed    float64
	ReverseMax  float64
	Accel       float64
	Brake       float64
	Drag        float64
	TurnRate    float64
	Grip        float64
	CrashDamp   float64
	SteerSpeed0 float64 // speed at which steering reaches full authority

	speed float64
}

func NewPlayer(space *physics.Space, pos r3.Vec, yaw float64) *Player {
	b := space.NewBody(LayerPlayer, 1.2, 1400)
	b.SetPosition(pos)
	b.SetYaw(yaw)
	b.SetActive(true)
	return &Player{
		Body:        b,
		MaxSpeed:    28,
		ReverseMax:  8,
		Accel:       14,
		Brake:       30,
		Drag:        5,
		TurnRate:    2.4,
		Grip:        6,
		CrashDamp:   0.45,
		SteerSpeed0: 6,
	}
}

func (p *Player) Position() r3.Vec { return p.Body.Position() }

func (p *Player) Yaw() float64 { return p.Body.Yaw() }

// Speed is the signed speed along the heading.
func (p *Player) Speed() float64 { return p.speed }

// Drive applies one frame of input. throttle and steer are in [-1, 1];
// positive steer turns right.
func (p *Player) Drive(throttle, steer, dt float64) {
	if dt <= 0 {
		return
	}
	throttle = clampF(throttle, -1, 1)
	steer = clampF(steer, -1, 1)

	yaw := p.Body.Yaw()
	vel := p.Body.Velocity()
	flat := road.Flat(vel)
	fwd := road.Forward(yaw)
	// Forward speed is held here, not read back from the scrubbed body.
	lateral := r3.Sub(flat, r3.Scale(r3.Dot(flat, fwd), fwd))
	speed := p.speed

	switch {
	case throttle > 0 && speed >= 0:
		speed = approach(speed, p.MaxSpeed*throttle, p.Accel*dt)
	case throttle > 0:
		speed = approach(speed, 0, p.Brake*dt)
	case throttle < 0 && speed > 0:
		speed = approach(speed, 0, p.Brake*dt)
	case throttle < 0:
		speed = approach(speed, p.ReverseMax*throttle, p.Accel*dt)
	default:
		speed = approach(speed, 0, p.Drag*dt)
	}

	authority := clampF(speed/p.SteerSpeed0, -1, 1)
	yaw = wrapAngle(yaw + steer*p.TurnRate*authority*dt)

	lateral = r3.Scale(math.Max(0, 1-p.Grip*dt), lateral)
	out := r3.Add(r3.Scale(speed, road.Forward(yaw)), lateral)
	out.Y = vel.Y

	p.speed = speed
	p.Body.SetYaw(yaw)
	p.Body.SetVelocity(out)
}

// Crash bleeds speed after ramming something.
func (p *Player) Crash() {
	p.speed *= p.CrashDamp
	p.Body.SetVelocity(r3.Scale(p.CrashDamp, p.Body.Velocity()))
}
