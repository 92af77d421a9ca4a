package game

import (
	"math"

	"taxitraffic/internal/traffic"
)

const (
	MinZoom = 1.0
	MaxZoom = 24.0
)

// Camera looks straight down. X is world X and Y is world -Z, so north is
// up on screen.
type Camera struct {
	X, Y float64 // screen-plane position of the camera centre
	Zoom float64 // screen pixels per metre

	// Screen shake.
	ShakeX, ShakeY float64 // current offset in metres
	ShakeTimer     float64 // remaining shake time
	ShakeIntensity float64 // max offset magnitude
}

// screenXY maps a world position onto the camera plane.
func screenXY(x, z float64) (float64, float64) { return x, -z }

// Follow eases the camera toward a world position. A non-positive rate
// snaps.
func (c *Camera) Follow(x, z, rate, dt float64) {
	tx, ty := screenXY(x, z)
	if rate <= 0 {
		c.X, c.Y = tx, ty
		return
	}
	k := 1 - math.Exp(-rate*dt)
	c.X += (tx - c.X) * k
	c.Y += (ty - c.Y) * k
}

// AddShake triggers screen shake with given intensity and duration.
func (c *Camera) AddShake(intensity, duration float64) {
	if intensity > c.ShakeIntensity {
		c.ShakeIntensity = intensity
	}
	if duration > c.ShakeTimer {
		c.ShakeTimer = duration
	}
}

// UpdateShake decays shake and computes random offsets.
func (c *Camera) UpdateShake(dt float64, seed uint64) {
	if c.ShakeTimer <= 0 {
		c.ShakeX = 0
		c.ShakeY = 0
		c.ShakeIntensity = 0
		return
	}
	c.ShakeTimer -= dt
	if c.ShakeTimer < 0 {
		c.ShakeTimer = 0
	}
	t := c.ShakeTimer
	rr := traffic.NewRand(seed ^ uint64(t*10000))
	mag := c.ShakeIntensity * (t / (t + 0.08))
	c.ShakeX = rangeF(rr, -mag, mag)
	c.ShakeY = rangeF(rr, -mag, mag)
}

// EffectivePos returns camera position with shake applied.
func (c *Camera) EffectivePos() (float64, float64) {
	return c.X + c.ShakeX, c.Y + c.ShakeY
}

func (c *Camera) ClampZoom() {
	c.Zoom = clampF(c.Zoom, MinZoom, MaxZoom)
}
