package road

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Up is the world vertical axis. Roads lie roughly in the XZ plane.
var Up = r3.Vec{Y: 1}

const epsilonNormal = 1e-5

// Normalize returns the unit vector of v, or the zero vector when v is too
// short to have a meaningful direction.
func Normalize(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n < epsilonNormal {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// Flat drops the vertical component of v.
func Flat(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Z: v.Z}
}

// AngleDeg returns the unsigned angle between a and b in degrees.
// A zero-length operand yields 0.
func AngleDeg(a, b r3.Vec) float64 {
	den := math.Sqrt(r3.Norm2(a) * r3.Norm2(b))
	if den < 1e-15 {
		return 0
	}
	c := r3.Dot(a, b) / den
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c) * 180 / math.Pi
}

// Distance is the straight-line distance between a and b.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// Heading returns the yaw (radians about Up) that faces along dir.
// Yaw 0 faces +Z, positive yaw turns toward +X.
func Heading(dir r3.Vec) float64 {
	return math.Atan2(dir.X, dir.Z)
}

// Forward is the horizontal unit vector for a yaw.
func Forward(yaw float64) r3.Vec {
	return r3.Vec{X: math.Sin(yaw), Z: math.Cos(yaw)}
}

// CatmullRom evaluates the uniform Catmull-Rom spline through p1..p2 at t.
func CatmullRom(t float64, p0, p1, p2, p3 r3.Vec) r3.Vec {
	t2 := t * t
	t3 := t2 * t

	a := r3.Scale(2, p1)
	b := r3.Scale(t, r3.Sub(p2, p0))
	c := r3.Scale(t2, r3.Add(r3.Sub(r3.Scale(2, p0), r3.Scale(5, p1)), r3.Sub(r3.Scale(4, p2), p3)))
	d := r3.Scale(t3, r3.Add(r3.Sub(r3.Scale(3, p1), p0), r3.Sub(p3, r3.Scale(3, p2))))
	return r3.Scale(0.5, r3.Add(r3.Add(a, b), r3.Add(c, d)))
}
