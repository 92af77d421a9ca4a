package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"taxitraffic/internal/road"
)

// BlockLoop returns the four sides of a one-way loop around a square block
// with its south-west corner at (ox, oz). Each side turns in over its first
// two waypoints so consecutive sides pass the default connection filters.
func BlockLoop(name string, ox, oz, size float64) []*road.Segment {
	p := func(x, z float64) r3.Vec { return r3.Vec{X: ox + x, Z: oz + z} }
	l := size

	var a, b, c, d []r3.Vec
	a = append(a, p(3, -1), p(0, 4))
	for z := 14.0; z <= l-6; z += 10 {
		a = append(a, p(0, z))
	}
	a = append(a, p(0, l))

	b = append(b, p(3, l+3), p(8, l+6))
	for x := 18.0; x <= l-2; x += 10 {
		b = append(b, p(x, l+6))
	}

	c = append(c, p(l+1, l+3), p(l+4, l-2))
	for z := l - 12; z >= 8; z -= 10 {
		c = append(c, p(l+4, z))
	}

	d = append(d, p(l+1, 5), p(l-4, 2))
	for x := l - 14; x >= 6; x -= 10 {
		d = append(d, p(x, 2))
	}
	return []*road.Segment{
		road.NewSegment(name+"_n", a...),
		road.NewSegment(name+"_e", b...),
		road.NewSegment(name+"_s", c...),
		road.NewSegment(name+"_w", d...),
	}
}

// SampleNetwork lays out nx by nz block loops on a grid. It is used when no
// road file is available.
func SampleNetwork(nx, nz int, size, gap float64) *road.Network {
	net := road.NewNetwork()
	for i := 0; i < nx; i++ {
		for j := 0; j < nz; j++ {
			ox := float64(i) * (size + gap)
			oz := float64(j) * (size + gap)
			for _, s := range BlockLoop(fmt.Sprintf("block_%d_%d", i, j), ox, oz, size) {
				net.Add(s)
			}
		}
	}
	return net
}
