package game

import (
	"hash/fnv"

	"taxitraffic/internal/road"
	"taxitraffic/internal/sim"
	"taxitraffic/internal/traffic"
)

// CarAspect is the width/length ratio of the car sprite.
const CarAspect = 0.48

const curveSteps = 6

type rgba [4]float32

var (
	colRoad      = rgba{0.32, 0.34, 0.38, 1}
	colDeadEnd   = rgba{0.78, 0.25, 0.22, 1}
	colLink      = rgba{0.25, 0.65, 0.45, 0.55}
	colRecording = rgba{0.95, 0.35, 0.85, 1}
	colTaxi      = rgba{0.98, 0.80, 0.10, 1}
	colFlung     = rgba{1.00, 0.45, 0.15, 1}
)

// flash is a short-lived glow where a hand-off happened.
type flash struct {
	x, y float64
	life float64
	ttl  float64
	size float64
}

// Frame holds the per-frame vertex buffers. Buffers are reused between
// frames.
type Frame struct {
	roads   []float32
	links   []float32
	cars    []float32
	glow    []float32
	flashes []flash
}

func appendLine(buf []float32, x0, z0, x1, z1 float64, c rgba) []float32 {
	ax, ay := screenXY(x0, z0)
	bx, by := screenXY(x1, z1)
	return append(buf,
		float32(ax), float32(ay), c[0], c[1], c[2], c[3],
		float32(bx), float32(by), c[0], c[1], c[2], c[3],
	)
}

func appendSprite(buf []float32, x, z, size float64, c rgba, rot float64) []float32 {
	sx, sy := screenXY(x, z)
	return append(buf, float32(sx), float32(sy), float32(size), c[0], c[1], c[2], c[3], float32(rot))
}

// appendSegment strokes a segment. Curved segments are drawn through the
// same Catmull-Rom spline the traffic steers along.
func appendSegment(buf []float32, s *road.Segment, c rgba) []float32 {
	n := s.Len()
	for i := 0; i+1 < n; i++ {
		if s.Mode != road.ModeCurved {
			a, b := s.Waypoints[i], s.Waypoints[i+1]
			buf = appendLine(buf, a.X, a.Z, b.X, b.Z, c)
			continue
		}
		p0, p1, p2, p3 := s.Waypoint(i-1), s.Waypoint(i), s.Waypoint(i+1), s.Waypoint(i+2)
		prev := p1
		for k := 1; k <= curveSteps; k++ {
			p := road.CatmullRom(float64(k)/curveSteps, p0, p1, p2, p3)
			buf = appendLine(buf, prev.X, prev.Z, p.X, p.Z, c)
			prev = p
		}
	}
	return buf
}

// BuildRoads rebuilds the static road and connection buffers. It only needs
// to run after the graph changes.
func (f *Frame) BuildRoads(net *road.Network) {
	f.roads = f.roads[:0]
	f.links = f.links[:0]
	for _, s := range net.Segments() {
		if !s.Usable() {
			continue
		}
		c := colRoad
		if len(s.Next()) == 0 {
			c = colDeadEnd
		}
		f.roads = appendSegment(f.roads, s, c)
		for _, t := range s.Next() {
			if !t.Usable() {
				continue
			}
			a, b := s.Last(), t.First()
			f.links = appendLine(f.links, a.X, a.Z, b.X, b.Z, colLink)
		}
	}
}

// Recording returns the in-progress recorded segment as lines.
func (f *Frame) Recording(rec *road.Recorder, buf []float32) []float32 {
	seg := rec.Current()
	if seg == nil || seg.Len() < 2 {
		return buf[:0]
	}
	return appendSegment(buf[:0], seg, colRecording)
}

func archetypeColor(name string) rgba {
	h := fnv.New32a()
	h.Write([]byte(name))
	v := h.Sum32()
	return rgba{
		0.35 + 0.5*float32(v&0xff)/255,
		0.35 + 0.5*float32((v>>8)&0xff)/255,
		0.35 + 0.5*float32((v>>16)&0xff)/255,
		1,
	}
}

// BuildCars fills the car sprite buffer with active traffic and the taxi.
func (f *Frame) BuildCars(s *sim.Scene) {
	f.cars = f.cars[:0]
	for _, a := range s.Traffic.Agents() {
		if !a.Active() {
			continue
		}
		c := archetypeColor(a.Archetype.Name)
		if a.State() == traffic.StateExternallyControlled {
			c = colFlung
		}
		p := a.Position()
		f.cars = appendSprite(f.cars, p.X, p.Z, a.Archetype.Radius*4, c, -a.Body().Yaw())
	}
	p := s.Player.Position()
	f.cars = appendSprite(f.cars, p.X, p.Z, s.Player.Body.Radius()*4, colTaxi, -s.Player.Yaw())
}

// AddFlash starts an impact flash. strength is in [0, 1].
func (f *Frame) AddFlash(x, z, strength float64) {
	sx, sy := screenXY(x, z)
	f.flashes = append(f.flashes, flash{
		x: sx, y: sy,
		life: 0.5, ttl: 0.5,
		size: 6 + 10*clampF(strength, 0, 1),
	})
}

// UpdateFlashes ages flashes and rebuilds the glow buffer.
func (f *Frame) UpdateFlashes(dt float64) {
	f.glow = f.glow[:0]
	live := f.flashes[:0]
	for _, fl := range f.flashes {
		fl.life -= dt
		if fl.life <= 0 {
			continue
		}
		live = append(live, fl)
		k := float32(fl.life / fl.ttl)
		f.glow = append(f.glow, float32(fl.x), float32(fl.y), float32(fl.size*(2-float64(k))),
			1.0*k, 0.7*k, 0.3*k, 1, 0)
	}
	f.flashes = live
}
