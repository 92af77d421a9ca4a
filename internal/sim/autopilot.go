package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"taxitraffic/internal/road"
	"taxitraffic/internal/traffic"
)

// Autopilot drives the player around the network without a human, for the
// headless simulation and the viewer's demo mode. It follows waypoints the
// way traffic agents do but produces throttle and steering input instead of
// moving the body directly.
type Autopilot struct {
	Reach    float64
	Patience float64 // seconds on one waypoint before skipping it

	net    *road.Network
	router traffic.Router
	rng    *traffic.Rand
	seg    *road.Segment
	index  int
	waited float64
}

func NewAutopilot(net *road.Network, router traffic.Router, seed uint64) *Autopilot {
	return &Autopilot{
		Reach:    8,
		Patience: 8,
		net:      net,
		router:   router,
		rng:      traffic.NewRand(seed ^ 0xA070),
	}
}

// Segment returns the segment currently being followed.
func (ap *Autopilot) Segment() *road.Segment { return ap.seg }

// Steer returns the input that moves p toward its next waypoint.
func (ap *Autopilot) Steer(p *Player, dt float64) (throttle, steer float64) {
	pos := p.Position()
	if ap.seg == nil || ap.index >= ap.seg.Len() {
		ap.pick(pos)
		if ap.seg == nil {
			return 0, 0
		}
	}

	target := ap.seg.Target(ap.index)
	ap.waited += dt
	if road.Distance(road.Flat(pos), road.Flat(target)) < ap.Reach || ap.waited > ap.Patience {
		ap.index++
		ap.waited = 0
		if ap.index >= ap.seg.Len() {
			ap.pick(pos)
			if ap.seg == nil {
				return 0, 0
			}
		}
		target = ap.seg.Target(ap.index)
	}

	diff := angDiff(p.Yaw(), road.Heading(road.Flat(r3.Sub(target, pos))))
	steer = clampF(diff*2, -1, 1)
	throttle = 1 - 0.7*math.Min(math.Abs(diff)/(math.Pi/2), 1)
	return throttle, steer
}

// pick moves on to a connected segment, the nearest other route, or any
// usable segment, in that order of preference.
func (ap *Autopilot) pick(pos r3.Vec) {
	prev := ap.seg
	ap.seg, ap.index, ap.waited = nil, 0, 0

	if prev != nil {
		var next []*road.Segment
		for _, s := range prev.Next() {
			if s.Len() > 0 {
				next = append(next, s)
			}
		}
		if len(next) > 0 {
			ap.seg = next[ap.rng.Intn(len(next))]
			return
		}
	}
	if ap.router != nil {
		if s := ap.router.NearestRoute(pos, prev); s != nil {
			ap.seg = s
			return
		}
	}
	if usable := ap.net.Usable(); len(usable) > 0 {
		ap.seg = usable[ap.rng.Intn(len(usable))]
	}
}
