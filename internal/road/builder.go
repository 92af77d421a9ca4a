package road

import (
	"log"

	"gonum.org/v1/gonum/spatial/r3"
)

// AheadAngle bounds how far off the exit direction the next segment's start
// may lie, in degrees.
const AheadAngle = 60.0

// BuildConfig holds the connection heuristics.
type BuildConfig struct {
	// ConnectionRadius is the maximum gap between an end and a start.
	ConnectionRadius float64 `mapstructure:"connection_radius"`
	// MaxAngle is the maximum angle in degrees between exit and entry directions.
	MaxAngle float64 `mapstructure:"max_angle"`
}

func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		ConnectionRadius: 12,
		MaxAngle:         60,
	}
}

// Builder infers segment connections from endpoint proximity and direction.
// It runs at load time or on request, never per tick.
type Builder struct {
	cfg BuildConfig
	log *log.Logger
}

func NewBuilder(cfg BuildConfig, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{cfg: cfg, log: logger}
}

// Build clears every connection in n and reconnects each ordered pair of
// usable segments that passes the distance, alignment and ahead filters.
// It returns the number of connections made.
func (b *Builder) Build(n *Network) int {
	segs := n.Segments()
	for _, s := range segs {
		s.ClearConnections()
	}
	b.log.Printf("[road] cleared connections on %d segments", len(segs))

	made := 0
	for _, a := range segs {
		if !a.Usable() {
			continue
		}
		for _, c := range segs {
			if !b.Connects(a, c) {
				continue
			}
			if a.Connect(c) {
				made++
			}
		}
	}
	b.log.Printf("[road] built %d connections", made)
	return made
}

// Connects reports whether a directed connection a->c passes all filters.
func (b *Builder) Connects(a, c *Segment) bool {
	if a == nil || c == nil || a == c || !a.Usable() || !c.Usable() {
		return false
	}
	endA := a.Last()
	startC := c.First()

	if Distance(endA, startC) > b.cfg.ConnectionRadius {
		return false
	}

	dirA := Normalize(r3.Sub(endA, a.Waypoints[len(a.Waypoints)-2]))
	dirC := Normalize(r3.Sub(c.Waypoints[1], startC))
	if AngleDeg(dirA, dirC) > b.cfg.MaxAngle {
		return false
	}

	dirToC := Normalize(r3.Sub(startC, endA))
	return AngleDeg(dirA, dirToC) <= AheadAngle
}
