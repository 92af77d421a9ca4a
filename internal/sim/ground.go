package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"taxitraffic/internal/road"
)

// TagOffRoad is the surface tag everywhere the road map has no road.
const TagOffRoad = "Grass"

type cellKey struct{ X, Z int }

// RoadMap rasterises road polylines into a uniform XZ grid so ground queries
// stay O(1) no matter how large the network is. Each road cell stores the
// surface height of the road passing through it.
type RoadMap struct {
	Tag       string
	cellSize  float64
	halfWidth float64
	cells     map[cellKey]float64
}

func NewRoadMap(cellSize, halfWidth float64, tag string) *RoadMap {
	if cellSize <= 0 {
		cellSize = 2
	}
	return &RoadMap{
		Tag:       tag,
		cellSize:  cellSize,
		halfWidth: halfWidth,
		cells:     make(map[cellKey]float64),
	}
}

func (m *RoadMap) key(x, z float64) cellKey {
	return cellKey{X: int(math.Floor(x / m.cellSize)), Z: int(math.Floor(z / m.cellSize))}
}

// Rebuild re-rasterises every segment of n.
func (m *RoadMap) Rebuild(n *road.Network) {
	clear(m.cells)
	for _, s := range n.Segments() {
		switch s.Len() {
		case 0:
		case 1:
			m.stamp(s.First())
		default:
			for i := 0; i+1 < s.Len(); i++ {
				m.stroke(s.Waypoints[i], s.Waypoints[i+1])
			}
		}
	}
}

func (m *RoadMap) stroke(a, b r3.Vec) {
	d := r3.Sub(b, a)
	steps := int(math.Ceil(road.Distance(a, b) / (m.cellSize * 0.5)))
	if steps < 1 {
		steps = 1
	}
	for k := 0; k <= steps; k++ {
		m.stamp(r3.Add(a, r3.Scale(float64(k)/float64(steps), d)))
	}
}

func (m *RoadMap) stamp(p r3.Vec) {
	lo := m.key(p.X-m.halfWidth, p.Z-m.halfWidth)
	hi := m.key(p.X+m.halfWidth, p.Z+m.halfWidth)
	lim := m.halfWidth + m.cellSize*0.5
	for gz := lo.Z; gz <= hi.Z; gz++ {
		for gx := lo.X; gx <= hi.X; gx++ {
			cx := (float64(gx) + 0.5) * m.cellSize
			cz := (float64(gz) + 0.5) * m.cellSize
			if math.Hypot(cx-p.X, cz-p.Z) > lim {
				continue
			}
			k := cellKey{X: gx, Z: gz}
			// Overlapping roads keep the higher deck.
			if h, ok := m.cells[k]; !ok || p.Y > h {
				m.cells[k] = p.Y
			}
		}
	}
}

// Ground reports the surface height and tag at (x, z). Off-road terrain is
// flat at height zero.
func (m *RoadMap) Ground(x, z float64) (float64, string) {
	if h, ok := m.cells[m.key(x, z)]; ok {
		return h, m.Tag
	}
	return 0, TagOffRoad
}

// Cells is the number of road cells.
func (m *RoadMap) Cells() int { return len(m.cells) }
