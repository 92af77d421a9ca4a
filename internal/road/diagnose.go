package road

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Report summarises the shape of a built network.
type Report struct {
	Segments    int
	Usable      int
	Connections int
	// DeadEnds lists usable segments with no way out; agents reaching their
	// end are recycled.
	DeadEnds []*Segment
	// Components is the number of strongly connected components among
	// usable segments; Largest is the size of the biggest one.
	Components int
	Largest    int
}

// Graph mirrors the connection sets of n into a gonum directed graph. Node
// IDs are segment indices in n.Segments().
func Graph(n *Network) *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	index := make(map[*Segment]int64, n.Len())
	for i, s := range n.Segments() {
		index[s] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for i, s := range n.Segments() {
		for _, t := range s.Next() {
			j, ok := index[t]
			if !ok {
				continue
			}
			g.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(j)})
		}
	}
	return g
}

// Diagnose inspects n for dead ends and connectivity.
func Diagnose(n *Network) Report {
	segs := n.Segments()
	rep := Report{Segments: len(segs)}

	g := Graph(n)
	usable := make(map[int64]bool, len(segs))
	for i, s := range segs {
		if !s.Usable() {
			continue
		}
		usable[int64(i)] = true
		rep.Usable++
		rep.Connections += len(s.Next())
		if g.From(int64(i)).Len() == 0 {
			rep.DeadEnds = append(rep.DeadEnds, s)
		}
	}

	for _, comp := range topo.TarjanSCC(g) {
		size := countUsable(comp, usable)
		if size == 0 {
			continue
		}
		rep.Components++
		if size > rep.Largest {
			rep.Largest = size
		}
	}
	return rep
}

func countUsable(nodes []graph.Node, usable map[int64]bool) int {
	c := 0
	for _, nd := range nodes {
		if usable[nd.ID()] {
			c++
		}
	}
	return c
}
