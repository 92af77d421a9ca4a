package road

// Network is the arena of all road segments in authoring order. Segments are
// added while loading or recording and are never removed during a session.
type Network struct {
	segments []*Segment
	byID     map[string]*Segment
}

func NewNetwork(segs ...*Segment) *Network {
	n := &Network{byID: make(map[string]*Segment, len(segs))}
	for _, s := range segs {
		n.Add(s)
	}
	return n
}

// Add appends s to the network. A nil segment is ignored.
func (n *Network) Add(s *Segment) {
	if s == nil {
		return
	}
	n.segments = append(n.segments, s)
	if s.ID != "" {
		n.byID[s.ID] = s
	}
}

// Segments returns every segment, including ones too short to drive on.
func (n *Network) Segments() []*Segment { return n.segments }

// Usable returns the segments with at least two waypoints.
func (n *Network) Usable() []*Segment {
	out := make([]*Segment, 0, len(n.segments))
	for _, s := range n.segments {
		if s.Usable() {
			out = append(out, s)
		}
	}
	return out
}

func (n *Network) Len() int { return len(n.segments) }

// Lookup finds a segment by ID.
func (n *Network) Lookup(id string) *Segment { return n.byID[id] }

// Connections counts all directed connections.
func (n *Network) Connections() int {
	total := 0
	for _, s := range n.segments {
		total += len(s.next)
	}
	return total
}
