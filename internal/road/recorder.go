package road

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/spatial/r3"
)

// Recorder turns a drive into a new segment, dropping a waypoint every Step
// units travelled.
type Recorder struct {
	Step     float64
	NameBase string

	net    *Network
	log    *log.Logger
	count  int
	cur    *Segment
	lastAt r3.Vec
}

// NewRecorder records into net. Recorded segments are numbered from
// startCount+1.
func NewRecorder(net *Network, step float64, nameBase string, startCount int, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	if step <= 0 {
		step = 10
	}
	return &Recorder{
		Step:     step,
		NameBase: nameBase,
		net:      net,
		log:      logger,
		count:    startCount,
	}
}

func (r *Recorder) Recording() bool { return r.cur != nil }

// Current is the segment being recorded, or nil.
func (r *Recorder) Current() *Segment { return r.cur }

// Toggle starts a recording at pos, or stops the current one. It returns the
// segment that was started or finished.
func (r *Recorder) Toggle(pos r3.Vec) *Segment {
	if r.cur == nil {
		return r.Start(pos)
	}
	return r.Stop()
}

// Start begins a new curved segment with its first waypoint at pos and adds
// it to the network straight away.
func (r *Recorder) Start(pos r3.Vec) *Segment {
	if r.cur != nil {
		r.Stop()
	}
	r.count++
	s := NewSegment(fmt.Sprintf("%s%d", r.NameBase, r.count))
	s.Mode = ModeCurved
	r.net.Add(s)
	r.cur = s
	r.add(pos)
	r.log.Printf("[road] recording %s", s)
	return s
}

// Stop ends the current recording.
func (r *Recorder) Stop() *Segment {
	s := r.cur
	if s == nil {
		return nil
	}
	r.cur = nil
	r.log.Printf("[road] recorded %s with %d waypoints", s, s.Len())
	return s
}

// Update drops a waypoint when pos is at least Step away from the last one.
func (r *Recorder) Update(pos r3.Vec) bool {
	if r.cur == nil {
		return false
	}
	if Distance(pos, r.lastAt) < r.Step {
		return false
	}
	r.add(pos)
	return true
}

func (r *Recorder) add(pos r3.Vec) {
	r.cur.Append(pos)
	r.lastAt = pos
}
