package road

import (
	"bytes"
	"io"
	"log"
	"strings"
	"testing"
)

func TestDiagnose(t *testing.T) {
	a := NewSegment("a", v(0, 0, 0), v(0, 0, 10))
	b := NewSegment("b", v(0, 0, 10), v(0, 0, 0))
	c := NewSegment("c", v(50, 0, 0), v(50, 0, 10))
	d := NewSegment("d", v(90, 0, 0))
	a.Connect(b)
	b.Connect(a)

	rep := Diagnose(NewNetwork(a, b, c, d))
	if rep.Segments != 4 || rep.Usable != 3 {
		t.Fatalf("segments=%d usable=%d", rep.Segments, rep.Usable)
	}
	if rep.Connections != 2 {
		t.Fatalf("connections = %d, want 2", rep.Connections)
	}
	if len(rep.DeadEnds) != 1 || rep.DeadEnds[0] != c {
		t.Fatalf("dead ends = %v, want [c]", rep.DeadEnds)
	}
	if rep.Components != 2 || rep.Largest != 2 {
		t.Fatalf("components=%d largest=%d, want 2 and 2", rep.Components, rep.Largest)
	}
}

const sampleRoads = `{
  "segments": [
    {"id": "north", "name": "North St", "mode": "curved", "waypoints": [[0,0,0],[0,0,10],[5,0,20]]},
    {"waypoints": [[0,0,30],[0,0,40]]}
  ]
}`

func TestLoad(t *testing.T) {
	net, err := Load(strings.NewReader(sampleRoads))
	if err != nil {
		t.Fatal(err)
	}
	if net.Len() != 2 {
		t.Fatalf("len = %d", net.Len())
	}
	north := net.Lookup("north")
	if north == nil || north.Mode != ModeCurved || north.Len() != 3 || north.Waypoints[2] != v(5, 0, 20) {
		t.Fatalf("north = %+v", north)
	}
	second := net.Segments()[1]
	if second.ID == "" || second.Mode != ModeStraight {
		t.Fatalf("second = %+v", second)
	}

	var buf bytes.Buffer
	if err := net.Save(&buf); err != nil {
		t.Fatal(err)
	}
	again, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := again.Lookup(second.ID); got == nil || got.Len() != 2 {
		t.Fatalf("saved segment %s not reloaded", second.ID)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"bad json":     `{"segments": [`,
		"unknown mode": `{"segments":[{"id":"x","mode":"zigzag","waypoints":[]}]}`,
		"duplicate id": `{"segments":[{"id":"x","waypoints":[]},{"id":"x","waypoints":[]}]}`,
	}
	for name, doc := range tests {
		if _, err := Load(strings.NewReader(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRecorder(t *testing.T) {
	net := NewNetwork()
	rec := NewRecorder(net, 10, "Recorded_", 173, log.New(io.Discard, "", 0))

	s := rec.Toggle(v(0, 0, 0))
	if !rec.Recording() || s.Name != "Recorded_174" || s.Mode != ModeCurved {
		t.Fatalf("start: recording=%v segment=%+v", rec.Recording(), s)
	}
	if net.Len() != 1 {
		t.Fatal("segment not added on start")
	}
	for _, z := range []float64{5, 10, 15, 21} {
		rec.Update(v(0, 0, z))
	}
	if done := rec.Toggle(v(0, 0, 25)); done != s || rec.Recording() {
		t.Fatal("toggle did not stop the recording")
	}
	want := []float64{0, 10, 21}
	if s.Len() != len(want) {
		t.Fatalf("waypoints = %v", s.Waypoints)
	}
	for i, z := range want {
		if s.Waypoints[i].Z != z {
			t.Fatalf("waypoint %d = %v, want z=%v", i, s.Waypoints[i], z)
		}
	}
	if rec.Update(v(0, 0, 100)) {
		t.Fatal("update after stop added a waypoint")
	}
}
