package sim

import (
	"io"
	"log"
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"taxitraffic/internal/config"
	"taxitraffic/internal/physics"
	"taxitraffic/internal/road"
	"taxitraffic/internal/traffic"
)

func v(x, y, z float64) r3.Vec { return r3.Vec{X: x, Y: y, Z: z} }

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

// block is a one-way loop around a 100x100 block.
func block() *road.Network {
	return road.NewNetwork(BlockLoop("blk", 0, 0, 100)...)
}

func testConfig() *config.AppConfig {
	cfg := config.Default()
	cfg.Traffic.Capacity = 20
	cfg.Traffic.Seed = 11
	cfg.Archetypes = []traffic.Archetype{{Name: "sedan", Radius: 1.2, Mass: 1200}}
	return &cfg
}

func TestRoadMapGround(t *testing.T) {
	m := NewRoadMap(2, 4, "Road")
	m.Rebuild(road.NewNetwork(
		road.NewSegment("flat", v(0, 0, 0), v(20, 0, 0)),
		road.NewSegment("bridge", v(0, 5, 40), v(20, 5, 40)),
	))
	tests := []struct {
		x, z   float64
		height float64
		tag    string
	}{
		{10, 0, 0, "Road"},
		{10, 3, 0, "Road"},
		{10, 10, 0, TagOffRoad},
		{-20, 0, 0, TagOffRoad},
		{10, 40, 5, "Road"},
	}
	for _, tt := range tests {
		h, tag := m.Ground(tt.x, tt.z)
		if h != tt.height || tag != tt.tag {
			t.Errorf("Ground(%v, %v) = %v %q, want %v %q", tt.x, tt.z, h, tag, tt.height, tt.tag)
		}
	}
	if m.Cells() == 0 {
		t.Fatal("no road cells")
	}
}

func TestPlayerDrive(t *testing.T) {
	const dt = 1.0 / 60
	space := physics.NewSpace(16)
	p := NewPlayer(space, v(0, 1.2, 0), 0)
	for i := 0; i < 120; i++ {
		p.Drive(1, 0, dt)
		space.Step(dt)
	}
	if p.Speed() < 27 {
		t.Fatalf("speed after 2s = %v", p.Speed())
	}
	if pos := p.Position(); pos.Z < 20 || math.Abs(pos.X) > 1e-6 {
		t.Fatalf("position = %v, want straight ahead along +Z", pos)
	}

	for i := 0; i < 30; i++ {
		p.Drive(1, 1, dt)
		space.Step(dt)
	}
	if p.Yaw() <= 0 {
		t.Fatalf("yaw = %v, positive steer should turn right", p.Yaw())
	}

	for i := 0; i < 600; i++ {
		p.Drive(0, 0, dt)
		space.Step(dt)
	}
	if p.Speed() != 0 {
		t.Fatalf("coasting speed = %v", p.Speed())
	}
}

func TestSceneBuildsBlock(t *testing.T) {
	s := NewScene(testConfig(), block(), quiet())
	r := s.Report
	if r.Connections != 4 || len(r.DeadEnds) != 0 || r.Components != 1 {
		t.Fatalf("report = %+v", r)
	}
	if s.Traffic.ActiveCount() == 0 {
		t.Fatal("no traffic spawned")
	}
	if h, tag := s.Roads.Ground(0, 50); tag != "Road" || h != 0 {
		t.Fatalf("ground on the north side = %v %q", h, tag)
	}
}

func TestSceneAutopilotRun(t *testing.T) {
	const dt = 1.0 / 60
	s := NewScene(testConfig(), block(), quiet())
	ap := NewAutopilot(s.Net, s.Traffic, 5)
	start := s.Player.Position()

	farthest := 0.0
	for i := 0; i < 60*30; i++ {
		th, st := ap.Steer(s.Player, dt)
		s.Player.Drive(th, st, dt)
		s.Step(dt)
		if n := s.Traffic.ActiveCount(); n > s.Traffic.Target() {
			t.Fatalf("step %d: active %d above target %d", i, n, s.Traffic.Target())
		}
		farthest = math.Max(farthest, road.Distance(start, s.Player.Position()))
	}
	if farthest < 50 {
		t.Fatalf("autopilot only got %.1f from the start", farthest)
	}
	if ap.Segment() == nil {
		t.Fatal("autopilot lost the network")
	}
}

func TestRammingHandsOff(t *testing.T) {
	const dt = 1.0 / 60
	cfg := testConfig()
	cfg.Traffic.Capacity = 1
	cfg.Traffic.Density = 1
	var pts []r3.Vec
	for z := 0.0; z <= 400; z += 10 {
		pts = append(pts, v(0, 0, z))
	}
	s := NewScene(cfg, road.NewNetwork(road.NewSegment("avenue", pts...)), quiet())

	agent := s.Traffic.Agents()[0]
	if !agent.Active() {
		t.Fatal("agent not placed")
	}
	s.Player.Body.SetPosition(r3.Sub(agent.Position(), v(0, -1, 4)))
	for i := 0; i < 120 && agent.State() == traffic.StateFollowing; i++ {
		vel := s.Player.Body.Velocity()
		s.Player.Body.SetVelocity(v(0, vel.Y, 20))
		s.Step(dt)
	}
	if agent.State() != traffic.StateExternallyControlled {
		t.Fatalf("state = %v", agent.State())
	}
	if s.Impacts() != 1 {
		t.Fatalf("impacts = %d", s.Impacts())
	}
	if agent.Body().Velocity().Z <= 0 {
		t.Fatalf("car not pushed forward: %v", agent.Body().Velocity())
	}
}

func TestRecordAndSave(t *testing.T) {
	s := NewScene(testConfig(), block(), quiet())
	before := s.Net.Len()

	s.Player.Body.SetPosition(v(50, 1.2, 50))
	if seg := s.ToggleRecording(); seg == nil || !s.Recorder.Recording() {
		t.Fatal("recording did not start")
	}
	for x := 0.0; x <= 40; x++ {
		s.Player.Body.SetPosition(v(50+x, 1.2, 50))
		s.Step(0)
	}
	seg := s.ToggleRecording()
	if s.Recorder.Recording() || seg == nil {
		t.Fatal("recording did not stop")
	}
	if seg.Len() != 5 || seg.Mode != road.ModeCurved {
		t.Fatalf("recorded %d waypoints in mode %v", seg.Len(), seg.Mode)
	}
	if s.Net.Len() != before+1 {
		t.Fatalf("network has %d segments, want %d", s.Net.Len(), before+1)
	}
	if _, tag := s.Roads.Ground(70, 50); tag != "Road" {
		t.Fatal("recorded road not on the road map")
	}

	path := filepath.Join(t.TempDir(), "roads.json")
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := road.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != s.Net.Len() || loaded.Lookup(seg.ID) == nil {
		t.Fatalf("loaded %d segments", loaded.Len())
	}
}

func TestSampleNetwork(t *testing.T) {
	net := SampleNetwork(2, 3, 100, 40)
	if net.Len() != 24 {
		t.Fatalf("segments = %d", net.Len())
	}
	road.NewBuilder(road.DefaultBuildConfig(), quiet()).Build(net)
	r := road.Diagnose(net)
	if r.Connections != 24 || len(r.DeadEnds) != 0 || r.Components != 6 {
		t.Fatalf("report = %+v", r)
	}
}

func TestReconfigureRebuildsOnRoadChange(t *testing.T) {
	s := NewScene(testConfig(), block(), quiet())
	cfg := testConfig()
	cfg.Road.MaxAngle = 30
	s.Reconfigure(cfg)
	if s.Report.Connections != 0 {
		t.Fatalf("connections with a 30 degree limit = %d", s.Report.Connections)
	}
	cfg.Traffic.Density = 0.1
	s.Reconfigure(cfg)
	if got := s.Traffic.Config().Density; got != 0.1 {
		t.Fatalf("density = %v", got)
	}
}
