package sim

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/spatial/r3"

	"taxitraffic/internal/config"
	"taxitraffic/internal/physics"
	"taxitraffic/internal/road"
	"taxitraffic/internal/traffic"
)

const (
	roadCellSize  = 2.0
	roadHalfWidth = 4.0
	gridCellSize  = 16.0
)

// Scene wires a road network, the physics space, the traffic coordinator and
// the player's taxi into one steppable world. It is shared by the desktop
// viewer and the headless simulator.
type Scene struct {
	Cfg      config.AppConfig
	Net      *road.Network
	Space    *physics.Space
	Roads    *RoadMap
	Traffic  *traffic.Coordinator
	Recorder *road.Recorder
	Events   *traffic.EventBus
	Player   *Player
	Report   road.Report

	builder *road.Builder
	log     *log.Logger
	impacts int
}

// NewScene builds connections for net, spawns the player at the start of the
// first usable segment and starts traffic. A network traffic cannot run on is
// logged and leaves the scene without traffic rather than failing.
func NewScene(cfg *config.AppConfig, net *road.Network, logger *log.Logger) *Scene {
	if logger == nil {
		logger = log.Default()
	}
	s := &Scene{
		Cfg:    *cfg,
		Net:    net,
		Space:  physics.NewSpace(gridCellSize),
		Roads:  NewRoadMap(roadCellSize, roadHalfWidth, cfg.Traffic.RoadTag),
		Events: traffic.NewEventBus(),
		log:    logger,
	}
	s.Space.Ground = s.Roads.Ground
	s.builder = road.NewBuilder(cfg.Road, logger)
	s.Recorder = road.NewRecorder(net, cfg.Recorder.Step, cfg.Recorder.NameBase, cfg.Recorder.StartCount, logger)

	start, yaw := r3.Vec{}, 0.0
	if usable := net.Usable(); len(usable) > 0 {
		seg := usable[0]
		start = seg.First()
		yaw = road.Heading(road.Flat(r3.Sub(seg.Waypoints[1], seg.First())))
	}
	start.Y += 1.2
	s.Player = NewPlayer(s.Space, start, yaw)

	layer := cfg.Traffic.TrafficLayer
	s.Traffic = traffic.NewCoordinator(cfg.Traffic, traffic.Deps{
		Network:  net,
		World:    s.Space,
		Observer: s.Player,
		Embodier: traffic.EmbodierFunc(func(id int, arch traffic.Archetype) traffic.Body {
			return s.Space.NewBody(layer, arch.Radius, arch.Mass)
		}),
		Archetypes: cfg.Archetypes,
		Logger:     logger,
		Events:     s.Events,
	})
	s.Space.OnContact(s.onContact)

	s.Rebuild()
	if err := s.Traffic.Start(); err != nil {
		logger.Printf("[sim] running without traffic: %v", err)
	}
	return s
}

// onContact turns the taxi ramming a traffic car into a physics hand-off.
func (s *Scene) onContact(c physics.Contact) {
	if c.Self != s.Player.Body || c.Other.Layer()&s.Cfg.Traffic.TrafficLayer == 0 {
		return
	}
	hit := traffic.Collision{
		Layer:            c.Other.Layer(),
		Contacts:         []traffic.ContactPoint{{Point: c.Point, Normal: c.Normal}},
		RelativeVelocity: c.RelativeVelocity,
	}
	if s.Traffic.Collide(c.Other, hit) {
		s.impacts++
		s.Player.Crash()
	}
}

// Step advances the world by dt. Player input must already be applied.
func (s *Scene) Step(dt float64) {
	s.Space.Step(dt)
	s.Traffic.Tick(dt)
	if s.Recorder.Recording() {
		s.Recorder.Update(s.Player.Position())
	}
}

// Rebuild reconnects the network, refreshes the road surface and logs the
// diagnostics.
func (s *Scene) Rebuild() int {
	n := s.Traffic.RebuildGraph(s.builder)
	s.Roads.Rebuild(s.Net)
	s.Report = road.Diagnose(s.Net)
	r := s.Report
	s.log.Printf("[road] %d segments (%d usable), %d connections, %d dead ends, %d components (largest %d)",
		r.Segments, r.Usable, r.Connections, len(r.DeadEnds), r.Components, r.Largest)
	return n
}

// ToggleRecording starts recording at the taxi, or finishes the current
// recording and wires the new segment into the network.
func (s *Scene) ToggleRecording() *road.Segment {
	if !s.Recorder.Recording() {
		return s.Recorder.Start(s.Player.Position())
	}
	seg := s.Recorder.Stop()
	s.Rebuild()
	return seg
}

// Reconfigure applies a reloaded config. Connections are rebuilt only when
// the connection heuristics changed.
func (s *Scene) Reconfigure(cfg *config.AppConfig) {
	prev := s.Cfg
	s.Cfg = *cfg
	s.Traffic.Reconfigure(cfg.Traffic)
	s.Recorder.Step = cfg.Recorder.Step
	if cfg.Road != prev.Road {
		s.builder = road.NewBuilder(cfg.Road, s.log)
		s.Rebuild()
	}
}

// Save writes the network, including recorded segments, to path.
func (s *Scene) Save(path string) error {
	if s.Recorder.Recording() {
		s.ToggleRecording()
	}
	if err := s.Net.SaveFile(path); err != nil {
		return fmt.Errorf("save roads: %w", err)
	}
	s.log.Printf("[road] saved %d segments to %s", s.Net.Len(), path)
	return nil
}

// Impacts counts hand-offs triggered by the taxi.
func (s *Scene) Impacts() int { return s.impacts }

// Stats summarises the traffic population.
type Stats struct {
	Active    int
	Target    int
	Capacity  int
	Following int
	Flung     int
}

func (s *Scene) Stats() Stats {
	st := Stats{
		Active:   s.Traffic.ActiveCount(),
		Target:   s.Traffic.Target(),
		Capacity: s.Traffic.Capacity(),
	}
	for _, a := range s.Traffic.Agents() {
		switch a.State() {
		case traffic.StateFollowing:
			st.Following++
		case traffic.StateExternallyControlled:
			st.Flung++
		}
	}
	return st
}

func (st Stats) String() string {
	return fmt.Sprintf("active %d/%d (pool %d), following %d, flung %d",
		st.Active, st.Target, st.Capacity, st.Following, st.Flung)
}
