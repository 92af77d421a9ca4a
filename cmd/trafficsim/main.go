// Command trafficsim runs the traffic simulation without a window. It loads
// a road network, builds and diagnoses its connections, then drives the taxi
// on autopilot at a fixed step and logs the traffic population.
package main

import (
	"flag"
	"log"

	"taxitraffic/internal/config"
	"taxitraffic/internal/road"
	"taxitraffic/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	roadsPath := flag.String("roads", "", "road network file (overrides the config)")
	seconds := flag.Float64("seconds", 60, "simulated time")
	step := flag.Float64("step", 1.0/60, "fixed time step")
	every := flag.Float64("report", 5, "seconds between stats lines")
	seed := flag.Uint64("seed", 0, "traffic seed (0 keeps the configured seed)")
	sample := flag.Bool("sample", false, "ignore the road file and use the sample block grid")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("trafficsim: %v", err)
	}
	if *seed != 0 {
		cfg.Traffic.Seed = *seed
	}
	path := cfg.Roads
	if *roadsPath != "" {
		path = *roadsPath
	}

	var net *road.Network
	if *sample {
		net = sim.SampleNetwork(3, 3, 100, 40)
	} else if net, err = road.LoadFile(path); err != nil {
		log.Fatalf("trafficsim: %v", err)
	}

	scene := sim.NewScene(cfg, net, log.Default())
	for _, s := range scene.Report.DeadEnds {
		log.Printf("[road] dead end: %s", s)
	}
	ap := sim.NewAutopilot(scene.Net, scene.Traffic, cfg.Traffic.Seed)

	next := *every
	for t := 0.0; t < *seconds; t += *step {
		th, st := ap.Steer(scene.Player, *step)
		scene.Player.Drive(th, st, *step)
		scene.Step(*step)
		if t >= next {
			next += *every
			log.Printf("[sim] t=%.1fs %s, impacts %d", t, scene.Stats(), scene.Impacts())
		}
	}
	log.Printf("[sim] done: %s, impacts %d", scene.Stats(), scene.Impacts())
}
