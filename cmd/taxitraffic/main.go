package main

import (
	"flag"
	"log"

	"taxitraffic/internal/game"
)

func main() {
	configPath := flag.String("config", "", "YAML config file, watched for changes")
	roadsPath := flag.String("roads", "", "road network file (overrides the config)")
	seed := flag.Uint64("seed", 0, "traffic seed (0 keeps the configured seed)")
	flag.Parse()

	err := game.RunDesktop(game.Options{
		ConfigPath: *configPath,
		RoadsPath:  *roadsPath,
		Seed:       *seed,
	})
	if err != nil {
		log.Fatalf("taxitraffic: %v", err)
	}
}
