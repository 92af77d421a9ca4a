package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"taxitraffic/internal/road"
	"taxitraffic/internal/traffic"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taxi.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg.Traffic, traffic.DefaultConfig()) {
		t.Fatalf("traffic = %+v\nwant %+v", cfg.Traffic, traffic.DefaultConfig())
	}
	if cfg.Road != road.DefaultBuildConfig() {
		t.Fatalf("road = %+v", cfg.Road)
	}
	if len(cfg.Archetypes) != len(traffic.DefaultArchetypes()) {
		t.Fatalf("archetypes = %v", cfg.Archetypes)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeFile(t, `
roads: city.json
road:
  connection_radius: 20
traffic:
  density: 0.25
  capacity: 50
  seed: 9
archetypes:
  - name: bus
    speed: 8
    radius: 2.5
    mass: 9000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Roads != "city.json" || cfg.Road.ConnectionRadius != 20 || cfg.Road.MaxAngle != 60 {
		t.Fatalf("road settings = %q %+v", cfg.Roads, cfg.Road)
	}
	if cfg.Traffic.Density != 0.25 || cfg.Traffic.Capacity != 50 || cfg.Traffic.Seed != 9 {
		t.Fatalf("traffic = %+v", cfg.Traffic)
	}
	// Untouched keys keep their defaults.
	if cfg.Traffic.ImpactForce != 15 || cfg.Traffic.DespawnDistance != 130 {
		t.Fatalf("defaults lost: %+v", cfg.Traffic)
	}
	want := []traffic.Archetype{{Name: "bus", Speed: 8, Radius: 2.5, Mass: 9000}}
	if !reflect.DeepEqual(cfg.Archetypes, want) {
		t.Fatalf("archetypes = %+v", cfg.Archetypes)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TAXI_TRAFFIC_DENSITY", "0.8")
	t.Setenv("TAXI_ROAD_MAX_ANGLE", "45")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Traffic.Density != 0.8 || cfg.Road.MaxAngle != 45 {
		t.Fatalf("density=%v max_angle=%v", cfg.Traffic.Density, cfg.Road.MaxAngle)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file accepted")
	}

	tests := []struct {
		name string
		body string
	}{
		{"density above one", "traffic:\n  density: 1.5\n"},
		{"inverted spawn ring", "traffic:\n  spawn_radius_min: 200\n"},
		{"zero radius", "road:\n  connection_radius: 0\n"},
		{"massless archetype", "archetypes:\n  - name: ghost\n    radius: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestWatchPublishes(t *testing.T) {
	_, before := Current()
	cfg, err := Watch("", nil)
	if err != nil {
		t.Fatal(err)
	}
	got, gen := Current()
	if got != cfg || gen != before+1 {
		t.Fatalf("current = %p gen %d, want %p gen %d", got, gen, cfg, before+1)
	}
}
