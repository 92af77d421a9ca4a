package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"taxitraffic/internal/road"
	"taxitraffic/internal/traffic"
)

var ErrInvalid = errors.New("invalid config")

var (
	configMutex   sync.RWMutex
	currentConfig *AppConfig
	generation    uint64
)

// RecorderConfig controls the in-game path recorder.
type RecorderConfig struct {
	Step       float64 `mapstructure:"step"`
	NameBase   string  `mapstructure:"name_base"`
	StartCount int     `mapstructure:"start_count"`
}

// ViewerConfig holds desktop viewer settings.
type ViewerConfig struct {
	Width  int  `mapstructure:"width"`
	Height int  `mapstructure:"height"`
	Audio  bool `mapstructure:"audio"`
	VSync  bool `mapstructure:"vsync"`
}

// AppConfig holds the entire config
type AppConfig struct {
	Roads      string              `mapstructure:"roads"` // road file path
	Road       road.BuildConfig    `mapstructure:"road"`
	Traffic    traffic.Config      `mapstructure:"traffic"`
	Archetypes []traffic.Archetype `mapstructure:"archetypes"`
	Recorder   RecorderConfig      `mapstructure:"recorder"`
	Viewer     ViewerConfig        `mapstructure:"viewer"`
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		Roads:      "roads.json",
		Road:       road.DefaultBuildConfig(),
		Traffic:    traffic.DefaultConfig(),
		Archetypes: traffic.DefaultArchetypes(),
		Recorder:   RecorderConfig{Step: 10, NameBase: "Recorded_", StartCount: 173},
		Viewer:     ViewerConfig{Width: 1280, Height: 720, Audio: true, VSync: true},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TAXI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("roads", d.Roads)

	v.SetDefault("road.connection_radius", d.Road.ConnectionRadius)
	v.SetDefault("road.max_angle", d.Road.MaxAngle)

	t := d.Traffic
	v.SetDefault("traffic.capacity", t.Capacity)
	v.SetDefault("traffic.density", t.Density)
	v.SetDefault("traffic.min_spacing", t.MinSpacing)
	v.SetDefault("traffic.spawn_radius_min", t.SpawnRadiusMin)
	v.SetDefault("traffic.spawn_radius_max", t.SpawnRadiusMax)
	v.SetDefault("traffic.despawn_distance", t.DespawnDistance)
	v.SetDefault("traffic.manage_interval", t.ManageInterval)
	v.SetDefault("traffic.spawn_lift", t.SpawnLift)
	v.SetDefault("traffic.nearest_route_radius", t.NearestRouteRadius)
	v.SetDefault("traffic.speed", t.Speed)
	v.SetDefault("traffic.turn_rate", t.TurnRate)
	v.SetDefault("traffic.reach_distance", t.ReachDistance)
	v.SetDefault("traffic.impact_force", t.ImpactForce)
	v.SetDefault("traffic.max_impact_speed", t.MaxImpactSpeed)
	v.SetDefault("traffic.handoff_duration", t.HandoffDuration)
	v.SetDefault("traffic.road_tag", t.RoadTag)
	v.SetDefault("traffic.ground_probe", t.GroundProbe)
	v.SetDefault("traffic.traffic_layer", t.TrafficLayer)
	v.SetDefault("traffic.seed", t.Seed)

	v.SetDefault("recorder.step", d.Recorder.Step)
	v.SetDefault("recorder.name_base", d.Recorder.NameBase)
	v.SetDefault("recorder.start_count", d.Recorder.StartCount)

	v.SetDefault("viewer.width", d.Viewer.Width)
	v.SetDefault("viewer.height", d.Viewer.Height)
	v.SetDefault("viewer.audio", d.Viewer.Audio)
	v.SetDefault("viewer.vsync", d.Viewer.VSync)
	return v
}

func read(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	// Explicitly set the config type if not using file extension
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Archetypes) == 0 {
		cfg.Archetypes = traffic.DefaultArchetypes()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads the YAML file at path on top of the defaults. An empty path
// loads defaults and TAXI_* environment overrides only.
func Load(path string) (*AppConfig, error) {
	v := newViper()
	if err := read(v, path); err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch loads path like Load, publishes it as the current config and keeps
// republishing it whenever the file changes. Broken edits are logged and
// leave the current config in place.
func Watch(path string, logger *log.Logger) (*AppConfig, error) {
	if logger == nil {
		logger = log.Default()
	}
	v := newViper()
	if err := read(v, path); err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	publish(cfg)
	if path == "" {
		return cfg, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		newCfg, err := decode(v)
		if err != nil {
			logger.Printf("[config] ignoring %s: %v", e.Name, err)
			return
		}
		publish(newCfg)
		logger.Printf("[config] reloaded %s", e.Name)
	})
	v.WatchConfig()
	return cfg, nil
}

func publish(cfg *AppConfig) {
	configMutex.Lock()
	currentConfig = cfg
	generation++
	configMutex.Unlock()
}

// Current returns the latest published config and its generation, which
// increases on every reload.
func Current() (*AppConfig, uint64) {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return currentConfig, generation
}

// Validate rejects knob combinations the traffic system cannot run with.
func (c *AppConfig) Validate() error {
	t := c.Traffic
	switch {
	case c.Road.ConnectionRadius <= 0:
		return fmt.Errorf("%w: road.connection_radius must be positive", ErrInvalid)
	case c.Road.MaxAngle <= 0 || c.Road.MaxAngle > 180:
		return fmt.Errorf("%w: road.max_angle must be in (0, 180]", ErrInvalid)
	case t.Capacity < 0:
		return fmt.Errorf("%w: traffic.capacity must not be negative", ErrInvalid)
	case t.Density < 0 || t.Density > 1:
		return fmt.Errorf("%w: traffic.density must be in [0, 1]", ErrInvalid)
	case t.SpawnRadiusMin > t.SpawnRadiusMax:
		return fmt.Errorf("%w: traffic.spawn_radius_min exceeds spawn_radius_max", ErrInvalid)
	case t.ManageInterval <= 0:
		return fmt.Errorf("%w: traffic.manage_interval must be positive", ErrInvalid)
	case t.ReachDistance <= 0:
		return fmt.Errorf("%w: traffic.reach_distance must be positive", ErrInvalid)
	case t.TrafficLayer == 0:
		return fmt.Errorf("%w: traffic.traffic_layer must not be zero", ErrInvalid)
	}
	for i, a := range c.Archetypes {
		if a.Radius <= 0 || a.Mass <= 0 {
			return fmt.Errorf("%w: archetype %d (%s) needs a positive radius and mass", ErrInvalid, i, a.Name)
		}
	}
	return nil
}
