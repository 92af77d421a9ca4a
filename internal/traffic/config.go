package traffic

// LayerTraffic is the default layer mask for traffic bodies.
const LayerTraffic uint32 = 1 << 8

// Archetype is a kind of traffic vehicle. Zero speed or turn rate falls back
// to the Config values.
type Archetype struct {
	Name     string  `mapstructure:"name"`
	Speed    float64 `mapstructure:"speed"`
	TurnRate float64 `mapstructure:"turn_rate"`
	Radius   float64 `mapstructure:"radius"`
	Mass     float64 `mapstructure:"mass"`
}

// Config holds every traffic knob. Distances are in world units, times in
// seconds, angles in radians.
type Config struct {
	// Pool and density.
	Capacity int     `mapstructure:"capacity"`
	Density  float64 `mapstructure:"density"`

	// Spawning.
	MinSpacing      float64 `mapstructure:"min_spacing"`
	SpawnRadiusMin  float64 `mapstructure:"spawn_radius_min"`
	SpawnRadiusMax  float64 `mapstructure:"spawn_radius_max"`
	DespawnDistance float64 `mapstructure:"despawn_distance"`
	ManageInterval  float64 `mapstructure:"manage_interval"`
	SpawnLift       float64 `mapstructure:"spawn_lift"`

	NearestRouteRadius float64 `mapstructure:"nearest_route_radius"`

	// Driving.
	Speed         float64 `mapstructure:"speed"`
	TurnRate      float64 `mapstructure:"turn_rate"`
	ReachDistance float64 `mapstructure:"reach_distance"`

	// Collision hand-off.
	ImpactForce     float64 `mapstructure:"impact_force"`
	MaxImpactSpeed  float64 `mapstructure:"max_impact_speed"`
	HandoffDuration float64 `mapstructure:"handoff_duration"`
	RoadTag         string  `mapstructure:"road_tag"`
	GroundProbe     float64 `mapstructure:"ground_probe"`

	TrafficLayer uint32 `mapstructure:"traffic_layer"`
	Seed         uint64 `mapstructure:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Capacity:           400,
		Density:            0.5,
		MinSpacing:         5,
		SpawnRadiusMin:     40,
		SpawnRadiusMax:     100,
		DespawnDistance:    130,
		ManageInterval:     0.5,
		SpawnLift:          0.2,
		NearestRouteRadius: 60,
		Speed:              12,
		TurnRate:           4,
		ReachDistance:      3,
		ImpactForce:        15,
		MaxImpactSpeed:     60,
		HandoffDuration:    4,
		RoadTag:            "Road",
		GroundProbe:        3,
		TrafficLayer:       LayerTraffic,
	}
}

// DefaultArchetypes is used when no archetypes are configured.
func DefaultArchetypes() []Archetype {
	return []Archetype{
		{Name: "sedan", Radius: 1.2, Mass: 1200},
		{Name: "hatchback", Speed: 11, Radius: 1.0, Mass: 950},
		{Name: "van", Speed: 10, TurnRate: 3, Radius: 1.5, Mass: 2000},
	}
}

// Target is the desired number of active agents.
func (c Config) Target() int {
	return int(float64(c.Capacity) * clampF(c.Density, 0, 1))
}
