package traffic

import (
	"errors"
	"fmt"
	"log"

	"gonum.org/v1/gonum/spatial/r3"

	"taxitraffic/internal/road"
)

var (
	ErrNoSegments   = errors.New("no usable road segments")
	ErrNoArchetypes = errors.New("no vehicle archetypes")
	ErrNoBody       = errors.New("embodier returned no body")
)

// Deps are the collaborators of a Coordinator.
type Deps struct {
	Network    *road.Network
	World      World
	Observer   Observer
	Embodier   Embodier
	Archetypes []Archetype
	Logger     *log.Logger
	Events     *EventBus
}

// Coordinator owns the agent pool. It places agents across the network at
// start, drives them every tick and rebalances the population around the
// observer on a slower management interval.
type Coordinator struct {
	cfg        Config
	net        *road.Network
	world      World
	observer   Observer
	embodier   Embodier
	archetypes []Archetype
	log        *log.Logger
	events     *EventBus
	rng        *Rand
	env        *Env
	handoff    Handoff

	pool   []*Agent
	byBody map[Body]*Agent
	timer  float64
}

func NewCoordinator(cfg Config, deps Deps) *Coordinator {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	cfg.Density = clampF(cfg.Density, 0, 1)
	c := &Coordinator{
		cfg:        cfg,
		net:        deps.Network,
		world:      deps.World,
		observer:   deps.Observer,
		embodier:   deps.Embodier,
		archetypes: deps.Archetypes,
		log:        deps.Logger,
		events:     deps.Events,
		rng:        NewRand(cfg.Seed),
		handoff:    NewHandoff(cfg),
		byBody:     make(map[Body]*Agent),
	}
	c.env = &Env{
		Config: &c.cfg,
		World:  c.world,
		Router: c,
		Rand:   c.rng,
		Events: c.events,
	}
	return c
}

// Start fills the pool and performs the initial distribution. On a
// configuration error nothing is spawned and the error is returned; the
// coordinator stays usable as an empty system.
func (c *Coordinator) Start() error {
	if c.pool != nil {
		return nil
	}
	if c.net == nil || len(c.net.Usable()) == 0 {
		c.log.Printf("[traffic] %v: traffic disabled", ErrNoSegments)
		return fmt.Errorf("start traffic: %w", ErrNoSegments)
	}
	if len(c.archetypes) == 0 || c.embodier == nil {
		c.log.Printf("[traffic] %v: traffic disabled", ErrNoArchetypes)
		return fmt.Errorf("start traffic: %w", ErrNoArchetypes)
	}

	pool := make([]*Agent, 0, c.cfg.Capacity)
	for i := 0; i < c.cfg.Capacity; i++ {
		arch := c.archetypes[c.rng.Intn(len(c.archetypes))]
		body := c.embodier.Embody(i, arch)
		if body == nil {
			c.log.Printf("[traffic] agent %d (%s): %v", i, arch.Name, ErrNoBody)
			return fmt.Errorf("start traffic: agent %d: %w", i, ErrNoBody)
		}
		body.SetActive(false)
		a := NewAgent(i, arch, body, c.env)
		pool = append(pool, a)
	}
	c.pool = pool
	for _, a := range pool {
		c.byBody[a.body] = a
	}

	placed := c.InitialDistribution()
	c.log.Printf("[traffic] initial spawn complete: %d agents placed (density %.0f%%, pool %d)",
		placed, c.cfg.Density*100, len(c.pool))
	return nil
}

type spawnPoint struct {
	seg   *road.Segment
	index int
}

// InitialDistribution spreads agents over the whole network. Every non-final
// waypoint of every usable segment is kept with probability Density, the
// survivors are shuffled and then placed in order while they respect the
// minimum spacing and stay out of the observer's immediate surroundings.
func (c *Coordinator) InitialDistribution() int {
	var points []spawnPoint
	for _, s := range c.net.Segments() {
		if !s.Usable() {
			continue
		}
		for i := 0; i < s.Len()-1; i++ {
			if c.rng.Chance(c.cfg.Density) {
				points = append(points, spawnPoint{seg: s, index: i})
			}
		}
	}
	c.rng.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })

	obs, haveObs := c.observerPos()
	target := c.Target()
	active := c.ActiveCount()
	placed := 0
	for _, p := range points {
		if active >= target {
			break
		}
		a := c.nextIdle()
		if a == nil {
			break
		}
		pos := p.seg.Waypoints[p.index]
		if c.occupied(pos) {
			continue
		}
		if haveObs && road.Distance(obs, pos) < c.cfg.SpawnRadiusMin {
			continue
		}
		a.Place(p.seg, p.index)
		active++
		placed++
	}
	return placed
}

// Tick drives every active agent and runs Manage once per interval.
func (c *Coordinator) Tick(dt float64) {
	if dt <= 0 {
		return
	}
	for _, a := range c.pool {
		if a.Active() {
			a.Update(dt)
		}
	}
	c.timer += dt
	if c.timer > c.cfg.ManageInterval {
		c.timer = 0
		c.Manage()
	}
}

// Manage recycles agents far from the observer and, when below the density
// target, may spawn one agent near the observer. The further below target,
// the likelier the spawn.
func (c *Coordinator) Manage() {
	obs, ok := c.observerPos()
	if !ok {
		return
	}
	for _, a := range c.pool {
		if a.Active() && road.Distance(obs, a.Position()) > c.cfg.DespawnDistance {
			a.Deactivate()
		}
	}

	active := c.ActiveCount()
	target := c.Target()
	if active >= target || len(c.pool) == 0 {
		return
	}
	chance := 0.5 + float64(target-active)/float64(len(c.pool))
	if c.rng.Chance(chance) {
		c.SpawnNearObserver()
	}
}

// SpawnNearObserver places one idle agent on a random segment whose start
// lies in the spawn ring around the observer. It reports whether an agent
// was placed.
func (c *Coordinator) SpawnNearObserver() bool {
	a := c.nextIdle()
	if a == nil {
		return false
	}
	obs, ok := c.observerPos()
	if !ok {
		return false
	}

	var ring []*road.Segment
	for _, s := range c.net.Segments() {
		if !s.Usable() {
			continue
		}
		d := road.Distance(obs, s.First())
		if d > c.cfg.SpawnRadiusMin && d < c.cfg.SpawnRadiusMax {
			ring = append(ring, s)
		}
	}
	if len(ring) == 0 {
		return false
	}

	s := ring[c.rng.Intn(len(ring))]
	idx := c.rng.Intn(s.Len() - 1)
	if c.occupied(s.Waypoints[idx]) {
		return false
	}
	a.Place(s, idx)
	return true
}

// NearestRoute returns the segment whose first waypoint is closest to pos,
// skipping exclude and empty segments. Only starts strictly within
// NearestRouteRadius are considered.
func (c *Coordinator) NearestRoute(pos r3.Vec, exclude *road.Segment) *road.Segment {
	if c.net == nil {
		return nil
	}
	var best *road.Segment
	bestD := c.cfg.NearestRouteRadius
	for _, s := range c.net.Segments() {
		if s == exclude || s.Len() == 0 {
			continue
		}
		if d := road.Distance(pos, s.First()); d < bestD {
			best = s
			bestD = d
		}
	}
	return best
}

// Collide hands the agent owning body over to physics.
func (c *Coordinator) Collide(body Body, col Collision) bool {
	a := c.byBody[body]
	if a == nil {
		return false
	}
	return c.handoff.Apply(a, col)
}

// RebuildGraph reconnects the network. Agents keep their segments; only the
// connection sets change.
func (c *Coordinator) RebuildGraph(b *road.Builder) int {
	n := b.Build(c.net)
	c.events.Emit(Event{Type: EventGraphBuilt, Agent: -1, Data: float64(n)})
	return n
}

// Reconfigure applies new knobs. The pool size and traffic layer are fixed
// for the lifetime of the coordinator.
func (c *Coordinator) Reconfigure(cfg Config) {
	cfg.Capacity = c.cfg.Capacity
	cfg.TrafficLayer = c.cfg.TrafficLayer
	cfg.Seed = c.cfg.Seed
	cfg.Density = clampF(cfg.Density, 0, 1)
	c.cfg = cfg
	c.handoff = NewHandoff(cfg)
	c.log.Printf("[traffic] reconfigured: density %.2f, spawn ring %.0f-%.0f, despawn %.0f",
		cfg.Density, cfg.SpawnRadiusMin, cfg.SpawnRadiusMax, cfg.DespawnDistance)
}

func (c *Coordinator) Config() Config { return c.cfg }

func (c *Coordinator) Network() *road.Network { return c.net }

func (c *Coordinator) Agents() []*Agent { return c.pool }

func (c *Coordinator) Capacity() int { return len(c.pool) }

// Target is the desired active count for the current pool.
func (c *Coordinator) Target() int {
	cfg := c.cfg
	cfg.Capacity = len(c.pool)
	return cfg.Target()
}

// AgentFor returns the agent embodied by body, or nil.
func (c *Coordinator) AgentFor(body Body) *Agent { return c.byBody[body] }

func (c *Coordinator) ActiveCount() int {
	n := 0
	for _, a := range c.pool {
		if a.Active() {
			n++
		}
	}
	return n
}

func (c *Coordinator) nextIdle() *Agent {
	for _, a := range c.pool {
		if !a.Active() {
			return a
		}
	}
	return nil
}

func (c *Coordinator) occupied(pos r3.Vec) bool {
	return c.world != nil && c.world.Occupied(pos, c.cfg.MinSpacing, c.cfg.TrafficLayer)
}

func (c *Coordinator) observerPos() (r3.Vec, bool) {
	if c.observer == nil {
		return r3.Vec{}, false
	}
	return c.observer.Position(), true
}
