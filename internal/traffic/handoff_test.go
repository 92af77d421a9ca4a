package traffic

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"taxitraffic/internal/road"
)

func near(a, b r3.Vec, eps float64) bool { return r3.Norm(r3.Sub(a, b)) <= eps }

func TestImpulse(t *testing.T) {
	h := NewHandoff(DefaultConfig())
	tests := []struct {
		name string
		c    Collision
		want r3.Vec
		ok   bool
	}{
		{
			name: "head on",
			c: Collision{
				Layer:            LayerTraffic,
				Contacts:         []ContactPoint{{Point: v(0, 0, 1), Normal: v(0, 0, 1)}},
				RelativeVelocity: v(0, 0, -10),
			},
			want: v(0, 0, -150),
			ok:   true,
		},
		{
			name: "speed clamped",
			c: Collision{
				Layer:            LayerTraffic,
				Contacts:         []ContactPoint{{Normal: v(-1, 0, 0)}},
				RelativeVelocity: v(100, 0, 0),
			},
			want: v(900, 0, 0),
			ok:   true,
		},
		{
			name: "downward push becomes a small lift",
			c: Collision{
				Layer:            LayerTraffic,
				Contacts:         []ContactPoint{{Normal: v(0.6, 0.8, 0)}},
				RelativeVelocity: v(10, 0, 0),
			},
			want: r3.Scale(150/math.Sqrt(0.4), v(-0.6, 0.2, 0)),
			ok:   true,
		},
		{
			name: "not traffic",
			c: Collision{
				Layer:            1,
				Contacts:         []ContactPoint{{Normal: v(0, 0, 1)}},
				RelativeVelocity: v(0, 0, -10),
			},
		},
		{
			name: "no contacts",
			c:    Collision{Layer: LayerTraffic, RelativeVelocity: v(0, 0, -10)},
		},
		{
			name: "zero normal",
			c: Collision{
				Layer:            LayerTraffic,
				Contacts:         []ContactPoint{{}},
				RelativeVelocity: v(0, 0, -10),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := h.Impulse(tt.c)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !near(got, tt.want, 1e-9) {
				t.Fatalf("impulse = %v, want %v", got, tt.want)
			}
			if ok && got.Y < 0 {
				t.Fatalf("impulse pushes into the ground: %v", got)
			}
		})
	}
}

func TestHandoffRoundTrip(t *testing.T) {
	rig := newAgentRig(1)
	a, body := rig.agent(0)
	seg := line("north", v(0, 0, 0), v(0, 0, 1), 6, 10)
	a.Place(seg, 2)
	origin := body.Position()

	h := NewHandoff(rig.cfg)
	hit := Collision{
		Layer: LayerTraffic,
		// Off-centre so the car also spins.
		Contacts:         []ContactPoint{{Point: r3.Add(origin, v(1, 0, 0)), Normal: v(0, 0, 1)}},
		RelativeVelocity: v(0, 0, -10),
	}
	if !h.Apply(a, hit) {
		t.Fatal("hand-off rejected")
	}
	if a.State() != StateExternallyControlled || body.Kinematic() {
		t.Fatalf("state=%v kinematic=%v", a.State(), body.Kinematic())
	}
	if body.Velocity().Z >= 0 || body.AngularVelocity().Y == 0 {
		t.Fatalf("impulse not applied: vel=%v ang=%v", body.Velocity(), body.AngularVelocity())
	}
	if h.Apply(a, hit) {
		t.Fatal("second hand-off accepted while under physics control")
	}

	const dt = 0.1
	for i := 0; i < 30; i++ {
		rig.space.Step(dt)
		a.Update(dt)
	}
	if a.State() != StateExternallyControlled {
		t.Fatalf("control returned early after 3s: %v", a.State())
	}
	if a.Segment() != seg || a.Index() != 2 {
		t.Fatalf("route changed under physics: %v/%d", a.Segment(), a.Index())
	}

	for i := 0; i < 15; i++ {
		rig.space.Step(dt)
		a.Update(dt)
		if a.State() == StateFollowing {
			break
		}
	}
	if a.State() != StateFollowing {
		t.Fatalf("state after 4.5s = %v", a.State())
	}
	if !body.Kinematic() {
		t.Fatal("body still dynamic after hand-off")
	}
	if body.Velocity() != (r3.Vec{}) || body.AngularVelocity() != (r3.Vec{}) {
		t.Fatalf("residual motion: vel=%v ang=%v", body.Velocity(), body.AngularVelocity())
	}
	if rig.counts[EventHandoffStarted] != 1 || rig.counts[EventHandoffEnded] != 1 {
		t.Fatalf("events started=%d ended=%d", rig.counts[EventHandoffStarted], rig.counts[EventHandoffEnded])
	}
}

func TestKinematicFirstKeepsSpin(t *testing.T) {
	rig := newAgentRig(1)
	_, body := rig.agent(0)
	body.SetActive(true)
	body.AddImpulseAt(v(0, 0, -150), v(1, 0, 0))

	// The wrong order: the body turns kinematic before its spin is cleared.
	body.SetKinematic(true)
	body.SetVelocity(r3.Vec{})
	body.SetAngularVelocity(r3.Vec{})
	if body.AngularVelocity() == (r3.Vec{}) {
		t.Fatal("expected the spin to survive velocity writes on a kinematic body")
	}
}

func TestHandoffOffRoadRelocates(t *testing.T) {
	rig := newAgentRig(1)
	rig.space.Ground = func(x, z float64) (float64, string) { return 0, "Water" }
	home := line("home", v(0, 0, 0), v(0, 0, 1), 4, 10)
	rescue := line("rescue", v(20, 0, 0), v(0, 0, 1), 4, 10)
	rig.env.Router = routerFunc(func(r3.Vec, *road.Segment) *road.Segment { return rescue })

	a, body := rig.agent(0)
	a.Place(home, 1)
	if !a.BeginHandoff(v(0, 0, 100), body.Position()) {
		t.Fatal("hand-off rejected")
	}
	for i := 0; i < 50 && a.State() == StateExternallyControlled; i++ {
		rig.space.Step(0.1)
		a.Update(0.1)
	}
	if a.State() != StateFollowing || a.Segment() != rescue || a.Index() != 0 {
		t.Fatalf("state=%v seg=%v index=%d", a.State(), a.Segment(), a.Index())
	}
	if want := r3.Add(rescue.First(), v(0, rig.cfg.SpawnLift, 0)); body.Position() != want {
		t.Fatalf("position = %v, want %v", body.Position(), want)
	}
}

func TestHandoffOffRoadWithoutRouteRecycles(t *testing.T) {
	rig := newAgentRig(1)
	rig.space.Ground = func(x, z float64) (float64, string) { return 0, "Water" }
	a, body := rig.agent(0)
	a.Place(line("home", v(0, 0, 0), v(0, 0, 1), 4, 10), 1)
	a.BeginHandoff(v(0, 0, 100), body.Position())

	for i := 0; i < 50 && a.State() == StateExternallyControlled; i++ {
		rig.space.Step(0.1)
		a.Update(0.1)
	}
	if a.State() != StateIdle || body.Active() {
		t.Fatalf("state=%v active=%v", a.State(), body.Active())
	}
	if !body.Kinematic() || body.AngularVelocity() != (r3.Vec{}) {
		t.Fatal("recycled body not reset")
	}
}
