package system

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/cpbackend"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"github.com/milk9111/charcontrol/motor"
	"github.com/milk9111/charcontrol/physics"
	"github.com/milk9111/charcontrol/sensor"
	"github.com/milk9111/charcontrol/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 1.0 / 60

func addBody(t *testing.T, w *ecs.World, pos mgl64.Vec3, def cpbackend.BodyDef) ecs.Entity {
	t.Helper()
	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.TransformComponent, &component.Transform{Position: pos}))
	require.NoError(t, ecs.Add(w, e, component.PhysicsBodyComponent, &component.PhysicsBody{Def: def}))
	return e
}

// floatingPlayer spawns a unit box at y=3 that floats 1.5 above the ground
// whose top is at y=0.
func floatingPlayer(t *testing.T, w *ecs.World) ecs.Entity {
	t.Helper()
	addBody(t, w, mgl64.Vec3{0, -0.5, 0}, cpbackend.BodyDef{Kind: cpbackend.Static, Shape: physics.Cuboid(50, 0.5, 0)})

	player := addBody(t, w, mgl64.Vec3{0, 3, 0}, cpbackend.BodyDef{
		Shape:         physics.Cuboid(0.5, 0.5, 0),
		Mass:          1,
		FixedRotation: true,
	})
	ps, err := sensor.New(sensor.Config{CastDirection: mgl64.Vec3{0, -1, 0}, CastRange: 3})
	require.NoError(t, err)
	require.NoError(t, ecs.Add(w, player, component.PlayerTagComponent, &component.PlayerTag{}))
	require.NoError(t, ecs.Add(w, player, component.ToggleComponent, &component.Toggle{Mode: physics.Enabled}))
	require.NoError(t, ecs.Add(w, player, component.RigidBodyTrackerComponent, &component.RigidBodyTracker{}))
	require.NoError(t, ecs.Add(w, player, component.ProximitySensorComponent, &component.ProximitySensor{ProximitySensor: ps}))
	require.NoError(t, ecs.Add(w, player, component.MotorComponent, &component.Motor{Motor: motor.Idle()}))
	require.NoError(t, ecs.Add(w, player, component.InputComponent, &component.Input{}))
	require.NoError(t, ecs.Add(w, player, component.PlotSourceComponent, &component.PlotSource{Label: "player"}))
	c := newController()
	c.FloatHeight = 1.5
	require.NoError(t, ecs.Add(w, player, component.ControllerComponent, c))
	return player
}

func TestPipelineFloatsAndWalks(t *testing.T) {
	w := ecs.NewWorld()
	player := floatingPlayer(t, w)
	rec := telemetry.NewRecorder(nil)
	walking := false
	p := NewPipeline(cpbackend.New(mgl64.Vec3{0, -9.81, 0}), PipelineConfig{
		DT:       dt,
		Recorder: rec,
		Input: InputSourceFunc(func(uint64) Intent {
			if walking {
				return Intent{MoveX: 1}
			}
			return Intent{}
		}),
	})

	var landed int
	for i := 0; i < 240; i++ {
		p.Update(w)
		for _, evt := range w.Events().Drain() {
			if evt.Type == ecs.EventLanded {
				landed++
			}
		}
	}
	transform, _ := ecs.Get(w, player, component.TransformComponent)
	c, _ := ecs.Get(w, player, component.ControllerComponent)
	assert.InDelta(t, 1.5, transform.Position.Y(), 0.05)
	assert.True(t, c.Grounded)
	assert.Equal(t, 1, landed)

	walking = true
	for i := 0; i < 120; i++ {
		p.Update(w)
	}
	k, ok := p.Space().Kinematics(BodyOf(player))
	require.True(t, ok)
	assert.InDelta(t, 10, k.LinVel.X(), 0.5)
	assert.InDelta(t, 1.5, k.Translation.Y(), 0.05)

	frame, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, uint64(360), frame.Tick)
	require.Len(t, frame.Samples, 1)
	assert.Equal(t, "player", frame.Samples[0].Label)
}

func TestPipelineStageOrder(t *testing.T) {
	space := cpbackend.New(mgl64.Vec3{0, -9.81, 0})
	bare := NewPipeline(space, PipelineConfig{DT: dt})
	assert.Equal(t, []string{"sync", "track", "sense", "scan", "control", "drive", "animate", "step"}, bare.Stages())

	full := NewPipeline(space, PipelineConfig{
		DT:       dt,
		Recorder: telemetry.NewRecorder(nil),
		Input:    InputSourceFunc(func(uint64) Intent { return Intent{} }),
	})
	assert.Equal(t, []string{"sync", "track", "sense", "scan", "input", "control", "drive", "animate", "record", "step"}, full.Stages())
}

func TestPipelineInactive(t *testing.T) {
	w := ecs.NewWorld()
	player := floatingPlayer(t, w)
	p := NewPipeline(cpbackend.New(mgl64.Vec3{0, -9.81, 0}), PipelineConfig{DT: dt})
	p.SetActive(false)
	assert.False(t, p.Active())

	p.Update(w)
	body, _ := ecs.Get(w, player, component.PhysicsBodyComponent)
	assert.False(t, body.Registered)
	assert.False(t, p.Space().Exists(BodyOf(player)))

	p.SetActive(true)
	p.Update(w)
	assert.True(t, body.Registered)
	assert.True(t, p.Space().Exists(BodyOf(player)))
}

func TestPhysicsSystemLifecycle(t *testing.T) {
	w := ecs.NewWorld()
	space := cpbackend.New(mgl64.Vec3{0, -9.81, 0})
	ps := NewPhysicsSystem(space, dt)

	lift := addBody(t, w, mgl64.Vec3{2, 0, 0}, cpbackend.BodyDef{Kind: cpbackend.Kinematic, Shape: physics.Cuboid(1, 0.1, 0)})
	body, _ := ecs.Get(w, lift, component.PhysicsBodyComponent)
	body.Velocity = mgl64.Vec3{0, 0.5, 0}

	bad := addBody(t, w, mgl64.Vec3{}, cpbackend.BodyDef{Shape: physics.Ball(0)})

	for i := 0; i < 60; i++ {
		ps.Sync(w)
		ps.Update(w)
	}
	transform, _ := ecs.Get(w, lift, component.TransformComponent)
	assert.InDelta(t, 0.5, transform.Position.Y(), 1e-6)
	assert.InDelta(t, 2, transform.Position.X(), 1e-9)

	badBody, _ := ecs.Get(w, bad, component.PhysicsBodyComponent)
	assert.False(t, badBody.Registered)

	require.True(t, ecs.DestroyEntity(w, lift))
	ps.Sync(w)
	assert.False(t, space.Exists(BodyOf(lift)))
}
