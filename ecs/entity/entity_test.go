package entity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/cpbackend"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"github.com/milk9111/charcontrol/physics"
	"github.com/milk9111/charcontrol/prefabs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlayer(t *testing.T) {
	w := ecs.NewWorld()
	player, err := NewPlayerAt(w, mgl64.Vec3{1, 4, 0})
	require.NoError(t, err)

	for name, has := range map[string]bool{
		"player_tag":       ecs.Has(w, player, component.PlayerTagComponent),
		"tracker":          ecs.Has(w, player, component.RigidBodyTrackerComponent),
		"ghost_sensor":     ecs.Has(w, player, component.GhostSensorComponent),
		"obstacle_radar":   ecs.Has(w, player, component.ObstacleRadarComponent),
		"motor":            ecs.Has(w, player, component.MotorComponent),
		"input":            ecs.Has(w, player, component.InputComponent),
		"animation_state":  ecs.Has(w, player, component.AnimationStateComponent),
		"proximity_sensor": ecs.Has(w, player, component.ProximitySensorComponent),
	} {
		assert.True(t, has, name)
	}

	transform, ok := ecs.Get(w, player, component.TransformComponent)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{1, 4, 0}, transform.Position)

	body, ok := ecs.Get(w, player, component.PhysicsBodyComponent)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{1, 4, 0}, body.Def.Position)
	assert.Equal(t, physics.Capsule(0.5, 0.5), body.Def.Shape)
	assert.False(t, body.Registered)

	c, ok := ecs.Get(w, player, component.ControllerComponent)
	require.True(t, ok)
	assert.Equal(t, 2.0, c.FloatHeight)
	assert.Equal(t, 6, c.CoyoteFrames)

	ps, _ := ecs.Get(w, player, component.ProximitySensorComponent)
	assert.Equal(t, 3.0, ps.Config().CastRange)
	assert.Nil(t, ps.Output)

	toggle, _ := ecs.Get(w, player, component.ToggleComponent)
	assert.Equal(t, physics.Enabled, toggle.Mode)

	plot, _ := ecs.Get(w, player, component.PlotSourceComponent)
	assert.Equal(t, "player", plot.Label)
}

func TestNewCrate(t *testing.T) {
	w := ecs.NewWorld()
	crate, err := NewCrateAt(w, mgl64.Vec3{-2, 1, 0})
	require.NoError(t, err)
	assert.True(t, ecs.Has(w, crate, component.CrateTagComponent))
	assert.False(t, ecs.Has(w, crate, component.ControllerComponent))

	body, _ := ecs.Get(w, crate, component.PhysicsBodyComponent)
	assert.Equal(t, 4.0, body.Def.Mass)
	assert.Equal(t, cpbackend.Dynamic, body.Def.Kind)
}

func TestNewFeetSensor(t *testing.T) {
	w := ecs.NewWorld()

	_, err := BuildEntity(w, "feet_sensor.yaml")
	assert.True(t, errors.Is(err, ErrNoOwner), "got %v", err)
	assert.Empty(t, ecs.Entities(w), "failed builds are rolled back")

	player, err := NewPlayer(w)
	require.NoError(t, err)
	feet, err := NewFeetSensor(w, player)
	require.NoError(t, err)

	sub, ok := ecs.Get(w, feet, component.SubservientSensorComponent)
	require.True(t, ok)
	assert.Equal(t, physicsEntity(player), sub.Owner)
	assert.Equal(t, mgl64.Vec3{0, -0.5, 0}, sub.Offset)

	shape, ok := ecs.Get(w, feet, component.SensorShapeComponent)
	require.True(t, ok)
	require.NotNil(t, shape.Shape)
	assert.Equal(t, physics.Ball(0.49), *shape.Shape)
	assert.False(t, ecs.Has(w, feet, component.PhysicsBodyComponent))
}

func TestBuildEntityErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "prefabs"), 0o755))
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "prefabs", name), []byte(body), 0o644))
	}
	write("empty.yaml", "name: empty\n")
	write("unknown.yaml", "name: unknown\ncomponents:\n  transform: {}\n  jetpack: {}\n")
	write("bad_toggle.yaml", "name: bad\ncomponents:\n  toggle: {mode: sometimes}\n")
	write("bad_radar.yaml", "name: bad\ncomponents:\n  obstacle_radar: {radius: 0, height: 1}\n")
	{ // equivalent of t.Chdir(dir), which requires Go 1.24
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { _ = os.Chdir(wd) })
	}

	tests := []struct {
		prefab  string
		wantErr error
		wantMsg string
	}{
		{prefab: "empty.yaml", wantMsg: "does not define components"},
		{prefab: "unknown.yaml", wantMsg: `no builder for component "jetpack"`},
		{prefab: "bad_toggle.yaml", wantErr: prefabs.ErrUnknownToggle},
		{prefab: "bad_radar.yaml", wantMsg: "positive radius"},
		{prefab: "missing.yaml", wantMsg: "load"},
	}
	for _, tt := range tests {
		t.Run(tt.prefab, func(t *testing.T) {
			w := ecs.NewWorld()
			_, err := BuildEntity(w, tt.prefab)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			}
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Empty(t, ecs.Entities(w))
		})
	}

	_, err := BuildEntity(nil, "player.yaml")
	assert.Error(t, err)
}

func TestLoadLevelToWorld(t *testing.T) {
	spec, err := prefabs.LoadLevelSpec("level.yaml")
	require.NoError(t, err)

	w := ecs.NewWorld()
	level, err := LoadLevelToWorld(w, spec)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{0, -9.81, 0}, level.Gravity)
	assert.Equal(t, mgl64.Vec3{0, 3, 0}, level.Spawn)
	require.Len(t, level.Platforms, 5)

	ghost := level.Platforms["ghost_ledge"]
	assert.True(t, ecs.Has(w, ghost, component.GhostPlatformComponent))
	body, _ := ecs.Get(w, ghost, component.PhysicsBodyComponent)
	assert.Equal(t, physics.Groups{Memberships: 2, Filter: 2}, body.Def.Filtering.Solver)
	assert.Equal(t, physics.AllGroups, body.Def.Filtering.Collision)
	assert.Equal(t, cpbackend.Static, body.Def.Kind)

	lift, _ := ecs.Get(w, level.Platforms["lift"], component.PhysicsBodyComponent)
	assert.Equal(t, cpbackend.Kinematic, lift.Def.Kind)
	assert.Equal(t, mgl64.Vec3{0, 0.5, 0}, lift.Velocity)

	floor := level.Platforms["floor"]
	assert.False(t, ecs.Has(w, floor, component.GhostPlatformComponent))
	transform, _ := ecs.Get(w, floor, component.TransformComponent)
	assert.Equal(t, mgl64.Vec3{0, -0.5, 0}, transform.Position)

	spec.Platforms = append(spec.Platforms, prefabs.PlatformSpec{Name: "floor", Size: prefabs.Vec3Spec{X: 1, Y: 1}})
	_, err = LoadLevelToWorld(ecs.NewWorld(), spec)
	assert.ErrorContains(t, err, "duplicate platform")
}
