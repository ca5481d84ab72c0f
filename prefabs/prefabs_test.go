package prefabs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/cpbackend"
	"github.com/milk9111/charcontrol/physics"
	"github.com/milk9111/charcontrol/sensor"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPlayerBuildSpec(t *testing.T) {
	spec, err := LoadEntityBuildSpec("player.yaml")
	require.NoError(t, err)
	assert.Equal(t, "player", spec.Name)
	for _, name := range []string{"physics_body", "proximity_sensor", "ghost_sensor", "obstacle_radar", "motor", "controller"} {
		assert.Contains(t, spec.Components, name)
	}

	sensorSpec, err := DecodeComponentSpec[ProximitySensorComponentSpec](spec.Components["proximity_sensor"])
	require.NoError(t, err)
	cfg, err := sensorSpec.Config()
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.CastRange)
	assert.Equal(t, mgl64.Vec3{0, -1, 0}, cfg.CastDirection)
	assert.Nil(t, cfg.CastShape)

	body, err := DecodeComponentSpec[PhysicsBodyComponentSpec](spec.Components["physics_body"])
	require.NoError(t, err)
	def, err := body.BodyDef(mgl64.Vec3{0, 3, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, cpbackend.Dynamic, def.Kind)
	assert.Equal(t, physics.Capsule(0.5, 0.5), def.Shape)
	assert.True(t, def.FixedRotation)
	assert.Equal(t, physics.Groups{Memberships: 1, Filter: 1}, def.Filtering.Solver)
	assert.Equal(t, physics.AllGroups, def.Filtering.Collision)

	ctrl, err := DecodeComponentSpec[ControllerComponentSpec](spec.Components["controller"])
	require.NoError(t, err)
	assert.Equal(t, 2.0, ctrl.FloatHeight)
}

func TestDecodeComponentSpecNil(t *testing.T) {
	got, err := DecodeComponentSpec[RadarSpec](nil)
	require.NoError(t, err)
	assert.Equal(t, RadarSpec{}, got)
}

func TestLoadLevelSpec(t *testing.T) {
	level, err := LoadLevelSpec("level.yaml")
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{0, -9.81, 0}, level.Gravity.Vec3())

	var ghosts, kinematic int
	for _, p := range level.Platforms {
		if p.Ghost {
			ghosts++
		}
		if p.Kinematic {
			kinematic++
		}
	}
	assert.Equal(t, 1, ghosts)
	assert.Equal(t, 1, kinematic)
	assert.Equal(t, GroupsSpec{Memberships: 2, Filter: 2}, level.GhostSolver)
}

func TestLoadSpecMissing(t *testing.T) {
	_, err := LoadSpec[LevelSpec]("nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prefabs: load nope.yaml")
}

func TestDiskOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "prefabs", "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prefabs", "level.yaml"), []byte("name: override\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prefabs", "scripts", "animation.tengo"), []byte("state := \"standing\"\n"), 0o644))
	{ // equivalent of t.Chdir(dir), which requires Go 1.24
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { _ = os.Chdir(wd) })
	}

	level, err := LoadLevelSpec("prefabs/level.yaml")
	require.NoError(t, err)
	assert.Equal(t, "override", level.Name)
	_, ok := ModTime("level.yaml")
	assert.True(t, ok)

	src, err := LoadScript("animation.tengo")
	require.NoError(t, err)
	assert.Equal(t, "state := \"standing\"\n", string(src))

	player, err := LoadEntityBuildSpec("player.yaml")
	require.NoError(t, err, "falls back to the embedded copy")
	assert.Equal(t, "player", player.Name)
	_, ok = ModTime("player.yaml")
	assert.False(t, ok)
}

func TestPrefabNames(t *testing.T) {
	tests := []struct {
		in, prefab, script string
	}{
		{in: "animation.tengo", prefab: "animation.tengo", script: "scripts/animation.tengo"},
		{in: "prefabs/scripts/animation.tengo", prefab: "scripts/animation.tengo", script: "scripts/animation.tengo"},
		{in: "scripts/animation.tengo", prefab: "scripts/animation.tengo", script: "scripts/animation.tengo"},
		{in: "prefabs/player.yaml", prefab: "player.yaml", script: "scripts/player.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.prefab, prefabName(tt.in))
			assert.Equal(t, tt.script, scriptName(tt.in))
		})
	}

	_, err := LoadScript("prefabs/scripts/animation.tengo")
	assert.NoError(t, err)
	assert.True(t, IsPrefabName(filepath.Join("some", "dir", "player.yaml"), "prefabs/player.yaml"))
	assert.False(t, IsPrefabName("crate.yaml", "player.yaml"))
}

func TestSensorSpecConfig(t *testing.T) {
	cutoff := 0.5
	tests := []struct {
		name      string
		spec      SensorSpec
		wantShape *physics.Shape
		wantErr   error
	}{
		{name: "ray", spec: SensorSpec{Range: 2}},
		{name: "flat_underfit", spec: SensorSpec{Range: 2, Preset: "flat_underfit"}, wantShape: shapePtr(physics.Cylinder(0.49, 0))},
		{name: "ball_exact", spec: SensorSpec{Range: 2, Preset: "ball_exact"}, wantShape: shapePtr(physics.Ball(0.5))},
		{name: "explicit_shape_wins", spec: SensorSpec{Range: 2, Preset: "ball_exact", Shape: &ShapeSpec{Kind: "ball", Radius: 0.3}}, wantShape: shapePtr(physics.Ball(0.3))},
		{name: "cutoff", spec: SensorSpec{Range: 2, Cutoff: &cutoff}},
		{name: "unknown_preset", spec: SensorSpec{Range: 2, Preset: "triangle"}, wantErr: ErrUnknownPreset},
		{name: "unknown_shape", spec: SensorSpec{Range: 2, Shape: &ShapeSpec{Kind: "cone"}}, wantErr: ErrUnknownShape},
		{name: "zero_direction", spec: SensorSpec{Range: 2, Direction: &Vec3Spec{}}, wantErr: sensor.ErrInvalidDirection},
		{name: "negative_range", spec: SensorSpec{Range: -1}, wantErr: sensor.ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.spec.Config()
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantShape, cfg.CastShape)
			if tt.spec.Cutoff != nil {
				assert.Equal(t, cutoff, cfg.IntersectionMatchPreventionCutoff)
			}
		})
	}
}

func TestSensorShapePresetCopies(t *testing.T) {
	a, err := SensorShapePreset("ball_underfit")
	require.NoError(t, err)
	a.Radius = 10
	b, err := SensorShapePreset("ball_underfit")
	require.NoError(t, err)
	assert.Equal(t, 0.49, b.Radius)

	none, err := SensorShapePreset("none")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestParse(t *testing.T) {
	toggle, err := ParseToggle("sense-only")
	require.NoError(t, err)
	assert.Equal(t, physics.SenseOnly, toggle)
	_, err = ParseToggle("sometimes")
	assert.True(t, errors.Is(err, ErrUnknownToggle))

	kind, err := ParseBodyKind("static")
	require.NoError(t, err)
	assert.Equal(t, cpbackend.Static, kind)
	_, err = ParseBodyKind("ghost")
	assert.True(t, errors.Is(err, ErrUnknownBody))
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	spec := filepath.Join(dir, "player.yaml")
	require.NoError(t, os.WriteFile(spec, []byte("name: p\n"), 0o644))

	select {
	case change := <-w.Changes():
		assert.Equal(t, Change{Path: spec, Kind: SpecChange}, change)
		assert.True(t, IsPrefabName(change.Path, "prefabs/player.yaml"))
	case err := <-w.Errors():
		t.Fatalf("watcher error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no change for spec file")
	}

	require.NoError(t, w.Close())
	for range w.Changes() {
	}
	require.NoError(t, w.Close(), "close is idempotent")
}

func TestSettled(t *testing.T) {
	now := time.Now()
	pending := map[string]time.Time{
		"b.yaml":     now.Add(-2 * settle),
		"a.tengo":    now.Add(-settle),
		"fresh.yaml": now.Add(-settle / 2),
	}
	assert.Equal(t, []string{"a.tengo", "b.yaml"}, settled(pending, now))
	assert.Len(t, pending, 1)
	assert.Empty(t, settled(pending, now))

	kind, ok := KindOf("scripts/animation.TENGO")
	assert.True(t, ok)
	assert.Equal(t, ScriptChange, kind)
	_, ok = KindOf("notes.txt")
	assert.False(t, ok)
}
