package sensor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/physics"
	"github.com/milk9111/charcontrol/physics/physicstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	player physics.Entity = 1
	ground physics.Entity = 2
)

func newWorld() *physicstest.World {
	w := physicstest.New()
	w.Add(player, physicstest.Body{Center: mgl64.Vec3{0, 5, 0}, HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}})
	// top face at y=1
	w.Add(ground, physicstest.Body{Center: mgl64.Vec3{0, 0.5, 0}, HalfExtents: mgl64.Vec3{10, 0.5, 10}})
	return w
}

// platformAt adds a thin platform whose top face is at y=top.
func platformAt(w *physicstest.World, e physics.Entity, top float64) {
	w.Add(e, physicstest.Body{Center: mgl64.Vec3{0, top - 0.125, 0}, HalfExtents: mgl64.Vec3{10, 0.125, 10}})
}

func newSensor(t *testing.T, castRange float64) *ProximitySensor {
	t.Helper()
	cfg := DefaultConfig()
	cfg.CastRange = castRange
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func playerInput(ghosts map[physics.Entity]bool, hits *GhostHits) Input {
	return Input{
		Entity:    player,
		Transform: Transform{Translation: mgl64.Vec3{0, 5, 0}, Rotation: mgl64.QuatIdent()},
		IsGhost:   func(e physics.Entity) bool { return ghosts[e] },
		GhostHits: hits,
	}
}

func TestSenseDirectHit(t *testing.T) {
	w := newWorld()
	s := newSensor(t, 10)

	require.NoError(t, s.Sense(w, playerInput(nil, nil)))
	require.NotNil(t, s.Output)
	assert.Equal(t, ground, s.Output.Entity)
	assert.InDelta(t, 4.0, s.Output.Proximity, 1e-9)
	assert.InDelta(t, 1.0, s.Output.Normal.Y(), 1e-9)
	assert.Equal(t, 1, w.Casts())
}

func TestSenseWithoutGhostsMatchesSingleCast(t *testing.T) {
	cases := []struct {
		name      string
		castRange float64
	}{
		{"in_range", 10},
		{"exact_range", 4},
		{"out_of_range", 3.5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := newWorld()
			s := newSensor(t, c.castRange)
			var hits GhostHits
			require.NoError(t, s.Sense(w, playerInput(map[physics.Entity]bool{}, &hits)))

			direct, ok := w.CastRay(mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, -1, 0}, c.castRange, physics.QueryFilter{Exclude: player})
			if !ok {
				assert.Nil(t, s.Output)
			} else {
				require.NotNil(t, s.Output)
				assert.Equal(t, direct.Entity, s.Output.Entity)
				assert.InDelta(t, direct.Distance, s.Output.Proximity, 1e-9)
			}
			assert.Empty(t, hits)
		})
	}
}

func TestSenseGhostPlatformThenGround(t *testing.T) {
	w := newWorld()
	const ghost physics.Entity = 3
	platformAt(w, ghost, 3)
	s := newSensor(t, 5)

	var hits GhostHits
	require.NoError(t, s.Sense(w, playerInput(map[physics.Entity]bool{ghost: true}, &hits)))

	require.Len(t, hits, 1)
	assert.Equal(t, ghost, hits[0].Entity)
	assert.InDelta(t, 2.0, hits[0].Proximity, 1e-9)
	require.NotNil(t, s.Output)
	assert.Equal(t, ground, s.Output.Entity)
	assert.InDelta(t, 4.0, s.Output.Proximity, 1e-9)
}

func TestSenseGhostHitsAscending(t *testing.T) {
	w := newWorld()
	ghosts := map[physics.Entity]bool{}
	// inserted out of order on purpose
	for i, top := range []float64{2, 4, 3} {
		e := physics.Entity(10 + i)
		platformAt(w, e, top)
		ghosts[e] = true
	}
	s := newSensor(t, 5)

	var hits GhostHits
	require.NoError(t, s.Sense(w, playerInput(ghosts, &hits)))

	require.Len(t, hits, 3)
	seen := map[physics.Entity]bool{}
	for i, h := range hits {
		assert.False(t, seen[h.Entity], "ghost %d visited twice", h.Entity)
		seen[h.Entity] = true
		if i > 0 {
			assert.Greater(t, h.Proximity, hits[i-1].Proximity)
		}
	}
	assert.InDelta(t, 1.0, hits[0].Proximity, 1e-9)
	assert.InDelta(t, 3.0, hits[2].Proximity, 1e-9)
	require.NotNil(t, s.Output)
	assert.Equal(t, ground, s.Output.Entity)
	assert.Equal(t, 4, w.Casts())
}

func TestSenseGhostWithoutGroundBelow(t *testing.T) {
	w := physicstest.New()
	w.Add(player, physicstest.Body{Center: mgl64.Vec3{0, 5, 0}, HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}})
	const ghost physics.Entity = 3
	platformAt(w, ghost, 3)
	s := newSensor(t, 5)

	var hits GhostHits
	require.NoError(t, s.Sense(w, playerInput(map[physics.Entity]bool{ghost: true}, &hits)))
	assert.Len(t, hits, 1)
	assert.Nil(t, s.Output)
}

func TestSenseGhostAtRangeStart(t *testing.T) {
	w := newWorld()
	const ghost physics.Entity = 3
	platformAt(w, ghost, 5)
	s := newSensor(t, 5)

	var hits GhostHits
	require.NoError(t, s.Sense(w, playerInput(map[physics.Entity]bool{ghost: true}, &hits)))
	require.Len(t, hits, 1)
	assert.InDelta(t, 0.0, hits[0].Proximity, 1e-9)
	require.NotNil(t, s.Output)
	assert.Equal(t, ground, s.Output.Entity)
	assert.InDelta(t, 4.0, s.Output.Proximity, 1e-9)
}

func TestSenseGhostWithoutListStillSkipped(t *testing.T) {
	w := newWorld()
	const ghost physics.Entity = 3
	platformAt(w, ghost, 3)
	s := newSensor(t, 5)

	require.NoError(t, s.Sense(w, playerInput(map[physics.Entity]bool{ghost: true}, nil)))
	require.NotNil(t, s.Output)
	assert.Equal(t, ground, s.Output.Entity)
}

func TestSenseTerminatesWhenBackendIgnoresFilter(t *testing.T) {
	w := newWorld()
	w.IgnorePredicate = true
	const ghost physics.Entity = 3
	platformAt(w, ghost, 3)
	s := newSensor(t, 5)

	var hits GhostHits
	require.NoError(t, s.Sense(w, playerInput(map[physics.Entity]bool{ghost: true}, &hits)))
	assert.Len(t, hits, 1)
	assert.Nil(t, s.Output)
	assert.Equal(t, 2, w.Casts())
}

func TestSenseDisabledLeavesOutput(t *testing.T) {
	w := newWorld()
	s := newSensor(t, 10)
	prior := &Output{Entity: 42, Proximity: 1.5}
	s.Output = prior
	hits := GhostHits{{Entity: 7}}

	in := playerInput(nil, &hits)
	in.Toggle = physics.Disabled
	require.NoError(t, s.Sense(w, in))

	assert.Same(t, prior, s.Output)
	assert.Len(t, hits, 1)
	assert.Equal(t, 0, w.Casts())
}

func TestSenseSenseOnlyStillCasts(t *testing.T) {
	w := newWorld()
	s := newSensor(t, 10)
	in := playerInput(nil, nil)
	in.Toggle = physics.SenseOnly
	require.NoError(t, s.Sense(w, in))
	require.NotNil(t, s.Output)
	assert.Equal(t, 1, w.Casts())
}

func TestSenseZeroRange(t *testing.T) {
	w := newWorld()
	s := newSensor(t, 0)
	s.Output = &Output{Entity: ground}
	require.NoError(t, s.Sense(w, playerInput(nil, nil)))
	assert.Nil(t, s.Output)
	assert.Equal(t, 0, w.Casts())
}

func TestSenseFiltering(t *testing.T) {
	t.Run("sensor_collider_ignored", func(t *testing.T) {
		w := newWorld()
		w.Body(ground).Filtering.Sensor = true
		s := newSensor(t, 10)
		require.NoError(t, s.Sense(w, playerInput(nil, nil)))
		assert.Nil(t, s.Output)
	})

	t.Run("solver_groups_mismatch_ignored", func(t *testing.T) {
		w := newWorld()
		w.Body(player).Filtering.Solver = physics.Groups{Memberships: 1, Filter: 1}
		w.Body(ground).Filtering.Solver = physics.Groups{Memberships: 2, Filter: 2}
		s := newSensor(t, 10)
		require.NoError(t, s.Sense(w, playerInput(nil, nil)))
		assert.Nil(t, s.Output)
	})

	t.Run("solver_groups_mismatch_ghost_kept", func(t *testing.T) {
		w := newWorld()
		const ghost physics.Entity = 3
		platformAt(w, ghost, 3)
		w.Body(player).Filtering.Solver = physics.Groups{Memberships: 1, Filter: 1}
		w.Body(ghost).Filtering.Solver = physics.Groups{Memberships: 2, Filter: 2}
		s := newSensor(t, 10)
		var hits GhostHits
		require.NoError(t, s.Sense(w, playerInput(map[physics.Entity]bool{ghost: true}, &hits)))
		require.Len(t, hits, 1)
		require.NotNil(t, s.Output)
		assert.Equal(t, ground, s.Output.Entity)
	})

	t.Run("collision_groups_applied", func(t *testing.T) {
		w := newWorld()
		w.Body(player).Filtering.Collision = physics.Groups{Memberships: 1, Filter: 1}
		w.Body(ground).Filtering.Collision = physics.Groups{Memberships: 2, Filter: 2}
		s := newSensor(t, 10)
		require.NoError(t, s.Sense(w, playerInput(nil, nil)))
		assert.Nil(t, s.Output)
	})
}

func TestSenseContactNormalRejection(t *testing.T) {
	cases := []struct {
		name     string
		manifold physics.ContactManifold
		rejected bool
	}{
		{"along_cast", physics.ContactManifold{Normal: mgl64.Vec3{0, -1, 0}, Points: 1}, true},
		{"against_cast", physics.ContactManifold{Normal: mgl64.Vec3{0, 1, 0}, Points: 2}, false},
		{"below_cutoff", physics.ContactManifold{Normal: mgl64.Vec3{0.8, -0.6, 0}, Points: 1}, false},
		{"empty_manifold", physics.ContactManifold{Normal: mgl64.Vec3{0, -1, 0}, Points: 0}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := newWorld()
			w.SetContact(player, ground, c.manifold)
			s := newSensor(t, 10)
			require.NoError(t, s.Sense(w, playerInput(nil, nil)))
			if c.rejected {
				assert.Nil(t, s.Output)
			} else {
				assert.NotNil(t, s.Output)
			}
		})
	}
}

func TestSenseSubservient(t *testing.T) {
	t.Run("owner_missing", func(t *testing.T) {
		w := newWorld()
		s := newSensor(t, 10)
		in := playerInput(nil, nil)
		in.Entity = 20
		in.Owner = 99
		err := s.Sense(w, in)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrOwnerNotFound)
	})

	t.Run("owner_excluded", func(t *testing.T) {
		w := newWorld()
		// the owner sits between the satellite sensor and the ground
		w.Body(player).Center = mgl64.Vec3{0, 3, 0}
		s := newSensor(t, 10)
		in := playerInput(nil, nil)
		in.Entity = 20
		in.Owner = player
		require.NoError(t, s.Sense(w, in))
		require.NotNil(t, s.Output)
		assert.Equal(t, ground, s.Output.Entity)
	})
}

func TestSenseHitVelocity(t *testing.T) {
	w := newWorld()
	g := w.Body(ground)
	g.LinVel = mgl64.Vec3{1, 0, 0}
	g.AngVel = mgl64.Vec3{0, 0, 1}
	s := newSensor(t, 10)

	in := playerInput(nil, nil)
	in.Transform.Translation = mgl64.Vec3{2, 5, 0}
	w.Body(player).Center = in.Transform.Translation
	require.NoError(t, s.Sense(w, in))
	require.NotNil(t, s.Output)

	// hit point (2, 1, 0), ground center (0, 0.5, 0)
	assert.InDelta(t, 0.5, s.Output.EntityLinVel.X(), 1e-9)
	assert.InDelta(t, 2.0, s.Output.EntityLinVel.Y(), 1e-9)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, s.Output.EntityAngVel)
}

func TestSenseStaticHitHasNoVelocity(t *testing.T) {
	w := newWorld()
	w.Body(ground).NoKinematics = true
	s := newSensor(t, 10)
	require.NoError(t, s.Sense(w, playerInput(nil, nil)))
	require.NotNil(t, s.Output)
	assert.Equal(t, mgl64.Vec3{}, s.Output.EntityLinVel)
}

func TestSenseShapeCast(t *testing.T) {
	w := newWorld()
	cfg := DefaultConfig()
	cfg.CastRange = 10
	box := physics.Cuboid(0.5, 0.5, 0.5)
	cfg.CastShape = &box
	s, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, s.Sense(w, playerInput(nil, nil)))
	require.NotNil(t, s.Output)
	assert.InDelta(t, 3.5, s.Output.Proximity, 1e-9)
}

func TestSenseRotatedBody(t *testing.T) {
	w := physicstest.New()
	w.Add(player, physicstest.Body{Center: mgl64.Vec3{0, 5, 0}, HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}})
	const wall physics.Entity = 5
	w.Add(wall, physicstest.Body{Center: mgl64.Vec3{3.5, 5, 0}, HalfExtents: mgl64.Vec3{0.5, 2, 1}})
	s := newSensor(t, 10)

	in := playerInput(nil, nil)
	in.Transform.Rotation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})
	require.NoError(t, s.Sense(w, in))
	require.NotNil(t, s.Output)
	assert.Equal(t, wall, s.Output.Entity)
	assert.InDelta(t, 3.0, s.Output.Proximity, 1e-9)
}

func TestConfigValidation(t *testing.T) {
	nan := math.NaN()
	badShape := physics.Ball(0)
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"negative_range", func(c *Config) { c.CastRange = -1 }, ErrInvalidRange},
		{"nan_range", func(c *Config) { c.CastRange = nan }, ErrInvalidRange},
		{"zero_direction", func(c *Config) { c.CastDirection = mgl64.Vec3{} }, ErrInvalidDirection},
		{"nan_direction", func(c *Config) { c.CastDirection = mgl64.Vec3{nan, 0, 0} }, ErrInvalidDirection},
		{"inf_origin", func(c *Config) { c.CastOrigin = mgl64.Vec3{math.Inf(1), 0, 0} }, ErrInvalidOrigin},
		{"nan_cutoff", func(c *Config) { c.IntersectionMatchPreventionCutoff = nan }, ErrInvalidCutoff},
		{"bad_shape", func(c *Config) { c.CastShape = &badShape }, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			if c.want != nil {
				assert.ErrorIs(t, err, c.want)
			}
		})
	}

	t.Run("direction_normalized", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CastDirection = mgl64.Vec3{0, -3, 0}
		s, err := New(cfg)
		require.NoError(t, err)
		assert.Equal(t, mgl64.Vec3{0, -1, 0}, s.Config().CastDirection)
	})

	t.Run("set_config_keeps_previous_on_error", func(t *testing.T) {
		s := newSensor(t, 2)
		cfg := s.Config()
		cfg.CastRange = -5
		require.Error(t, s.SetConfig(cfg))
		assert.Equal(t, 2.0, s.Config().CastRange)
	})
}
