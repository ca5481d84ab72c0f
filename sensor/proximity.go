// Package sensor detects the ground (or any surface) along a cast from a
// character body, seeing through ghost platforms to the real surface below.
package sensor

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/common"
	"github.com/milk9111/charcontrol/physics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrOwnerNotFound is returned when a subservient sensor points at an entity
// the backend does not know.
var ErrOwnerNotFound = errors.New("sensor: subservient sensor owner does not exist")

// Output is the surface a sensor detected this tick.
type Output struct {
	Entity physics.Entity
	// Proximity is the distance from the cast origin along the cast direction.
	Proximity float64
	Normal    mgl64.Vec3
	// EntityLinVel is the velocity of the detected entity at the hit point,
	// including the part contributed by its rotation.
	EntityLinVel mgl64.Vec3
	EntityAngVel mgl64.Vec3
}

// GhostHits lists the ghost platforms crossed during one sensing pass,
// nearest first.
type GhostHits []Output

// Reset empties the list, keeping its storage.
func (g *GhostHits) Reset() {
	*g = (*g)[:0]
}

// Transform places the sensing body in the world.
type Transform struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// Input carries everything a sensor needs for one tick besides the backend.
type Input struct {
	// Entity is the body the sensor is attached to.
	Entity physics.Entity
	// Owner, when valid, makes the sensor subservient: it filters and reports
	// as if it belonged to Owner.
	Owner     physics.Entity
	Transform Transform
	Toggle    physics.Toggle
	// IsGhost marks pass-through platforms. Nil means there are none.
	IsGhost func(physics.Entity) bool
	// GhostHits, when set, is rebuilt with every ghost platform crossed.
	GhostHits *GhostHits
}

// ProximitySensor casts from a body and keeps the nearest qualifying surface.
type ProximitySensor struct {
	config Config
	// Output is nil when nothing was detected within range.
	Output *Output
}

// New validates cfg and returns a sensor with no output.
func New(cfg Config) (*ProximitySensor, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	return &ProximitySensor{config: cfg}, nil
}

// Config returns the validated configuration.
func (s *ProximitySensor) Config() Config {
	return s.config
}

// SetConfig replaces the configuration. The previous one is kept on error.
func (s *ProximitySensor) SetConfig(cfg Config) error {
	cfg, err := cfg.Validate()
	if err != nil {
		return err
	}
	s.config = cfg
	return nil
}

// Sense recomputes Output for this tick. A Disabled toggle performs no cast
// and leaves Output and GhostHits as they were.
func (s *ProximitySensor) Sense(q physics.Query, in Input) error {
	if !in.Toggle.Senses() {
		return nil
	}

	owner := in.Entity
	if in.Owner.Valid() {
		if !q.Exists(in.Owner) {
			return errors.Wrapf(ErrOwnerNotFound, "sensor %d owner %d", in.Entity, in.Owner)
		}
		owner = in.Owner
	}

	if in.GhostHits != nil {
		in.GhostHits.Reset()
	}
	if s.config.CastRange <= 0 {
		s.Output = nil
		return nil
	}

	rotation := in.Transform.Rotation
	if rotation == (mgl64.Quat{}) {
		rotation = mgl64.QuatIdent()
	}

	c := &caster{
		q:           q,
		config:      s.config,
		owner:       owner,
		origin:      in.Transform.Translation.Add(rotation.Rotate(s.config.CastOrigin)),
		dir:         rotation.Rotate(s.config.CastDirection),
		rotation:    rotation,
		ownerSolver: physics.AllGroups,
		isGhost:     in.IsGhost,
		visited:     make(map[physics.Entity]struct{}),
	}
	if f, ok := q.CollisionFiltering(owner); ok {
		groups := f.Collision
		c.groups = &groups
		c.ownerSolver = f.Solver
	}

	s.Output = c.resolve(in.GhostHits)
	return nil
}

type caster struct {
	q           physics.Query
	config      Config
	owner       physics.Entity
	origin      mgl64.Vec3
	dir         mgl64.Vec3
	rotation    mgl64.Quat
	groups      *physics.Groups
	ownerSolver physics.Groups
	isGhost     func(physics.Entity) bool
	visited     map[physics.Entity]struct{}
}

// resolve casts, skipping past each ghost platform it meets, until it finds a
// solid surface or runs out of range. Every retry adds a new entity to the
// visited set, so the loop ends after at most one cast per distinct ghost.
func (c *caster) resolve(ghostHits *GhostHits) *Output {
	skip := 0.0
	for {
		hit, ok := c.cast(skip)
		if !ok {
			return nil
		}
		if _, seen := c.visited[hit.Entity]; seen {
			common.Logger().Warn("ProximitySensor: backend returned an already crossed ghost platform",
				zap.Uint64("owner", uint64(c.owner)),
				zap.Uint64("entity", uint64(hit.Entity)))
			return nil
		}

		out := c.output(hit)
		if !c.ghost(hit.Entity) {
			return &out
		}
		c.visited[hit.Entity] = struct{}{}
		if ghostHits != nil {
			*ghostHits = append(*ghostHits, out)
		}
		skip = hit.Distance
	}
}

func (c *caster) cast(skip float64) (physics.Hit, bool) {
	origin := c.origin.Add(c.dir.Mul(skip))
	remaining := c.config.CastRange - skip
	if remaining < 0 {
		return physics.Hit{}, false
	}
	filter := physics.QueryFilter{
		Exclude:   c.owner,
		Groups:    c.groups,
		Predicate: c.accept,
	}

	var (
		hit physics.Hit
		ok  bool
	)
	if c.config.CastShape != nil {
		hit, ok = c.q.CastShape(*c.config.CastShape, origin, c.rotation, c.dir, remaining, filter)
	} else {
		hit, ok = c.q.CastRay(origin, c.dir, remaining, filter)
	}
	if !ok {
		return physics.Hit{}, false
	}
	hit.Distance += skip
	return hit, true
}

func (c *caster) accept(e physics.Entity) bool {
	if _, seen := c.visited[e]; seen {
		return false
	}
	if f, ok := c.q.CollisionFiltering(e); ok {
		if f.Sensor {
			return false
		}
		if !f.Solver.Test(c.ownerSolver) && !c.ghost(e) {
			return false
		}
	}

	manifolds, ok := c.q.Contact(c.owner, e)
	if !ok {
		return true
	}
	for _, m := range manifolds {
		if m.Points > 0 && c.config.IntersectionMatchPreventionCutoff < m.Normal.Dot(c.dir) {
			return false
		}
	}
	return true
}

func (c *caster) ghost(e physics.Entity) bool {
	return c.isGhost != nil && c.isGhost(e)
}

func (c *caster) output(hit physics.Hit) Output {
	normal, ok := common.Direction(hit.Normal)
	if !ok {
		normal = c.dir.Mul(-1)
	}
	out := Output{
		Entity:    hit.Entity,
		Proximity: hit.Distance,
		Normal:    normal,
	}
	if k, ok := c.q.Kinematics(hit.Entity); ok {
		out.EntityAngVel = k.AngVel
		out.EntityLinVel = k.LinVel
		if k.AngVel.LenSqr() > 0 {
			out.EntityLinVel = out.EntityLinVel.Add(k.AngVel.Cross(hit.Point.Sub(k.Translation)))
		}
	}
	return out
}
