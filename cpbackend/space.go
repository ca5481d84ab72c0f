// Package cpbackend implements the physics backend on top of a Chipmunk2D
// space. The simulation lives in the XY plane: Z components of vectors are
// dropped on the way in and zero on the way out, and rotations are about Z.
package cpbackend

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/charcontrol/common"
	"github.com/milk9111/charcontrol/physics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const collisionTypeBody cp.CollisionType = 1

var (
	ErrEntityExists  = errors.New("cpbackend: entity already registered")
	ErrInvalidEntity = errors.New("cpbackend: invalid entity")
)

// BodyKind selects how a body is simulated.
type BodyKind uint8

const (
	Dynamic BodyKind = iota
	Kinematic
	Static
)

// BodyDef describes a body to add to the space.
type BodyDef struct {
	Kind     BodyKind
	Position mgl64.Vec3
	Angle    float64
	Shape    physics.Shape
	// Mass defaults to 1 for dynamic bodies.
	Mass          float64
	FixedRotation bool
	Friction      float64
	Elasticity    float64
	Filtering     physics.CollisionFiltering
}

type entry struct {
	body      *cp.Body
	shape     *cp.Shape
	kind      BodyKind
	filtering physics.CollisionFiltering
}

// Space is a physics.Backend over a cp.Space. Every method is safe for
// concurrent use; cp itself is not, so calls are serialized.
type Space struct {
	mu      sync.Mutex
	space   *cp.Space
	entries map[physics.Entity]*entry
}

var _ physics.Backend = (*Space)(nil)

// New returns an empty space with the given gravity.
func New(gravity mgl64.Vec3) *Space {
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(vec(gravity))

	s := &Space{
		space:   space,
		entries: make(map[physics.Entity]*entry),
	}
	handler := space.NewCollisionHandler(collisionTypeBody, collisionTypeBody)
	handler.UserData = s
	handler.PreSolveFunc = func(arb *cp.Arbiter, _ *cp.Space, userData interface{}) bool {
		return userData.(*Space).solves(arb)
	}
	return s
}

// Add registers e with a new body built from def.
func (s *Space) Add(e physics.Entity, def BodyDef) error {
	if !e.Valid() {
		return ErrInvalidEntity
	}
	if err := def.Shape.Validate(); err != nil {
		return errors.Wrapf(err, "cpbackend: entity %d", e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e]; ok {
		return errors.Wrapf(ErrEntityExists, "entity %d", e)
	}

	if def.Filtering == (physics.CollisionFiltering{}) {
		def.Filtering = physics.CollisionFiltering{Collision: physics.AllGroups, Solver: physics.AllGroups}
	}

	var body *cp.Body
	switch def.Kind {
	case Static:
		body = cp.NewStaticBody()
	case Kinematic:
		body = cp.NewKinematicBody()
	default:
		mass := def.Mass
		if mass <= 0 {
			mass = 1
		}
		moment := math.Inf(1)
		if !def.FixedRotation {
			moment = momentFor(def.Shape, mass)
		}
		body = cp.NewBody(mass, moment)
	}
	body.SetPosition(vec(def.Position))
	body.SetAngle(def.Angle)

	shape := newShape(body, def.Shape)
	shape.SetFriction(def.Friction)
	shape.SetElasticity(def.Elasticity)
	shape.SetCollisionType(collisionTypeBody)
	shape.SetSensor(def.Filtering.Sensor)
	shape.SetFilter(shapeFilter(def.Filtering.Collision))
	shape.UserData = e

	s.space.AddBody(body)
	s.space.AddShape(shape)
	s.entries[e] = &entry{body: body, shape: shape, kind: def.Kind, filtering: def.Filtering}
	common.Logger().Debug("PhysicsWorld: added body",
		zap.Uint64("entity", uint64(e)),
		zap.Stringer("shape", def.Shape.Kind))
	return nil
}

// Remove drops e from the space. It reports whether e was registered.
func (s *Space) Remove(e physics.Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	en, ok := s.entries[e]
	if !ok {
		return false
	}
	s.space.RemoveShape(en.shape)
	s.space.RemoveBody(en.body)
	delete(s.entries, e)
	return true
}

// Step advances the simulation by dt seconds.
func (s *Space) Step(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.space.Step(dt)
}

// SetTransform teleports e. Static shapes are re-added so the static index
// sees the new placement.
func (s *Space) SetTransform(e physics.Entity, position mgl64.Vec3, angle float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	en, ok := s.entries[e]
	if !ok {
		return false
	}
	if en.kind == Static {
		s.space.RemoveShape(en.shape)
	}
	en.body.SetPosition(vec(position))
	en.body.SetAngle(angle)
	if en.kind == Static {
		s.space.AddShape(en.shape)
	}
	return true
}

// SetGravity replaces the ambient gravity.
func (s *Space) SetGravity(g mgl64.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.space.SetGravity(vec(g))
}

func (s *Space) Exists(e physics.Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[e]
	return ok
}

func (s *Space) Gravity() mgl64.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fromVec(s.space.Gravity())
}

func (s *Space) Kinematics(e physics.Entity) (physics.Kinematics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	en, ok := s.entries[e]
	if !ok {
		return physics.Kinematics{}, false
	}
	return physics.Kinematics{
		Translation: fromVec(en.body.Position()),
		Rotation:    common.RotationZ(en.body.Angle()),
		LinVel:      fromVec(en.body.Velocity()),
		AngVel:      mgl64.Vec3{0, 0, en.body.AngularVelocity()},
	}, true
}

func (s *Space) CollisionFiltering(e physics.Entity) (physics.CollisionFiltering, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	en, ok := s.entries[e]
	if !ok {
		return physics.CollisionFiltering{}, false
	}
	return en.filtering, true
}

// Contact reports the arbiters between a and b from the last step. The
// solver skips pairs whose solver groups do not interact, so those pairs
// never carry contact points.
func (s *Space) Contact(a, b physics.Entity) ([]physics.ContactManifold, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ea, ok := s.entries[a]
	if !ok {
		return nil, false
	}
	eb, ok := s.entries[b]
	if !ok {
		return nil, false
	}

	var out []physics.ContactManifold
	ea.body.EachArbiter(func(arb *cp.Arbiter) {
		sa, sb := arb.Shapes()
		if sa != ea.shape || sb != eb.shape {
			return
		}
		out = append(out, physics.ContactManifold{
			Normal: fromVec(arb.Normal().Neg()),
			Points: arb.Count(),
		})
	})
	return out, len(out) > 0
}

func (s *Space) SetVelocity(e physics.Entity, linVel, angVel mgl64.Vec3) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	en, ok := s.entries[e]
	if !ok || en.kind == Static {
		return false
	}
	en.body.SetVelocityVector(vec(linVel))
	en.body.SetAngularVelocity(angVel.Z())
	return true
}

func (s *Space) ExternalForce(e physics.Entity) (physics.Wrench, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	en, ok := s.entries[e]
	if !ok {
		return physics.Wrench{}, false
	}
	return physics.Wrench{
		Force:  fromVec(en.body.Force()),
		Torque: mgl64.Vec3{0, 0, en.body.Torque()},
	}, true
}

// SetExternalForce sets the force and torque applied during the next step.
// cp clears both after integrating, so callers reapply them every tick.
func (s *Space) SetExternalForce(e physics.Entity, w physics.Wrench) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	en, ok := s.entries[e]
	if !ok {
		return false
	}
	if en.kind != Dynamic {
		return true
	}
	en.body.SetForce(vec(w.Force))
	en.body.SetTorque(w.Torque.Z())
	return true
}

func (s *Space) MassProperties(e physics.Entity) (physics.MassProperties, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	en, ok := s.entries[e]
	if !ok || en.kind != Dynamic {
		return physics.MassProperties{}, false
	}
	props := physics.MassProperties{Mass: en.body.Mass()}
	if m := en.body.Moment(); !math.IsInf(m, 0) && m < cp.INFINITY {
		props.PrincipalInertia = mgl64.Vec3{0, 0, m}
	}
	return props, true
}

// solves runs inside Step, with s.mu already held.
func (s *Space) solves(arb *cp.Arbiter) bool {
	sa, sb := arb.Shapes()
	ea, okA := s.entries[entityOf(sa)]
	eb, okB := s.entries[entityOf(sb)]
	if !okA || !okB {
		return true
	}
	return ea.filtering.Solver.Test(eb.filtering.Solver)
}

func (s *Space) entity(shape *cp.Shape) (physics.Entity, bool) {
	e := entityOf(shape)
	_, ok := s.entries[e]
	return e, ok
}

func entityOf(shape *cp.Shape) physics.Entity {
	if shape == nil {
		return 0
	}
	e, _ := shape.UserData.(physics.Entity)
	return e
}

func newShape(body *cp.Body, s physics.Shape) *cp.Shape {
	switch s.Kind {
	case physics.ShapeBall:
		return cp.NewCircle(body, s.Radius, cp.Vector{})
	case physics.ShapeCapsule:
		return cp.NewSegment(body, cp.Vector{Y: -s.HalfHeight}, cp.Vector{Y: s.HalfHeight}, s.Radius)
	case physics.ShapeCylinder:
		if s.HalfHeight == 0 {
			return cp.NewSegment(body, cp.Vector{X: -s.Radius}, cp.Vector{X: s.Radius}, 0)
		}
		return cp.NewBox(body, 2*s.Radius, 2*s.HalfHeight, 0)
	default:
		return cp.NewBox(body, 2*s.HalfExtents[0], 2*s.HalfExtents[1], 0)
	}
}

func momentFor(s physics.Shape, mass float64) float64 {
	switch s.Kind {
	case physics.ShapeBall:
		return cp.MomentForCircle(mass, 0, s.Radius, cp.Vector{})
	case physics.ShapeCapsule:
		return cp.MomentForSegment(mass, cp.Vector{Y: -s.HalfHeight}, cp.Vector{Y: s.HalfHeight}, s.Radius)
	case physics.ShapeCylinder:
		return cp.MomentForBox(mass, 2*s.Radius, math.Max(2*s.HalfHeight, 1e-3))
	default:
		return cp.MomentForBox(mass, 2*s.HalfExtents[0], math.Max(2*s.HalfExtents[1], 1e-3))
	}
}

func shapeFilter(g physics.Groups) cp.ShapeFilter {
	return cp.ShapeFilter{Group: cp.NO_GROUP, Categories: uint(g.Memberships), Mask: uint(g.Filter)}
}

func queryFilter(f physics.QueryFilter) cp.ShapeFilter {
	if f.Groups == nil {
		return cp.SHAPE_FILTER_ALL
	}
	return shapeFilter(*f.Groups)
}

func vec(v mgl64.Vec3) cp.Vector {
	return cp.Vector{X: v[0], Y: v[1]}
}

func fromVec(v cp.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, 0}
}
