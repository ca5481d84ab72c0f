// Package physics defines the boundary between the character controller and
// whatever physics engine simulates the world.
package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Entity identifies a body known to the backend. Zero is never a valid entity.
type Entity uint64

// Valid reports whether e can refer to a body.
func (e Entity) Valid() bool {
	return e != 0
}

// Hit is the nearest surface reported by a cast.
type Hit struct {
	Entity   Entity
	Distance float64
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
}

// Groups is a membership/filter bitmask pair. Two groups interact when each
// one's memberships intersect the other's filter.
type Groups struct {
	Memberships uint32
	Filter      uint32
}

// AllGroups interacts with everything.
var AllGroups = Groups{Memberships: ^uint32(0), Filter: ^uint32(0)}

// Test reports whether g and other interact.
func (g Groups) Test(other Groups) bool {
	return g.Memberships&other.Filter != 0 && other.Memberships&g.Filter != 0
}

// CollisionFiltering describes how a body is filtered by the backend.
type CollisionFiltering struct {
	// Collision decides which pairs generate contacts at all.
	Collision Groups
	// Solver decides which contacting pairs actually push each other apart.
	Solver Groups
	// Sensor marks trigger-only colliders that never block anything.
	Sensor bool
}

// QueryFilter narrows the candidates of a cast or overlap query.
type QueryFilter struct {
	// Exclude is skipped entirely when valid.
	Exclude Entity
	// Groups, when set, must test against every candidate's collision groups.
	Groups *Groups
	// Predicate, when set, must accept a candidate for it to count.
	Predicate func(Entity) bool
}

// Accepts applies the exclusion and predicate parts of the filter. Group tests
// are left to the backend, which owns the candidate's groups.
func (f QueryFilter) Accepts(e Entity) bool {
	if f.Exclude.Valid() && e == f.Exclude {
		return false
	}
	if f.Predicate != nil && !f.Predicate(e) {
		return false
	}
	return true
}

// ContactManifold is one persistent contact between two bodies as seen from
// the first body: Normal lies on the second body's surface and points toward
// the first one.
type ContactManifold struct {
	Normal mgl64.Vec3
	Points int
}

// Kinematics is the world-space motion state of a body.
type Kinematics struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
	LinVel      mgl64.Vec3
	AngVel      mgl64.Vec3
}

// MassProperties are the quantities needed to turn accelerations into forces.
type MassProperties struct {
	Mass             float64
	PrincipalInertia mgl64.Vec3
}

// Wrench is an external force and torque applied continuously to a body.
type Wrench struct {
	Force  mgl64.Vec3
	Torque mgl64.Vec3
}

// Query is the read side of a backend. Implementations used with parallel
// sensing must tolerate concurrent calls.
type Query interface {
	// Exists reports whether the backend knows e.
	Exists(e Entity) bool
	// Gravity is the ambient gravity vector.
	Gravity() mgl64.Vec3
	// Kinematics returns the motion state of e, if it has one.
	Kinematics(e Entity) (Kinematics, bool)
	// CastRay returns the nearest accepted hit within maxDistance.
	CastRay(origin, direction mgl64.Vec3, maxDistance float64, filter QueryFilter) (Hit, bool)
	// CastShape sweeps shape (oriented by rotation) from origin along
	// direction and returns the nearest accepted hit within maxDistance.
	CastShape(shape Shape, origin mgl64.Vec3, rotation mgl64.Quat, direction mgl64.Vec3, maxDistance float64, filter QueryFilter) (Hit, bool)
	// Overlap calls fn once per entity overlapping shape placed at position
	// with rotation. Enumeration stops early only if fn returns false.
	Overlap(shape Shape, position mgl64.Vec3, rotation mgl64.Quat, filter QueryFilter, fn func(Entity) bool)
	// Contact returns the persistent contact manifolds between a and b.
	Contact(a, b Entity) ([]ContactManifold, bool)
	// CollisionFiltering returns the filtering data of e's collider.
	CollisionFiltering(e Entity) (CollisionFiltering, bool)
}

// Actuator is the write side of a backend.
type Actuator interface {
	Kinematics(e Entity) (Kinematics, bool)
	SetVelocity(e Entity, linVel, angVel mgl64.Vec3) bool
	ExternalForce(e Entity) (Wrench, bool)
	SetExternalForce(e Entity, w Wrench) bool
	MassProperties(e Entity) (MassProperties, bool)
}

// Backend is a complete physics backend.
type Backend interface {
	Query
	Actuator
}
