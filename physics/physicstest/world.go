// Package physicstest provides an in-memory physics backend made of
// axis-aligned boxes, for exercising controller code without a real engine.
package physicstest

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/physics"
)

// Body is one axis-aligned box. Rotation is reported through Kinematics but
// ignored by the geometry.
type Body struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Rotation    mgl64.Quat
	LinVel      mgl64.Vec3
	AngVel      mgl64.Vec3
	Filtering   physics.CollisionFiltering
	Mass        *physics.MassProperties
	Force       physics.Wrench
	// NoKinematics hides velocity data, like static geometry in most engines.
	NoKinematics bool
}

// World is a physics.Backend over a set of boxes.
type World struct {
	mu       sync.RWMutex
	bodies   map[physics.Entity]*Body
	contacts map[[2]physics.Entity][]physics.ContactManifold
	gravity  mgl64.Vec3

	// IgnorePredicate makes casts skip QueryFilter.Predicate, simulating a
	// misbehaving backend.
	IgnorePredicate bool

	casts    atomic.Int64
	overlaps atomic.Int64
}

var _ physics.Backend = (*World)(nil)

// New returns an empty world with gravity pointing down -Y.
func New() *World {
	return &World{
		bodies:   make(map[physics.Entity]*Body),
		contacts: make(map[[2]physics.Entity][]physics.ContactManifold),
		gravity:  mgl64.Vec3{0, -9.81, 0},
	}
}

// Add registers b under e and returns the stored body.
func (w *World) Add(e physics.Entity, b Body) *Body {
	w.mu.Lock()
	defer w.mu.Unlock()
	if b.Rotation == (mgl64.Quat{}) {
		b.Rotation = mgl64.QuatIdent()
	}
	if b.Filtering == (physics.CollisionFiltering{}) {
		b.Filtering = physics.CollisionFiltering{Collision: physics.AllGroups, Solver: physics.AllGroups}
	}
	stored := b
	w.bodies[e] = &stored
	return &stored
}

// Body returns the stored body for e.
func (w *World) Body(e physics.Entity) *Body {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.bodies[e]
}

// SetGravity replaces the ambient gravity.
func (w *World) SetGravity(g mgl64.Vec3) {
	w.mu.Lock()
	w.gravity = g
	w.mu.Unlock()
}

// SetContact records manifolds between a and b, expressed from a's side.
func (w *World) SetContact(a, b physics.Entity, manifolds ...physics.ContactManifold) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.contacts[[2]physics.Entity{a, b}] = manifolds
}

// Casts returns the number of ray and shape casts performed so far.
func (w *World) Casts() int {
	return int(w.casts.Load())
}

// Overlaps returns the number of overlap queries performed so far.
func (w *World) Overlaps() int {
	return int(w.overlaps.Load())
}

func (w *World) Exists(e physics.Entity) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.bodies[e]
	return ok
}

func (w *World) Gravity() mgl64.Vec3 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.gravity
}

func (w *World) Kinematics(e physics.Entity) (physics.Kinematics, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[e]
	if !ok || b.NoKinematics {
		return physics.Kinematics{}, false
	}
	return physics.Kinematics{
		Translation: b.Center,
		Rotation:    b.Rotation,
		LinVel:      b.LinVel,
		AngVel:      b.AngVel,
	}, true
}

func (w *World) CastRay(origin, direction mgl64.Vec3, maxDistance float64, filter physics.QueryFilter) (physics.Hit, bool) {
	return w.sweep(mgl64.Vec3{}, origin, direction, maxDistance, filter)
}

// CastShape sweeps the axis-aligned bounds of shape. This is exact for
// unrotated cuboids and conservative for everything else.
func (w *World) CastShape(shape physics.Shape, origin mgl64.Vec3, _ mgl64.Quat, direction mgl64.Vec3, maxDistance float64, filter physics.QueryFilter) (physics.Hit, bool) {
	return w.sweep(extents(shape), origin, direction, maxDistance, filter)
}

func (w *World) sweep(pad, origin, direction mgl64.Vec3, maxDistance float64, filter physics.QueryFilter) (physics.Hit, bool) {
	w.casts.Add(1)

	var best physics.Hit
	found := false
	for _, c := range w.snapshot(filter) {
		dist, normal, ok := slab(origin, direction, c.body.Center, c.body.HalfExtents.Add(pad))
		if !ok || dist > maxDistance {
			continue
		}
		if found && dist >= best.Distance {
			continue
		}
		if !w.accepts(c.entity, filter) {
			continue
		}
		best = physics.Hit{
			Entity:   c.entity,
			Distance: dist,
			Point:    origin.Add(direction.Mul(dist)),
			Normal:   normal,
		}
		found = true
	}
	return best, found
}

func (w *World) Overlap(shape physics.Shape, position mgl64.Vec3, _ mgl64.Quat, filter physics.QueryFilter, fn func(physics.Entity) bool) {
	w.overlaps.Add(1)
	ext := extents(shape)
	for _, c := range w.snapshot(filter) {
		d := c.body.Center.Sub(position)
		sum := c.body.HalfExtents.Add(ext)
		if math.Abs(d[0]) > sum[0] || math.Abs(d[1]) > sum[1] || math.Abs(d[2]) > sum[2] {
			continue
		}
		if !w.accepts(c.entity, filter) {
			continue
		}
		if !fn(c.entity) {
			return
		}
	}
}

func (w *World) Contact(a, b physics.Entity) ([]physics.ContactManifold, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if m, ok := w.contacts[[2]physics.Entity{a, b}]; ok {
		return m, true
	}
	if m, ok := w.contacts[[2]physics.Entity{b, a}]; ok {
		flipped := make([]physics.ContactManifold, len(m))
		for i, mf := range m {
			flipped[i] = physics.ContactManifold{Normal: mf.Normal.Mul(-1), Points: mf.Points}
		}
		return flipped, true
	}
	return nil, false
}

func (w *World) CollisionFiltering(e physics.Entity) (physics.CollisionFiltering, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[e]
	if !ok {
		return physics.CollisionFiltering{}, false
	}
	return b.Filtering, true
}

func (w *World) SetVelocity(e physics.Entity, linVel, angVel mgl64.Vec3) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[e]
	if !ok {
		return false
	}
	b.LinVel = linVel
	b.AngVel = angVel
	return true
}

func (w *World) ExternalForce(e physics.Entity) (physics.Wrench, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[e]
	if !ok {
		return physics.Wrench{}, false
	}
	return b.Force, true
}

func (w *World) SetExternalForce(e physics.Entity, wr physics.Wrench) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[e]
	if !ok {
		return false
	}
	b.Force = wr
	return true
}

func (w *World) MassProperties(e physics.Entity) (physics.MassProperties, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.bodies[e]
	if !ok || b.Mass == nil {
		return physics.MassProperties{}, false
	}
	return *b.Mass, true
}

type candidate struct {
	entity physics.Entity
	body   Body
}

// snapshot copies the bodies passing the exclusion and group parts of filter,
// in entity order. Predicates run after the lock is released because they
// usually query the world again.
func (w *World) snapshot(filter physics.QueryFilter) []candidate {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ids := make([]physics.Entity, 0, len(w.bodies))
	for e := range w.bodies {
		ids = append(ids, e)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]candidate, 0, len(ids))
	for _, e := range ids {
		b := w.bodies[e]
		if filter.Exclude.Valid() && e == filter.Exclude {
			continue
		}
		if filter.Groups != nil && !filter.Groups.Test(b.Filtering.Collision) {
			continue
		}
		out = append(out, candidate{entity: e, body: *b})
	}
	return out
}

func (w *World) accepts(e physics.Entity, filter physics.QueryFilter) bool {
	if w.IgnorePredicate || filter.Predicate == nil {
		return true
	}
	return filter.Predicate(e)
}

// slab intersects the ray with a box and returns the entry distance and the
// face normal. A ray starting inside the box hits at distance zero.
func slab(origin, dir, center, half mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	axis := -1
	for i := 0; i < 3; i++ {
		lo := center[i] - half[i]
		hi := center[i] + half[i]
		if math.Abs(dir[i]) < 1e-12 {
			if origin[i] < lo || origin[i] > hi {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}
		t1 := (lo - origin[i]) / dir[i]
		t2 := (hi - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
			axis = i
		}
		if t2 < tmax {
			tmax = t2
		}
	}
	if tmax < tmin || tmax < 0 {
		return 0, mgl64.Vec3{}, false
	}
	if tmin < 0 || axis < 0 {
		return 0, dir.Mul(-1), true
	}
	var n mgl64.Vec3
	if dir[axis] > 0 {
		n[axis] = -1
	} else {
		n[axis] = 1
	}
	return tmin, n, true
}

func extents(s physics.Shape) mgl64.Vec3 {
	switch s.Kind {
	case physics.ShapeBall:
		return mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	case physics.ShapeCylinder:
		return mgl64.Vec3{s.Radius, s.HalfHeight, s.Radius}
	case physics.ShapeCapsule:
		return mgl64.Vec3{s.Radius, s.HalfHeight + s.Radius, s.Radius}
	case physics.ShapeCuboid:
		return mgl64.Vec3(s.HalfExtents)
	default:
		return mgl64.Vec3{}
	}
}
