package cpbackend

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/charcontrol/common"
	"github.com/milk9111/charcontrol/physics"
)

// sweepIterations bounds the bisection used by non-ball shape casts.
const sweepIterations = 40

// flatThickness stands in for the zero thickness of flat shapes, which cp
// cannot build polygons from.
const flatThickness = 1e-4

type candidate struct {
	entity physics.Entity
	alpha  float64
	point  cp.Vector
	normal cp.Vector
}

// CastRay is a cp segment query. Hits are collected under the lock and the
// filter predicate runs afterwards, nearest first.
func (s *Space) CastRay(origin, direction mgl64.Vec3, maxDistance float64, filter physics.QueryFilter) (physics.Hit, bool) {
	return s.segmentCast(origin, direction, maxDistance, 0, filter)
}

// CastShape sweeps shape along direction. Balls are exact fat segment
// queries; other shapes bisect on the convex hull swept by the shape.
func (s *Space) CastShape(shape physics.Shape, origin mgl64.Vec3, rotation mgl64.Quat, direction mgl64.Vec3, maxDistance float64, filter physics.QueryFilter) (physics.Hit, bool) {
	if shape.Kind == physics.ShapeBall {
		return s.segmentCast(origin, direction, maxDistance, shape.Radius, filter)
	}
	return s.sweep(shape, origin, common.AngleZ(rotation), direction, maxDistance, filter)
}

// Overlap reports every entity overlapping shape, in ascending id order.
func (s *Space) Overlap(shape physics.Shape, position mgl64.Vec3, rotation mgl64.Quat, filter physics.QueryFilter, fn func(physics.Entity) bool) {
	verts, radius := outline(shape, common.AngleZ(rotation))
	for _, c := range s.overlaps(verts, vec(position), vec(position), radius, filter) {
		if filter.Predicate != nil && !filter.Predicate(c.entity) {
			continue
		}
		if !fn(c.entity) {
			return
		}
	}
}

func (s *Space) segmentCast(origin, direction mgl64.Vec3, maxDistance, radius float64, filter physics.QueryFilter) (physics.Hit, bool) {
	if maxDistance < 0 {
		return physics.Hit{}, false
	}
	start := vec(origin)
	end := vec(origin.Add(direction.Mul(maxDistance)))

	var hits []candidate
	s.mu.Lock()
	s.space.SegmentQuery(start, end, radius, queryFilter(filter), func(shape *cp.Shape, point, normal cp.Vector, alpha float64, _ interface{}) {
		e, ok := s.entity(shape)
		if !ok || (filter.Exclude.Valid() && e == filter.Exclude) {
			return
		}
		hits = append(hits, candidate{entity: e, alpha: alpha, point: point, normal: normal})
	}, nil)
	s.mu.Unlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].alpha != hits[j].alpha {
			return hits[i].alpha < hits[j].alpha
		}
		return hits[i].entity < hits[j].entity
	})
	for _, h := range hits {
		if filter.Predicate != nil && !filter.Predicate(h.entity) {
			continue
		}
		return physics.Hit{
			Entity:   h.entity,
			Distance: h.alpha * maxDistance,
			Point:    fromVec(h.point),
			Normal:   fromVec(h.normal),
		}, true
	}
	return physics.Hit{}, false
}

// sweep finds the smallest t for which the hull swept between origin and
// origin+direction*t touches an accepted entity. The swept hull only grows
// with t, so bisection is sound.
func (s *Space) sweep(shape physics.Shape, origin mgl64.Vec3, angle float64, direction mgl64.Vec3, maxDistance float64, filter physics.QueryFilter) (physics.Hit, bool) {
	if maxDistance < 0 {
		return physics.Hit{}, false
	}
	verts, radius := outline(shape, angle)
	start := vec(origin)
	at := func(t float64) cp.Vector { return vec(origin.Add(direction.Mul(t))) }

	accepted := make(map[physics.Entity]bool)
	first := func(cs []candidate) (candidate, bool) {
		for _, c := range cs {
			ok, seen := accepted[c.entity]
			if !seen {
				ok = filter.Predicate == nil || filter.Predicate(c.entity)
				accepted[c.entity] = ok
			}
			if ok {
				return c, true
			}
		}
		return candidate{}, false
	}
	touches := func(to cp.Vector) (candidate, bool) {
		return first(s.overlaps(verts, start, to, radius, filter))
	}

	// Entities already touching the shape at the origin are hits only when
	// the shape moves into them. The rest, such as a wall the shape is
	// pressed against sideways, are ignored for the whole sweep.
	for _, c := range s.overlaps(verts, start, start, radius, filter) {
		if _, ok := first([]candidate{c}); !ok {
			continue
		}
		if n := fromVec(c.normal); n.LenSqr() == 0 || n.Dot(direction) < 0 {
			return s.sweepHit(c, 0, direction), true
		}
		accepted[c.entity] = false
	}
	best, ok := touches(at(maxDistance))
	if !ok {
		return physics.Hit{}, false
	}

	lo, hi := 0.0, maxDistance
	for i := 0; i < sweepIterations && hi-lo > 1e-9; i++ {
		mid := 0.5 * (lo + hi)
		if c, ok := touches(at(mid)); ok {
			hi, best = mid, c
		} else {
			lo = mid
		}
	}

	// Prefer the contact of the shape resting at the hit distance over the
	// contact of the hull.
	if c, ok := first(s.overlaps(verts, at(hi), at(hi), radius, filter)); ok && c.entity == best.entity {
		best = c
	}
	return s.sweepHit(best, hi, direction), true
}

func (s *Space) sweepHit(c candidate, distance float64, direction mgl64.Vec3) physics.Hit {
	normal := fromVec(c.normal)
	if normal.LenSqr() == 0 {
		normal = direction.Mul(-1)
	}
	return physics.Hit{
		Entity:   c.entity,
		Distance: distance,
		Point:    fromVec(c.point),
		Normal:   normal,
	}
}

// overlaps returns one candidate per entity touched by the convex hull of
// verts placed at from and at to, ascending by entity.
func (s *Space) overlaps(verts []cp.Vector, from, to cp.Vector, radius float64, filter physics.QueryFilter) []candidate {
	hull := make([]cp.Vector, 0, 2*len(verts))
	for _, v := range verts {
		hull = append(hull, v.Add(from))
	}
	if from != to {
		for _, v := range verts {
			hull = append(hull, v.Add(to))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	probe := cp.NewPolyShape(cp.NewKinematicBody(), len(hull), hull, cp.NewTransformIdentity(), radius)
	probe.SetFilter(queryFilter(filter))

	seen := make(map[physics.Entity]struct{})
	var out []candidate
	s.space.ShapeQuery(probe, func(other *cp.Shape, set *cp.ContactPointSet) {
		e, ok := s.entity(other)
		if !ok || (filter.Exclude.Valid() && e == filter.Exclude) {
			return
		}
		if _, dup := seen[e]; dup {
			return
		}
		seen[e] = struct{}{}
		c := candidate{entity: e, normal: set.Normal.Neg()}
		if set.Count > 0 {
			c.point = set.Points[0].PointB
		}
		out = append(out, c)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].entity < out[j].entity })
	return out
}

// outline returns the vertices of shape rotated by angle around the origin,
// plus the rounding radius cp applies around them.
func outline(shape physics.Shape, angle float64) ([]cp.Vector, float64) {
	var (
		local  []cp.Vector
		radius float64
	)
	box := func(hx, hy float64) []cp.Vector {
		return []cp.Vector{{X: hx, Y: -hy}, {X: hx, Y: hy}, {X: -hx, Y: hy}, {X: -hx, Y: -hy}}
	}
	switch shape.Kind {
	case physics.ShapeBall:
		local, radius = box(flatThickness, flatThickness), shape.Radius
	case physics.ShapeCapsule:
		local, radius = box(flatThickness, shape.HalfHeight), shape.Radius
	case physics.ShapeCylinder:
		local = box(shape.Radius, math.Max(shape.HalfHeight, flatThickness))
	default:
		local = box(math.Max(shape.HalfExtents[0], flatThickness), math.Max(shape.HalfExtents[1], flatThickness))
	}

	rot := cp.Vector{X: math.Cos(angle), Y: math.Sin(angle)}
	out := make([]cp.Vector, len(local))
	for i, v := range local {
		out[i] = rot.Rotate(v)
	}
	return out, radius
}
