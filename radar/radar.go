// Package radar tracks which obstacles currently overlap a cylinder around a
// character, without measuring distances.
package radar

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/common"
	"github.com/milk9111/charcontrol/physics"
)

// Class is an obstacle classification in the range [0, 64).
type Class uint8

// MaxClasses bounds the number of distinct classes.
const MaxClasses = 64

// ClassSet is a set of obstacle classes.
type ClassSet uint64

// With returns s with c added. Out-of-range classes are ignored.
func (s ClassSet) With(c Class) ClassSet {
	if c >= MaxClasses {
		return s
	}
	return s | 1<<c
}

// Has reports whether c is in s.
func (s ClassSet) Has(c Class) bool {
	return c < MaxClasses && s&(1<<c) != 0
}

// Classifier assigns a class to an obstacle. Entities it declines only
// appear in the seen set.
type Classifier func(physics.Entity) (Class, bool)

// ObstacleRadar is the per-character overlap scanner. Radius and Height size
// the cylinder; everything else is rebuilt on every scan.
type ObstacleRadar struct {
	Radius float64
	Height float64

	owner    physics.Entity
	position mgl64.Vec3
	up       mgl64.Vec3
	rotation mgl64.Quat
	seen     map[physics.Entity]struct{}
	classes  ClassSet
}

// New returns a radar with the given cylinder size.
func New(radius, height float64) *ObstacleRadar {
	return &ObstacleRadar{Radius: radius, Height: height}
}

// PreMarkingUpdate forgets the previous scan and records where this one
// happens. The cylinder axis is aligned with up; a degenerate up keeps +Y.
func (r *ObstacleRadar) PreMarkingUpdate(owner physics.Entity, position, up mgl64.Vec3) {
	r.owner = owner
	r.position = position
	if dir, ok := common.Direction(up); ok {
		r.up = dir
	} else {
		r.up = common.Up
	}
	r.rotation = common.AlignY(r.up)
	if r.seen == nil {
		r.seen = make(map[physics.Entity]struct{})
	}
	clear(r.seen)
	r.classes = 0
}

// MarkSeen records e as currently overlapping.
func (r *ObstacleRadar) MarkSeen(e physics.Entity) {
	if r.seen == nil {
		r.seen = make(map[physics.Entity]struct{})
	}
	r.seen[e] = struct{}{}
}

// Scan replaces the radar contents with everything overlapping the cylinder
// centered at position. The owner itself is never marked.
func (r *ObstacleRadar) Scan(q physics.Query, owner physics.Entity, position, up mgl64.Vec3, classify Classifier) {
	r.PreMarkingUpdate(owner, position, up)
	shape := physics.Cylinder(r.Radius, 0.5*r.Height)
	q.Overlap(shape, r.position, r.rotation, physics.QueryFilter{}, func(e physics.Entity) bool {
		if e == owner {
			return true
		}
		r.MarkSeen(e)
		if classify != nil {
			if c, ok := classify(e); ok {
				r.classes = r.classes.With(c)
			}
		}
		return true
	})
}

// HasSeen reports whether e overlapped during the last scan.
func (r *ObstacleRadar) HasSeen(e physics.Entity) bool {
	_, ok := r.seen[e]
	return ok
}

// Seen returns the overlapping entities in ascending order.
func (r *ObstacleRadar) Seen() []physics.Entity {
	out := make([]physics.Entity, 0, len(r.seen))
	for e := range r.seen {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Classes returns the classes marked during the last scan.
func (r *ObstacleRadar) Classes() ClassSet {
	return r.classes
}

// Owner, Position, Up and Rotation describe the last scan.
func (r *ObstacleRadar) Owner() physics.Entity { return r.owner }

func (r *ObstacleRadar) Position() mgl64.Vec3 { return r.position }

func (r *ObstacleRadar) Up() mgl64.Vec3 { return r.up }

func (r *ObstacleRadar) Rotation() mgl64.Quat { return r.rotation }
