package physics

import (
	"fmt"
	"math"
)

// ShapeKind selects the geometry of a Shape.
type ShapeKind uint8

const (
	ShapeBall ShapeKind = iota + 1
	ShapeCylinder
	ShapeCuboid
	ShapeCapsule
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBall:
		return "ball"
	case ShapeCylinder:
		return "cylinder"
	case ShapeCuboid:
		return "cuboid"
	case ShapeCapsule:
		return "capsule"
	default:
		return fmt.Sprintf("ShapeKind(%d)", uint8(k))
	}
}

// Shape is a backend-neutral collider description used for sweeps and
// overlap queries. Cylinders and capsules are aligned with the local Y axis.
type Shape struct {
	Kind       ShapeKind
	Radius     float64
	HalfHeight float64
	// HalfExtents is only used by cuboids.
	HalfExtents [3]float64
}

// Ball returns a sphere (or circle in 2D backends).
func Ball(radius float64) Shape {
	return Shape{Kind: ShapeBall, Radius: radius}
}

// Cylinder returns a Y-aligned cylinder. A zero half height gives a flat disc.
func Cylinder(radius, halfHeight float64) Shape {
	return Shape{Kind: ShapeCylinder, Radius: radius, HalfHeight: halfHeight}
}

// Capsule returns a Y-aligned capsule.
func Capsule(radius, halfHeight float64) Shape {
	return Shape{Kind: ShapeCapsule, Radius: radius, HalfHeight: halfHeight}
}

// Cuboid returns a box with the given half extents.
func Cuboid(hx, hy, hz float64) Shape {
	return Shape{Kind: ShapeCuboid, HalfExtents: [3]float64{hx, hy, hz}}
}

// Validate rejects shapes that no backend could build.
func (s Shape) Validate() error {
	bad := func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) || v < 0 }
	switch s.Kind {
	case ShapeBall:
		if bad(s.Radius) || s.Radius == 0 {
			return fmt.Errorf("physics: ball radius %v", s.Radius)
		}
	case ShapeCylinder, ShapeCapsule:
		if bad(s.Radius) || s.Radius == 0 || bad(s.HalfHeight) {
			return fmt.Errorf("physics: %s radius %v half height %v", s.Kind, s.Radius, s.HalfHeight)
		}
	case ShapeCuboid:
		for _, h := range s.HalfExtents {
			if bad(h) {
				return fmt.Errorf("physics: cuboid half extents %v", s.HalfExtents)
			}
		}
	default:
		return fmt.Errorf("physics: unknown shape kind %s", s.Kind)
	}
	return nil
}
