package component

import "github.com/go-gl/mathgl/mgl64"

// Transform is the spawn placement of an entity, refreshed from the physics
// body after every step.
type Transform struct {
	Position mgl64.Vec3
	Angle    float64
}

var TransformComponent = NewComponent[Transform]()
