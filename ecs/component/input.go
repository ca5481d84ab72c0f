package component

import "github.com/go-gl/mathgl/mgl64"

// Input stores per-tick movement intent for an entity.
type Input struct {
	// Walk is the desired horizontal direction scaled by intensity, each
	// component in [-1, 1].
	Walk mgl64.Vec3
	Jump bool
}

var InputComponent = NewComponent[Input]()
