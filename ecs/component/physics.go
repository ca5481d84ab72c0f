package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/cpbackend"
)

// PhysicsBody describes the body the physics system registers for an entity.
type PhysicsBody struct {
	Def cpbackend.BodyDef
	// Velocity is driven every tick on kinematic bodies.
	Velocity   mgl64.Vec3
	Registered bool
}

var PhysicsBodyComponent = NewComponent[PhysicsBody]()
