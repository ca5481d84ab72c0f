package system

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/common"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"github.com/milk9111/charcontrol/physics"
	"github.com/milk9111/charcontrol/sensor"
)

// groundCling is how far past the float height a surface still counts as
// ground.
const groundCling = 0.5

// BodyOf maps an ECS entity to the physics entity registered for it.
func BodyOf(e ecs.Entity) physics.Entity {
	return physics.Entity(e)
}

// EntityOf is the inverse of BodyOf.
func EntityOf(e physics.Entity) ecs.Entity {
	return ecs.Entity(e)
}

func toggleOf(w *ecs.World, e ecs.Entity) physics.Toggle {
	if t, ok := ecs.Get(w, e, component.ToggleComponent); ok {
		return t.Mode
	}
	return physics.Enabled
}

// placement returns where e currently is: the tracker when it has captured
// the body, the backend otherwise, and the spawn transform as a last resort.
func placement(w *ecs.World, q physics.Query, e ecs.Entity) (sensor.Transform, bool) {
	if tr, ok := ecs.Get(w, e, component.RigidBodyTrackerComponent); ok && tr.Valid {
		return sensor.Transform{Translation: tr.Translation, Rotation: tr.Rotation}, true
	}
	if k, ok := q.Kinematics(BodyOf(e)); ok {
		return sensor.Transform{Translation: k.Translation, Rotation: k.Rotation}, true
	}
	if t, ok := ecs.Get(w, e, component.TransformComponent); ok {
		return sensor.Transform{Translation: t.Position, Rotation: common.RotationZ(t.Angle)}, true
	}
	return sensor.Transform{}, false
}

// upOf is the direction opposite to gravity.
func upOf(gravity mgl64.Vec3) mgl64.Vec3 {
	if up, ok := common.Direction(gravity.Mul(-1)); ok {
		return up
	}
	return common.Up
}

// horizontal strips the part of v along up.
func horizontal(v, up mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(up.Mul(v.Dot(up)))
}
