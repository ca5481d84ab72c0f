package system

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/common"
	"github.com/milk9111/charcontrol/cpbackend"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"go.uber.org/zap"
)

// PhysicsSystem keeps the cp space in step with the world. Sync runs first
// in a tick so every later system sees registered bodies; Update steps the
// simulation last.
type PhysicsSystem struct {
	space  *cpbackend.Space
	dt     float64
	bodies map[ecs.Entity]struct{}
}

func NewPhysicsSystem(space *cpbackend.Space, dt float64) *PhysicsSystem {
	return &PhysicsSystem{
		space:  space,
		dt:     dt,
		bodies: make(map[ecs.Entity]struct{}),
	}
}

func (ps *PhysicsSystem) Space() *cpbackend.Space {
	if ps == nil {
		return nil
	}
	return ps.space
}

// Sync registers new bodies, drops bodies whose entity or component is gone
// and drives kinematic bodies.
func (ps *PhysicsSystem) Sync(w *ecs.World) {
	if ps == nil || w == nil {
		return
	}
	ps.cleanupEntities(w)

	for _, e := range w.Query(component.PhysicsBodyComponent, component.TransformComponent) {
		body, _ := ecs.Get(w, e, component.PhysicsBodyComponent)
		if !body.Registered {
			transform, _ := ecs.Get(w, e, component.TransformComponent)
			def := body.Def
			def.Position = transform.Position
			def.Angle = transform.Angle
			if err := ps.space.Add(BodyOf(e), def); err != nil {
				common.Logger().Error("PhysicsWorld: failed to add body",
					zap.Stringer("entity", e), zap.Error(err))
				continue
			}
			body.Registered = true
			ps.bodies[e] = struct{}{}
		}
		if body.Def.Kind == cpbackend.Kinematic {
			ps.space.SetVelocity(BodyOf(e), body.Velocity, mgl64.Vec3{})
		}
	}
}

// Update steps the space and copies body placements back to transforms.
func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil {
		return
	}
	ps.space.Step(ps.dt)
	ps.syncTransforms(w)
}

func (ps *PhysicsSystem) syncTransforms(w *ecs.World) {
	ecs.ForEach2(w, component.PhysicsBodyComponent, component.TransformComponent, func(e ecs.Entity, body *component.PhysicsBody, transform *component.Transform) {
		if !body.Registered {
			return
		}
		k, ok := ps.space.Kinematics(BodyOf(e))
		if !ok {
			return
		}
		transform.Position = k.Translation
		transform.Angle = common.AngleZ(k.Rotation)
	})
}

func (ps *PhysicsSystem) cleanupEntities(w *ecs.World) {
	for e := range ps.bodies {
		if ecs.IsAlive(w, e) && ecs.Has(w, e, component.PhysicsBodyComponent) {
			continue
		}
		ps.space.Remove(BodyOf(e))
		delete(ps.bodies, e)
		common.Logger().Debug("PhysicsWorld: removed body", zap.Stringer("entity", e))
	}
}
