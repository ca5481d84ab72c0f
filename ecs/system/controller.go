package system

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"github.com/milk9111/charcontrol/motor"
	"github.com/milk9111/charcontrol/sensor"
)

// ControllerSystem is a floating character controller: a damped spring
// holds the body FloatHeight above whatever the proximity sensor reports,
// horizontal input is chased with bounded acceleration and jumps are a
// single velocity boost.
type ControllerSystem struct {
	dt float64
}

func NewControllerSystem(dt float64) *ControllerSystem {
	return &ControllerSystem{dt: dt}
}

func (s *ControllerSystem) Update(w *ecs.World) {
	if s == nil || w == nil || s.dt <= 0 {
		return
	}
	ecs.ForEach4(w, component.ControllerComponent, component.InputComponent, component.RigidBodyTrackerComponent, component.MotorComponent,
		func(e ecs.Entity, c *component.Controller, in *component.Input, tracker *component.RigidBodyTracker, m *component.Motor) {
			if !tracker.Valid {
				return
			}
			m.Motor = s.command(c, in, tracker, groundOf(w, e))
		})
}

func groundOf(w *ecs.World, e ecs.Entity) *sensor.Output {
	ps, ok := ecs.Get(w, e, component.ProximitySensorComponent)
	if !ok || ps.ProximitySensor == nil {
		return nil
	}
	return ps.Output
}

func (s *ControllerSystem) command(c *component.Controller, in *component.Input, tracker *component.RigidBodyTracker, ground *sensor.Output) motor.Motor {
	up := upOf(tracker.Gravity)
	vel := tracker.Velocity

	if c.Jumping && vel.Dot(up) <= 0 {
		c.Jumping = false
	}
	c.Grounded = ground != nil && !c.Jumping && ground.Proximity <= c.FloatHeight+groundCling
	switch {
	case c.Grounded:
		c.CoyoteLeft = c.CoyoteFrames
	case c.CoyoteLeft > 0:
		c.CoyoteLeft--
	}

	var carried mgl64.Vec3
	if c.Grounded {
		carried = horizontal(ground.EntityLinVel, up)
	}
	desired := horizontal(in.Walk, up).Mul(c.WalkSpeed).Add(carried)
	accel := horizontal(desired.Sub(vel), up).Mul(1 / s.dt)
	if l := accel.Len(); c.Acceleration > 0 && l > c.Acceleration {
		accel = accel.Mul(c.Acceleration / l)
	}

	cmd := motor.Idle()
	if in.Jump && !c.Jumping && (c.Grounded || c.CoyoteLeft > 0) {
		cmd.Lin.Boost = up.Mul(c.JumpSpeed - vel.Dot(up))
		cmd.Lin.Acceleration = accel
		c.Jumping = true
		c.Grounded = false
		c.CoyoteLeft = 0
		return cmd
	}

	if c.Grounded {
		displacement := c.FloatHeight - ground.Proximity
		relative := vel.Sub(ground.EntityLinVel).Dot(up)
		spring := c.SpringStrength*displacement - 2*c.SpringDampening*math.Sqrt(c.SpringStrength)*relative
		// Gravity is cancelled while floating so the spring only has to
		// correct displacement.
		accel = accel.Add(up.Mul(spring)).Sub(tracker.Gravity)
	}
	cmd.Lin.Acceleration = accel
	return cmd
}
