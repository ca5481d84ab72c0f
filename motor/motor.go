// Package motor turns a character's abstract movement commands into velocity
// changes and external forces on its rigid body.
package motor

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/common"
	"github.com/milk9111/charcontrol/physics"
	"github.com/pkg/errors"
)

var (
	ErrBodyNotFound     = errors.New("motor: body not found")
	ErrNoMassProperties = errors.New("motor: acceleration requested on a body without mass properties")
)

// Channel is one vector command. Boost is an instantaneous velocity change;
// Acceleration is a continuous acceleration converted to a force. A channel
// whose vector has any non-finite component is left alone.
type Channel struct {
	Boost        mgl64.Vec3
	Acceleration mgl64.Vec3
}

// LeaveAlone returns a channel that changes nothing.
func LeaveAlone() Channel {
	nan := common.NaN()
	return Channel{Boost: nan, Acceleration: nan}
}

// Motor is the full command for one tick.
type Motor struct {
	Lin Channel
	Ang Channel
}

// Idle returns a motor that changes nothing.
func Idle() Motor {
	return Motor{Lin: LeaveAlone(), Ang: LeaveAlone()}
}

// Apply translates m into changes on e. Disabled and SenseOnly clear the
// external force and torque and apply nothing else.
func Apply(b physics.Actuator, e physics.Entity, m Motor, toggle physics.Toggle) error {
	if !toggle.Drives() {
		if !b.SetExternalForce(e, physics.Wrench{}) {
			return errors.Wrapf(ErrBodyNotFound, "entity %d", e)
		}
		return nil
	}

	linBoost := common.IsFinite(m.Lin.Boost)
	angBoost := common.IsFinite(m.Ang.Boost)
	if linBoost || angBoost {
		k, ok := b.Kinematics(e)
		if !ok {
			return errors.Wrapf(ErrBodyNotFound, "entity %d", e)
		}
		lin, ang := k.LinVel, k.AngVel
		if linBoost {
			lin = lin.Add(m.Lin.Boost)
		}
		if angBoost {
			ang = ang.Add(m.Ang.Boost)
		}
		b.SetVelocity(e, lin, ang)
	}

	linAccel := common.IsFinite(m.Lin.Acceleration)
	angAccel := common.IsFinite(m.Ang.Acceleration)
	if !linAccel && !angAccel {
		return nil
	}
	mass, ok := b.MassProperties(e)
	if !ok {
		return errors.Wrapf(ErrNoMassProperties, "entity %d", e)
	}
	wrench, ok := b.ExternalForce(e)
	if !ok {
		return errors.Wrapf(ErrBodyNotFound, "entity %d", e)
	}
	if linAccel {
		wrench.Force = m.Lin.Acceleration.Mul(mass.Mass)
	}
	if angAccel {
		wrench.Torque = common.MulElem(m.Ang.Acceleration, mass.PrincipalInertia)
	}
	b.SetExternalForce(e, wrench)
	return nil
}
