package component

import (
	"github.com/milk9111/charcontrol/motor"
	"github.com/milk9111/charcontrol/physics"
	"github.com/milk9111/charcontrol/radar"
)

type Toggle struct {
	Mode physics.Toggle
}

var ToggleComponent = NewComponent[Toggle]()

type RigidBodyTracker struct {
	physics.RigidBodyTracker
	// Valid is false until the first capture.
	Valid bool
}

var RigidBodyTrackerComponent = NewComponent[RigidBodyTracker]()

// Motor is the command applied to the entity's body at the end of the tick.
// It is reset to motor.Idle once applied.
type Motor struct {
	motor.Motor
}

var MotorComponent = NewComponent[Motor]()

type ObstacleRadar struct {
	*radar.ObstacleRadar
}

var ObstacleRadarComponent = NewComponent[ObstacleRadar]()
