package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/physics"
	"github.com/milk9111/charcontrol/sensor"
)

// ProximitySensor is a sensor attached to the entity's body.
type ProximitySensor struct {
	*sensor.ProximitySensor
}

var ProximitySensorComponent = NewComponent[ProximitySensor]()

// GhostSensor collects the ghost platforms the entity's proximity sensor
// looked through this tick.
type GhostSensor struct {
	Hits sensor.GhostHits
}

var GhostSensorComponent = NewComponent[GhostSensor]()

// SubservientSensor makes the entity's proximity sensor act on behalf of
// Owner: Owner is excluded from casts and its filtering is used. The sensor
// rides along with Owner at Offset, in Owner's local space.
type SubservientSensor struct {
	Owner  physics.Entity
	Offset mgl64.Vec3
}

var SubservientSensorComponent = NewComponent[SubservientSensor]()

// SensorShape overrides the cast shape of the entity's proximity sensor. A
// nil Shape forces a ray.
type SensorShape struct {
	Shape *physics.Shape
}

var SensorShapeComponent = NewComponent[SensorShape]()
