package system

import (
	"github.com/milk9111/charcontrol/common"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"github.com/milk9111/charcontrol/motor"
	"github.com/milk9111/charcontrol/physics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// MotorSystem applies each entity's motor command and resets it, so a
// controller that skips a tick does not keep pushing.
type MotorSystem struct {
	b physics.Actuator
}

func NewMotorSystem(b physics.Actuator) *MotorSystem {
	return &MotorSystem{b: b}
}

func (s *MotorSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	ecs.ForEach(w, component.MotorComponent, func(e ecs.Entity, m *component.Motor) {
		if err := motor.Apply(s.b, BodyOf(e), m.Motor, toggleOf(w, e)); err != nil {
			if errors.Is(err, motor.ErrNoMassProperties) {
				panic("motor system: " + err.Error())
			}
			common.Logger().Warn("motor: apply failed", zap.Stringer("entity", e), zap.Error(err))
		}
		m.Motor = motor.Idle()
	})
}
