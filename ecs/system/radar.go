package system

import (
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"github.com/milk9111/charcontrol/physics"
	"github.com/milk9111/charcontrol/radar"
)

// Obstacle classes reported by the radar system.
const (
	ClassSolid radar.Class = iota
	ClassGhost
	ClassCharacter
	ClassCrate
)

// RadarSystem rescans every obstacle radar around its body, with the
// cylinder standing against gravity.
type RadarSystem struct {
	q physics.Query
}

func NewRadarSystem(q physics.Query) *RadarSystem {
	return &RadarSystem{q: q}
}

func (s *RadarSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	classify := classifier(w)
	ecs.ForEach(w, component.ObstacleRadarComponent, func(e ecs.Entity, r *component.ObstacleRadar) {
		if r.ObstacleRadar == nil || !toggleOf(w, e).Senses() {
			return
		}
		tf, ok := placement(w, s.q, e)
		if !ok {
			return
		}
		gravity := s.q.Gravity()
		if tracker, ok := ecs.Get(w, e, component.RigidBodyTrackerComponent); ok && tracker.Valid {
			gravity = tracker.Gravity
		}
		r.Scan(s.q, BodyOf(e), tf.Translation, gravity.Mul(-1), classify)
	})
}

func classifier(w *ecs.World) radar.Classifier {
	return func(pe physics.Entity) (radar.Class, bool) {
		e := EntityOf(pe)
		switch {
		case !ecs.IsAlive(w, e):
			return 0, false
		case ecs.Has(w, e, component.GhostPlatformComponent):
			return ClassGhost, true
		case ecs.Has(w, e, component.CrateTagComponent):
			return ClassCrate, true
		case ecs.Has(w, e, component.ControllerComponent), ecs.Has(w, e, component.PlayerTagComponent):
			return ClassCharacter, true
		default:
			return ClassSolid, true
		}
	}
}
