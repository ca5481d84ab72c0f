package system

import (
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"github.com/milk9111/charcontrol/physics"
)

// TrackerSystem snapshots every tracked body at the start of the tick. A
// Disabled entity keeps its previous snapshot.
type TrackerSystem struct {
	q physics.Query
}

func NewTrackerSystem(q physics.Query) *TrackerSystem {
	return &TrackerSystem{q: q}
}

func (s *TrackerSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	ecs.ForEach(w, component.RigidBodyTrackerComponent, func(e ecs.Entity, tracker *component.RigidBodyTracker) {
		snapshot, ok := physics.Track(s.q, BodyOf(e), toggleOf(w, e))
		if !ok {
			return
		}
		tracker.RigidBodyTracker = snapshot
		tracker.Valid = true
	})
}
