package system

import (
	"fmt"
	"runtime"

	"github.com/milk9111/charcontrol/common"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"github.com/milk9111/charcontrol/physics"
	"github.com/milk9111/charcontrol/sensor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProximitySystem runs every proximity sensor against the backend. Sensors
// only read the backend and write their own output, so they are sensed in
// parallel; everything touching the world happens before and after.
type ProximitySystem struct {
	q     physics.Query
	limit int
}

func NewProximitySystem(q physics.Query) *ProximitySystem {
	return &ProximitySystem{q: q, limit: runtime.GOMAXPROCS(0)}
}

type sensingJob struct {
	entity    ecs.Entity
	sensor    *sensor.ProximitySensor
	in        sensor.Input
	hadOutput bool
	surface   physics.Entity
}

func (s *ProximitySystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}

	ghosts := make(map[physics.Entity]struct{})
	ecs.ForEach(w, component.GhostPlatformComponent, func(e ecs.Entity, _ *component.GhostPlatform) {
		ghosts[BodyOf(e)] = struct{}{}
	})
	isGhost := func(e physics.Entity) bool {
		_, ok := ghosts[e]
		return ok
	}

	var jobs []*sensingJob
	ecs.ForEach(w, component.ProximitySensorComponent, func(e ecs.Entity, ps *component.ProximitySensor) {
		if ps.ProximitySensor == nil {
			return
		}
		applySensorShape(w, e, ps.ProximitySensor)

		job := &sensingJob{
			entity: e,
			sensor: ps.ProximitySensor,
			in: sensor.Input{
				Entity:  BodyOf(e),
				Toggle:  toggleOf(w, e),
				IsGhost: isGhost,
			},
		}
		if out := ps.Output; out != nil {
			job.hadOutput = true
			job.surface = out.Entity
		}

		if sub, ok := ecs.Get(w, e, component.SubservientSensorComponent); ok {
			job.in.Owner = sub.Owner
			tf, ok := placement(w, s.q, EntityOf(sub.Owner))
			if ok {
				tf.Translation = tf.Translation.Add(tf.Rotation.Rotate(sub.Offset))
				job.in.Transform = tf
			}
		} else {
			tf, ok := placement(w, s.q, e)
			if !ok {
				return
			}
			job.in.Transform = tf
		}

		if gs, ok := ecs.Get(w, e, component.GhostSensorComponent); ok {
			job.in.GhostHits = &gs.Hits
		}
		jobs = append(jobs, job)
	})

	var g errgroup.Group
	g.SetLimit(s.limit)
	for _, job := range jobs {
		job := job // per-iteration copy; go directive is below 1.22
		g.Go(func() error {
			return job.sensor.Sense(s.q, job.in)
		})
	}
	if err := g.Wait(); err != nil {
		// A subservient sensor whose owner vanished is a wiring bug.
		panic(fmt.Sprintf("proximity system: %v", err))
	}

	events := w.Events()
	for _, job := range jobs {
		if !job.in.Toggle.Senses() {
			continue
		}
		out := job.sensor.Output
		switch {
		case out != nil && !job.hadOutput:
			events.Push(ecs.Event{Type: ecs.EventLanded, Data: ecs.GroundEvent{Entity: job.entity, Surface: EntityOf(out.Entity)}})
		case out == nil && job.hadOutput:
			events.Push(ecs.Event{Type: ecs.EventLeftGround, Data: ecs.GroundEvent{Entity: job.entity, Surface: EntityOf(job.surface)}})
		}
		if job.in.GhostHits == nil {
			continue
		}
		for _, hit := range *job.in.GhostHits {
			events.Push(ecs.Event{Type: ecs.EventGhostCrossed, Data: ecs.GhostCrossed{Entity: job.entity, Ghost: EntityOf(hit.Entity)}})
		}
	}
}

func applySensorShape(w *ecs.World, e ecs.Entity, ps *sensor.ProximitySensor) {
	override, ok := ecs.Get(w, e, component.SensorShapeComponent)
	if !ok {
		return
	}
	cfg := ps.Config()
	if sameShape(cfg.CastShape, override.Shape) {
		return
	}
	if override.Shape != nil {
		shape := *override.Shape
		cfg.CastShape = &shape
	} else {
		cfg.CastShape = nil
	}
	// An invalid override leaves the previous shape in place.
	if err := ps.SetConfig(cfg); err != nil {
		common.Logger().Warn("ProximitySensor: rejected sensor shape", zap.Stringer("entity", e), zap.Error(err))
	}
}

func sameShape(a, b *physics.Shape) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
