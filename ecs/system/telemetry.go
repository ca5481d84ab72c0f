package system

import (
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"github.com/milk9111/charcontrol/telemetry"
)

// TelemetrySystem samples every tracked plot source and closes the tick.
type TelemetrySystem struct {
	rec  *telemetry.Recorder
	tick uint64
}

func NewTelemetrySystem(rec *telemetry.Recorder) *TelemetrySystem {
	return &TelemetrySystem{rec: rec}
}

func (s *TelemetrySystem) Update(w *ecs.World) {
	if s == nil || s.rec == nil || w == nil {
		return
	}
	ecs.ForEach2(w, component.PlotSourceComponent, component.RigidBodyTrackerComponent, func(e ecs.Entity, src *component.PlotSource, tracker *component.RigidBodyTracker) {
		if !tracker.Valid {
			return
		}
		s.rec.Record(telemetry.Sample{
			Label:  src.Label,
			Entity: uint64(e),
			X:      tracker.Translation.X(),
			Y:      tracker.Translation.Y(),
			VelX:   tracker.Velocity.X(),
			VelY:   tracker.Velocity.Y(),
		})
	})
	s.tick++
	s.rec.Flush(s.tick)
}
