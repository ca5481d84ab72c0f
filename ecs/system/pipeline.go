package system

import (
	"github.com/milk9111/charcontrol/cpbackend"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/telemetry"
)

// PipelineConfig configures NewPipeline.
type PipelineConfig struct {
	// DT is the fixed step, in seconds.
	DT float64
	// Recorder, when set, receives a frame every tick.
	Recorder *telemetry.Recorder
	// Input, when set, drives every player's Input before the controller
	// runs.
	Input InputSource
}

// Pipeline runs the character systems in dependency order around one
// physics step:
//
//	sync, track, sense, scan, input, control, drive, animate, record, step
//
// Nothing runs while the pipeline is inactive.
type Pipeline struct {
	physics   *PhysicsSystem
	scheduler *ecs.Scheduler
	active    bool
}

func NewPipeline(space *cpbackend.Space, cfg PipelineConfig) *Pipeline {
	ps := NewPhysicsSystem(space, cfg.DT)
	scheduler := ecs.NewScheduler(
		ecs.Stage{Name: "sync", System: ecs.SystemFunc(ps.Sync)},
		ecs.Stage{Name: "track", System: NewTrackerSystem(space)},
		ecs.Stage{Name: "sense", System: NewProximitySystem(space)},
		ecs.Stage{Name: "scan", System: NewRadarSystem(space)},
	)
	if cfg.Input != nil {
		scheduler.Add("input", NewInputSystem(cfg.Input))
	}
	scheduler.Add("control", NewControllerSystem(cfg.DT))
	scheduler.Add("drive", NewMotorSystem(space))
	scheduler.Add("animate", NewAnimationSystem())
	if cfg.Recorder != nil {
		scheduler.Add("record", NewTelemetrySystem(cfg.Recorder))
	}
	scheduler.Add("step", ps)
	return &Pipeline{physics: ps, scheduler: scheduler, active: true}
}

func (p *Pipeline) Space() *cpbackend.Space {
	return p.physics.Space()
}

// SetActive pauses or resumes the pipeline.
func (p *Pipeline) SetActive(active bool) {
	p.active = active
}

// Stages lists the systems in the order they run.
func (p *Pipeline) Stages() []string {
	return p.scheduler.Names()
}

func (p *Pipeline) Active() bool {
	return p.active
}

// Update runs one tick.
func (p *Pipeline) Update(w *ecs.World) {
	if p == nil || !p.active || w == nil {
		return
	}
	p.scheduler.Update(w)
}
