package ecs

// System updates a world once per tick.
type System interface {
	Update(w *World)
}

// SystemFunc adapts a function to System.
type SystemFunc func(w *World)

func (f SystemFunc) Update(w *World) {
	f(w)
}

// Stage is a named system. Names only serve logs and tests; order is what
// the scheduler guarantees.
type Stage struct {
	Name   string
	System System
}

// Scheduler runs stages in the order they were added.
type Scheduler struct {
	stages []Stage
}

func NewScheduler(stages ...Stage) *Scheduler {
	s := &Scheduler{}
	for _, stage := range stages {
		s.Add(stage.Name, stage.System)
	}
	return s
}

// Add appends a stage. A nil system is ignored.
func (s *Scheduler) Add(name string, system System) {
	if system == nil {
		return
	}
	s.stages = append(s.stages, Stage{Name: name, System: system})
}

// Update runs every stage once, in order.
func (s *Scheduler) Update(w *World) {
	for _, stage := range s.stages {
		stage.System.Update(w)
	}
}

// Names lists the stage names in run order.
func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.stages))
	for _, stage := range s.stages {
		names = append(names, stage.Name)
	}
	return names
}
