package system

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
)

// Intent is one tick of raw movement input.
type Intent struct {
	MoveX float64
	MoveZ float64
	Jump  bool
}

// InputSource produces the intent for a tick.
type InputSource interface {
	Intent(tick uint64) Intent
}

// InputSourceFunc adapts a function to InputSource.
type InputSourceFunc func(tick uint64) Intent

func (f InputSourceFunc) Intent(tick uint64) Intent {
	return f(tick)
}

// InputSystem copies the source's intent into every player's Input.
type InputSystem struct {
	source InputSource
	tick   uint64
}

func NewInputSystem(source InputSource) *InputSystem {
	return &InputSystem{source: source}
}

func (i *InputSystem) Update(w *ecs.World) {
	if w == nil || i.source == nil {
		return
	}

	const stickDeadzone = 0.2

	i.tick++
	intent := i.source.Intent(i.tick)
	walk := mgl64.Vec3{clampAxis(intent.MoveX), 0, clampAxis(intent.MoveZ)}
	if math.Hypot(walk.X(), walk.Z()) < stickDeadzone {
		walk = mgl64.Vec3{}
	}

	for _, e := range w.Query(component.InputComponent, component.PlayerTagComponent) {
		input, _ := ecs.Get(w, e, component.InputComponent)
		input.Walk = walk
		input.Jump = intent.Jump
	}
}

func clampAxis(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
