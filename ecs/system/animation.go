package system

import (
	"github.com/milk9111/charcontrol/animating/animscript"
	"github.com/milk9111/charcontrol/common"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"go.uber.org/zap"
)

// AnimationSystem classifies each animated entity's motion and feeds the
// result through its animating state. Altered animations are published as
// events.
type AnimationSystem struct{}

func NewAnimationSystem() *AnimationSystem {
	return &AnimationSystem{}
}

func (s *AnimationSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	ecs.ForEach2(w, component.AnimationStateComponent, component.RigidBodyTrackerComponent, func(e ecs.Entity, anim *component.AnimationState, tracker *component.RigidBodyTracker) {
		if anim.State == nil || anim.Classifier == nil || !tracker.Valid {
			return
		}

		up := upOf(tracker.Gravity)
		ground := groundOf(w, e)
		grounded := ground != nil
		if c, ok := ecs.Get(w, e, component.ControllerComponent); ok {
			grounded = c.Grounded
		}

		in := animscript.Input{RunningVelocity: horizontal(tracker.Velocity, up)}
		if grounded && ground != nil {
			in.RunningVelocity = horizontal(tracker.Velocity.Sub(ground.EntityLinVel), up)
		}
		if !grounded {
			vertical := tracker.Velocity.Dot(up)
			in.JumpingVelocity = &vertical
		}

		pose, err := anim.Classifier.Classify(in)
		if err != nil {
			common.Logger().Warn("animation: classify failed",
				zap.Stringer("entity", e), zap.String("script", anim.Classifier.Name()), zap.Error(err))
			return
		}

		directive := anim.State.ByDiscriminant(pose)
		anim.Current = directive.State
		if !directive.Altered() {
			return
		}
		changed := ecs.AnimationChanged{Entity: e, To: pose.Name}
		if directive.HasOld {
			changed.From = directive.Old.Name
		}
		w.Events().Push(ecs.Event{Type: ecs.EventAnimationChanged, Data: changed})
		common.Logger().Debug("animation changed",
			zap.Stringer("entity", e), zap.String("from", changed.From), zap.String("to", changed.To))
	})
}
