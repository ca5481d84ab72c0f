package component

import (
	"github.com/milk9111/charcontrol/animating"
	"github.com/milk9111/charcontrol/animating/animscript"
)

type AnimationState struct {
	State      *animating.State[animscript.Pose, string]
	Classifier *animscript.Classifier
	// Current mirrors the last directive for readers that do not care about
	// transitions.
	Current animscript.Pose
}

var AnimationStateComponent = NewComponent[AnimationState]()

// PlotSource streams the entity's motion to telemetry under Label.
type PlotSource struct {
	Label string
}

var PlotSourceComponent = NewComponent[PlotSource]()
