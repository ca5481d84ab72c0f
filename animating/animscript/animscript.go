// Package animscript picks character animations with a tengo script, so the
// thresholds can be tuned and hot reloaded without rebuilding.
package animscript

import (
	"strings"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/animating"
	"github.com/milk9111/charcontrol/prefabs"
	"github.com/pkg/errors"
)

// DefaultScript is the embedded classifier.
const DefaultScript = "animation.tengo"

const (
	Standing = "standing"
	Running  = "running"
	Jumping  = "jumping"
	Falling  = "falling"
)

var ErrNoState = errors.New("animscript: script did not set state")

// Pose is an animation and its playback speed. Only Name decides whether
// the animation changes; Speed may vary freely while it plays.
type Pose struct {
	Name  string
	Speed float64
}

// NewTracker returns an animating state keyed by pose name.
func NewTracker() *animating.State[Pose, string] {
	return animating.New(func(p Pose) string { return p.Name })
}

// Input is the controller output an animation is picked from.
type Input struct {
	// JumpingVelocity is the vertical velocity while airborne, nil on the
	// ground.
	JumpingVelocity *float64
	RunningVelocity mgl64.Vec3
}

// Classifier runs a compiled script. It is safe for concurrent use.
type Classifier struct {
	mu       sync.Mutex
	name     string
	compiled *tengo.Compiled
}

// Load compiles a script from the prefabs scripts directory.
func Load(name string) (*Classifier, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, errors.Wrapf(err, "animscript: load %s", name)
	}
	return Compile(name, src)
}

// Compile builds a classifier from source. name is only used in errors.
func Compile(name string, src []byte) (*Classifier, error) {
	script := tengo.NewScript(src)
	_ = script.Add("airborne", false)
	_ = script.Add("vertical", 0.0)
	_ = script.Add("running", 0.0)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, errors.Wrapf(err, "animscript: compile %s", name)
	}
	return &Classifier{name: name, compiled: compiled}, nil
}

func (c *Classifier) Name() string {
	return c.name
}

// Classify runs the script once for in.
func (c *Classifier) Classify(in Input) (Pose, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	airborne := in.JumpingVelocity != nil
	vertical := 0.0
	if airborne {
		vertical = *in.JumpingVelocity
	}
	if err := c.compiled.Set("airborne", airborne); err != nil {
		return Pose{}, err
	}
	if err := c.compiled.Set("vertical", vertical); err != nil {
		return Pose{}, err
	}
	if err := c.compiled.Set("running", in.RunningVelocity.Len()); err != nil {
		return Pose{}, err
	}
	if err := c.compiled.Run(); err != nil {
		return Pose{}, errors.Wrapf(err, "animscript: run %s", c.name)
	}

	if !c.compiled.IsDefined("state") {
		return Pose{}, errors.Wrapf(ErrNoState, "script %s", c.name)
	}
	state := strings.TrimSpace(objectAsString(c.compiled.Get("state").Object()))
	if state == "" {
		return Pose{}, errors.Wrapf(ErrNoState, "script %s", c.name)
	}
	pose := Pose{Name: state}
	if c.compiled.IsDefined("speed") {
		pose.Speed = c.compiled.Get("speed").Float()
	}
	return pose, nil
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
