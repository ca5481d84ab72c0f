package entity

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/animating/animscript"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"github.com/milk9111/charcontrol/motor"
	"github.com/milk9111/charcontrol/prefabs"
	"github.com/milk9111/charcontrol/radar"
	"github.com/milk9111/charcontrol/sensor"
	"github.com/pkg/errors"
)

var ErrNoOwner = errors.New("subservient sensor built without an owner")

type buildContext struct {
	PrefabPath string
	Name       string
	// Owner is the entity a subservient sensor works for.
	Owner ecs.Entity
}

type componentBuildFn func(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error

var componentRegistry = map[string]componentBuildFn{
	"player_tag":         addPlayerTag,
	"crate_tag":          addCrateTag,
	"ghost_platform":     addGhostPlatform,
	"transform":          addTransform,
	"physics_body":       addPhysicsBody,
	"toggle":             addToggle,
	"tracker":            addTracker,
	"proximity_sensor":   addProximitySensor,
	"ghost_sensor":       addGhostSensor,
	"subservient_sensor": addSubservientSensor,
	"sensor_shape":       addSensorShape,
	"obstacle_radar":     addObstacleRadar,
	"motor":              addMotor,
	"controller":         addController,
	"input":              addInput,
	"animation_state":    addAnimationState,
	"plot_source":        addPlotSource,
}

// physics_body reads the transform, so transform must come first.
var componentBuildOrder = []string{
	"player_tag",
	"crate_tag",
	"ghost_platform",
	"transform",
	"physics_body",
	"toggle",
	"tracker",
	"proximity_sensor",
	"ghost_sensor",
	"subservient_sensor",
	"sensor_shape",
	"obstacle_radar",
	"motor",
	"controller",
	"input",
	"animation_state",
	"plot_source",
}

func BuildEntity(w *ecs.World, prefabPath string) (ecs.Entity, error) {
	return build(w, prefabPath, 0)
}

// BuildEntityFor builds a prefab whose subservient sensor works for owner.
func BuildEntityFor(w *ecs.World, prefabPath string, owner ecs.Entity) (ecs.Entity, error) {
	return build(w, prefabPath, owner)
}

func build(w *ecs.World, prefabPath string, owner ecs.Entity) (ecs.Entity, error) {
	if w == nil {
		return 0, fmt.Errorf("build entity: world is nil")
	}

	spec, err := prefabs.LoadEntityBuildSpec(prefabPath)
	if err != nil {
		return 0, fmt.Errorf("build entity: load %q: %w", prefabPath, err)
	}
	if len(spec.Components) == 0 {
		return 0, fmt.Errorf("build entity: prefab %q does not define components", prefabPath)
	}

	e := ecs.CreateEntity(w)
	ctx := &buildContext{PrefabPath: prefabPath, Name: spec.Name, Owner: owner}

	remaining := make(map[string]any, len(spec.Components))
	for k, v := range spec.Components {
		remaining[k] = v
	}

	for _, name := range componentBuildOrder {
		raw, ok := remaining[name]
		if !ok {
			continue
		}
		if err := componentRegistry[name](w, e, raw, ctx); err != nil {
			ecs.DestroyEntity(w, e)
			return 0, fmt.Errorf("build entity: %q: add %q: %w", prefabPath, name, err)
		}
		delete(remaining, name)
	}

	if len(remaining) > 0 {
		names := make([]string, 0, len(remaining))
		for name := range remaining {
			names = append(names, name)
		}
		sort.Strings(names)
		ecs.DestroyEntity(w, e)
		return 0, fmt.Errorf("build entity: %q: no builder for component %q", prefabPath, names[0])
	}

	return e, nil
}

// SetEntityTransform moves an entity that has not been registered with the
// physics system yet.
func SetEntityTransform(w *ecs.World, e ecs.Entity, position mgl64.Vec3, angle float64) error {
	t, ok := ecs.Get(w, e, component.TransformComponent)
	if !ok || t == nil {
		t = &component.Transform{}
	}
	t.Position = position
	t.Angle = angle
	if body, ok := ecs.Get(w, e, component.PhysicsBodyComponent); ok {
		body.Def.Position = position
		body.Def.Angle = angle
	}
	return ecs.Add(w, e, component.TransformComponent, t)
}

func addPlayerTag(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.PlayerTagComponent, &component.PlayerTag{})
}

func addCrateTag(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.CrateTagComponent, &component.CrateTag{})
}

func addGhostPlatform(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.GhostPlatformComponent, &component.GhostPlatform{})
}

func addTransform(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.TransformComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode transform spec: %w", err)
	}
	return ecs.Add(w, e, component.TransformComponent, &component.Transform{
		Position: spec.Position.Vec3(),
		Angle:    spec.Angle,
	})
}

func addPhysicsBody(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.PhysicsBodyComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode physics body spec: %w", err)
	}
	var position mgl64.Vec3
	var angle float64
	if tr, ok := ecs.Get(w, e, component.TransformComponent); ok {
		position, angle = tr.Position, tr.Angle
	} else if err := ecs.Add(w, e, component.TransformComponent, &component.Transform{}); err != nil {
		return err
	}
	def, err := spec.BodyDef(position, angle)
	if err != nil {
		return err
	}
	return ecs.Add(w, e, component.PhysicsBodyComponent, &component.PhysicsBody{Def: def})
}

func addToggle(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.ToggleComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode toggle spec: %w", err)
	}
	mode, err := prefabs.ParseToggle(spec.Mode)
	if err != nil {
		return err
	}
	return ecs.Add(w, e, component.ToggleComponent, &component.Toggle{Mode: mode})
}

func addTracker(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.RigidBodyTrackerComponent, &component.RigidBodyTracker{})
}

func addProximitySensor(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.ProximitySensorComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode proximity sensor spec: %w", err)
	}
	cfg, err := spec.Config()
	if err != nil {
		return err
	}
	ps, err := sensor.New(cfg)
	if err != nil {
		return err
	}
	return ecs.Add(w, e, component.ProximitySensorComponent, &component.ProximitySensor{ProximitySensor: ps})
}

func addGhostSensor(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.GhostSensorComponent, &component.GhostSensor{})
}

func addSubservientSensor(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error {
	if !ctx.Owner.Valid() || !ecs.IsAlive(w, ctx.Owner) {
		return ErrNoOwner
	}
	spec, err := prefabs.DecodeComponentSpec[prefabs.SubservientSensorComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode subservient sensor spec: %w", err)
	}
	return ecs.Add(w, e, component.SubservientSensorComponent, &component.SubservientSensor{
		Owner:  physicsEntity(ctx.Owner),
		Offset: spec.Offset.Vec3(),
	})
}

func addSensorShape(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.SensorShapeComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode sensor shape spec: %w", err)
	}
	shape, err := spec.CastShape()
	if err != nil {
		return err
	}
	return ecs.Add(w, e, component.SensorShapeComponent, &component.SensorShape{Shape: shape})
}

func addObstacleRadar(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.ObstacleRadarComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode obstacle radar spec: %w", err)
	}
	if spec.Radius <= 0 || spec.Height <= 0 {
		return fmt.Errorf("obstacle radar needs a positive radius and height, got %v x %v", spec.Radius, spec.Height)
	}
	return ecs.Add(w, e, component.ObstacleRadarComponent, &component.ObstacleRadar{ObstacleRadar: radar.New(spec.Radius, spec.Height)})
}

func addMotor(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.MotorComponent, &component.Motor{Motor: motor.Idle()})
}

func addController(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.ControllerComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode controller spec: %w", err)
	}
	if spec.FloatHeight <= 0 {
		return fmt.Errorf("controller float height must be positive, got %v", spec.FloatHeight)
	}
	if !ecs.Has(w, e, component.InputComponent) {
		if err := addInput(w, e, nil, nil); err != nil {
			return err
		}
	}
	return ecs.Add(w, e, component.ControllerComponent, &component.Controller{
		FloatHeight:     spec.FloatHeight,
		SpringStrength:  spec.SpringStrength,
		SpringDampening: spec.SpringDampening,
		WalkSpeed:       spec.WalkSpeed,
		Acceleration:    spec.Acceleration,
		JumpSpeed:       spec.JumpSpeed,
		CoyoteFrames:    spec.CoyoteFrames,
	})
}

func addInput(w *ecs.World, e ecs.Entity, _ any, _ *buildContext) error {
	return ecs.Add(w, e, component.InputComponent, &component.Input{})
}

func addAnimationState(w *ecs.World, e ecs.Entity, raw any, _ *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.AnimationStateComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode animation state spec: %w", err)
	}
	if spec.Script == "" {
		spec.Script = animscript.DefaultScript
	}
	classifier, err := animscript.Load(spec.Script)
	if err != nil {
		return err
	}
	return ecs.Add(w, e, component.AnimationStateComponent, &component.AnimationState{
		State:      animscript.NewTracker(),
		Classifier: classifier,
	})
}

func addPlotSource(w *ecs.World, e ecs.Entity, raw any, ctx *buildContext) error {
	spec, err := prefabs.DecodeComponentSpec[prefabs.PlotSourceComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode plot source spec: %w", err)
	}
	if spec.Label == "" {
		spec.Label = ctx.Name
	}
	return ecs.Add(w, e, component.PlotSourceComponent, &component.PlotSource{Label: spec.Label})
}
