package prefabs

import (
	"github.com/milk9111/charcontrol/physics"
	"gopkg.in/yaml.v3"
)

type EntityBuildSpec struct {
	Name       string         `yaml:"name"`
	Components map[string]any `yaml:"components"`
}

func LoadEntityBuildSpec(filename string) (EntityBuildSpec, error) {
	return LoadSpec[EntityBuildSpec](filename)
}

func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

type TransformComponentSpec struct {
	Position Vec3Spec `yaml:"position"`
	Angle    float64  `yaml:"angle"`
}

type PhysicsBodyComponentSpec = BodySpec

type ProximitySensorComponentSpec = SensorSpec

// SubservientSensorComponentSpec places a sensor relative to the entity it
// is built for. The owner itself is chosen by the caller.
type SubservientSensorComponentSpec struct {
	Offset Vec3Spec `yaml:"offset"`
}

type SensorShapeComponentSpec struct {
	Preset string     `yaml:"preset"`
	Shape  *ShapeSpec `yaml:"shape"`
}

// CastShape resolves the override. Shape wins over Preset; neither means a
// ray.
func (s SensorShapeComponentSpec) CastShape() (*physics.Shape, error) {
	if s.Shape != nil {
		shape, err := s.Shape.Shape()
		if err != nil {
			return nil, err
		}
		return &shape, nil
	}
	return SensorShapePreset(s.Preset)
}

type ObstacleRadarComponentSpec = RadarSpec

type ToggleComponentSpec struct {
	Mode string `yaml:"mode"`
}

type ControllerComponentSpec struct {
	FloatHeight     float64 `yaml:"float_height"`
	SpringStrength  float64 `yaml:"spring_strength"`
	SpringDampening float64 `yaml:"spring_dampening"`
	WalkSpeed       float64 `yaml:"walk_speed"`
	Acceleration    float64 `yaml:"acceleration"`
	JumpSpeed       float64 `yaml:"jump_speed"`
	CoyoteFrames    int     `yaml:"coyote_frames"`
}

type AnimationStateComponentSpec struct {
	Script string `yaml:"script"`
}

type PlotSourceComponentSpec struct {
	Label string `yaml:"label"`
}
