package prefabs

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/cpbackend"
	"github.com/milk9111/charcontrol/physics"
	"github.com/milk9111/charcontrol/sensor"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownShape  = errors.New("prefabs: unknown shape kind")
	ErrUnknownPreset = errors.New("prefabs: unknown sensor shape preset")
	ErrUnknownToggle = errors.New("prefabs: unknown toggle")
	ErrUnknownBody   = errors.New("prefabs: unknown body kind")
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, errors.Wrapf(err, "prefabs: load %s", filename)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, errors.Wrapf(err, "prefabs: unmarshal %s", filename)
	}

	return spec, nil
}

type Vec3Spec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec3Spec) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

type ShapeSpec struct {
	Kind        string   `yaml:"kind"`
	Radius      float64  `yaml:"radius"`
	HalfHeight  float64  `yaml:"half_height"`
	HalfExtents Vec3Spec `yaml:"half_extents"`
}

// Shape converts the spec and validates the result.
func (s ShapeSpec) Shape() (physics.Shape, error) {
	var shape physics.Shape
	switch strings.ToLower(s.Kind) {
	case "ball":
		shape = physics.Ball(s.Radius)
	case "cylinder":
		shape = physics.Cylinder(s.Radius, s.HalfHeight)
	case "capsule":
		shape = physics.Capsule(s.Radius, s.HalfHeight)
	case "cuboid", "box":
		shape = physics.Cuboid(s.HalfExtents.X, s.HalfExtents.Y, s.HalfExtents.Z)
	default:
		return physics.Shape{}, errors.Wrapf(ErrUnknownShape, "%q", s.Kind)
	}
	if err := shape.Validate(); err != nil {
		return physics.Shape{}, err
	}
	return shape, nil
}

// SensorShapePresets are the sensor cast shapes a character can be tuned
// with. The underfit variants stay slightly inside a unit-wide body so the
// sweep does not start in contact with walls.
var SensorShapePresets = map[string]*physics.Shape{
	"none":          nil,
	"flat_underfit": shapePtr(physics.Cylinder(0.49, 0)),
	"flat_exact":    shapePtr(physics.Cylinder(0.5, 0)),
	"ball_underfit": shapePtr(physics.Ball(0.49)),
	"ball_exact":    shapePtr(physics.Ball(0.5)),
}

// SensorShapePreset returns a copy of the named preset. "none" and "" give
// a nil shape, meaning a plain ray.
func SensorShapePreset(name string) (*physics.Shape, error) {
	if name == "" {
		return nil, nil
	}
	preset, ok := SensorShapePresets[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPreset, "%q", name)
	}
	if preset == nil {
		return nil, nil
	}
	return shapePtr(*preset), nil
}

func shapePtr(s physics.Shape) *physics.Shape {
	return &s
}

type SensorSpec struct {
	Origin    Vec3Spec   `yaml:"origin"`
	Direction *Vec3Spec  `yaml:"direction"`
	Range     float64    `yaml:"range"`
	Shape     *ShapeSpec `yaml:"shape"`
	// Preset names an entry of SensorShapePresets. Shape wins when both are set.
	Preset string   `yaml:"preset"`
	Cutoff *float64 `yaml:"cutoff"`
}

// Config builds a validated sensor configuration, starting from the sensor
// defaults for anything left out.
func (s SensorSpec) Config() (sensor.Config, error) {
	cfg := sensor.DefaultConfig()
	cfg.CastOrigin = s.Origin.Vec3()
	cfg.CastRange = s.Range
	if s.Direction != nil {
		cfg.CastDirection = s.Direction.Vec3()
	}
	if s.Cutoff != nil {
		cfg.IntersectionMatchPreventionCutoff = *s.Cutoff
	}

	switch {
	case s.Shape != nil:
		shape, err := s.Shape.Shape()
		if err != nil {
			return sensor.Config{}, errors.Wrap(err, "prefabs: sensor shape")
		}
		cfg.CastShape = &shape
	default:
		shape, err := SensorShapePreset(s.Preset)
		if err != nil {
			return sensor.Config{}, err
		}
		cfg.CastShape = shape
	}

	return cfg.Validate()
}

type RadarSpec struct {
	Radius float64 `yaml:"radius"`
	Height float64 `yaml:"height"`
}

type GroupsSpec struct {
	Memberships uint32 `yaml:"memberships"`
	Filter      uint32 `yaml:"filter"`
}

type FilteringSpec struct {
	Collision *GroupsSpec `yaml:"collision"`
	Solver    *GroupsSpec `yaml:"solver"`
	Sensor    bool        `yaml:"sensor"`
}

// Filtering converts the spec. Missing groups interact with everything.
func (f FilteringSpec) Filtering() physics.CollisionFiltering {
	groups := func(g *GroupsSpec) physics.Groups {
		if g == nil {
			return physics.AllGroups
		}
		return physics.Groups{Memberships: g.Memberships, Filter: g.Filter}
	}
	return physics.CollisionFiltering{
		Collision: groups(f.Collision),
		Solver:    groups(f.Solver),
		Sensor:    f.Sensor,
	}
}

type BodySpec struct {
	Kind          string        `yaml:"kind"`
	Shape         ShapeSpec     `yaml:"shape"`
	Mass          float64       `yaml:"mass"`
	Friction      float64       `yaml:"friction"`
	Elasticity    float64       `yaml:"elasticity"`
	FixedRotation bool          `yaml:"fixed_rotation"`
	Filtering     FilteringSpec `yaml:"filtering"`
}

// BodyDef converts the spec into a definition placed at position.
func (b BodySpec) BodyDef(position mgl64.Vec3, angle float64) (cpbackend.BodyDef, error) {
	kind, err := ParseBodyKind(b.Kind)
	if err != nil {
		return cpbackend.BodyDef{}, err
	}
	shape, err := b.Shape.Shape()
	if err != nil {
		return cpbackend.BodyDef{}, errors.Wrap(err, "prefabs: body shape")
	}
	return cpbackend.BodyDef{
		Kind:          kind,
		Position:      position,
		Angle:         angle,
		Shape:         shape,
		Mass:          b.Mass,
		FixedRotation: b.FixedRotation,
		Friction:      b.Friction,
		Elasticity:    b.Elasticity,
		Filtering:     b.Filtering.Filtering(),
	}, nil
}

func ParseBodyKind(s string) (cpbackend.BodyKind, error) {
	switch strings.ToLower(s) {
	case "", "dynamic":
		return cpbackend.Dynamic, nil
	case "kinematic":
		return cpbackend.Kinematic, nil
	case "static":
		return cpbackend.Static, nil
	default:
		return 0, errors.Wrapf(ErrUnknownBody, "%q", s)
	}
}

func ParseToggle(s string) (physics.Toggle, error) {
	switch strings.ToLower(s) {
	case "", "enabled":
		return physics.Enabled, nil
	case "sense-only", "sense_only":
		return physics.SenseOnly, nil
	case "disabled":
		return physics.Disabled, nil
	default:
		return 0, errors.Wrapf(ErrUnknownToggle, "%q", s)
	}
}

type PlatformSpec struct {
	Name     string   `yaml:"name"`
	Position Vec3Spec `yaml:"position"`
	Size     Vec3Spec `yaml:"size"`
	Angle    float64  `yaml:"angle"`
	Friction float64  `yaml:"friction"`
	// Ghost platforms can be sensed through and are not solved against
	// bodies in the ghost solver group.
	Ghost bool `yaml:"ghost"`
	// Kinematic platforms move with Velocity every tick.
	Kinematic bool     `yaml:"kinematic"`
	Velocity  Vec3Spec `yaml:"velocity"`
}

type LevelSpec struct {
	Name        string         `yaml:"name"`
	Gravity     Vec3Spec       `yaml:"gravity"`
	GhostSolver GroupsSpec     `yaml:"ghost_solver"`
	Spawn       Vec3Spec       `yaml:"spawn"`
	Platforms   []PlatformSpec `yaml:"platforms"`
}

func LoadLevelSpec(name string) (LevelSpec, error) {
	return LoadSpec[LevelSpec](name)
}
