package entity

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/cpbackend"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"github.com/milk9111/charcontrol/physics"
	"github.com/milk9111/charcontrol/prefabs"
)

// Level is what LoadLevelToWorld created.
type Level struct {
	Name      string
	Gravity   mgl64.Vec3
	Spawn     mgl64.Vec3
	Platforms map[string]ecs.Entity
}

// LoadLevelToWorld creates one entity per platform. Ghost platforms are
// tagged for the sensors and solve only against the level's ghost solver
// groups.
func LoadLevelToWorld(world *ecs.World, lvl prefabs.LevelSpec) (*Level, error) {
	out := &Level{
		Name:      lvl.Name,
		Gravity:   lvl.Gravity.Vec3(),
		Spawn:     lvl.Spawn.Vec3(),
		Platforms: make(map[string]ecs.Entity, len(lvl.Platforms)),
	}
	ghostSolver := physics.Groups{Memberships: lvl.GhostSolver.Memberships, Filter: lvl.GhostSolver.Filter}

	for i, p := range lvl.Platforms {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("platform_%d", i)
		}
		if _, dup := out.Platforms[name]; dup {
			return nil, fmt.Errorf("level %q: duplicate platform %q", lvl.Name, name)
		}
		size := p.Size.Vec3()
		shape := physics.Cuboid(size.X(), size.Y(), size.Z())
		if err := shape.Validate(); err != nil {
			return nil, fmt.Errorf("level %q: platform %q: %w", lvl.Name, name, err)
		}

		def := cpbackend.BodyDef{
			Kind:     cpbackend.Static,
			Position: p.Position.Vec3(),
			Angle:    p.Angle,
			Shape:    shape,
			Friction: p.Friction,
			Filtering: physics.CollisionFiltering{
				Collision: physics.AllGroups,
				Solver:    physics.AllGroups,
			},
		}
		body := &component.PhysicsBody{Def: def}
		if p.Kinematic {
			body.Def.Kind = cpbackend.Kinematic
			body.Velocity = p.Velocity.Vec3()
		}
		if p.Ghost {
			body.Def.Filtering.Solver = ghostSolver
		}

		e := world.CreateEntity()
		if err := ecs.Add(world, e, component.TransformComponent, &component.Transform{Position: def.Position, Angle: def.Angle}); err != nil {
			return nil, err
		}
		if err := ecs.Add(world, e, component.PhysicsBodyComponent, body); err != nil {
			return nil, err
		}
		if p.Ghost {
			if err := ecs.Add(world, e, component.GhostPlatformComponent, &component.GhostPlatform{}); err != nil {
				return nil, err
			}
		}
		out.Platforms[name] = e
	}
	return out, nil
}
