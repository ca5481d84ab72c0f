package entity

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/physics"
)

func physicsEntity(e ecs.Entity) physics.Entity {
	return physics.Entity(e)
}

func NewPlayer(w *ecs.World) (ecs.Entity, error) {
	return BuildEntity(w, "player.yaml")
}

func NewPlayerAt(w *ecs.World, position mgl64.Vec3) (ecs.Entity, error) {
	return buildAt(w, "player.yaml", position)
}

func NewCrateAt(w *ecs.World, position mgl64.Vec3) (ecs.Entity, error) {
	return buildAt(w, "crate.yaml", position)
}

// NewFeetSensor attaches a shape-cast sensor below owner that reports on
// owner's behalf.
func NewFeetSensor(w *ecs.World, owner ecs.Entity) (ecs.Entity, error) {
	return BuildEntityFor(w, "feet_sensor.yaml", owner)
}

func buildAt(w *ecs.World, prefabPath string, position mgl64.Vec3) (ecs.Entity, error) {
	entity, err := BuildEntity(w, prefabPath)
	if err != nil {
		return 0, err
	}
	if err := SetEntityTransform(w, entity, position, 0); err != nil {
		return 0, fmt.Errorf("%s: override transform: %w", prefabPath, err)
	}
	return entity, nil
}
