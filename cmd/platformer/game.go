package main

import (
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/charcontrol/animating/animscript"
	"github.com/milk9111/charcontrol/common"
	"github.com/milk9111/charcontrol/cpbackend"
	"github.com/milk9111/charcontrol/ecs"
	"github.com/milk9111/charcontrol/ecs/component"
	"github.com/milk9111/charcontrol/ecs/entity"
	"github.com/milk9111/charcontrol/ecs/system"
	"github.com/milk9111/charcontrol/prefabs"
	"github.com/milk9111/charcontrol/telemetry"
	"go.uber.org/zap"
)

const playerPrefab = "player.yaml"

type Game struct {
	frames uint64

	world    *ecs.World
	pipeline *system.Pipeline
	recorder *telemetry.Recorder
	level    *entity.Level
	player   ecs.Entity
}

type GameConfig struct {
	Level     string
	DT        float64
	FeetProbe bool
	Crates    int
	Publisher telemetry.Publisher
	Input     system.InputSource
}

func NewGame(cfg GameConfig) (*Game, error) {
	spec, err := prefabs.LoadLevelSpec(cfg.Level)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	level, err := entity.LoadLevelToWorld(world, spec)
	if err != nil {
		return nil, err
	}

	player, err := entity.NewPlayerAt(world, level.Spawn)
	if err != nil {
		return nil, err
	}
	if cfg.FeetProbe {
		if _, err := entity.NewFeetSensor(world, player); err != nil {
			return nil, err
		}
	}
	for i := 0; i < cfg.Crates; i++ {
		pos := level.Spawn.Add(spawnOffset(i))
		if _, err := entity.NewCrateAt(world, pos); err != nil {
			return nil, err
		}
	}

	recorder := telemetry.NewRecorder(cfg.Publisher)
	space := cpbackend.New(level.Gravity)
	pipeline := system.NewPipeline(space, system.PipelineConfig{
		DT:       cfg.DT,
		Recorder: recorder,
		Input:    cfg.Input,
	})

	common.Logger().Info("game: level loaded",
		zap.String("level", level.Name),
		zap.Int("platforms", len(level.Platforms)),
		zap.String("session", recorder.Session()))

	return &Game{
		world:    world,
		pipeline: pipeline,
		recorder: recorder,
		level:    level,
		player:   player,
	}, nil
}

func (g *Game) Update() error {
	if !g.pipeline.Active() {
		return nil
	}
	g.frames++
	g.pipeline.Update(g.world)

	for _, evt := range g.world.Events().Drain() {
		logEvent(evt)
	}
	return nil
}

// SetPaused stops and resumes the simulation.
func (g *Game) SetPaused(paused bool) {
	g.pipeline.SetActive(!paused)
}

func (g *Game) Digest() uint64 {
	return g.recorder.Digest()
}

// Reload applies a changed prefab or script file reported by the watcher.
func (g *Game) Reload(path string) error {
	kind, ok := prefabs.KindOf(path)
	switch {
	case !ok:
		return nil
	case kind == prefabs.ScriptChange:
		return g.reloadScript(filepath.Base(path))
	case prefabs.IsPrefabName(path, playerPrefab):
		return g.reloadPlayer()
	default:
		return nil
	}
}

func (g *Game) reloadScript(name string) error {
	classifier, err := animscript.Load(name)
	if err != nil {
		return err
	}
	swapped := 0
	ecs.ForEach(g.world, component.AnimationStateComponent, func(_ ecs.Entity, anim *component.AnimationState) {
		if anim.Classifier != nil && anim.Classifier.Name() == name {
			anim.Classifier = classifier
			swapped++
		}
	})
	common.Logger().Info("game: script reloaded", zap.String("script", name), zap.Int("entities", swapped))
	return nil
}

// reloadPlayer retunes the live player from player.yaml without respawning
// it.
func (g *Game) reloadPlayer() error {
	spec, err := prefabs.LoadEntityBuildSpec(playerPrefab)
	if err != nil {
		return err
	}

	if raw, ok := spec.Components["proximity_sensor"]; ok {
		sensorSpec, err := prefabs.DecodeComponentSpec[prefabs.ProximitySensorComponentSpec](raw)
		if err != nil {
			return err
		}
		cfg, err := sensorSpec.Config()
		if err != nil {
			return err
		}
		if ps, ok := ecs.Get(g.world, g.player, component.ProximitySensorComponent); ok && ps.ProximitySensor != nil {
			if err := ps.SetConfig(cfg); err != nil {
				return err
			}
		}
	}

	if raw, ok := spec.Components["obstacle_radar"]; ok {
		radarSpec, err := prefabs.DecodeComponentSpec[prefabs.ObstacleRadarComponentSpec](raw)
		if err != nil {
			return err
		}
		if r, ok := ecs.Get(g.world, g.player, component.ObstacleRadarComponent); ok && r.ObstacleRadar != nil {
			r.Radius, r.Height = radarSpec.Radius, radarSpec.Height
		}
	}

	if raw, ok := spec.Components["controller"]; ok {
		tuning, err := prefabs.DecodeComponentSpec[prefabs.ControllerComponentSpec](raw)
		if err != nil {
			return err
		}
		if tuning.FloatHeight <= 0 {
			return fmt.Errorf("controller float height must be positive, got %v", tuning.FloatHeight)
		}
		if c, ok := ecs.Get(g.world, g.player, component.ControllerComponent); ok {
			c.FloatHeight = tuning.FloatHeight
			c.SpringStrength = tuning.SpringStrength
			c.SpringDampening = tuning.SpringDampening
			c.WalkSpeed = tuning.WalkSpeed
			c.Acceleration = tuning.Acceleration
			c.JumpSpeed = tuning.JumpSpeed
			c.CoyoteFrames = tuning.CoyoteFrames
		}
	}

	common.Logger().Info("game: player retuned", zap.Stringer("player", g.player))
	return nil
}

func spawnOffset(i int) mgl64.Vec3 {
	return mgl64.Vec3{4 + 1.5*float64(i), 0, 0}
}

func logEvent(evt ecs.Event) {
	log := common.Logger()
	switch data := evt.Data.(type) {
	case ecs.GroundEvent:
		log.Debug("game: "+evt.Type, zap.Stringer("entity", data.Entity), zap.Stringer("surface", data.Surface))
	case ecs.GhostCrossed:
		log.Debug("game: "+evt.Type, zap.Stringer("entity", data.Entity), zap.Stringer("ghost", data.Ghost))
	case ecs.AnimationChanged:
		log.Info("game: "+evt.Type, zap.Stringer("entity", data.Entity), zap.String("from", data.From), zap.String("to", data.To))
	}
}
