package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/milk9111/charcontrol/common"
	"github.com/milk9111/charcontrol/ecs/system"
	"github.com/milk9111/charcontrol/prefabs"
	"github.com/milk9111/charcontrol/telemetry"
	"go.uber.org/zap"
)

func main() {
	levelName := flag.String("level", "level.yaml", "level prefab (prefabs/ on disk overrides the embedded copy)")
	ticks := flag.Uint64("ticks", 0, "stop after this many ticks; 0 runs until interrupted")
	hz := flag.Float64("hz", 60, "simulation rate")
	fast := flag.Bool("fast", false, "step as fast as possible instead of in real time")
	listen := flag.String("listen", "", "serve the telemetry websocket on this address, e.g. :8080")
	watch := flag.Bool("watch", true, "hot reload prefabs/ and prefabs/scripts/")
	feet := flag.Bool("feet", false, "attach a subservient feet sensor to the player")
	crates := flag.Int("crates", 1, "crates to spawn next to the player")
	level := flag.String("log", "info", "log level")
	flag.Parse()

	logger, err := common.NewLogger(*level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	common.SetLogger(logger)

	if *hz <= 0 {
		logger.Fatal("hz must be positive", zap.Float64("hz", *hz))
	}
	dt := 1 / *hz

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub *telemetry.Hub
	var publisher telemetry.Publisher
	if *listen != "" {
		hub = NewTelemetryServer(ctx, *listen)
		defer hub.Close()
		publisher = hub
	}

	game, err := NewGame(GameConfig{
		Level:     *levelName,
		DT:        dt,
		FeetProbe: *feet,
		Crates:    *crates,
		Publisher: publisher,
		Input:     system.InputSourceFunc(scriptedInput),
	})
	if err != nil {
		logger.Fatal("failed to start game", zap.Error(err))
	}

	var changes <-chan prefabs.Change
	if *watch {
		if w, err := prefabs.NewWatcher(watchDirs()...); err != nil {
			logger.Warn("hot reload disabled", zap.Error(err))
		} else {
			defer w.Close()
			changes = w.Changes()
			go func() {
				for err := range w.Errors() {
					logger.Warn("watcher error", zap.Error(err))
				}
			}()
		}
	}

	if err := run(ctx, game, changes, dt, *ticks, *fast); err != nil {
		logger.Fatal("game stopped", zap.Error(err))
	}
	logger.Info("game finished", zap.Uint64("ticks", game.frames), zap.Uint64("digest", game.Digest()))
}

func run(ctx context.Context, game *Game, changes <-chan prefabs.Change, dt float64, ticks uint64, fast bool) error {
	var tick <-chan time.Time
	if !fast {
		ticker := time.NewTicker(time.Duration(dt * float64(time.Second)))
		defer ticker.Stop()
		tick = ticker.C
	}

	for ticks == 0 || game.frames < ticks {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if err := game.Reload(change.Path); err != nil {
				common.Logger().Warn("reload failed", zap.String("path", change.Path), zap.Error(err))
			}
			continue
		default:
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		}
		if err := game.Update(); err != nil {
			return err
		}
	}
	return nil
}

func watchDirs() []string {
	var dirs []string
	for _, dir := range []string{"prefabs", "prefabs/scripts"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// NewTelemetryServer serves hub on addr until ctx is done.
func NewTelemetryServer(ctx context.Context, addr string) *telemetry.Hub {
	hub := telemetry.NewHub()
	mux := http.NewServeMux()
	mux.Handle("/telemetry", hub)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		common.Logger().Info("telemetry listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.Logger().Error("telemetry server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	return hub
}
