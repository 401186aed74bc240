package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/assets/loaders"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

var ErrInvalidStage = errors.New("engine is not in the required stage")

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *Config
	isRunning    atomic.Bool

	events   *core.EventBus
	registry *assets.Registry
	jobs     *systems.JobSystem
	resolver *assets.ChainResolver
	loader   *assets.Loader
	watcher  *assets.Watcher

	clock        *core.Clock
	lastTime     float64
	frameMetrics *core.FrameMetrics
	assetMetrics *core.AssetMetrics
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.FnUpdate == nil {
		return nil, errors.New("game must provide an update function")
	}
	if g.Config == nil {
		g.Config = DefaultConfig()
	}
	g.Config.Normalize()

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       g.Config,
		events:       core.NewEventBus(),
		clock:        core.NewClock(),
		frameMetrics: core.NewFrameMetrics(),
		assetMetrics: &core.AssetMetrics{},
	}
	g.Events = e.events
	return e, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("%w: initialize called twice", ErrInvalidStage)
	}
	e.currentStage = EngineStageInitializing
	cfg := e.config

	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		return err
	}

	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)

	// asset kinds
	e.registry = assets.NewRegistry()
	if err := loaders.Register(e.registry); err != nil {
		return err
	}
	if e.gameInstance.FnRegister != nil {
		if err := e.gameInstance.FnRegister(e.registry); err != nil {
			return err
		}
	}

	jobs, err := systems.NewJobSystem(cfg.Jobs.Workers, cfg.Jobs.QueueSize)
	if err != nil {
		return err
	}
	e.jobs = jobs

	root := assets.NewDirResolver(cfg.Assets.Root)
	e.resolver = assets.NewChainResolver(root)
	for _, p := range cfg.Assets.Archives {
		a, err := assets.OpenArchive(p)
		if err != nil {
			return err
		}
		e.resolver.Append(a)
		core.LogInfo("mounted asset archive '%s' (%d entries)", p, a.Len())
	}

	e.loader, err = assets.NewLoader(e.registry, e.resolver, e.jobs,
		assets.WithEventBus(e.events),
		assets.WithMetrics(e.assetMetrics),
	)
	if err != nil {
		return err
	}

	if cfg.Assets.HotReload {
		e.watcher, err = assets.NewWatcher(root, e.loader)
		if err != nil {
			return fmt.Errorf("failed to watch asset root '%s': %w", cfg.Assets.Root, err)
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e.loader); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized", cfg.Application.Name)
	return nil
}

// Run drives the frame loop until the quit event fires, ctx is cancelled or
// the game update fails. Each frame commits finished asset loads before the
// game update sees them.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("%w: run requires an initialized engine", ErrInvalidStage)
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	targetFrameSeconds := 1.0 / float64(e.config.Application.TargetFPS)

	for e.isRunning.Load() {
		if ctx.Err() != nil {
			core.LogInfo("context cancelled, leaving the main loop")
			break
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := time.Now()

		e.loader.Update()

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("game update failed, shutting down: %s", err)
			e.isRunning.Store(false)
			return err
		}

		// Figure out how long the frame took and, if below the target,
		// give the remaining time back to the OS.
		frameElapsedTime := time.Since(frameStartTime).Seconds()
		remainingSeconds := targetFrameSeconds - frameElapsedTime
		if remainingSeconds > 0 && e.config.Application.LimitFrames {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(remainingSeconds * float64(time.Second))):
			}
			frameElapsedTime = time.Since(frameStartTime).Seconds()
		}
		e.frameMetrics.Update(frameElapsedTime)

		e.lastTime = currentTime
	}
	e.isRunning.Store(false)
	return nil
}

// Quit asks the main loop to stop after the current frame.
func (e *Engine) Quit() {
	e.events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT, Sender: e})
}

// Shutdown releases every engine subsystem. It is safe to call more than once.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	if e.watcher != nil {
		errs = append(errs, e.watcher.Close())
	}
	if e.jobs != nil {
		errs = append(errs, e.jobs.Shutdown())
	}
	if e.resolver != nil {
		errs = append(errs, e.resolver.Close())
	}
	errs = append(errs, e.events.Shutdown())

	m := e.assetMetrics.Snapshot()
	core.LogInfo("shutdown complete: %d assets committed, %d failed, %d reclaimed", m.Committed, m.Failed, m.Reclaimed)
	return errors.Join(errs...)
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Config() *Config {
	return e.config
}

func (e *Engine) Events() *core.EventBus {
	return e.events
}

func (e *Engine) Loader() *assets.Loader {
	return e.loader
}

func (e *Engine) FrameMetrics() *core.FrameMetrics {
	return e.frameMetrics
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
		// Let other listeners see the quit as well.
		return false
	}
	return false
}
