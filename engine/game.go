package engine

import (
	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/core"
)

// Game is the set of callbacks the engine drives. Only FnUpdate is required.
type Game struct {
	Config *Config
	// Events is set by the engine before FnRegister is called.
	Events       *core.EventBus
	State        interface{}
	FnRegister   Register
	FnInitialize Initialize
	FnUpdate     Update
	FnShutdown   Shutdown
}

// Register adds the game's asset kinds before the registry is sealed.
type Register func(registry *assets.Registry) error
type Initialize func(loader *assets.Loader) error
type Update func(deltaTime float64) error
type Shutdown func() error
