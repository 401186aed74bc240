package testbed

import (
	"github.com/spaghettifunk/anima-assets/engine"
	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/core"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	// Quit once every asset of the scene is committed or failed.
	quitWhenLoaded bool

	blast   assets.Handle[EnergyBlast]
	layout  assets.Handle[*UILayout]
	blasts  *assets.AssetStorage[EnergyBlast]
	layouts *assets.AssetStorage[*UILayout]

	loader     *assets.Loader
	reported   bool
	lastReport uint32
}

func NewTestGame(cfg *engine.Config, quitWhenLoaded bool) (*TestGame, error) {
	tg := &TestGame{
		Game: &engine.Game{
			Config: cfg,
			State: &gameState{
				quitWhenLoaded: quitWhenLoaded,
			},
		},
	}

	tg.FnRegister = tg.Register
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Register(registry *assets.Registry) error {
	for _, k := range Kinds() {
		if err := registry.Register(k); err != nil {
			return err
		}
	}
	return nil
}

func (g *TestGame) Initialize(loader *assets.Loader) error {
	core.LogInfo("initializing testbed...")
	s := g.state()
	s.loader = loader

	var err error
	if s.blasts, err = assets.StorageOf[EnergyBlast](loader, EnergyBlastID); err != nil {
		return err
	}
	if s.layouts, err = assets.StorageOf[*UILayout](loader, UILayoutID); err != nil {
		return err
	}
	if s.blast, err = assets.Load[EnergyBlast](loader, "energy_blast.toml", EnergyBlastID); err != nil {
		return err
	}
	if s.layout, err = assets.Load[*UILayout](loader, "ui/example.hcl", UILayoutID); err != nil {
		return err
	}
	return nil
}

// Update polls the scene assets every frame; they show up once the frame's
// processor tick committed them.
func (g *TestGame) Update(deltaTime float64) error {
	s := g.state()

	if blast, ok := s.blasts.Get(s.blast); ok {
		if v := s.blasts.Version(s.blast); v != s.lastReport {
			s.lastReport = v
			core.LogInfo("Loaded energy blast %+v (version %d)", blast, v)
		}
	}

	p := s.loader.Progress(s.blast.Untyped(), s.layout.Untyped())
	if !p.Complete() || s.reported {
		return nil
	}
	s.reported = true

	if err := s.blasts.Error(s.blast); err != nil {
		core.LogError("energy blast failed to load: %s", err)
	}
	if layout, ok := s.layouts.Get(s.layout); ok {
		core.LogInfo("UI layout ready with %d widgets", len(layout.Widgets))
	} else {
		core.LogError("UI layout failed to load: %s", s.layouts.Error(s.layout))
	}

	if s.quitWhenLoaded {
		g.Events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT, Sender: g})
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	s := g.state()
	s.blast.Release()
	s.layout.Release()
	core.LogInfo("testbed shut down")
	return nil
}
