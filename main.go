/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-assets/engine"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/testbed"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		core.LogFatal("%s", err)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("anima-testbed", flag.ContinueOnError)
	configPath := flags.String("config", "config/anima.toml", "path to the engine configuration")
	stay := flags.Bool("stay", false, "keep running after the scene assets are loaded")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := engine.LoadConfig(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		core.LogWarn("config '%s' not found, using defaults", *configPath)
		cfg = engine.DefaultConfig()
	} else if err != nil {
		return err
	}

	tb, err := testbed.NewTestGame(cfg, !*stay)
	if err != nil {
		return err
	}

	e, err := engine.New(tb.Game)
	if err != nil {
		return err
	}

	if err := e.Initialize(); err != nil {
		return errors.Join(err, e.Shutdown())
	}

	// cancel the main loop on sigterm and other system calls
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil {
		core.LogError("%s", err)
	}
	return runErr
}
