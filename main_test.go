package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

func init() {
	core.SetLogOutput(io.Discard)
}

func TestRun(t *testing.T) {
	t.Run("loads the testbed scene and quits", func(t *testing.T) {
		cfg := filepath.Join(t.TempDir(), "anima.toml")
		require.NoError(t, os.WriteFile(cfg, []byte(`
[application]
target_fps = 500

[assets]
root = "testbed/assets"

[jobs]
workers = 2

[log]
level = "error"
`), 0o644))

		require.NoError(t, run([]string{"-config", cfg}))
	})

	t.Run("bad flag", func(t *testing.T) {
		require.Error(t, run([]string{"-nope"}))
	})

	t.Run("malformed config", func(t *testing.T) {
		cfg := filepath.Join(t.TempDir(), "anima.toml")
		require.NoError(t, os.WriteFile(cfg, []byte("[assets]\nroot = 3\n"), 0o644))

		require.Error(t, run([]string{"-config", cfg}))
	})

	t.Run("unreadable archive fails initialization", func(t *testing.T) {
		cfg := filepath.Join(t.TempDir(), "anima.toml")
		require.NoError(t, os.WriteFile(cfg, []byte("[assets]\narchives = [\"missing.zip\"]\n[log]\nlevel = \"error\"\n"), 0o644))

		require.Error(t, run([]string{"-config", cfg}))
	})
}
