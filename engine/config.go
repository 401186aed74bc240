package engine

import (
	"fmt"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

type AssetsConfig struct {
	// Directory loose asset sources are resolved against.
	Root string `toml:"root"`
	// Zip asset packs searched after Root, in order.
	Archives []string `toml:"archives"`
	// Watch Root and reload assets whose source changes.
	HotReload bool `toml:"hot_reload"`
}

type JobsConfig struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

type LogConfig struct {
	Level core.LogLevel `toml:"level"`
}

// Config is the engine configuration, usually read from a TOML file.
type Config struct {
	Application ApplicationConfig `toml:"application"`
	Assets      AssetsConfig      `toml:"assets"`
	Jobs        JobsConfig        `toml:"jobs"`
	Log         LogConfig         `toml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:        "Anima",
			TargetFPS:   60,
			LimitFrames: true,
		},
		Assets: AssetsConfig{
			Root: "assets",
		},
		Jobs: JobsConfig{
			Workers:   runtime.NumCPU(),
			QueueSize: 64,
		},
		Log: LogConfig{
			Level: core.InfoLevel,
		},
	}
}

// LoadConfig reads the TOML file at path on top of DefaultConfig. Unknown
// keys are rejected.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := DefaultConfig()
	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize clamps numeric settings into their supported ranges and fills
// in empty values.
func (c *Config) Normalize() {
	if c.Application.Name == "" {
		c.Application.Name = "Anima"
	}
	c.Application.TargetFPS = core.Clamp(c.Application.TargetFPS, 1, 1000)
	c.Jobs.Workers = core.Clamp(c.Jobs.Workers, 1, 256)
	c.Jobs.QueueSize = core.Clamp(c.Jobs.QueueSize, 0, 1<<16)
	if c.Assets.Root == "" {
		c.Assets.Root = "assets"
	}
	if c.Log.Level == "" {
		c.Log.Level = core.InfoLevel
	}
}
