package engine

// ApplicationConfig holds the settings of the host application loop.
type ApplicationConfig struct {
	// The application name, used in logs.
	Name string `toml:"name"`
	// Frames per second the loop aims for when LimitFrames is set.
	TargetFPS int `toml:"target_fps"`
	// Give the remaining frame time back to the OS instead of spinning.
	LimitFrames bool `toml:"limit_frames"`
}
