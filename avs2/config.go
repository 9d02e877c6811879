/*
DESCRIPTION
  config.go holds the decoder-manager configuration record, following the
  plain exported-struct style of revid/config/config.go rather than pulling
  in a flag or viper framework.
*/

package avs2dec

// Config configures a decoder Manager, per spec.md section 6.
type Config struct {
	// Threads is the number of worker goroutines in the process-wide
	// reconstruct-stage pool (spec.md section 4.12, execution mode 2). Zero
	// or one selects the single-thread-per-frame mode for every frame.
	Threads int

	// MaxRefFrames bounds the reference-frame pool size.
	MaxRefFrames int

	// LogLevel sets logger verbosity.
	LogLevel LogLevel

	// LogPath, if non-empty, routes logs through a rotating lumberjack
	// sink instead of stderr.
	LogPath string
}

// DefaultConfig returns a Config with conservative defaults: no reconstruct
// worker pool, 4 reference frames, error-level logging.
func DefaultConfig() Config {
	return Config{
		Threads:      0,
		MaxRefFrames: 4,
		LogLevel:     LogError,
	}
}

func (c Config) validate() error {
	if c.MaxRefFrames <= 0 {
		return errBadConfig("MaxRefFrames must be positive")
	}
	if c.Threads < 0 {
		return errBadConfig("Threads must not be negative")
	}
	return nil
}

type errBadConfig string

func (e errBadConfig) Error() string { return "avs2dec: invalid config: " + string(e) }
