package config

import "time"

// TestConfig returns a config suitable for testing: local origins allowed,
// short timeouts, logging off, and a tiny routine.
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Source.AllowLocal = true
	cfg.Network.Timeout = 2 * time.Second
	cfg.Network.UserAgent = "shelf-test/1.0"
	cfg.Pool.Workers = 4
	cfg.UI.PollInterval = 5 * time.Millisecond
	cfg.UI.FrameInterval = time.Millisecond
	cfg.Routine = RoutineConfig{Rounds: 1, Hold: 2 * time.Millisecond, Relax: 2 * time.Millisecond}
	cfg.Log = LogConfig{Level: "off"}
	cfg.Opener = OpenerConfig{}
	return cfg
}
