// Package config loads the ictest tool settings from a TOML file. Keys the
// file leaves out keep their defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/OpenTraceLab/OpenTraceIC/pkg/tester"
	"github.com/OpenTraceLab/OpenTraceIC/pkg/transport"
)

// Config is the tool configuration.
type Config struct {
	Port      string
	Baud      int
	Board     string
	BoardsDir string
	LogLevel  string
	// ResetDelay is the wait after opening a serial port for boards that
	// reset on open.
	ResetDelay time.Duration
	Tester     tester.Config
}

type fileConfig struct {
	Port         string `toml:"port"`
	Baud         int    `toml:"baud"`
	Board        string `toml:"board"`
	BoardsDir    string `toml:"boards_dir"`
	LogLevel     string `toml:"log_level"`
	ResetDelay   string `toml:"reset_delay"`
	PollInterval string `toml:"poll_interval"`
	WaitGate     string `toml:"wait_gate"`
	WaitFlipFlop string `toml:"wait_flipflop"`
	WaitMux      string `toml:"wait_mux"`
	WaitCounter  string `toml:"wait_counter"`
	WaitAnalog   string `toml:"wait_analog"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Baud:       transport.DefaultBaud,
		Board:      "UNO",
		ResetDelay: transport.DefaultResetDelay,
		Tester:     *tester.DefaultConfig(),
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/ictest/config.toml or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ictest", "config.toml")
}

// LoadOptional loads path, returning the defaults when it does not exist.
func LoadOptional(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Load reads path and overlays the keys it defines onto the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config: load %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("port") {
		cfg.Port = strings.TrimSpace(raw.Port)
	}
	if meta.IsDefined("baud") {
		if raw.Baud <= 0 {
			return Config{}, fmt.Errorf("config: baud must be positive, got %d", raw.Baud)
		}
		cfg.Baud = raw.Baud
	}
	if meta.IsDefined("board") {
		if b := strings.TrimSpace(raw.Board); b != "" {
			cfg.Board = b
		}
	}
	if meta.IsDefined("boards_dir") {
		cfg.BoardsDir = strings.TrimSpace(raw.BoardsDir)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"reset_delay", raw.ResetDelay, &cfg.ResetDelay},
		{"poll_interval", raw.PollInterval, &cfg.Tester.PollInterval},
		{"wait_gate", raw.WaitGate, &cfg.Tester.GateWait},
		{"wait_flipflop", raw.WaitFlipFlop, &cfg.Tester.FlipFlopWait},
		{"wait_mux", raw.WaitMux, &cfg.Tester.MuxWait},
		{"wait_counter", raw.WaitCounter, &cfg.Tester.CounterWait},
		{"wait_analog", raw.WaitAnalog, &cfg.Tester.AnalogWait},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", d.key, err)
		}
		*d.dst = v
	}
	if cfg.ResetDelay < 0 {
		return Config{}, fmt.Errorf("config: reset_delay must not be negative, got %s", cfg.ResetDelay)
	}

	if err := cfg.Tester.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
