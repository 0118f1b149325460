// Package config loads racer settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/racer/internal/core/observability/log"
	"github.com/zeusync/racer/internal/core/race"
	"github.com/zeusync/racer/internal/core/race/lap"
	"github.com/zeusync/racer/internal/core/race/track"
	"github.com/zeusync/racer/internal/core/race/vehicle"
	"github.com/zeusync/racer/internal/server"
)

// Config is the whole racer configuration.
type Config struct {
	Race        RaceConfig      `yaml:"race"`
	Track       track.Config    `yaml:"track"`
	Tuning      vehicle.Tuning  `yaml:"tuning"`
	Loop        race.LoopConfig `yaml:"loop"`
	Log         LogConfig       `yaml:"log"`
	Spectator   server.Config   `yaml:"spectator"`
	InputScript string          `yaml:"input_script" env:"RACER_INPUT_SCRIPT"`
}

type RaceConfig struct {
	LapsToWin int      `yaml:"laps_to_win"`
	CarIDs    []string `yaml:"car_ids"`
}

type LogConfig struct {
	Level  log.Level `yaml:"level" env:"RACER_LOG_LEVEL"`
	Format string    `yaml:"format" env:"RACER_LOG_FORMAT"`
}

// Options maps the section onto logger options.
func (c LogConfig) Options() log.Options {
	return log.Options{Level: c.Level, Format: c.Format}
}

// Default returns the stock race: three laps on the default track at 60 Hz.
func Default() Config {
	return Config{
		Race: RaceConfig{
			LapsToWin: lap.DefaultLapsToWin,
			CarIDs:    []string{race.DefaultCarIDs[0], race.DefaultCarIDs[1]},
		},
		Track:     track.DefaultConfig(),
		Tuning:    vehicle.DefaultTuning(),
		Loop:      race.DefaultLoopConfig(),
		Log:       LogConfig{Level: log.LevelInfo, Format: "json"},
		Spectator: server.DefaultConfig(),
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	if path == "" {
		return finish(Default())
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// LoadYAML is Load for an already open document. Unknown keys are errors.
func LoadYAML(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return finish(cfg)
}

func finish(cfg Config) (Config, error) {
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid section at once.
func (c Config) Validate() error {
	var errs []error
	if c.Race.LapsToWin <= 0 {
		errs = append(errs, fmt.Errorf("%w: race.laps_to_win must be > 0, got %d", ErrInvalidConfig, c.Race.LapsToWin))
	}
	if len(c.Race.CarIDs) != 2 || c.Race.CarIDs[0] == "" || c.Race.CarIDs[1] == "" || c.Race.CarIDs[0] == c.Race.CarIDs[1] {
		errs = append(errs, fmt.Errorf("%w: race.car_ids must be two distinct names, got %q", ErrInvalidConfig, c.Race.CarIDs))
	}
	if _, err := track.New(c.Track); err != nil {
		errs = append(errs, fmt.Errorf("track: %w", err))
	}
	if err := c.Tuning.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tuning: %w", err))
	}
	if c.Loop.TickHz <= 0 {
		errs = append(errs, fmt.Errorf("%w: loop.tick_hz must be > 0, got %d", ErrInvalidConfig, c.Loop.TickHz))
	}
	if c.Loop.RestartDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: loop.restart_delay must be >= 0, got %v", ErrInvalidConfig, c.Loop.RestartDelay))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownFormat, c.Log.Format))
	}
	if err := c.Spectator.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spectator: %w", err))
	}
	return errors.Join(errs...)
}

// RaceOptions turns the race section into state options.
func (c Config) RaceOptions() []race.Option {
	opts := []race.Option{race.WithLapsToWin(c.Race.LapsToWin)}
	if len(c.Race.CarIDs) == 2 {
		opts = append(opts, race.WithCarIDs(c.Race.CarIDs[0], c.Race.CarIDs[1]))
	}
	return opts
}
