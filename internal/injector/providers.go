package injector

import (
	"fmt"

	"github.com/google/wire"

	"github.com/zeusync/racer/internal/config"
	"github.com/zeusync/racer/internal/core/events/bus"
	"github.com/zeusync/racer/internal/core/observability/log"
	"github.com/zeusync/racer/internal/core/observability/metrics"
	"github.com/zeusync/racer/internal/core/race"
	"github.com/zeusync/racer/internal/core/race/input"
	"github.com/zeusync/racer/internal/core/race/track"
	"github.com/zeusync/racer/internal/server"
)

// App is everything cmd/racer runs.
type App struct {
	Config    config.Config
	Logger    log.Log
	Bus       bus.EventBus
	Loop      *race.Loop
	Spectator *server.Spectator
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	bus.New,
	ProvideMetrics,
	ProvideTrack,
	ProvideState,
	ProvideInput,
	ProvideSpectator,
	ProvideLoop,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg config.Config) (*log.Logger, func(), error) {
	l, err := log.NewWithOptions(cfg.Log.Options())
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return l, func() { _ = l.Sync() }, nil
}

func ProvideMetrics() (*metrics.Race, error) {
	return metrics.NewRace()
}

func ProvideTrack(cfg config.Config) (*track.Track, error) {
	return track.New(cfg.Track)
}

func ProvideState(cfg config.Config, tr *track.Track) (*race.State, error) {
	return race.NewState(tr, cfg.Tuning, cfg.RaceOptions()...)
}

// ProvideInput replays the configured script, or idles when there is none.
func ProvideInput(cfg config.Config) (input.Source, error) {
	if cfg.InputScript == "" {
		return input.Idle{}, nil
	}
	script, err := input.LoadScriptFile(cfg.InputScript)
	if err != nil {
		return nil, err
	}
	return script, nil
}

func ProvideSpectator(cfg config.Config, logger log.Log) (*server.Spectator, error) {
	return server.NewSpectator(cfg.Spectator, cfg.Loop.TickHz, logger)
}

// ProvideLoop wires the loop to the bus and metrics, and to the spectator
// feed when it is enabled.
func ProvideLoop(
	cfg config.Config,
	state *race.State,
	source input.Source,
	eventBus bus.EventBus,
	logger log.Log,
	meter *metrics.Race,
	spectator *server.Spectator,
) (*race.Loop, error) {
	opts := []race.LoopOption{
		race.WithBus(eventBus),
		race.WithLogger(logger),
		race.WithMetrics(meter),
	}
	if cfg.Spectator.Enabled {
		opts = append(opts, race.WithObserver(spectator))
	}
	return race.NewLoop(state, source, cfg.Loop, opts...)
}
