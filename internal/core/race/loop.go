package race

import (
	"context"
	"sync"
	"time"

	"github.com/zeusync/racer/internal/core/events/bus"
	"github.com/zeusync/racer/internal/core/observability/log"
	"github.com/zeusync/racer/internal/core/observability/metrics"
	"github.com/zeusync/racer/internal/core/race/input"
)

// DefaultTickHz is the rate the stock tuning was balanced for.
const DefaultTickHz = 60

// Observer receives a snapshot after every tick. It runs on the loop
// goroutine and must not block.
type Observer interface {
	Observe(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) Observe(s Snapshot) { f(s) }

// LoopConfig controls the race loop.
type LoopConfig struct {
	TickHz       int  `yaml:"tick_hz" env:"RACER_TICK_HZ"`
	StopOnFinish bool `yaml:"stop_on_finish"`

	// RestartDelay > 0 starts a fresh race this long after each finish
	// and takes precedence over StopOnFinish.
	RestartDelay time.Duration `yaml:"restart_delay" env:"RACER_RESTART_DELAY"`
}

// DefaultLoopConfig runs at 60 Hz and stops once a winner is known.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{TickHz: DefaultTickHz, StopOnFinish: true}
}

// Loop drives a State at a fixed rate. Every tick uses dt = 1/TickHz so a
// replay of the same controls is bit-for-bit identical.
type Loop struct {
	cfg    LoopConfig
	dt     float64
	source input.Source
	bus    bus.EventBus
	logger log.Log
	meter  *metrics.Race

	mu        sync.Mutex
	state     *State
	observers []Observer
	running   bool
}

// LoopOption customises NewLoop.
type LoopOption func(*Loop)

func WithBus(b bus.EventBus) LoopOption      { return func(l *Loop) { l.bus = b } }
func WithLogger(lg log.Log) LoopOption       { return func(l *Loop) { l.logger = lg } }
func WithMetrics(m *metrics.Race) LoopOption { return func(l *Loop) { l.meter = m } }
func WithObserver(o Observer) LoopOption {
	return func(l *Loop) { l.observers = append(l.observers, o) }
}

// NewLoop binds state to an input source.
func NewLoop(state *State, source input.Source, cfg LoopConfig, opts ...LoopOption) (*Loop, error) {
	if state == nil {
		return nil, ErrNilState
	}
	if cfg.TickHz <= 0 {
		return nil, ErrInvalidTickRate
	}
	if source == nil {
		source = input.Idle{}
	}
	l := &Loop{
		cfg:    cfg,
		dt:     1 / float64(cfg.TickHz),
		source: source,
		state:  state,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = log.NewNop()
	}
	l.logger = l.logger.With(log.String("component", "race"))
	if l.meter == nil {
		m, err := metrics.NewRace()
		if err != nil {
			return nil, err
		}
		l.meter = m
	}
	return l, nil
}

// AddObserver registers o for subsequent ticks.
func (l *Loop) AddObserver(o Observer) {
	l.mu.Lock()
	l.observers = append(l.observers, o)
	l.mu.Unlock()
}

// Snapshot returns the current race view. Safe from any goroutine.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Snapshot()
}

// Digest returns the state digest. Safe from any goroutine.
func (l *Loop) Digest() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Digest()
}

// Restart swaps in a fresh race between ticks.
func (l *Loop) Restart() {
	l.mu.Lock()
	prev := l.state.ID
	l.state = l.state.Restart()
	next := l.state.ID
	l.mu.Unlock()

	l.logger.Info("race restarted", log.String("race_id", next), log.String("previous_id", prev))
	l.publish(EventRestarted, 0, RestartEvent{PreviousID: prev, RaceID: next})
}

// Run ticks until ctx is cancelled, or until the race finishes when
// StopOnFinish is set. With a RestartDelay it keeps racing, restarting after
// every finish. Cancellation is not an error.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrLoopRunning
	}
	l.running = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	ticker := time.NewTicker(time.Second / time.Duration(l.cfg.TickHz))
	defer ticker.Stop()

	l.logger.Info("race loop started", log.Int("tick_hz", l.cfg.TickHz))
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("race loop stopped", log.Uint64("tick", l.Snapshot().Tick))
			return nil
		case <-ticker.C:
			res := l.Step(ctx)
			if !res.Finished && !res.Skipped {
				continue
			}
			if l.cfg.RestartDelay > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(l.cfg.RestartDelay):
				}
				l.Restart()
				continue
			}
			if l.cfg.StopOnFinish {
				return nil
			}
		}
	}
}

// RunFor steps up to n ticks back to back without waiting on a clock. It
// stops early once the race finishes and returns the ticks actually stepped.
func (l *Loop) RunFor(ctx context.Context, n int) int {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return i
		}
		if res := l.Step(ctx); res.Finished || res.Skipped {
			if res.Skipped {
				return i
			}
			return i + 1
		}
	}
	return n
}

// Step runs exactly one tick.
func (l *Loop) Step(ctx context.Context) StepResult {
	start := time.Now()

	l.mu.Lock()
	st := l.state
	res := st.Step(l.dt, l.source.Controls(st.Tick))
	snap := st.Snapshot()
	observers := append([]Observer(nil), l.observers...)
	l.mu.Unlock()

	if !res.Skipped {
		l.meter.Tick(ctx, time.Since(start))
		l.report(ctx, snap, res)
	}
	for _, o := range observers {
		o.Observe(snap)
	}
	return res
}

func (l *Loop) report(ctx context.Context, snap Snapshot, res StepResult) {
	if res.Collided {
		l.meter.Collision(ctx)
		l.logger.Debug("cars collided",
			log.Uint64("tick", res.Tick),
			log.Float64("normal_x", res.Contact.Normal.X),
			log.Float64("normal_y", res.Contact.Normal.Y))
		l.publish(EventCollision, res.Tick, CollisionEvent{RaceID: snap.RaceID, Tick: res.Tick, Contact: res.Contact})
	}

	for i, lr := range res.Laps {
		if !lr.Counted {
			continue
		}
		car := snap.Cars[i]
		l.meter.Lap(ctx, car.ID)
		l.logger.Info("lap completed",
			log.String("car", car.ID),
			log.Int("lap", lr.Lap),
			log.Int("laps_to_win", snap.LapsToWin),
			log.Float64("elapsed", snap.Elapsed))
		l.publish(EventLap, res.Tick, LapEvent{
			RaceID:  snap.RaceID,
			CarID:   car.ID,
			Lap:     lr.Lap,
			Tick:    res.Tick,
			Elapsed: snap.Elapsed,
		})
	}

	if res.Finished {
		l.logger.Info("race finished",
			log.String("winner", res.Winner),
			log.Uint64("tick", res.Tick),
			log.Float64("elapsed", snap.Elapsed))
		l.publish(EventFinished, res.Tick, FinishEvent{
			RaceID:  snap.RaceID,
			Winner:  res.Winner,
			Tick:    res.Tick,
			Elapsed: snap.Elapsed,
		})
	}
}

func (l *Loop) publish(typ string, tick uint64, data any) {
	if l.bus == nil {
		return
	}
	if err := l.bus.PublishToTopic(Topic, bus.NewEvent(typ, "race", tick, data)); err != nil {
		l.logger.Warn("event handler failed", log.String("event", typ), log.Error(err))
	}
}
