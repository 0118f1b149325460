package race

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/racer/internal/core/events/bus"
	"github.com/zeusync/racer/internal/core/observability/log"
	"github.com/zeusync/racer/internal/core/observability/metrics"
	"github.com/zeusync/racer/internal/core/race/input"
	"github.com/zeusync/racer/internal/core/race/vehicle"
	"github.com/zeusync/racer/internal/core/systems/physics"
)

func testMetrics(t *testing.T) *metrics.Race {
	t.Helper()
	m, err := metrics.NewRaceWithMeter(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return m
}

func holdAccelerate(player int) input.Source {
	return input.Func(func(uint64) [input.Players]vehicle.Controls { return accelerate(player) })
}

type recorder struct {
	mu     sync.Mutex
	events []bus.Event
}

func (r *recorder) handle(e bus.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func subscribeAll(t *testing.T, b bus.EventBus, r *recorder) {
	t.Helper()
	for _, typ := range []string{EventLap, EventCollision, EventFinished, EventRestarted} {
		_, err := b.SubscribeTopic(Topic, typ, r.handle)
		require.NoError(t, err)
	}
}

func TestNewLoopValidation(t *testing.T) {
	_, err := NewLoop(nil, nil, DefaultLoopConfig())
	assert.ErrorIs(t, err, ErrNilState)

	_, err = NewLoop(newTestState(t), nil, LoopConfig{TickHz: 0})
	assert.ErrorIs(t, err, ErrInvalidTickRate)
}

func TestRunForPublishesRaceEvents(t *testing.T) {
	s := newTestState(t, WithLapsToWin(1), WithID("evt"))
	lineUp(s, 0, 500)

	b := bus.New()
	rec := &recorder{}
	subscribeAll(t, b, rec)

	core, logs := observer.New(zap.InfoLevel)
	var observed int
	l, err := NewLoop(s, holdAccelerate(0), DefaultLoopConfig(),
		WithBus(b),
		WithLogger(log.FromZap(zap.New(core), log.LevelInfo)),
		WithMetrics(testMetrics(t)),
		WithObserver(ObserverFunc(func(Snapshot) { observed++ })),
	)
	require.NoError(t, err)

	stepped := l.RunFor(context.Background(), 500)
	assert.Equal(t, 12, stepped)
	assert.Equal(t, 12, observed)
	assert.Equal(t, []string{EventLap, EventFinished}, rec.types())

	lapEvt, ok := rec.events[0].Data.(LapEvent)
	require.True(t, ok)
	assert.Equal(t, LapEvent{RaceID: "evt", CarID: "Player 1", Lap: 1, Tick: 12, Elapsed: lapEvt.Elapsed}, lapEvt)
	assert.InDelta(t, 12.0/60, lapEvt.Elapsed, 1e-9)

	fin, ok := rec.events[1].Data.(FinishEvent)
	require.True(t, ok)
	assert.Equal(t, "Player 1", fin.Winner)

	assert.Equal(t, 1, logs.FilterMessage("race finished").Len())
	assert.Equal(t, "Player 1", l.Snapshot().Winner)

	// finished races stay frozen
	assert.Zero(t, l.RunFor(context.Background(), 10))
	assert.Equal(t, uint64(12), l.Snapshot().Tick)
}

func TestRunForStopsOnCancelledContext(t *testing.T) {
	l, err := NewLoop(newTestState(t), nil, DefaultLoopConfig(), WithMetrics(testMetrics(t)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Zero(t, l.RunFor(ctx, 100))
}

func TestLoopPublishSurvivesHandlerError(t *testing.T) {
	s := newTestState(t, WithLapsToWin(1))
	lineUp(s, 0, 500)

	b := bus.New()
	_, err := b.SubscribeTopic(Topic, EventLap, func(bus.Event) error { return assert.AnError })
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	l, err := NewLoop(s, holdAccelerate(0), DefaultLoopConfig(),
		WithBus(b), WithLogger(log.FromZap(zap.New(core), log.LevelWarn)), WithMetrics(testMetrics(t)))
	require.NoError(t, err)

	l.RunFor(context.Background(), 100)
	assert.True(t, l.Snapshot().Phase == PhaseFinished.String())
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
}

func TestRunReturnsOnCancel(t *testing.T) {
	l, err := NewLoop(newTestState(t), nil, LoopConfig{TickHz: 500}, WithMetrics(testMetrics(t)))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, l.Run(ctx))
	assert.Positive(t, l.Snapshot().Tick)

	// the loop can be started again once it has returned
	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel2()
	assert.NoError(t, l.Run(ctx2))
}

func TestRunStopsOnFinish(t *testing.T) {
	s := newTestState(t, WithLapsToWin(1))
	lineUp(s, 0, 500)
	l, err := NewLoop(s, holdAccelerate(0), LoopConfig{TickHz: 1000, StopOnFinish: true}, WithMetrics(testMetrics(t)))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Run(ctx))
	assert.NoError(t, ctx.Err(), "loop should stop on its own")
	assert.Equal(t, "Player 1", l.Snapshot().Winner)
}

func TestLoopRestart(t *testing.T) {
	s := newTestState(t, WithLapsToWin(1))
	lineUp(s, 0, 500)

	b := bus.New()
	rec := &recorder{}
	subscribeAll(t, b, rec)
	l, err := NewLoop(s, holdAccelerate(0), DefaultLoopConfig(), WithBus(b), WithMetrics(testMetrics(t)))
	require.NoError(t, err)

	l.RunFor(context.Background(), 100)
	old := l.Snapshot()
	require.Equal(t, PhaseFinished.String(), old.Phase)

	l.Restart()
	fresh := l.Snapshot()
	assert.NotEqual(t, old.RaceID, fresh.RaceID)
	assert.Zero(t, fresh.Tick)
	assert.Empty(t, fresh.Winner)
	assert.Equal(t, PhaseRacing.String(), fresh.Phase)

	types := rec.types()
	require.NotEmpty(t, types)
	assert.Equal(t, EventRestarted, types[len(types)-1])
	restart := rec.events[len(rec.events)-1].Data.(RestartEvent)
	assert.Equal(t, RestartEvent{PreviousID: old.RaceID, RaceID: fresh.RaceID}, restart)

	// the fresh race ticks again
	res := l.Step(context.Background())
	assert.False(t, res.Skipped)
	assert.Equal(t, uint64(1), res.Tick)
}

func TestAddObserverSeesEveryTick(t *testing.T) {
	l, err := NewLoop(newTestState(t), nil, DefaultLoopConfig(), WithMetrics(testMetrics(t)))
	require.NoError(t, err)

	var ticks []uint64
	l.AddObserver(ObserverFunc(func(s Snapshot) { ticks = append(ticks, s.Tick) }))
	l.RunFor(context.Background(), 3)
	assert.Equal(t, []uint64{1, 2, 3}, ticks)
}

func TestLoopReplayMatchesState(t *testing.T) {
	src := input.Func(func(tick uint64) [input.Players]vehicle.Controls {
		return [input.Players]vehicle.Controls{{Accelerate: true, SteerRight: tick%40 < 8}, {Accelerate: true}}
	})

	s := newTestState(t, WithID("replay"))
	for i := uint64(0); i < 300; i++ {
		s.Step(dt, src.Controls(i))
	}

	l, err := NewLoop(newTestState(t, WithID("replay")), src, DefaultLoopConfig(), WithMetrics(testMetrics(t)))
	require.NoError(t, err)
	l.RunFor(context.Background(), 300)

	assert.Equal(t, s.Digest(), l.Digest())
}

func TestDriftDecayMatchesAcrossTickRates(t *testing.T) {
	oneSecond := func(hz int) (lateral, x, elapsed float64) {
		s := newTestState(t)
		c := s.Cars[0]
		c.Position = physics.V(200, 200)
		c.Orientation = -math.Pi / 2
		c.Velocity = physics.V(10, 0)

		l, err := NewLoop(s, nil, LoopConfig{TickHz: hz}, WithMetrics(testMetrics(t)))
		require.NoError(t, err)
		require.Equal(t, hz, l.RunFor(context.Background(), hz))
		snap := l.Snapshot()
		return c.Lateral(), snap.Cars[0].Position.X, snap.Elapsed
	}

	lat60, x60, el60 := oneSecond(60)
	lat120, x120, el120 := oneSecond(120)

	assert.InDelta(t, 1.0, el60, 1e-9)
	assert.InDelta(t, 1.0, el120, 1e-9)
	assert.InEpsilon(t, lat60, lat120, 1e-9)
	// the position integral differs only by discretisation
	assert.InDelta(t, x60, x120, 5)
}

func TestRunRestartsAfterDelay(t *testing.T) {
	s := newTestState(t, WithLapsToWin(1))
	lineUp(s, 0, 500)

	b := bus.New()
	rec := &recorder{}
	subscribeAll(t, b, rec)

	cfg := LoopConfig{TickHz: 1000, StopOnFinish: true, RestartDelay: 5 * time.Millisecond}
	l, err := NewLoop(s, holdAccelerate(0), cfg, WithBus(b), WithMetrics(testMetrics(t)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool {
		snap := l.Snapshot()
		return snap.RaceID != "" && snap.RaceID != s.ID && snap.Tick > 0
	}, 5*time.Second, time.Millisecond, "fresh race never started ticking")
	cancel()
	require.NoError(t, <-done)

	types := rec.types()
	assert.Contains(t, types, EventFinished)
	assert.Contains(t, types, EventRestarted)
	assert.Empty(t, l.Snapshot().Winner)
}
