// Package metrics exposes the race loop's OpenTelemetry instruments. Without
// an installed MeterProvider every instrument is a no-op.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/zeusync/racer/internal/core/race"

// Race holds the counters recorded once per tick.
type Race struct {
	ticks        metric.Int64Counter
	laps         metric.Int64Counter
	collisions   metric.Int64Counter
	tickDuration metric.Float64Histogram
}

// NewRace builds instruments from the global meter provider.
func NewRace() (*Race, error) {
	return NewRaceWithMeter(otel.Meter(instrumentationName))
}

// NewRaceWithMeter builds instruments from m.
func NewRaceWithMeter(m metric.Meter) (*Race, error) {
	r := &Race{}
	var err error

	if r.ticks, err = m.Int64Counter("racer.ticks",
		metric.WithDescription("Simulation ticks stepped")); err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}
	if r.laps, err = m.Int64Counter("racer.laps",
		metric.WithDescription("Laps counted per car")); err != nil {
		return nil, fmt.Errorf("creating laps counter: %w", err)
	}
	if r.collisions, err = m.Int64Counter("racer.collisions",
		metric.WithDescription("Car-to-car contacts resolved")); err != nil {
		return nil, fmt.Errorf("creating collisions counter: %w", err)
	}
	if r.tickDuration, err = m.Float64Histogram("racer.tick.duration",
		metric.WithDescription("Wall time spent stepping one tick"),
		metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}
	return r, nil
}

func (r *Race) Tick(ctx context.Context, took time.Duration) {
	r.ticks.Add(ctx, 1)
	r.tickDuration.Record(ctx, float64(took.Microseconds())/1000)
}

func (r *Race) Lap(ctx context.Context, carID string) {
	r.laps.Add(ctx, 1, metric.WithAttributes(attribute.String("car", carID)))
}

func (r *Race) Collision(ctx context.Context) {
	r.collisions.Add(ctx, 1)
}
