package vehicle

import (
	"fmt"
	"math"

	"github.com/zeusync/racer/internal/core/systems/physics"
)

// Surface is the part of the track the dynamics model needs.
type Surface interface {
	IsDrivable(p physics.Vec2) bool
	ClampToScreen(p physics.Vec2) physics.Vec2
}

// Dynamics integrates cars one tick at a time.
type Dynamics struct {
	tuning  Tuning
	surface Surface
}

// NewDynamics validates tuning and binds it to surface.
func NewDynamics(tuning Tuning, surface Surface) (*Dynamics, error) {
	if err := tuning.Validate(); err != nil {
		return nil, err
	}
	if surface == nil {
		return nil, fmt.Errorf("%w: nil surface", ErrInvalidTuning)
	}
	return &Dynamics{tuning: tuning, surface: surface}, nil
}

func (d *Dynamics) Tuning() Tuning { return d.tuning }

// SteeringFactor is the share of full turn rate available at speed.
// It is 1 at rest and falls linearly to the MinSteering floor at MaxSpeed.
func (d *Dynamics) SteeringFactor(speed float64) float64 {
	return math.Max(d.tuning.MinSteering, 1-math.Abs(speed)/d.tuning.MaxSpeed)
}

// perTick rescales a factor tuned for one reference tick (1/TimeScale
// seconds) to a step of dt.
func (d *Dynamics) perTick(factor, dt float64) float64 {
	n := dt * d.tuning.TimeScale
	if n == 1 {
		return factor
	}
	return math.Pow(factor, n)
}

// Advance moves car forward by dt seconds under controls. Call it exactly
// once per car per tick; a second call integrates the tick twice.
func (d *Dynamics) Advance(car *Car, dt float64, controls Controls) {
	if dt < 0 {
		panic(fmt.Errorf("%w: %v", ErrNegativeDelta, dt))
	}
	t := d.tuning

	switch {
	case controls.Accelerate:
		car.Speed += t.Acceleration * dt
	case controls.Brake:
		car.Speed -= t.Brake * dt
	default:
		// coast toward zero without crossing it
		decay := t.Friction * dt
		if car.Speed > 0 {
			car.Speed -= math.Min(car.Speed, decay)
		} else if car.Speed < 0 {
			car.Speed += math.Min(-car.Speed, decay)
		}
	}
	car.Speed = physics.Clamp(car.Speed, t.MinSpeed(), t.MaxSpeed)

	turn := t.TurnSpeed * dt * d.SteeringFactor(car.Speed)
	if controls.SteerLeft {
		car.Orientation -= turn
	}
	if controls.SteerRight {
		car.Orientation += turn
	}

	forward := car.Forward()
	right := forward.Perp()
	car.Velocity = car.Velocity.Add(forward.Scale(car.Speed * dt))

	fwd := car.Velocity.Dot(forward)
	lat := car.Velocity.Dot(right) * d.perTick(t.Traction, dt)
	car.Velocity = forward.Scale(fwd).Add(right.Scale(lat))

	car.Position = car.Position.Add(car.Velocity.Scale(dt * t.TimeScale))

	if !d.surface.IsDrivable(car.Position) {
		car.Speed *= d.perTick(t.OffTrackDamping, dt)
	}

	car.Position = d.surface.ClampToScreen(car.Position)
}
