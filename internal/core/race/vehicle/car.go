package vehicle

import "github.com/zeusync/racer/internal/core/systems/physics"

// Controls is one tick's driver intent for a single car.
type Controls struct {
	Accelerate bool `yaml:"accelerate" json:"accelerate"`
	Brake      bool `yaml:"brake" json:"brake"`
	SteerLeft  bool `yaml:"left" json:"left"`
	SteerRight bool `yaml:"right" json:"right"`
}

// Or merges two intents; a flag is set if either side sets it.
func (c Controls) Or(o Controls) Controls {
	return Controls{
		Accelerate: c.Accelerate || o.Accelerate,
		Brake:      c.Brake || o.Brake,
		SteerLeft:  c.SteerLeft || o.SteerLeft,
		SteerRight: c.SteerRight || o.SteerRight,
	}
}

// Car is the simulated state of one player's vehicle.
//
// Velocity is a momentum accumulator carried between ticks; it is not forced
// to point along Orientation. Speed is the signed drive along the nose.
type Car struct {
	ID          string
	Position    physics.Vec2
	Orientation float64
	Velocity    physics.Vec2
	Speed       float64

	Width, Height float64

	Laps            int
	CheckpointArmed bool
}

// NewCar places a stationary car at pos facing orientation.
func NewCar(id string, pos physics.Vec2, orientation float64, tuning Tuning) *Car {
	return &Car{
		ID:          id,
		Position:    pos,
		Orientation: orientation,
		Width:       tuning.Width,
		Height:      tuning.Height,
	}
}

// Rect is the axis-aligned box used for collisions. Rotation is ignored.
func (c *Car) Rect() physics.Rect {
	return physics.CenteredRect(c.Position, c.Width, c.Height)
}

// Forward is the unit vector along the car's nose.
func (c *Car) Forward() physics.Vec2 { return physics.FromAngle(c.Orientation) }

// Right is the unit vector out of the car's right-hand side.
func (c *Car) Right() physics.Vec2 { return c.Forward().Perp() }

// Lateral is the sideways (drift) component of Velocity.
func (c *Car) Lateral() float64 { return c.Velocity.Dot(c.Right()) }
