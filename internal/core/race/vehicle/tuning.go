package vehicle

import (
	"errors"
	"fmt"
)

// Tuning holds the arcade handling constants. Rates are per second and were
// balanced against a 60 Hz tick. TimeScale is that reference rate: it sets
// the position step, and Traction and OffTrackDamping are factors per
// reference tick that get rescaled when the race ticks at another rate.
type Tuning struct {
	MaxSpeed        float64 `yaml:"max_speed"`
	Acceleration    float64 `yaml:"acceleration"`
	Brake           float64 `yaml:"brake"`
	Friction        float64 `yaml:"friction"`
	TurnSpeed       float64 `yaml:"turn_speed"`
	Traction        float64 `yaml:"traction"`
	ReverseRatio    float64 `yaml:"reverse_ratio"`
	MinSteering     float64 `yaml:"min_steering"`
	TimeScale       float64 `yaml:"time_scale"`
	OffTrackDamping float64 `yaml:"off_track_damping"`
	Width           float64 `yaml:"width"`
	Height          float64 `yaml:"height"`
}

// DefaultTuning returns the stock handling.
func DefaultTuning() Tuning {
	return Tuning{
		MaxSpeed:        60,
		Acceleration:    6,
		Brake:           900,
		Friction:        520,
		TurnSpeed:       6.8,
		Traction:        0.90,
		ReverseRatio:    0.4,
		MinSteering:     0.2,
		TimeScale:       60,
		OffTrackDamping: 0.91,
		Width:           36,
		Height:          18,
	}
}

// MinSpeed is the reverse speed cap (a negative number).
func (t Tuning) MinSpeed() float64 { return -t.MaxSpeed * t.ReverseRatio }

// Validate reports every out-of-range constant at once.
func (t Tuning) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if !(v > 0) {
			errs = append(errs, fmt.Errorf("%w: %s must be > 0, got %v", ErrInvalidTuning, name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if !(v >= 0) {
			errs = append(errs, fmt.Errorf("%w: %s must be >= 0, got %v", ErrInvalidTuning, name, v))
		}
	}
	fraction := func(name string, v float64) {
		if !(v > 0 && v < 1) {
			errs = append(errs, fmt.Errorf("%w: %s must be in (0,1), got %v", ErrInvalidTuning, name, v))
		}
	}

	positive("max_speed", t.MaxSpeed)
	positive("turn_speed", t.TurnSpeed)
	positive("time_scale", t.TimeScale)
	positive("width", t.Width)
	positive("height", t.Height)
	nonNegative("acceleration", t.Acceleration)
	nonNegative("brake", t.Brake)
	nonNegative("friction", t.Friction)
	fraction("traction", t.Traction)
	fraction("off_track_damping", t.OffTrackDamping)
	if !(t.ReverseRatio >= 0 && t.ReverseRatio <= 1) {
		errs = append(errs, fmt.Errorf("%w: reverse_ratio must be in [0,1], got %v", ErrInvalidTuning, t.ReverseRatio))
	}
	if !(t.MinSteering > 0 && t.MinSteering <= 1) {
		errs = append(errs, fmt.Errorf("%w: min_steering must be in (0,1], got %v", ErrInvalidTuning, t.MinSteering))
	}
	return errors.Join(errs...)
}
