// Package race owns one two-car race: the aggregate state, the fixed per-tick
// call order of the physics components, and the loop that drives it.
package race

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zeusync/racer/internal/core/race/collision"
	"github.com/zeusync/racer/internal/core/race/input"
	"github.com/zeusync/racer/internal/core/race/lap"
	"github.com/zeusync/racer/internal/core/race/track"
	"github.com/zeusync/racer/internal/core/race/vehicle"
	"github.com/zeusync/racer/internal/core/systems/physics"
)

// Phase is the race lifecycle.
type Phase uint8

const (
	PhaseRacing Phase = iota
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseRacing:
		return "racing"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// DefaultCarIDs name the two grid slots.
var DefaultCarIDs = [input.Players]string{"Player 1", "Player 2"}

// State is the whole race. It is not safe for concurrent use; Loop
// serialises access.
type State struct {
	ID      string
	Track   *track.Track
	Cars    [input.Players]*vehicle.Car
	Tick    uint64
	Elapsed float64
	Winner  string
	Phase   Phase

	tuning   vehicle.Tuning
	dynamics *vehicle.Dynamics
	laps     *lap.Tracker
	opts     options
}

type options struct {
	id        string
	lapsToWin int
	carIDs    [input.Players]string
}

// Option customises NewState.
type Option func(*options)

// WithID fixes the race id instead of generating one.
func WithID(id string) Option { return func(o *options) { o.id = id } }

// WithLapsToWin overrides the race length.
func WithLapsToWin(n int) Option { return func(o *options) { o.lapsToWin = n } }

// WithCarIDs names the two cars.
func WithCarIDs(a, b string) Option {
	return func(o *options) { o.carIDs = [input.Players]string{a, b} }
}

// NewState builds a fresh race with both cars on the grid.
func NewState(tr *track.Track, tuning vehicle.Tuning, opts ...Option) (*State, error) {
	if tr == nil {
		return nil, ErrNilTrack
	}
	o := options{lapsToWin: lap.DefaultLapsToWin, carIDs: DefaultCarIDs}
	for _, opt := range opts {
		opt(&o)
	}
	return newState(tr, tuning, o)
}

func newState(tr *track.Track, tuning vehicle.Tuning, o options) (*State, error) {
	if o.lapsToWin <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLapCount, o.lapsToWin)
	}
	if o.carIDs[0] == "" || o.carIDs[1] == "" || o.carIDs[0] == o.carIDs[1] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCarIDs, o.carIDs)
	}

	dyn, err := vehicle.NewDynamics(tuning, tr)
	if err != nil {
		return nil, err
	}

	id := o.id
	if id == "" {
		id = uuid.NewString()
	}
	s := &State{
		ID:       id,
		Track:    tr,
		Phase:    PhaseRacing,
		tuning:   tuning,
		dynamics: dyn,
		laps:     lap.NewTracker(tr, o.lapsToWin),
		opts:     o,
	}
	for i := range s.Cars {
		pose := tr.Grid(i)
		s.Cars[i] = vehicle.NewCar(o.carIDs[i], pose.Position, pose.Orientation, tuning)
	}
	return s, nil
}

// Restart returns a brand-new race on the same track with the same settings.
// The receiver is left untouched for the caller to discard.
func (s *State) Restart() *State {
	o := s.opts
	o.id = ""
	next, err := newState(s.Track, s.tuning, o)
	if err != nil {
		// settings were validated when s was built
		panic(err)
	}
	return next
}

func (s *State) LapsToWin() int         { return s.laps.LapsToWin() }
func (s *State) Tuning() vehicle.Tuning { return s.tuning }
func (s *State) Finished() bool         { return s.Phase == PhaseFinished }

// StepResult reports what happened during one Step.
type StepResult struct {
	Tick     uint64
	Collided bool
	Contact  collision.Result
	Laps     [input.Players]lap.Result
	Winner   string
	Finished bool // the race ended on this tick
	Skipped  bool // the race had already finished; nothing moved
}

// Step advances the race by dt. Both cars move first, then the contact
// between them is resolved, then laps are counted on the final positions.
// A finished race is frozen and Step is a no-op.
func (s *State) Step(dt float64, controls [input.Players]vehicle.Controls) StepResult {
	if s.Finished() {
		return StepResult{Tick: s.Tick, Winner: s.Winner, Skipped: true}
	}

	var prev [input.Players]physics.Vec2
	for i, c := range s.Cars {
		prev[i] = c.Position
	}
	for i, c := range s.Cars {
		s.dynamics.Advance(c, dt, controls[i])
	}

	var res StepResult
	res.Contact, res.Collided = collision.Resolve(s.Cars[0], s.Cars[1])

	for i, c := range s.Cars {
		res.Laps[i] = s.laps.Update(c, prev[i])
		// first to the line keeps the win; car 0 takes a same-tick tie
		if res.Laps[i].Won && s.Winner == "" {
			s.Winner = c.ID
		}
	}

	s.Tick++
	s.Elapsed += dt
	if s.Winner != "" {
		s.Phase = PhaseFinished
		res.Finished = true
	}
	res.Tick = s.Tick
	res.Winner = s.Winner
	return res
}
