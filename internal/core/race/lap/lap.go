// Package lap counts checkpoint crossings per car.
//
// Each car carries a latch (vehicle.Car.CheckpointArmed). A qualifying
// crossing is counted only while the latch is clear; counting sets it, and
// any tick without a crossing clears it again.
package lap

import (
	"github.com/zeusync/racer/internal/core/race/vehicle"
	"github.com/zeusync/racer/internal/core/systems/physics"
)

// DefaultLapsToWin is the stock race length.
const DefaultLapsToWin = 3

// Line is the checkpoint test the tracker relies on.
type Line interface {
	CrossesCheckpoint(prev, curr physics.Vec2) bool
}

// Result is the outcome of one Update.
type Result struct {
	Crossed bool // the move crossed the line, counted or not
	Counted bool // a lap was added
	Lap     int  // the car's lap count after the update
	Won     bool // this update brought the car to the winning count
}

// Tracker advances lap counts against a checkpoint line.
type Tracker struct {
	line      Line
	lapsToWin int
}

// NewTracker returns a tracker for line. lapsToWin <= 0 selects the default.
func NewTracker(line Line, lapsToWin int) *Tracker {
	if lapsToWin <= 0 {
		lapsToWin = DefaultLapsToWin
	}
	return &Tracker{line: line, lapsToWin: lapsToWin}
}

func (t *Tracker) LapsToWin() int { return t.lapsToWin }

// Update checks the move from prev to the car's current position.
func (t *Tracker) Update(car *vehicle.Car, prev physics.Vec2) Result {
	res := Result{Lap: car.Laps}
	if !t.line.CrossesCheckpoint(prev, car.Position) {
		car.CheckpointArmed = false
		return res
	}

	res.Crossed = true
	if car.CheckpointArmed {
		return res
	}

	car.Laps++
	car.CheckpointArmed = true
	res.Counted = true
	res.Lap = car.Laps
	res.Won = car.Laps >= t.lapsToWin
	return res
}
