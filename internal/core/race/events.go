package race

import "github.com/zeusync/racer/internal/core/race/collision"

// Topic is the bus topic all race events are published on.
const Topic = "race"

const (
	EventLap       = "race.lap"
	EventCollision = "race.collision"
	EventFinished  = "race.finished"
	EventRestarted = "race.restarted"
)

// LapEvent is the payload of EventLap.
type LapEvent struct {
	RaceID  string
	CarID   string
	Lap     int
	Tick    uint64
	Elapsed float64
}

// CollisionEvent is the payload of EventCollision.
type CollisionEvent struct {
	RaceID  string
	Tick    uint64
	Contact collision.Result
}

// FinishEvent is the payload of EventFinished.
type FinishEvent struct {
	RaceID  string
	Winner  string
	Tick    uint64
	Elapsed float64
}

// RestartEvent is the payload of EventRestarted.
type RestartEvent struct {
	PreviousID string
	RaceID     string
}
