package race

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/racer/internal/core/race/input"
	"github.com/zeusync/racer/internal/core/systems/physics"
)

// CarSnapshot is the presentation view of one car.
type CarSnapshot struct {
	ID          string       `json:"id"`
	Position    physics.Vec2 `json:"position"`
	Orientation float64      `json:"orientation"`
	Speed       float64      `json:"speed"`
	Laps        int          `json:"laps"`
}

// Snapshot is a value copy of the race for renderers and HUDs.
type Snapshot struct {
	RaceID    string                     `json:"raceId"`
	Tick      uint64                     `json:"tick"`
	Elapsed   float64                    `json:"elapsed"`
	Phase     string                     `json:"phase"`
	Winner    string                     `json:"winner,omitempty"`
	LapsToWin int                        `json:"lapsToWin"`
	Cars      [input.Players]CarSnapshot `json:"cars"`
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		RaceID:    s.ID,
		Tick:      s.Tick,
		Elapsed:   s.Elapsed,
		Phase:     s.Phase.String(),
		Winner:    s.Winner,
		LapsToWin: s.LapsToWin(),
	}
	for i, c := range s.Cars {
		snap.Cars[i] = CarSnapshot{
			ID:          c.ID,
			Position:    c.Position,
			Orientation: c.Orientation,
			Speed:       c.Speed,
			Laps:        c.Laps,
		}
	}
	return snap
}

// Digest hashes every piece of mutable race state. Two runs fed the same
// controls and dt produce the same digest tick for tick.
func (s *State) Digest() uint64 {
	h := xxhash.New()
	var buf [8]byte
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	putF64 := func(v float64) { putU64(math.Float64bits(v)) }

	putU64(s.Tick)
	putF64(s.Elapsed)
	putU64(uint64(s.Phase))
	_, _ = h.WriteString(s.Winner)
	for _, c := range s.Cars {
		_, _ = h.WriteString(c.ID)
		putF64(c.Position.X)
		putF64(c.Position.Y)
		putF64(c.Orientation)
		putF64(c.Velocity.X)
		putF64(c.Velocity.Y)
		putF64(c.Speed)
		putU64(uint64(c.Laps))
		if c.CheckpointArmed {
			putU64(1)
		} else {
			putU64(0)
		}
	}
	return h.Sum64()
}
