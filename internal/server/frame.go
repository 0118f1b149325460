package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/zeusync/racer/internal/core/race"
	"github.com/zeusync/racer/pkg/generic"
)

// FrameState is the only envelope type the feed sends.
const FrameState = "state"

// Envelope wraps every message on the wire.
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

type outbound struct {
	T string     `json:"t"`
	P StateFrame `json:"p"`
}

var buffers = generic.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

// StateFrame is the spectator view of one tick.
type StateFrame struct {
	RaceID    string     `json:"race"`
	Tick      uint64     `json:"tick"`
	Elapsed   float64    `json:"elapsed"`
	Phase     string     `json:"phase"`
	Winner    string     `json:"winner"`
	LapsToWin int        `json:"lapsToWin"`
	Cars      []CarFrame `json:"cars"`
}

type CarFrame struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	A     float64 `json:"a"`
	Speed float64 `json:"speed"`
	Laps  int     `json:"laps"`
}

// EncodeState renders snap as a state envelope.
func EncodeState(snap race.Snapshot) ([]byte, error) {
	frame := StateFrame{
		RaceID:    snap.RaceID,
		Tick:      snap.Tick,
		Elapsed:   snap.Elapsed,
		Phase:     snap.Phase,
		Winner:    snap.Winner,
		LapsToWin: snap.LapsToWin,
		Cars:      make([]CarFrame, 0, len(snap.Cars)),
	}
	for _, c := range snap.Cars {
		frame.Cars = append(frame.Cars, CarFrame{
			ID:    c.ID,
			X:     c.Position.X,
			Y:     c.Position.Y,
			A:     c.Orientation,
			Speed: c.Speed,
			Laps:  c.Laps,
		})
	}

	buf := buffers.Get()
	defer buffers.Put(buf)
	if err := json.NewEncoder(buf).Encode(outbound{T: FrameState, P: frame}); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return bytes.Clone(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// DecodeState parses a state envelope.
func DecodeState(data []byte) (StateFrame, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return StateFrame{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if env.T != FrameState {
		return StateFrame{}, fmt.Errorf("%w: unexpected type %q", ErrInvalidMessage, env.T)
	}
	var frame StateFrame
	if err := json.Unmarshal(env.P, &frame); err != nil {
		return StateFrame{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return frame, nil
}
