// Package input supplies per-tick driver intents to the race loop. Sources
// are local only: a script timeline for headless replays or a latest-value
// holder fed by a host keyboard layer.
package input

import (
	"sync"

	"github.com/zeusync/racer/internal/core/race/vehicle"
)

// Players is the number of cars in a race.
const Players = 2

// Source returns both players' controls for a tick.
type Source interface {
	Controls(tick uint64) [Players]vehicle.Controls
}

// Idle never presses anything.
type Idle struct{}

func (Idle) Controls(uint64) [Players]vehicle.Controls { return [Players]vehicle.Controls{} }

// Latest holds the most recent intent per player. A host input thread calls
// Set; the race loop reads a consistent pair each tick.
type Latest struct {
	mu       sync.RWMutex
	controls [Players]vehicle.Controls
}

func NewLatest() *Latest { return &Latest{} }

// Set replaces the intent of player (0 or 1). Out-of-range players are ignored.
func (l *Latest) Set(player int, c vehicle.Controls) {
	if player < 0 || player >= Players {
		return
	}
	l.mu.Lock()
	l.controls[player] = c
	l.mu.Unlock()
}

func (l *Latest) Controls(uint64) [Players]vehicle.Controls {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.controls
}

// Func adapts a plain function to Source.
type Func func(tick uint64) [Players]vehicle.Controls

func (f Func) Controls(tick uint64) [Players]vehicle.Controls { return f(tick) }
