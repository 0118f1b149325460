package input

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/racer/internal/core/race/vehicle"
)

const sampleScript = `
segments:
  - player: 0
    from: 0
    to: 120
    accelerate: true
  - player: 0
    from: 60
    to: 90
    left: true
  - player: 1
    from: 30
    to: 40
    brake: true
    right: true
`

func TestLoadScript(t *testing.T) {
	s, err := LoadScript(strings.NewReader(sampleScript))
	require.NoError(t, err)
	require.Len(t, s.Segments, 3)
	assert.Equal(t, uint64(120), s.Len())

	c := s.Controls(0)
	assert.Equal(t, vehicle.Controls{Accelerate: true}, c[0])
	assert.Equal(t, vehicle.Controls{}, c[1])

	c = s.Controls(35)
	assert.Equal(t, vehicle.Controls{Brake: true, SteerRight: true}, c[1])

	c = s.Controls(75)
	assert.Equal(t, vehicle.Controls{Accelerate: true, SteerLeft: true}, c[0], "overlaps merge")

	c = s.Controls(90)
	assert.Equal(t, vehicle.Controls{Accelerate: true}, c[0], "to is exclusive")

	c = s.Controls(500)
	assert.Equal(t, [Players]vehicle.Controls{}, c)
}

func TestLoadScriptRejectsBadSegments(t *testing.T) {
	_, err := LoadScript(strings.NewReader(`
segments:
  - {player: 2, from: 0, to: 10}
  - {player: 0, from: 10, to: 10}
`))
	require.ErrorIs(t, err, ErrInvalidScript)
	assert.Contains(t, err.Error(), "segment 0")
	assert.Contains(t, err.Error(), "segment 1")

	_, err = LoadScript(strings.NewReader("segments:\n  - {player: 0, from: 0, to: 1, nitro: true}\n"))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestLoadEmptyScript(t *testing.T) {
	s, err := LoadScript(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, s.Len())
}

func TestLatest(t *testing.T) {
	l := NewLatest()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Set(i%2, vehicle.Controls{Accelerate: true})
			_ = l.Controls(0)
		}(i)
	}
	wg.Wait()
	l.Set(5, vehicle.Controls{Brake: true})

	c := l.Controls(0)
	assert.True(t, c[0].Accelerate)
	assert.True(t, c[1].Accelerate)
	assert.False(t, c[0].Brake)
}

func TestIdleAndFunc(t *testing.T) {
	assert.Equal(t, [Players]vehicle.Controls{}, Idle{}.Controls(3))

	f := Func(func(tick uint64) [Players]vehicle.Controls {
		return [Players]vehicle.Controls{{Accelerate: tick%2 == 0}}
	})
	assert.True(t, f.Controls(2)[0].Accelerate)
	assert.False(t, f.Controls(3)[0].Accelerate)
}
