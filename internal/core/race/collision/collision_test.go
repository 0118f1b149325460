package collision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/racer/internal/core/race/vehicle"
	"github.com/zeusync/racer/internal/core/systems/physics"
)

func car(id string, x, y float64, v physics.Vec2) *vehicle.Car {
	c := vehicle.NewCar(id, physics.V(x, y), 0, vehicle.DefaultTuning())
	c.Velocity = v
	return c
}

func TestResolveHeadOn(t *testing.T) {
	// a sits to the right of b, so n = (1, 0)
	a := car("a", 120, 100, physics.V(5, 0))
	b := car("b", 100, 100, physics.V(-3, 0))

	res, ok := Resolve(a, b)
	require.True(t, ok)

	assert.True(t, res.Normal.Eq(physics.V(1, 0), 1e-12))
	assert.InDelta(t, 0.4*5+0.6*-3, res.AfterA, 1e-12)
	assert.InDelta(t, 0.4*-3+0.6*5, res.AfterB, 1e-12)
	assert.InDelta(t, 0.2, a.Speed, 1e-12)
	assert.InDelta(t, 1.8, b.Speed, 1e-12)
	assert.InDelta(t, 0.2, a.Velocity.X, 1e-12)
	assert.InDelta(t, 1.8, b.Velocity.X, 1e-12)
}

func TestResolveBlendWeights(t *testing.T) {
	a := car("a", 100, 110, physics.V(1, 4))
	b := car("b", 100, 100, physics.V(-2, -7))

	_, ok := Resolve(a, b)
	require.True(t, ok)

	// n = (0, 1): normal speeds are the y components, tangents are -x
	assert.InDelta(t, 0.4*4+0.6*-7, a.Velocity.Y, 1e-12)
	assert.InDelta(t, 0.4*-7+0.6*4, b.Velocity.Y, 1e-12)
	assert.InDelta(t, 1, a.Velocity.X, 1e-12, "tangential kept")
	assert.InDelta(t, -2, b.Velocity.X, 1e-12, "tangential kept")

	sumBefore := 4.0 + -7.0
	assert.InDelta(t, sumBefore, a.Velocity.Y+b.Velocity.Y, 1e-12)
}

func TestResolveSpeedIsNonNegative(t *testing.T) {
	a := car("a", 100, 100, physics.V(-10, 0))
	b := car("b", 110, 100, physics.V(-10, 0))
	a.Speed, b.Speed = -24, -24

	_, ok := Resolve(a, b)
	require.True(t, ok)
	assert.InDelta(t, 10, a.Speed, 1e-12)
	assert.InDelta(t, 10, b.Speed, 1e-12)
}

func TestResolveCoincidentCentres(t *testing.T) {
	a := car("a", 100, 100, physics.V(4, 1))
	b := car("b", 100, 100, physics.V(0, 0))

	res, ok := Resolve(a, b)
	require.True(t, ok)
	assert.Equal(t, physics.V(1, 0), res.Normal)
	assert.InDelta(t, 1.6, a.Velocity.X, 1e-12)
	assert.InDelta(t, 1, a.Velocity.Y, 1e-12)
	assert.InDelta(t, 2.4, b.Velocity.X, 1e-12)
}

func TestResolveNoOverlapIsNoOp(t *testing.T) {
	// 36 wide: centres exactly one width apart only touch
	a := car("a", 136, 100, physics.V(5, 0))
	b := car("b", 100, 100, physics.V(-3, 0))
	a.Speed, b.Speed = 5, -3

	_, ok := Resolve(a, b)
	assert.False(t, ok)
	assert.Equal(t, physics.V(5, 0), a.Velocity)
	assert.Equal(t, physics.V(-3, 0), b.Velocity)
	assert.Equal(t, -3.0, b.Speed)
}

func TestResolveLeavesPositionsAlone(t *testing.T) {
	a := car("a", 105, 100, physics.V(5, 0))
	b := car("b", 100, 100, physics.V(-3, 0))

	_, ok := Resolve(a, b)
	require.True(t, ok)
	assert.Equal(t, physics.V(105, 100), a.Position)
	assert.Equal(t, physics.V(100, 100), b.Position)
}
