package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec2Basics(t *testing.T) {
	a := V(3, 4)
	assert.Equal(t, 5.0, a.Len())
	assert.Equal(t, V(4, 6), a.Add(V(1, 2)))
	assert.Equal(t, V(2, 2), a.Sub(V(1, 2)))
	assert.Equal(t, V(6, 8), a.Scale(2))
	assert.Equal(t, 11.0, a.Dot(V(1, 2)))
}

func TestPerpIsRightHandAxis(t *testing.T) {
	// facing +x on screen, the right-hand side is +y (down)
	assert.True(t, FromAngle(0).Perp().Eq(V(0, 1), 1e-12))
	assert.True(t, FromAngle(math.Pi/2).Perp().Eq(V(-1, 0), 1e-12))
}

func TestNormalizeFallback(t *testing.T) {
	n, l := V(0, 0).Normalize(V(1, 0))
	assert.Equal(t, V(1, 0), n)
	assert.Zero(t, l)

	n, l = V(0, -2).Normalize(V(1, 0))
	assert.Equal(t, V(0, -1), n)
	assert.Equal(t, 2.0, l)
}

func TestRectContainsIsHalfOpen(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 10, H: 5}
	assert.True(t, r.Contains(V(10, 10)))
	assert.True(t, r.Contains(V(19.9, 14.9)))
	assert.False(t, r.Contains(V(20, 12)))
	assert.False(t, r.Contains(V(12, 15)))
	assert.False(t, r.Contains(V(9.9, 12)))
}

func TestRectOverlaps(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	assert.True(t, a.Overlaps(Rect{X: 5, Y: 5, W: 10, H: 10}))
	assert.False(t, a.Overlaps(Rect{X: 10, Y: 0, W: 10, H: 10}), "touching edges")
	assert.False(t, a.Overlaps(Rect{X: 2, Y: 2, W: 0, H: 3}), "empty rect")
	assert.True(t, a.Overlaps(Rect{X: 2, Y: 2, W: 1, H: 1}), "contained")
}

func TestRectHelpers(t *testing.T) {
	r := CenteredRect(V(50, 40), 20, 10)
	assert.Equal(t, Rect{X: 40, Y: 35, W: 20, H: 10}, r)
	assert.Equal(t, V(50, 40), r.Center())
	assert.Equal(t, Rect{X: 42, Y: 37, W: 16, H: 6}, r.Inset(2))
	assert.True(t, r.ContainsRect(r.Inset(2)))
	assert.False(t, r.Inset(2).ContainsRect(r))
	assert.Equal(t, V(40, 45), r.ClampPoint(V(0, 100)))
	assert.Equal(t, 3.0, Clamp(7, 1, 3))
	assert.Equal(t, 1.0, Clamp(-7, 1, 3))
}
