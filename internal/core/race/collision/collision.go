// Package collision resolves bumps between two cars with a cheap momentum
// blend along the line joining their centres. Mass, spin and interpenetration
// are ignored: overlapping cars are not pushed apart and may stay overlapped
// for a few ticks.
package collision

import (
	"github.com/zeusync/racer/internal/core/race/vehicle"
	"github.com/zeusync/racer/internal/core/systems/physics"
)

// Exchange is the share of normal-relative speed each car takes from the
// other. It is a tuned feel constant.
const Exchange = 0.6

// coincident is the normal used when both centres sit on the same point.
var coincident = physics.V(1, 0)

// Result describes a resolved contact.
type Result struct {
	Normal         physics.Vec2
	BeforeA        float64
	BeforeB        float64
	AfterA, AfterB float64
}

// Resolve blends the normal velocity components of a and b if their boxes
// overlap. Tangential components are kept. Speed on both cars becomes the
// magnitude of the new velocity, so it is never negative afterwards.
func Resolve(a, b *vehicle.Car) (Result, bool) {
	if !a.Rect().Overlaps(b.Rect()) {
		return Result{}, false
	}

	n, _ := a.Position.Sub(b.Position).Normalize(coincident)
	tangent := n.Perp()

	va, vb := a.Velocity.Dot(n), b.Velocity.Dot(n)
	ta, tb := a.Velocity.Dot(tangent), b.Velocity.Dot(tangent)

	newVa := va*(1-Exchange) + vb*Exchange
	newVb := vb*(1-Exchange) + va*Exchange

	a.Velocity = n.Scale(newVa).Add(tangent.Scale(ta))
	b.Velocity = n.Scale(newVb).Add(tangent.Scale(tb))
	a.Speed = a.Velocity.Len()
	b.Speed = b.Velocity.Len()

	return Result{Normal: n, BeforeA: va, BeforeB: vb, AfterA: newVa, AfterB: newVb}, true
}
