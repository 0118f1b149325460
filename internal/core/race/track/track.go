// Package track holds the static race geometry: the drivable ring between an
// outer boundary and an inner island, plus the checkpoint band used for lap
// counting. A Track never changes after New returns.
package track

import (
	"fmt"
	"math"

	"github.com/zeusync/racer/internal/core/systems/physics"
)

// Config describes the track layout in screen units.
type Config struct {
	ScreenWidth  float64 `yaml:"screen_width"`
	ScreenHeight float64 `yaml:"screen_height"`
	Margin       float64 `yaml:"margin"`

	InnerWidth  float64 `yaml:"inner_width"`
	InnerHeight float64 `yaml:"inner_height"`

	CheckpointWidth  float64 `yaml:"checkpoint_width"`
	CheckpointHeight float64 `yaml:"checkpoint_height"`
	CheckpointInset  float64 `yaml:"checkpoint_inset"`

	// ClampMargin is the minimum distance a car keeps from the screen edges.
	ClampMargin float64 `yaml:"clamp_margin"`

	GridOffsetX float64 `yaml:"grid_offset_x"`
	GridOffsetY float64 `yaml:"grid_offset_y"`
}

// DefaultConfig returns the stock 1000x700 layout.
func DefaultConfig() Config {
	return Config{
		ScreenWidth:      1000,
		ScreenHeight:     700,
		Margin:           60,
		InnerWidth:       220,
		InnerHeight:      140,
		CheckpointWidth:  60,
		CheckpointHeight: 6,
		CheckpointInset:  6,
		ClampMargin:      20,
		GridOffsetX:      80,
		GridOffsetY:      100,
	}
}

// Pose is a start position and heading.
type Pose struct {
	Position    physics.Vec2
	Orientation float64
}

// Track is the immutable race geometry.
type Track struct {
	Screen     physics.Rect
	Outer      physics.Rect
	Inner      physics.Rect
	Checkpoint physics.Rect

	clampMargin float64
	grid        [2]Pose
}

// New builds a Track from cfg.
func New(cfg Config) (*Track, error) {
	if cfg.ScreenWidth <= 0 || cfg.ScreenHeight <= 0 {
		return nil, fmt.Errorf("%w: screen %vx%v", ErrInvalidTrack, cfg.ScreenWidth, cfg.ScreenHeight)
	}
	if cfg.ClampMargin < 0 || 2*cfg.ClampMargin >= math.Min(cfg.ScreenWidth, cfg.ScreenHeight) {
		return nil, fmt.Errorf("%w: clamp margin %v", ErrInvalidTrack, cfg.ClampMargin)
	}

	screen := physics.Rect{W: cfg.ScreenWidth, H: cfg.ScreenHeight}
	outer := physics.Rect{
		X: cfg.Margin,
		Y: cfg.Margin,
		W: cfg.ScreenWidth - 2*cfg.Margin,
		H: cfg.ScreenHeight - 2*cfg.Margin,
	}
	if outer.Empty() {
		return nil, fmt.Errorf("%w: margin %v leaves no track", ErrInvalidTrack, cfg.Margin)
	}

	cx, cy := centerX(outer), centerY(outer)
	inner := physics.Rect{
		X: cx - math.Floor(cfg.InnerWidth/2),
		Y: cy - math.Floor(cfg.InnerHeight/2),
		W: cfg.InnerWidth,
		H: cfg.InnerHeight,
	}
	// strict: the island must leave road on every side
	if inner.Empty() || inner.Left() <= outer.Left() || inner.Right() >= outer.Right() ||
		inner.Top() <= outer.Top() || inner.Bottom() >= outer.Bottom() {
		return nil, fmt.Errorf("%w: inner island %+v not strictly inside %+v", ErrInvalidTrack, inner, outer)
	}

	checkpoint := physics.Rect{
		X: cx - math.Floor(cfg.CheckpointWidth/2),
		Y: outer.Top() + cfg.CheckpointInset,
		W: cfg.CheckpointWidth,
		H: cfg.CheckpointHeight,
	}
	if checkpoint.Empty() || !outer.ContainsRect(checkpoint) || checkpoint.Bottom() > inner.Top() {
		return nil, fmt.Errorf("%w: checkpoint %+v outside the top straight", ErrInvalidTrack, checkpoint)
	}

	t := &Track{
		Screen:      screen,
		Outer:       outer,
		Inner:       inner,
		Checkpoint:  checkpoint,
		clampMargin: cfg.ClampMargin,
	}
	gridY := outer.Top() + cfg.GridOffsetY
	t.grid[0] = Pose{Position: physics.V(cx-cfg.GridOffsetX, gridY), Orientation: math.Pi / 2}
	t.grid[1] = Pose{Position: physics.V(cx+cfg.GridOffsetX, gridY), Orientation: math.Pi / 2}
	for i, p := range t.grid {
		if !t.IsDrivable(p.Position) {
			return nil, fmt.Errorf("%w: grid slot %d at %+v is off track", ErrInvalidTrack, i, p.Position)
		}
	}
	return t, nil
}

// Default returns the stock track. It panics only if DefaultConfig is broken.
func Default() *Track {
	t, err := New(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return t
}

// IsDrivable reports whether p is on the road: inside the outer boundary and
// outside the inner island.
func (t *Track) IsDrivable(p physics.Vec2) bool {
	return t.Outer.Contains(p) && !t.Inner.Contains(p)
}

// CrossesCheckpoint reports whether the move prev -> curr passes up through
// the checkpoint line (the band's bottom edge). Either endpoint within the
// band's x-range qualifies; moving down through the line never counts.
func (t *Track) CrossesCheckpoint(prev, curr physics.Vec2) bool {
	cp := t.Checkpoint
	inRange := func(x float64) bool { return cp.Left() <= x && x <= cp.Right() }
	if !inRange(prev.X) && !inRange(curr.X) {
		return false
	}
	return prev.Y > cp.Bottom() && curr.Y <= cp.Bottom()
}

// ClampToScreen keeps p at least the clamp margin away from every screen edge.
func (t *Track) ClampToScreen(p physics.Vec2) physics.Vec2 {
	return t.Screen.Inset(t.clampMargin).ClampPoint(p)
}

// Grid returns the start pose for player slot i (0 or 1).
func (t *Track) Grid(i int) Pose {
	return t.grid[i]
}

func centerX(r physics.Rect) float64 { return r.X + math.Floor(r.W/2) }
func centerY(r physics.Rect) float64 { return r.Y + math.Floor(r.H/2) }
