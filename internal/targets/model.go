package targets

import (
	"errors"
	"math"
)

const (
	// Radius is shared by every target. A target is drawn as a circle of
	// diameter Radius inside a Radius x Radius box anchored at (X, Y).
	Radius = 30
	// Speed bounds the per-axis displacement of one motion step.
	Speed = 4

	DefaultWidth      = 800
	DefaultHeight     = 600
	DefaultControlBar = 35
)

var ErrInvalidBounds = errors.New("play area too small for a target")

// Rand is the random source targets draw from. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Bounds is the play area. Top is the height of the control bar; targets
// never move above it.
type Bounds struct {
	Width  int
	Height int
	Top    int
}

func DefaultBounds() Bounds {
	return Bounds{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Top:    DefaultControlBar,
	}
}

func (b Bounds) Validate() error {
	if b.Top < 0 || b.Width <= Radius || b.Height-Radius-b.Top <= 0 {
		return ErrInvalidBounds
	}
	return nil
}

// Clamp pins a top-left corner inside the play area.
func (b Bounds) Clamp(x, y int) (int, int) {
	x = max(x, 0)
	y = max(y, b.Top)
	x = min(x, b.Width-Radius)
	y = min(y, b.Height-Radius)
	return x, y
}

type Target struct {
	ID    int
	X     int
	Y     int
	XBias int
	YBias int
	Color string
}

// Center returns the circle center used for both drawing and collisions.
func (t Target) Center() (int, int) {
	return t.X + Radius/2, t.Y + Radius/2
}

// CheckCollision reports whether a circle anchored at (x, y) overlaps this
// target. Both circles count as Radius wide, so a click point hits anything
// whose center is less than Radius away.
func (t Target) CheckCollision(x, y int) bool {
	dx := float64(t.X + Radius/2 - (x + Radius/2))
	dy := float64(t.Y + Radius/2 - (y + Radius/2))
	return math.Hypot(dx, dy) < Radius
}

// Move applies one random-walk step and clamps the result to b. The bias
// fields do not take part.
func (t *Target) Move(rng Rand, b Bounds) {
	t.X += rng.Intn(2*Speed+1) - Speed
	t.Y += rng.Intn(2*Speed+1) - Speed
	t.X, t.Y = b.Clamp(t.X, t.Y)
}

func randomBias(rng Rand) int {
	if rng.Intn(2) == 0 {
		return -1
	}
	return 1
}
