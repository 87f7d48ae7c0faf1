package utility

import (
	"fmt"
	"image/color"
)

// Rand is the subset of *math/rand.Rand used here.
type Rand interface {
	Intn(n int) int
}

// RandomColorHex returns a #rrggbb color with each channel in [4, 251].
func RandomColorHex(rng Rand) string {
	r := rng.Intn(248) + 4
	g := rng.Intn(248) + 4
	b := rng.Intn(248) + 4
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// ParseColorHex is the inverse of RandomColorHex. Anything it cannot read
// comes back as opaque gray along with an error.
func ParseColorHex(s string) (color.RGBA, error) {
	c := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("invalid color %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return c, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
