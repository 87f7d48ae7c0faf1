package utility

import (
	"math/rand"
	"regexp"
	"strconv"
	"testing"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestRandomColorHex(t *testing.T) {
	hexPattern := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	rng := newRand()

	for i := 0; i < 100; i++ {
		color := RandomColorHex(rng)
		if !hexPattern.MatchString(color) {
			t.Errorf("RandomColorHex() = %q, want matching #rrggbb pattern", color)
		}
	}
}

func TestRandomColorHex_NotTooExtreme(t *testing.T) {
	// Colors should have each RGB component between 4 and 251
	rng := newRand()
	for i := 0; i < 100; i++ {
		color := RandomColorHex(rng)
		if len(color) != 7 {
			t.Fatalf("expected length 7, got %d for %q", len(color), color)
		}
		for c := 1; c < 7; c += 2 {
			v, err := strconv.ParseUint(color[c:c+2], 16, 8)
			if err != nil {
				t.Fatalf("parse %q: %v", color, err)
			}
			if v < 4 || v > 251 {
				t.Errorf("channel %d of %q = %d, want within [4, 251]", c/2, color, v)
			}
		}
	}
}

func TestRandomColorHex_Deterministic(t *testing.T) {
	a := RandomColorHex(rand.New(rand.NewSource(7)))
	b := RandomColorHex(rand.New(rand.NewSource(7)))
	if a != b {
		t.Errorf("same seed gave %q and %q", a, b)
	}
}

func TestRandomColorHex_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	dupes := 0
	rng := newRand()
	for i := 0; i < 100; i++ {
		c := RandomColorHex(rng)
		if seen[c] {
			dupes++
		}
		seen[c] = true
	}
	// With 248^3 ≈ 15M possibilities, 100 samples should have essentially no dupes
	if dupes > 5 {
		t.Errorf("too many duplicate colors: %d out of 100", dupes)
	}
}

func TestParseColorHex(t *testing.T) {
	c, err := ParseColorHex("#0a10ff")
	if err != nil {
		t.Fatal(err)
	}
	if c.R != 0x0a || c.G != 0x10 || c.B != 0xff || c.A != 255 {
		t.Errorf("ParseColorHex = %+v, want {10 16 255 255}", c)
	}
}

func TestParseColorHex_RoundTrip(t *testing.T) {
	rng := newRand()
	for i := 0; i < 20; i++ {
		hex := RandomColorHex(rng)
		if _, err := ParseColorHex(hex); err != nil {
			t.Errorf("ParseColorHex(%q) error: %v", hex, err)
		}
	}
}

func TestParseColorHex_Invalid(t *testing.T) {
	for _, s := range []string{"", "123456", "#12345", "#zzzzzz"} {
		c, err := ParseColorHex(s)
		if err == nil {
			t.Errorf("ParseColorHex(%q) should fail", s)
		}
		if c.A != 255 {
			t.Errorf("ParseColorHex(%q) fallback alpha = %d, want 255", s, c.A)
		}
	}
}
