package fxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := rapid.IntRange(0, 3).Draw(t, "f")
		x := rapid.IntRange(0, 63).Draw(t, "x")
		y := rapid.IntRange(0, 255).Draw(t, "y")

		code := New(f, x, y)
		assert.Equalf(t, f, code.F(), "F() for New(%d,%d,%d)", f, x, y)
		assert.Equalf(t, x, code.X(), "X() for New(%d,%d,%d)", f, x, y)
		assert.Equalf(t, y, code.Y(), "Y() for New(%d,%d,%d)", f, x, y)

		s := code.String()
		parsed, err := Parse(s)
		assert.NoErrorf(t, err, "Parse(%q)", s)
		assert.Equal(t, code, parsed, "Parse(String(code)) should round-trip")
	})
}

func TestParseKnown(t *testing.T) {
	cases := []struct {
		s       string
		f, x, y int
	}{
		{"001007", 0, 1, 7},
		{"031001", 0, 31, 1},
		{"101000", 1, 1, 0},
		{"222000", 2, 22, 0},
		{"308001", 3, 8, 1},
	}
	for _, c := range cases {
		code, err := Parse(c.s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.s, err)
		}
		assert.Equalf(t, c.f, code.F(), "F() for %q", c.s)
		assert.Equalf(t, c.x, code.X(), "X() for %q", c.s)
		assert.Equalf(t, c.y, code.Y(), "Y() for %q", c.s)
		assert.Equal(t, c.s, code.String())
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "1234", "1234567", "abcdef"} {
		_, err := Parse(s)
		assert.Errorf(t, err, "Parse(%q): expected error", s)
	}
}
