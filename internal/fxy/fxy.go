// Package fxy codes and decodes BUFR FXY descriptor identifiers.
//
// An FXY code packs three fields into 16 bits: F (2 bits, descriptor
// class), X (6 bits) and Y (8 bits). The textual form used by table and
// template files is the six-digit string "fxxyyy".
package fxy

import (
	"fmt"
)

// Code is a packed FXY descriptor identifier: F(2) | X(6) | Y(8).
type Code uint16

// Class identifies the descriptor kind encoded in F.
type Class int

const (
	ClassElement     Class = 0
	ClassReplication Class = 1
	ClassOperator    Class = 2
	ClassSequence    Class = 3
)

// New packs f, x and y into a Code. Callers are expected to pass values
// already within range (F: 0-3, X: 0-63, Y: 0-255); out-of-range bits
// are silently masked off, matching the wire format's fixed field widths.
func New(f, x, y int) Code {
	return Code((f&0x3)<<14 | (x&0x3f)<<8 | (y & 0xff))
}

// F returns the descriptor class field.
func (c Code) F() int { return int(c>>14) & 0x3 }

// X returns the X field.
func (c Code) X() int { return int(c>>8) & 0x3f }

// Y returns the Y field.
func (c Code) Y() int { return int(c) & 0xff }

// Class returns the descriptor class for this code.
func (c Code) Class() Class { return Class(c.F()) }

// String renders the code in its canonical six-digit "fxxyyy" form.
func (c Code) String() string {
	return fmt.Sprintf("%d%02d%03d", c.F(), c.X(), c.Y())
}

// Parse decodes a six-digit "fxxyyy" string into a Code.
func Parse(s string) (Code, error) {
	if len(s) != 6 {
		return 0, fmt.Errorf("fxy: invalid code %q: want 6 digits", s)
	}
	var f, x, y int
	if _, err := fmt.Sscanf(s[0:1], "%d", &f); err != nil {
		return 0, fmt.Errorf("fxy: invalid F field in %q: %w", s, err)
	}
	if _, err := fmt.Sscanf(s[1:3], "%d", &x); err != nil {
		return 0, fmt.Errorf("fxy: invalid X field in %q: %w", s, err)
	}
	if _, err := fmt.Sscanf(s[3:6], "%d", &y); err != nil {
		return 0, fmt.Errorf("fxy: invalid Y field in %q: %w", s, err)
	}
	return New(f, x, y), nil
}
