// Package descriptor implements the BUFR descriptor model: a tagged union
// over element, replication, operator and sequence descriptors.
//
// Dispatch on a Descriptor is a type switch (pattern match), not a virtual
// call — the variants carry no behaviour, only the fields the value
// decoder needs.
package descriptor

import "github.com/tazle/gobufr/internal/fxy"

// Descriptor is the common interface implemented by Element, Replication,
// Operator and Sequence. It carries no decoding behaviour; callers type
// switch on the concrete type to interpret a descriptor.
type Descriptor interface {
	// Code returns the FXY identifier of this descriptor.
	Code() fxy.Code

	descriptor()
}

// Element describes one scalar datum: its bit width, scale, reference
// value and unit. Unit "CCITTIA5" marks textual encoding; every other
// unit is numeric.
type Element struct {
	CodeVal      fxy.Code
	Length       int // bit width
	Scale        int
	Ref          int
	Significance string // ≤64 chars
	Unit         string // ≤24 chars
}

func (e Element) Code() fxy.Code { return e.CodeVal }
func (Element) descriptor()      {}

// IsText reports whether this element decodes to a string rather than a
// number.
func (e Element) IsText() bool { return e.Unit == "CCITTIA5" }

// MissingRaw returns the raw bit pattern (all ones) that signals a missing
// value for this element's bit width.
func (e Element) MissingRaw() uint64 {
	return (uint64(1) << uint(e.Length)) - 1
}

// Replication describes a group of Fields following descriptors that
// repeats Count times, or, when Count is 0, a delayed replication whose
// count is read from the next decoded element in the stream.
type Replication struct {
	CodeVal fxy.Code
	Fields  int // X: number of following descriptors in the group
	Count   int // Y: static count, or 0 for delayed replication
}

func (r Replication) Code() fxy.Code { return r.CodeVal }
func (Replication) descriptor()      {}

// Delayed reports whether this replication's count must be read from the
// stream rather than being fixed at table-load time.
func (r Replication) Delayed() bool { return r.Count == 0 }

// Operator describes a modifier affecting subsequent decoding. Recognised
// but never executed — see package-level Non-goals.
type Operator struct {
	CodeVal   fxy.Code
	Operation int // X
	Operand   int // Y
}

func (o Operator) Code() fxy.Code { return o.CodeVal }
func (Operator) descriptor()      {}

// Sequence is a named, fixed-order tuple of child descriptors, resolved
// once at table-load time into an owned, acyclic slice.
type Sequence struct {
	CodeVal  fxy.Code
	Children []Descriptor
}

func (s Sequence) Code() fxy.Code { return s.CodeVal }
func (Sequence) descriptor()      {}

// BitLength returns the total bit length of a sequence, summing its
// children recursively. Replication and operator descriptors contribute
// zero — their width is only known at decode time (replication) or is
// not a data width at all (operator).
func (s Sequence) BitLength() int {
	total := 0
	for _, child := range s.Children {
		switch c := child.(type) {
		case Element:
			total += c.Length
		case Sequence:
			total += c.BitLength()
		}
	}
	return total
}
