// Package bufr decodes WMO FM 94 BUFR binary meteorological messages: the
// six fixed sections (0-5), a message's descriptor sequence resolved
// against either a loaded B/D-table or a fixed SAFNWC template, and the
// recursive value tree packed into §4.
package bufr

import (
	"fmt"
	"io"

	"github.com/tazle/gobufr/internal/bitio"
	"github.com/tazle/gobufr/internal/descriptor"
	"github.com/tazle/gobufr/internal/framing"
	"github.com/tazle/gobufr/internal/table"
)

// Message is a fully decoded BUFR message: its framing sections, the
// resolved descriptor sequence §3 named, and the §4 value tree those
// descriptors produced.
type Message struct {
	Section0 framing.Section0
	Section1 framing.Section1
	Section2 *framing.Section2 // nil unless Section1.OptionalSection != 0
	Section3 framing.Section3

	Descriptors []descriptor.Descriptor
	Values      []interface{}
}

// Decode reads one BUFR message from r, resolving its §3 descriptor codes
// against t.
func Decode(r io.Reader, t *table.Table) (*Message, error) {
	byteR := bitio.NewReader(r)

	sec0, sec1, sec2, sec3, err := decodeHeader(byteR)
	if err != nil {
		return nil, err
	}

	descriptors := make([]descriptor.Descriptor, len(sec3.Codes))
	for i, code := range sec3.Codes {
		d, err := t.Get(code)
		if err != nil {
			return nil, fmt.Errorf("bufr: resolving section 3 descriptor %s: %w", code, err)
		}
		descriptors[i] = d
	}

	return finishDecode(byteR, sec0, sec1, sec2, sec3, descriptors)
}

// DecodeTemplate reads one BUFR message from r whose §3 descriptor codes
// are expected to match tmpl exactly, position by position, as SAFNWC
// fixed templates require (they carry no B-table, so there is nothing
// else to resolve against).
func DecodeTemplate(r io.Reader, tmpl table.Template) (*Message, error) {
	byteR := bitio.NewReader(r)

	sec0, sec1, sec2, sec3, err := decodeHeader(byteR)
	if err != nil {
		return nil, err
	}

	descriptors, err := tmpl.Match(sec3.Codes)
	if err != nil {
		return nil, err
	}

	return finishDecode(byteR, sec0, sec1, sec2, sec3, descriptors)
}

// decodeHeader reads §0 through §3, the portion of a message that is
// identical regardless of how §3's descriptor codes get resolved.
func decodeHeader(byteR *bitio.Reader) (framing.Section0, framing.Section1, *framing.Section2, framing.Section3, error) {
	sec0, err := framing.DecodeSection0(byteR)
	if err != nil {
		return framing.Section0{}, framing.Section1{}, nil, framing.Section3{}, err
	}
	sec1, err := framing.DecodeSection1(byteR, sec0.Edition)
	if err != nil {
		return framing.Section0{}, framing.Section1{}, nil, framing.Section3{}, err
	}
	var sec2 *framing.Section2
	if sec1.OptionalSection != 0 {
		s2, err := framing.DecodeSection2(byteR)
		if err != nil {
			return framing.Section0{}, framing.Section1{}, nil, framing.Section3{}, err
		}
		sec2 = &s2
	}
	sec3, err := framing.DecodeSection3Codes(byteR)
	if err != nil {
		return framing.Section0{}, framing.Section1{}, nil, framing.Section3{}, err
	}
	return sec0, sec1, sec2, sec3, nil
}

// finishDecode reads §4 and §5 and runs the value decoder against
// descriptors, the already-resolved §3 descriptor sequence.
func finishDecode(byteR *bitio.Reader, sec0 framing.Section0, sec1 framing.Section1, sec2 *framing.Section2, sec3 framing.Section3, descriptors []descriptor.Descriptor) (*Message, error) {
	sec4, err := framing.DecodeSection4(byteR)
	if err != nil {
		return nil, err
	}
	if err := framing.DecodeSection5(byteR); err != nil {
		return nil, err
	}

	values, err := decodeValues(bitio.NewBitReader(sec4.Payload), descriptors)
	if err != nil {
		return nil, err
	}

	return &Message{
		Section0:    sec0,
		Section1:    sec1,
		Section2:    sec2,
		Section3:    sec3,
		Descriptors: descriptors,
		Values:      values,
	}, nil
}
