package bufr

import (
	"errors"
	"testing"

	"github.com/tazle/gobufr/internal/bitio"
	"github.com/tazle/gobufr/internal/descriptor"
	"github.com/tazle/gobufr/internal/fxy"
)

// bitPacker builds a byte slice by appending fixed-width big-endian,
// MSB-first fields, mirroring bitio.BitReader's read order.
type bitPacker struct {
	bits []bool
}

func (p *bitPacker) put(width int, v uint64) {
	for i := width - 1; i >= 0; i-- {
		p.bits = append(p.bits, (v>>uint(i))&1 == 1)
	}
}

func (p *bitPacker) bytes() []byte {
	n := (len(p.bits) + 7) / 8
	out := make([]byte, n)
	for i, b := range p.bits {
		if b {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func elem(code string, length, scale, ref int, unit string) descriptor.Element {
	c, err := fxy.Parse(code)
	if err != nil {
		panic(err)
	}
	return descriptor.Element{CodeVal: c, Length: length, Scale: scale, Ref: ref, Significance: "test", Unit: unit}
}

func TestDecodeValuesElement(t *testing.T) {
	el := elem("001001", 8, 0, 0, "NUMERIC")
	var p bitPacker
	p.put(8, 5)
	values, err := decodeValues(bitio.NewBitReader(p.bytes()), []descriptor.Descriptor{el})
	if err != nil {
		t.Fatalf("decodeValues: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("values = %d, want 1", len(values))
	}
	bv := values[0].(BufrValue)
	if bv.Value.(float64) != 5 {
		t.Fatalf("Value = %v, want 5", bv.Value)
	}
}

func TestDecodeValuesMissing(t *testing.T) {
	el := elem("001001", 4, 0, 0, "NUMERIC")
	var p bitPacker
	p.put(4, 0xF) // all-ones: missing
	values, err := decodeValues(bitio.NewBitReader(p.bytes()), []descriptor.Descriptor{el})
	if err != nil {
		t.Fatalf("decodeValues: %v", err)
	}
	bv := values[0].(BufrValue)
	if _, ok := bv.Value.(Missing); !ok {
		t.Fatalf("Value = %v (%T), want Missing", bv.Value, bv.Value)
	}
}

func TestDecodeValuesScaleAndRef(t *testing.T) {
	// scale=1, ref=-10: value = 10^-1 * (raw + ref)
	el := elem("001001", 8, 1, -10, "NUMERIC")
	var p bitPacker
	p.put(8, 20) // raw=20 -> (20-10)*0.1 = 1.0
	values, err := decodeValues(bitio.NewBitReader(p.bytes()), []descriptor.Descriptor{el})
	if err != nil {
		t.Fatalf("decodeValues: %v", err)
	}
	bv := values[0].(BufrValue)
	if got := bv.Value.(float64); got < 0.999 || got > 1.001 {
		t.Fatalf("Value = %v, want ~1.0", got)
	}
}

func TestDecodeValuesTextElement(t *testing.T) {
	el := elem("001019", 24, 0, 0, "CCITTIA5") // 3 bytes: "abc"
	var p bitPacker
	p.put(8, 'a')
	p.put(8, 'b')
	p.put(8, 'c')
	values, err := decodeValues(bitio.NewBitReader(p.bytes()), []descriptor.Descriptor{el})
	if err != nil {
		t.Fatalf("decodeValues: %v", err)
	}
	bv := values[0].(BufrValue)
	if bv.Value.(string) != "abc" {
		t.Fatalf("Value = %q, want abc", bv.Value)
	}
}

func TestDecodeValuesStaticReplication(t *testing.T) {
	field := elem("001001", 8, 0, 0, "NUMERIC")
	repCode, _ := fxy.Parse("101002") // F=1, X=1 field, Y=2 repeats
	rep := descriptor.Replication{CodeVal: repCode, Fields: 1, Count: 2}

	var p bitPacker
	p.put(8, 11)
	p.put(8, 22)
	values, err := decodeValues(bitio.NewBitReader(p.bytes()), []descriptor.Descriptor{rep, field})
	if err != nil {
		t.Fatalf("decodeValues: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("values = %d, want 1 (the aggregation)", len(values))
	}
	agg := values[0].([]interface{})
	if len(agg) != 2 {
		t.Fatalf("aggregation = %d, want 2", len(agg))
	}
	first := agg[0].([]interface{})[0].(BufrValue)
	second := agg[1].([]interface{})[0].(BufrValue)
	if first.Value.(float64) != 11 || second.Value.(float64) != 22 {
		t.Fatalf("agg values = %v, %v", first.Value, second.Value)
	}
}

func TestDecodeValuesDelayedReplication(t *testing.T) {
	count := elem("031001", 8, 0, 0, "NUMERIC")
	field := elem("001001", 8, 0, 0, "NUMERIC")
	repCode, _ := fxy.Parse("101000") // Y=0: delayed
	rep := descriptor.Replication{CodeVal: repCode, Fields: 1, Count: 0}

	var p bitPacker
	p.put(8, 3) // count = 3
	p.put(8, 1)
	p.put(8, 2)
	p.put(8, 3)
	values, err := decodeValues(bitio.NewBitReader(p.bytes()), []descriptor.Descriptor{rep, count, field})
	if err != nil {
		t.Fatalf("decodeValues: %v", err)
	}
	agg := values[0].([]interface{})
	if len(agg) != 3 {
		t.Fatalf("aggregation = %d, want 3", len(agg))
	}
}

func TestDecodeValuesSequenceSplicesFlat(t *testing.T) {
	a := elem("001001", 8, 0, 0, "NUMERIC")
	b := elem("001002", 8, 0, 0, "NUMERIC")
	seqCode, _ := fxy.Parse("301001")
	seq := descriptor.Sequence{CodeVal: seqCode, Children: []descriptor.Descriptor{a, b}}

	var p bitPacker
	p.put(8, 7)
	p.put(8, 9)
	values, err := decodeValues(bitio.NewBitReader(p.bytes()), []descriptor.Descriptor{seq})
	if err != nil {
		t.Fatalf("decodeValues: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("values = %d, want 2 (spliced flat)", len(values))
	}
	if values[0].(BufrValue).Value.(float64) != 7 || values[1].(BufrValue).Value.(float64) != 9 {
		t.Fatalf("values = %v", values)
	}
}

func TestDecodeValuesOperatorNotImplemented(t *testing.T) {
	opCode, _ := fxy.Parse("201000")
	op := descriptor.Operator{CodeVal: opCode, Operation: 1, Operand: 0}
	_, err := decodeValues(bitio.NewBitReader(nil), []descriptor.Descriptor{op})
	if !errors.Is(err, ErrOperatorNotImplemented) {
		t.Fatalf("decodeValues: want ErrOperatorNotImplemented, got %v", err)
	}
}
