package bufr

import (
	"errors"
	"fmt"

	"github.com/tazle/gobufr/internal/bitio"
	"github.com/tazle/gobufr/internal/descriptor"
)

// ErrOperatorNotImplemented is returned when a §4 payload contains an
// operator descriptor. Operators are recognised by the table loader but
// never executed; see the package Non-goals.
var ErrOperatorNotImplemented = errors.New("bufr: operator descriptors are not implemented")

// ErrUnknownDescriptorVariant is returned if a Descriptor implementation
// other than Element, Replication, Operator or Sequence reaches the value
// decoder.
var ErrUnknownDescriptorVariant = errors.New("bufr: unknown descriptor variant")

// cursor is a forward-only, index-based view over a descriptor slice. It
// plays the role the Python original gives a shared `itertools.islice`
// iterator — consuming descriptors as replication and delayed-count
// reads advance past them — without an external stateful iterator type.
type cursor struct {
	descriptors []descriptor.Descriptor
	i           int
}

func (c *cursor) next() (descriptor.Descriptor, bool) {
	if c.i >= len(c.descriptors) {
		return nil, false
	}
	d := c.descriptors[c.i]
	c.i++
	return d, true
}

func (c *cursor) take(n int) []descriptor.Descriptor {
	end := c.i + n
	if end > len(c.descriptors) {
		end = len(c.descriptors)
	}
	block := c.descriptors[c.i:end]
	c.i = end
	return block
}

// decodeValues is the recursive §4.5 value decoder. It walks descriptors
// against bits, producing one entry per Element or Replication group,
// splicing Sequence children flat into the same output list.
func decodeValues(bits *bitio.BitReader, descriptors []descriptor.Descriptor) ([]interface{}, error) {
	c := &cursor{descriptors: descriptors}
	var out []interface{}
	for {
		d, ok := c.next()
		if !ok {
			break
		}
		switch dd := d.(type) {
		case descriptor.Element:
			v, err := decodeRawElement(bits, dd)
			if err != nil {
				return nil, err
			}
			out = append(out, v)

		case descriptor.Sequence:
			start := bits.Pos()
			children, err := decodeValues(bits, dd.Children)
			if err != nil {
				return nil, fmt.Errorf("bufr: sequence %s: %w", dd.Code(), err)
			}
			if !sequenceHasDynamicWidth(dd) {
				if consumed := bits.Pos() - start; consumed != dd.BitLength() {
					return nil, fmt.Errorf("bufr: sequence %s: consumed %d bits, declared length is %d", dd.Code(), consumed, dd.BitLength())
				}
			}
			out = append(out, children...)

		case descriptor.Replication:
			agg, err := decodeReplication(bits, c, dd)
			if err != nil {
				return nil, err
			}
			out = append(out, agg)

		case descriptor.Operator:
			return nil, fmt.Errorf("%w: %s", ErrOperatorNotImplemented, dd.Code())

		default:
			return nil, fmt.Errorf("%w: %T", ErrUnknownDescriptorVariant, d)
		}
	}
	return out, nil
}

func decodeReplication(bits *bitio.BitReader, c *cursor, d descriptor.Replication) ([]interface{}, error) {
	count := d.Count
	if d.Delayed() {
		countDescriptor, ok := c.next()
		if !ok {
			return nil, fmt.Errorf("bufr: delayed replication %s: missing count descriptor", d.Code())
		}
		n, err := decodeDelayedCount(bits, countDescriptor)
		if err != nil {
			return nil, fmt.Errorf("bufr: delayed replication %s: %w", d.Code(), err)
		}
		count = n
	}

	block := c.take(d.Fields)
	aggregation := make([]interface{}, 0, count)
	for n := 0; n < count; n++ {
		values, err := decodeValues(bits, block)
		if err != nil {
			return nil, fmt.Errorf("bufr: replication %s, repeat %d/%d: %w", d.Code(), n+1, count, err)
		}
		aggregation = append(aggregation, values)
	}
	return aggregation, nil
}

// decodeDelayedCount decodes the single descriptor that carries a delayed
// replication's repeat count and returns it as a non-negative int.
func decodeDelayedCount(bits *bitio.BitReader, d descriptor.Descriptor) (int, error) {
	el, ok := d.(descriptor.Element)
	if !ok {
		return 0, fmt.Errorf("delayed count descriptor %s is not an element", d.Code())
	}
	v, err := decodeRawElement(bits, el)
	if err != nil {
		return 0, err
	}
	n, ok := v.Value.(float64)
	if !ok {
		return 0, fmt.Errorf("delayed count element %s decoded to %T, want numeric", el.Code(), v.Value)
	}
	if n < 0 {
		return 0, fmt.Errorf("delayed count element %s decoded to negative value %v", el.Code(), n)
	}
	return int(n), nil
}

// sequenceHasDynamicWidth reports whether any descriptor reachable from s
// (including s itself) is a Replication or Operator, whose width is only
// known at decode time (or not a data width at all). Sequence.BitLength
// counts such descriptors as zero, so it only bounds actual bit
// consumption when none are present.
func sequenceHasDynamicWidth(s descriptor.Sequence) bool {
	for _, child := range s.Children {
		switch c := child.(type) {
		case descriptor.Replication, descriptor.Operator:
			return true
		case descriptor.Sequence:
			if sequenceHasDynamicWidth(c) {
				return true
			}
		}
	}
	return false
}

// decodeRawElement reads el's raw bits from the stream and applies the
// element-decoding rule.
func decodeRawElement(bits *bitio.BitReader, el descriptor.Element) (BufrValue, error) {
	var raw interface{}
	var err error
	if el.IsText() {
		raw, err = bits.ReadHex(el.Length)
	} else {
		raw, err = bits.ReadUint(el.Length)
	}
	if err != nil {
		return BufrValue{}, fmt.Errorf("bufr: reading element %s (%d bits): %w", el.Code(), el.Length, err)
	}
	return decodeElement(raw, el)
}
