package bufr

import (
	"encoding/json"
	"fmt"

	"github.com/tazle/gobufr/internal/descriptor"
	"github.com/tazle/gobufr/internal/fxy"
)

// jsonEnvelope is the on-wire shape of ToJSON/FromJSON: a flat table of the
// element descriptors the value tree actually references, plus the value
// tree itself with each leaf pointing back into that table by index.
//
// Only Element descriptors are ever indexed. Replication and Sequence
// descriptors shape the tree (nested arrays, repeat groups) but are never
// themselves a leaf's descriptor, and an Operator makes the value decoder
// fail before any tree is produced — so a table entry for them would never
// be referenced by anything and FromJSON would have no use for it. This departs from the
// original decoder, whose descriptor table is the raw §3 list (every
// variant, flattened one level); that scheme cannot express the eagerly
// resolved Sequence descriptors this package's table loader produces,
// since their element children only ever surface two or more levels deep.
// Indexing exactly what leaves reference keeps the round trip total
// regardless of how deep Sequences nest.
type jsonEnvelope struct {
	Descriptors [][6]interface{} `json:"descriptors"`
	Data        []interface{}    `json:"data"`
}

// ToJSON renders m's §4 value tree, together with the element descriptors
// its leaves reference, as the JSON envelope described above. m's §3
// descriptor sequence (m.Descriptors) is not written out as such. Framing
// sections (0-2, 5) are not part of the envelope; they carry no
// information the value tree needs to be reconstructed.
func ToJSON(m *Message) ([]byte, error) {
	idx := newElementIndex()
	data, err := encodeTree(m.Values, idx)
	if err != nil {
		return nil, fmt.Errorf("bufr: encoding to JSON: %w", err)
	}
	env := jsonEnvelope{Descriptors: idx.tuples(), Data: data}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("bufr: encoding to JSON: %w", err)
	}
	return b, nil
}

// FromJSON reconstructs the §4 value tree (a Message's Values) from
// ToJSON's output, without needing an external table: every element
// descriptor a leaf needs is carried in the envelope itself. It returns
// the value tree only; the §3 descriptor sequence is not reconstructed.
func FromJSON(b []byte) ([]interface{}, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("bufr: decoding from JSON: %w", err)
	}
	elements := make([]descriptor.Element, len(env.Descriptors))
	for i, tuple := range env.Descriptors {
		el, err := tupleToElement(tuple)
		if err != nil {
			return nil, fmt.Errorf("bufr: decoding from JSON: descriptor %d: %w", i, err)
		}
		elements[i] = el
	}
	return decodeTree(env.Data, elements)
}

// elementIndex assigns each distinct Element descriptor (by code) a
// stable index in first-encounter order.
type elementIndex struct {
	byCode map[fxy.Code]int
	order  []descriptor.Element
}

func newElementIndex() *elementIndex {
	return &elementIndex{byCode: make(map[fxy.Code]int)}
}

func (idx *elementIndex) indexOf(el descriptor.Element) int {
	if i, ok := idx.byCode[el.Code()]; ok {
		return i
	}
	i := len(idx.order)
	idx.byCode[el.Code()] = i
	idx.order = append(idx.order, el)
	return i
}

func (idx *elementIndex) tuples() [][6]interface{} {
	out := make([][6]interface{}, len(idx.order))
	for i, el := range idx.order {
		out[i] = elementTuple(el)
	}
	return out
}

func elementTuple(el descriptor.Element) [6]interface{} {
	return [6]interface{}{int(el.CodeVal), el.Length, el.Scale, el.Ref, el.Significance, el.Unit}
}

func tupleToElement(t [6]interface{}) (descriptor.Element, error) {
	code, err := tupleInt(t[0])
	if err != nil {
		return descriptor.Element{}, fmt.Errorf("code: %w", err)
	}
	length, err := tupleInt(t[1])
	if err != nil {
		return descriptor.Element{}, fmt.Errorf("length: %w", err)
	}
	scale, err := tupleInt(t[2])
	if err != nil {
		return descriptor.Element{}, fmt.Errorf("scale: %w", err)
	}
	ref, err := tupleInt(t[3])
	if err != nil {
		return descriptor.Element{}, fmt.Errorf("ref: %w", err)
	}
	significance, _ := t[4].(string)
	unit, _ := t[5].(string)
	return descriptor.Element{
		CodeVal:      fxy.Code(code),
		Length:       length,
		Scale:        scale,
		Ref:          ref,
		Significance: significance,
		Unit:         unit,
	}, nil
}

func tupleInt(v interface{}) (int, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
	return int(f), nil
}

// encodeTree walks a decoded value tree (the shape decodeValues produces:
// BufrValue leaves and []interface{} replication groups) into its JSON
// form: {"desc": i, "val": raw} leaves and nested arrays.
func encodeTree(values []interface{}, idx *elementIndex) ([]interface{}, error) {
	out := make([]interface{}, len(values))
	for i, v := range values {
		enc, err := encodeNode(v, idx)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

func encodeNode(v interface{}, idx *elementIndex) (interface{}, error) {
	switch x := v.(type) {
	case BufrValue:
		return map[string]interface{}{
			"desc": idx.indexOf(x.Descriptor),
			"val":  x.RawValue,
		}, nil
	case []interface{}:
		return encodeTree(x, idx)
	default:
		return nil, fmt.Errorf("unexpected value tree node %T", v)
	}
}

// decodeTree is encodeTree's inverse: it walks the generic JSON-decoded
// data shape (map[string]interface{} leaves, []interface{} groups) back
// into the same BufrValue/[]interface{} tree decodeValues produces.
func decodeTree(data []interface{}, elements []descriptor.Element) ([]interface{}, error) {
	out := make([]interface{}, len(data))
	for i, node := range data {
		v, err := decodeNode(node, elements)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeNode(node interface{}, elements []descriptor.Element) (interface{}, error) {
	switch x := node.(type) {
	case map[string]interface{}:
		i, err := tupleInt(x["desc"])
		if err != nil {
			return nil, fmt.Errorf("leaf desc index: %w", err)
		}
		if i < 0 || i >= len(elements) {
			return nil, fmt.Errorf("leaf desc index %d out of range [0,%d)", i, len(elements))
		}
		el := elements[i]
		bv, err := decodeElement(x["val"], el)
		if err != nil {
			return nil, err
		}
		return bv, nil
	case []interface{}:
		return decodeTree(x, elements)
	default:
		return nil, fmt.Errorf("unexpected JSON data node %T", node)
	}
}
