package bufr

import (
	"encoding/hex"
	"fmt"
	"math"

	"github.com/tazle/gobufr/internal/descriptor"
)

// Missing is the sentinel Value for a numeric element whose raw bits are
// all ones.
type Missing struct{}

func (Missing) String() string { return "missing" }

// BufrValue is a single decoded datum: its pre-decoded raw representation,
// its decoded value, and the element descriptor that produced it.
//
// RawValue is a uint64 for numeric elements and a lowercase hex string for
// textual elements. Value is a float64, a string, or Missing.
type BufrValue struct {
	RawValue   interface{}
	Value      interface{}
	Descriptor descriptor.Element
}

// decodeElement applies the element-decoding rule shared by the recursive
// value decoder and the JSON codec: textual elements are hex-decoded to
// ISO-8859-1 text; numeric elements are scaled unless their raw bits are
// all ones, the missing-value sentinel.
func decodeElement(raw interface{}, el descriptor.Element) (BufrValue, error) {
	if el.IsText() {
		return decodeTextElement(raw, el)
	}
	return decodeNumericElement(raw, el)
}

func decodeTextElement(raw interface{}, el descriptor.Element) (BufrValue, error) {
	hexText, ok := raw.(string)
	if !ok {
		return BufrValue{}, fmt.Errorf("bufr: textual element %s: raw value must be hex text, got %T", el.Code(), raw)
	}
	b, err := hex.DecodeString(hexText)
	if err != nil {
		return BufrValue{}, fmt.Errorf("bufr: textual element %s: decoding hex %q: %w", el.Code(), hexText, err)
	}
	return BufrValue{RawValue: hexText, Value: latin1String(b), Descriptor: el}, nil
}

func decodeNumericElement(raw interface{}, el descriptor.Element) (BufrValue, error) {
	r, err := toUint64(raw)
	if err != nil {
		return BufrValue{}, fmt.Errorf("bufr: numeric element %s: %w", el.Code(), err)
	}
	if r == el.MissingRaw() {
		return BufrValue{RawValue: r, Value: Missing{}, Descriptor: el}, nil
	}
	value := math.Pow10(-el.Scale) * float64(int64(r)+int64(el.Ref))
	return BufrValue{RawValue: r, Value: value, Descriptor: el}, nil
}

func toUint64(v interface{}) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case uint32:
		return uint64(x), nil
	case int:
		return uint64(x), nil
	case float64:
		return uint64(x), nil
	default:
		return 0, fmt.Errorf("expected a numeric raw value, got %T", v)
	}
}

// latin1String decodes b as ISO-8859-1, a superset of CCITT IA5 sufficient
// for BUFR's purposes.
func latin1String(b []byte) string {
	r := make([]rune, len(b))
	for i, x := range b {
		r[i] = rune(x)
	}
	return string(r)
}
