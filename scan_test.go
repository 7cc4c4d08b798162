package bufr

import (
	"bytes"
	"testing"

	"github.com/tazle/gobufr/internal/descriptor"
	"github.com/tazle/gobufr/internal/fxy"
	"github.com/tazle/gobufr/internal/table"
)

// buildMessage renders one complete, self-describing BUFR edition 3
// message: section 1 mirrors internal/framing's own fixture, section 3
// names a single element descriptor (001001, 8 bits), and section 4
// packs one byte carrying value.
func buildMessage(t *testing.T, value byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("BUFR")
	buf.Write([]byte{0, 0, 44}) // total length, checked below
	buf.WriteByte(3)            // edition

	buf.Write([]byte{
		0, 0, 18, // section 1 length
		0,       // master table id
		0,       // subcentre
		98,      // centre
		0,       // update seq
		0,       // optional section
		0,       // category
		0,       // subcategory
		13,      // master version
		1,       // local version
		107,     // year
		7, 27, 19, 55, // month day hour minute
		0, // pad
	})

	buf.Write([]byte{
		0, 0, 9, // section 3 length
		0,    // reserved
		0, 1, // n subsets
		0,    // flags
		1, 1, // code 001001
	})

	buf.Write([]byte{0, 0, 5, 0, value}) // section 4: length, pad, payload

	buf.WriteString("7777")

	out := buf.Bytes()
	if len(out) != 44 {
		t.Fatalf("fixture length = %d, want 44", len(out))
	}
	return out
}

func buildTable(t *testing.T) *table.Table {
	t.Helper()
	code, err := fxy.Parse("001001")
	if err != nil {
		t.Fatalf("fxy.Parse: %v", err)
	}
	el := descriptor.Element{CodeVal: code, Length: 8, Scale: 0, Ref: 0, Significance: "test", Unit: "NUMERIC"}
	tbl, err := table.New(map[fxy.Code]descriptor.Descriptor{code: el}, nil)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	return tbl
}

func TestScanSingleMessage(t *testing.T) {
	tbl := buildTable(t)
	data := buildMessage(t, 5)
	// A chunk size smaller than the message exercises the buffered,
	// cross-chunk marker hunt rather than a single-read happy path.
	messages, errs := Scan(bytes.NewReader(data), tbl, 8, nil)
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if len(messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(messages))
	}
	bv := messages[0].Values[0].(BufrValue)
	if bv.Value.(float64) != 5 {
		t.Fatalf("Value = %v, want 5", bv.Value)
	}
}

func TestScanConcatenatedMessages(t *testing.T) {
	tbl := buildTable(t)
	var data []byte
	data = append(data, buildMessage(t, 1)...)
	data = append(data, []byte("\x00\x00padding\x00\x00")...)
	data = append(data, buildMessage(t, 2)...)

	messages, errs := Scan(bytes.NewReader(data), tbl, 8, nil)
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	v1 := messages[0].Values[0].(BufrValue).Value.(float64)
	v2 := messages[1].Values[0].(BufrValue).Value.(float64)
	if v1 != 1 || v2 != 2 {
		t.Fatalf("values = %v, %v, want 1, 2", v1, v2)
	}
}

func TestScanRecoversFromCorruptMessage(t *testing.T) {
	tbl := buildTable(t)
	corrupt := buildMessage(t, 3)
	corrupt[len(corrupt)-4] = '8' // clobber the "7777" end token

	var data []byte
	data = append(data, corrupt...)
	data = append(data, buildMessage(t, 9)...)

	messages, errs := Scan(bytes.NewReader(data), tbl, 8, nil)
	if len(errs) != 1 {
		t.Fatalf("errs = %d, want 1", len(errs))
	}
	if len(messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(messages))
	}
	if messages[0].Values[0].(BufrValue).Value.(float64) != 9 {
		t.Fatalf("recovered message value = %v, want 9", messages[0].Values[0].(BufrValue).Value)
	}
}
