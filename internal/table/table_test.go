package table

import (
	"errors"
	"testing"

	"github.com/tazle/gobufr/internal/descriptor"
	"github.com/tazle/gobufr/internal/fxy"
)

func mustCode(t *testing.T, s string) fxy.Code {
	t.Helper()
	c, err := fxy.Parse(s)
	if err != nil {
		t.Fatalf("fxy.Parse(%q): %v", s, err)
	}
	return c
}

func TestGetElement(t *testing.T) {
	elCode := mustCode(t, "001001")
	flat := map[fxy.Code]descriptor.Descriptor{
		elCode: descriptor.Element{CodeVal: elCode, Length: 7, Scale: 0, Ref: 0, Unit: "CODE TABLE", Significance: "WMO block number"},
	}
	tbl, err := New(flat, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	d, err := tbl.Get(elCode)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	el, ok := d.(descriptor.Element)
	if !ok {
		t.Fatalf("Get returned %T, want Element", d)
	}
	if el.Length != 7 {
		t.Fatalf("Length = %d, want 7", el.Length)
	}
}

func TestGetSynthesisesReplication(t *testing.T) {
	tbl, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	code := fxy.New(1, 3, 5) // 3 fields, count 5
	d, err := tbl.Get(code)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	rep, ok := d.(descriptor.Replication)
	if !ok {
		t.Fatalf("Get returned %T, want Replication", d)
	}
	if rep.Fields != 3 || rep.Count != 5 {
		t.Fatalf("Replication = %+v, want Fields=3 Count=5", rep)
	}
}

func TestGetUnknown(t *testing.T) {
	tbl, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = tbl.Get(mustCode(t, "001001"))
	if !errors.Is(err, ErrUnknownDescriptor) {
		t.Fatalf("Get: want ErrUnknownDescriptor, got %v", err)
	}
}

func TestNewResolvesSequence(t *testing.T) {
	elCode := mustCode(t, "001001")
	seqCode := mustCode(t, "301001")
	flat := map[fxy.Code]descriptor.Descriptor{
		elCode: descriptor.Element{CodeVal: elCode, Length: 7},
	}
	seqChildren := map[fxy.Code][]fxy.Code{
		seqCode: {elCode},
	}
	tbl, err := New(flat, seqChildren)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d, err := tbl.Get(seqCode)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	seq, ok := d.(descriptor.Sequence)
	if !ok {
		t.Fatalf("Get returned %T, want Sequence", d)
	}
	if len(seq.Children) != 1 {
		t.Fatalf("Children = %d, want 1", len(seq.Children))
	}
}

func TestNewDetectsCycle(t *testing.T) {
	seqA := mustCode(t, "301001")
	seqB := mustCode(t, "301002")
	seqChildren := map[fxy.Code][]fxy.Code{
		seqA: {seqB},
		seqB: {seqA},
	}
	_, err := New(nil, seqChildren)
	if !errors.Is(err, ErrCyclicGraph) {
		t.Fatalf("New: want ErrCyclicGraph, got %v", err)
	}
}
