// Package table implements the BUFR descriptor table: a lookup from FXY
// code to descriptor, synthesising replication descriptors on the fly and
// resolving sequence descriptors into an owned, acyclic graph at load time.
package table

import (
	"errors"
	"fmt"

	"github.com/tazle/gobufr/internal/descriptor"
	"github.com/tazle/gobufr/internal/fxy"
)

// ErrUnknownDescriptor is returned when a code cannot be resolved against
// the table (and is not a synthesisable replication code).
var ErrUnknownDescriptor = errors.New("table: unknown descriptor")

// ErrCyclicGraph is returned when resolving sequence descriptors detects a
// cycle — BUFR sequences are acyclic by construction, so this indicates a
// malformed table.
var ErrCyclicGraph = errors.New("table: cyclic descriptor graph")

// Table maps FXY codes to descriptors. It is built once at load time and
// is immutable and safe to share across decoders afterwards.
type Table struct {
	byCode map[fxy.Code]descriptor.Descriptor
}

// New builds a Table from raw element/operator descriptors and pending
// sequence definitions (code -> child codes), resolving sequences into an
// owned DAG of descriptors. Replication descriptors must not be included —
// the table synthesises them on lookup.
//
// seqChildren maps a sequence's code to the ordered codes of its
// constituent descriptors, exactly as read from a D-table.
func New(flat map[fxy.Code]descriptor.Descriptor, seqChildren map[fxy.Code][]fxy.Code) (*Table, error) {
	t := &Table{byCode: make(map[fxy.Code]descriptor.Descriptor, len(flat)+len(seqChildren))}
	for code, d := range flat {
		t.byCode[code] = d
	}

	resolving := make(map[fxy.Code]bool)
	resolved := make(map[fxy.Code]descriptor.Sequence)

	var resolve func(code fxy.Code) (descriptor.Sequence, error)
	resolve = func(code fxy.Code) (descriptor.Sequence, error) {
		if seq, ok := resolved[code]; ok {
			return seq, nil
		}
		if resolving[code] {
			return descriptor.Sequence{}, fmt.Errorf("%w: %s", ErrCyclicGraph, code)
		}
		children, ok := seqChildren[code]
		if !ok {
			return descriptor.Sequence{}, fmt.Errorf("%w: %s", ErrUnknownDescriptor, code)
		}
		resolving[code] = true
		defer delete(resolving, code)

		kids := make([]descriptor.Descriptor, 0, len(children))
		for _, childCode := range children {
			if childCode.Class() == fxy.ClassSequence {
				childSeq, err := resolve(childCode)
				if err != nil {
					return descriptor.Sequence{}, err
				}
				kids = append(kids, childSeq)
				continue
			}
			d, err := t.lookupFlat(childCode)
			if err != nil {
				return descriptor.Sequence{}, err
			}
			kids = append(kids, d)
		}
		seq := descriptor.Sequence{CodeVal: code, Children: kids}
		resolved[code] = seq
		return seq, nil
	}

	for code := range seqChildren {
		seq, err := resolve(code)
		if err != nil {
			return nil, err
		}
		t.byCode[code] = seq
	}

	return t, nil
}

// lookupFlat resolves a non-sequence code, synthesising replication
// descriptors on the fly.
func (t *Table) lookupFlat(code fxy.Code) (descriptor.Descriptor, error) {
	if code.Class() == fxy.ClassReplication {
		return descriptor.Replication{CodeVal: code, Fields: code.X(), Count: code.Y()}, nil
	}
	d, ok := t.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDescriptor, code)
	}
	return d, nil
}

// Get returns the descriptor for code. Replication descriptors (F=1) are
// synthesised from the code's X/Y fields without touching the backing
// map; they are never stored.
func (t *Table) Get(code fxy.Code) (descriptor.Descriptor, error) {
	if code.Class() == fxy.ClassReplication {
		return descriptor.Replication{CodeVal: code, Fields: code.X(), Count: code.Y()}, nil
	}
	d, ok := t.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDescriptor, code)
	}
	return d, nil
}

// ErrTemplateMismatch is returned when a message's §3 descriptor codes do
// not match a Template's codes, position by position.
var ErrTemplateMismatch = errors.New("table: template mismatch")

// Template is a name plus an ordered sequence of descriptors, expected to
// match a message's §3 descriptor list exactly, position by position.
type Template struct {
	Name        string
	Descriptors []descriptor.Descriptor
}

// Match validates that codes (as read from a message's §3) equal the
// template's descriptor codes, position by position, and returns the
// template's descriptors for use by the value decoder.
func (t Template) Match(codes []fxy.Code) ([]descriptor.Descriptor, error) {
	if len(codes) != len(t.Descriptors) {
		return nil, fmt.Errorf("%w: template %s has %d descriptors, message has %d", ErrTemplateMismatch, t.Name, len(t.Descriptors), len(codes))
	}
	for i, code := range codes {
		if code != t.Descriptors[i].Code() {
			return nil, fmt.Errorf("%w: at index %d, template code %s, message code %s", ErrTemplateMismatch, i, t.Descriptors[i].Code(), code)
		}
	}
	return t.Descriptors, nil
}
