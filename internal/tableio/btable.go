// Package tableio parses the external text formats that feed the
// descriptor table and value decoder: libbufr B-table files and SAFNWC
// template files, plus a YAML table manifest for centre-aware table
// selection.
//
// These loaders are pure text-to-descriptor transforms; they have no
// knowledge of the bit decoder, the same separation the teacher draws
// between container framing and pixel decoding.
package tableio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tazle/gobufr/internal/descriptor"
	"github.com/tazle/gobufr/internal/fxy"
)

// ErrInvalidClass is returned for a descriptor class byte outside 0-3, or
// for class 3 (sequence) in a B-table, which belongs in the D-table
// instead.
var ErrInvalidClass = errors.New("tableio: invalid descriptor class")

// btable column layout (1-indexed character positions from btable.F:146
// in libbufr): F-X-Y(6) / significance(64) / unit(24) / scale(3) /
// reference(12) / bit width(3), separated by single-character gaps.
const (
	btFXYLen     = 6
	btSigLen     = 64
	btUnitLen    = 24
	btScaleLen   = 3
	btRefLen     = 12
	btBitsLen    = 3
)

// ReadBTable parses a libbufr-format B-table text file into flat
// element/operator descriptors, keyed by FXY code. Class-1 (replication)
// lines are accepted but never stored, since the table synthesises
// replication descriptors on lookup; class-3 (sequence) lines are
// rejected, as sequences belong in a D-table.
func ReadBTable(r io.Reader) (map[fxy.Code]descriptor.Descriptor, error) {
	out := make(map[fxy.Code]descriptor.Descriptor)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields, err := sliceBTableLine(line)
		if err != nil {
			return nil, fmt.Errorf("tableio: line %d: %w", lineNo, err)
		}
		rawFXY := fields[0]
		code, err := fxy.Parse(rawFXY)
		if err != nil {
			return nil, fmt.Errorf("tableio: line %d: %w", lineNo, err)
		}
		significance := strings.TrimSpace(fields[1])
		unit := strings.TrimSpace(fields[2])
		scale, err := strconv.Atoi(strings.TrimSpace(fields[3]))
		if err != nil {
			return nil, fmt.Errorf("tableio: line %d: scale: %w", lineNo, err)
		}
		ref, err := strconv.Atoi(strings.TrimSpace(fields[4]))
		if err != nil {
			return nil, fmt.Errorf("tableio: line %d: reference: %w", lineNo, err)
		}
		bits, err := strconv.Atoi(strings.TrimSpace(fields[5]))
		if err != nil {
			return nil, fmt.Errorf("tableio: line %d: bit width: %w", lineNo, err)
		}

		switch fxy.Class(rawFXY[0] - '0') {
		case fxy.ClassElement:
			out[code] = descriptor.Element{
				CodeVal:      code,
				Length:       bits,
				Scale:        scale,
				Ref:          ref,
				Significance: significance,
				Unit:         unit,
			}
		case fxy.ClassReplication:
			// Real B-tables do not list replications; accept and drop.
		case fxy.ClassOperator:
			out[code] = descriptor.Operator{
				CodeVal:   code,
				Operation: code.X(),
				Operand:   code.Y(),
			}
		case fxy.ClassSequence:
			return nil, fmt.Errorf("tableio: line %d: %w: sequence descriptors belong in a D-table", lineNo, ErrInvalidClass)
		default:
			return nil, fmt.Errorf("tableio: line %d: %w: %q", lineNo, ErrInvalidClass, string(rawFXY[0]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tableio: %w", err)
	}
	return out, nil
}

// sliceBTableLine splits a fixed-column btable line into
// [fxy, significance, unit, scale, reference, bits], tolerating trailing
// whitespace shorter than the nominal column widths.
func sliceBTableLine(line string) ([6]string, error) {
	// Leading 1-char gap, then alternating data field / 1-char gap:
	// fxy(6) unit-gap sig(64) gap unit(24) gap scale(3) gap ref(12) gap bits(3).
	widths := []int{1, btFXYLen, 1, btSigLen, 1, btUnitLen, 1, btScaleLen, 1, btRefLen, 1, btBitsLen}
	var out [6]string
	pos := 0
	field := 0
	for i, w := range widths {
		end := pos + w
		if end > len(line) {
			end = len(line)
		}
		if pos > len(line) {
			pos = len(line)
		}
		chunk := line[pos:end]
		if i%2 == 1 { // odd indices are the data fields; even are 1-char gaps
			out[field] = chunk
			field++
		}
		pos = end
	}
	if field != 6 {
		return out, fmt.Errorf("malformed btable line (too short): %q", line)
	}
	return out, nil
}
