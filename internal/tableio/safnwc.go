package tableio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tazle/gobufr/internal/descriptor"
	"github.com/tazle/gobufr/internal/fxy"
	"github.com/tazle/gobufr/internal/table"
)

// SAFNWC column boundaries: num(0:8) fxy(8:14) scale(14:23) ref(23:33)
// bits(33:47) unit(47:65) significance(65:end).
const (
	safnwcNumEnd     = 8
	safnwcFXYEnd     = 14
	safnwcScaleEnd   = 23
	safnwcRefEnd     = 33
	safnwcBitsEnd    = 47
	safnwcUnitEnd    = 65
)

// ReadSAFNWCTemplate parses a SAFNWC template file into a table.Template.
// Class-3 (sequence) lines are silently skipped on the assumption that
// their constituent descriptors immediately follow — see the open
// question this carries over from the original decoder in DESIGN.md.
func ReadSAFNWCTemplate(r io.Reader) (table.Template, error) {
	var descriptors []descriptor.Descriptor
	metadata := make(map[string]int)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "/*") {
			continue
		}
		if strings.HasPrefix(line, "NUM") {
			parts := strings.Fields(line)
			if len(parts) != 2 {
				return table.Template{}, fmt.Errorf("tableio: line %d: malformed NUM metadata: %q", lineNo, line)
			}
			v, err := strconv.Atoi(parts[1])
			if err != nil {
				return table.Template{}, fmt.Errorf("tableio: line %d: %w", lineNo, err)
			}
			metadata[parts[0]] = v
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if len(line) < safnwcFXYEnd {
			return table.Template{}, fmt.Errorf("tableio: line %d: too short: %q", lineNo, line)
		}
		rawFXY := line[safnwcNumEnd:safnwcFXYEnd]
		code, err := fxy.Parse(rawFXY)
		if err != nil {
			return table.Template{}, fmt.Errorf("tableio: line %d: %w", lineNo, err)
		}

		if code.Class() == fxy.ClassSequence {
			continue
		}

		scale, err := strconv.Atoi(strings.TrimSpace(safeSlice(line, safnwcFXYEnd, safnwcScaleEnd)))
		if err != nil {
			return table.Template{}, fmt.Errorf("tableio: line %d: scale: %w", lineNo, err)
		}
		ref, err := strconv.Atoi(strings.TrimSpace(safeSlice(line, safnwcScaleEnd, safnwcRefEnd)))
		if err != nil {
			return table.Template{}, fmt.Errorf("tableio: line %d: reference: %w", lineNo, err)
		}
		bits, err := strconv.Atoi(strings.TrimSpace(safeSlice(line, safnwcRefEnd, safnwcBitsEnd)))
		if err != nil {
			return table.Template{}, fmt.Errorf("tableio: line %d: bit width: %w", lineNo, err)
		}
		unit := truncate(strings.TrimSpace(safeSlice(line, safnwcBitsEnd, safnwcUnitEnd)), 24)
		significance := truncate(strings.TrimSpace(safeSlice(line, safnwcUnitEnd, len(line))), 64)

		switch code.Class() {
		case fxy.ClassElement:
			descriptors = append(descriptors, descriptor.Element{
				CodeVal:      code,
				Length:       bits,
				Scale:        scale,
				Ref:          ref,
				Significance: significance,
				Unit:         unit,
			})
		case fxy.ClassReplication:
			descriptors = append(descriptors, descriptor.Replication{
				CodeVal: code,
				Fields:  code.X(),
				Count:   code.Y(),
			})
		case fxy.ClassOperator:
			descriptors = append(descriptors, descriptor.Operator{
				CodeVal:   code,
				Operation: code.X(),
				Operand:   code.Y(),
			})
		default:
			return table.Template{}, fmt.Errorf("tableio: line %d: %w: %q", lineNo, ErrInvalidClass, rawFXY[0:1])
		}
	}
	if err := scanner.Err(); err != nil {
		return table.Template{}, fmt.Errorf("tableio: %w", err)
	}

	name := fmt.Sprintf("B0000000000%03d%03d%03d.TXT",
		metadata["NUM_ORIGINATING_CENTRE"], metadata["NUM_BUFR_MAIN_TABLE"], metadata["NUM_BUFR_LOCAL_TABLES"])

	return table.Template{Name: name, Descriptors: descriptors}, nil
}

func safeSlice(s string, start, end int) string {
	if start > len(s) {
		start = len(s)
	}
	if end > len(s) {
		end = len(s)
	}
	if end < start {
		end = start
	}
	return s[start:end]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
