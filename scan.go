package bufr

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/tazle/gobufr/internal/bitio"
	"github.com/tazle/gobufr/internal/table"
)

// ScanError pairs the byte offset a "BUFR" marker was found at with the
// error decoding the message starting there produced.
type ScanError struct {
	Offset int
	Err    error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("bufr: message at offset %d: %v", e.Offset, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

const scanMarker = "BUFR"

// Scan hunts r for "BUFR" markers, attempting a full decode at each one
// against t. It never stops at the first failure: a non-decoding byte
// sequence, truncated message, or any other per-message error is recorded
// and scanning resumes immediately past the marker that produced it, so
// one corrupt message in a concatenated stream does not blind the scan to
// the messages around it.
//
// r is read in chunkSize-byte increments rather than all at once (0 or
// negative defaults to 64KiB), and bytes a match has already consumed are
// dropped from the working buffer as soon as scanning moves past them —
// so the amount of the stream held in memory at any point is bounded by
// chunkSize plus whatever a single in-flight message needs, not by the
// total input size.
//
// logger may be nil; when non-nil, each per-message failure is logged at
// warn level with its offset, matching the ambient-diagnostics split
// described in internal/config: the decoder itself never logs, only the
// outer bulk operation does.
func Scan(r io.Reader, t *table.Table, chunkSize int, logger *log.Logger) ([]*Message, []*ScanError) {
	if chunkSize <= 0 {
		chunkSize = 64 * 1024
	}

	var messages []*Message
	var scanErrs []*ScanError

	var buf []byte
	base := 0 // absolute stream offset of buf[0]
	search := 0
	eof := false

	for {
		for {
			rel := bytes.Index(buf[search:], []byte(scanMarker))
			if rel < 0 {
				if tail := len(buf) - (len(scanMarker) - 1); tail > search {
					search = tail
				}
				break
			}
			start := search + rel

			msg, err := Decode(bytes.NewReader(buf[start:]), t)
			if err != nil {
				if !eof && errors.Is(err, bitio.ErrEndOfStream) {
					// Not necessarily truncated — just short on buffered
					// bytes. Wait for the next chunk and retry.
					search = start
					break
				}
				scanErrs = append(scanErrs, &ScanError{Offset: base + start, Err: err})
				if logger != nil {
					logger.Warn("scan: message decode failed", "offset", base+start, "err", err)
				}
				search = start + len(scanMarker)
				continue
			}

			messages = append(messages, msg)
			next := start + msg.Section0.TotalLength
			if next <= start {
				next = start + len(scanMarker)
			}
			search = next
		}

		if eof {
			break
		}

		if search > 0 {
			buf = buf[search:]
			base += search
			search = 0
		}

		chunk := make([]byte, chunkSize)
		n, rerr := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if rerr != nil {
			if rerr != io.EOF {
				scanErrs = append(scanErrs, &ScanError{Offset: base + len(buf), Err: fmt.Errorf("bufr: reading scan input: %w", rerr)})
			}
			eof = true
		}
	}

	return messages, scanErrs
}
