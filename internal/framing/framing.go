// Package framing decodes the fixed-layout BUFR sections 0, 1, 2, 3 and 5,
// and extracts the raw §4 payload. Each section reads its declared length
// first, consumes the fixed fields the edition requires, then discards any
// remainder up to that declared length — the length is authoritative.
//
// Section 4's bitstream payload is returned as raw bytes; interpreting it
// against a descriptor sequence is the value decoder's job, not this
// package's.
package framing

import (
	"errors"
	"fmt"

	"github.com/tazle/gobufr/internal/bitio"
	"github.com/tazle/gobufr/internal/fxy"
)

// Structural errors, surfaced verbatim to callers.
var (
	ErrBadMagic           = errors.New("framing: bad magic")
	ErrUnsupportedEdition = errors.New("framing: unsupported edition")
	ErrBadMasterTable     = errors.New("framing: master_table_id must be 0")
	ErrBadEndToken        = errors.New("framing: invalid end token")
)

// Section0 holds §0's framing fields.
type Section0 struct {
	TotalLength int
	Edition     int
}

// DecodeSection0 reads the 8-byte §0: magic, total length, edition.
func DecodeSection0(r *bitio.Reader) (Section0, error) {
	magic, err := r.ReadStr(4)
	if err != nil {
		return Section0{}, err
	}
	if magic != "BUFR" {
		return Section0{}, fmt.Errorf("%w: got %q, want \"BUFR\"", ErrBadMagic, magic)
	}
	totalLength, err := r.ReadUint(3)
	if err != nil {
		return Section0{}, err
	}
	edition, err := r.ReadUint(1)
	if err != nil {
		return Section0{}, err
	}
	if edition != 3 && edition != 4 {
		return Section0{}, fmt.Errorf("%w %d", ErrUnsupportedEdition, edition)
	}
	return Section0{TotalLength: int(totalLength), Edition: int(edition)}, nil
}

// Section1 holds §1's framing fields, normalised across editions 3 and 4:
// Second and LocalSubCategory are always present, zero-valued for edition
// 3 where the wire format has no such field.
type Section1 struct {
	Length               int
	MasterTableID        int
	OriginatingCentre    int
	OriginatingSubcentre int
	UpdateSequenceNumber int
	OptionalSection      int
	DataCategory         int
	DataSubCategory      int
	LocalSubCategory     int // edition 4 only; 0 for edition 3
	MasterTableVersion   int
	LocalTableVersion    int
	Year                 int // normalised to four digits
	Month, Day           int
	Hour, Minute, Second int // Second is edition 4 only; 0 for edition 3
}

// DecodeSection1 reads §1, dispatching on edition.
//
// Edition 3's wire layout reads subcentre before centre, but the decoded
// record stores them as OriginatingCentre/OriginatingSubcentre in that
// (swapped) order — this mirrors the WMO BUFR edition 3 field order and is
// intentional, not a bug; see DESIGN.md for the verification note carried
// over from the original decoder.
func DecodeSection1(r *bitio.Reader, edition int) (Section1, error) {
	if edition == 4 {
		return decodeSection1V4(r)
	}
	return decodeSection1V3(r)
}

func decodeSection1V3(r *bitio.Reader) (Section1, error) {
	length, err := readUintField(r, 3)
	if err != nil {
		return Section1{}, err
	}
	masterTableID, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	if masterTableID != 0 {
		return Section1{}, fmt.Errorf("%w: got %d", ErrBadMasterTable, masterTableID)
	}
	subcentre, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	centre, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	updateSeq, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	optSection, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	category, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	subCategory, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	masterVer, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	localVer, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	year, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	month, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	day, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	hour, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	minute, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	if _, err := r.ReadBytes(length - 17); err != nil {
		return Section1{}, err
	}

	return Section1{
		Length:               length,
		MasterTableID:        masterTableID,
		OriginatingCentre:    centre,
		OriginatingSubcentre: subcentre,
		UpdateSequenceNumber: updateSeq,
		OptionalSection:      optSection,
		DataCategory:         category,
		DataSubCategory:      subCategory,
		MasterTableVersion:   masterVer,
		LocalTableVersion:    localVer,
		Year:                 1900 + year,
		Month:                month,
		Day:                  day,
		Hour:                 hour,
		Minute:               minute,
	}, nil
}

func decodeSection1V4(r *bitio.Reader) (Section1, error) {
	length, err := readUintField(r, 3)
	if err != nil {
		return Section1{}, err
	}
	masterTableID, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	if masterTableID != 0 {
		return Section1{}, fmt.Errorf("%w: got %d", ErrBadMasterTable, masterTableID)
	}
	centre, err := readUintField(r, 2)
	if err != nil {
		return Section1{}, err
	}
	subcentre, err := readUintField(r, 2)
	if err != nil {
		return Section1{}, err
	}
	updateSeq, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	optSection, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	category, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	subCategory, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	localSubCategory, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	masterVer, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	localVer, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	year, err := readUintField(r, 2)
	if err != nil {
		return Section1{}, err
	}
	month, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	day, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	hour, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	minute, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	second, err := readUintField(r, 1)
	if err != nil {
		return Section1{}, err
	}
	if _, err := r.ReadBytes(length - 22); err != nil {
		return Section1{}, err
	}

	return Section1{
		Length:               length,
		MasterTableID:        masterTableID,
		OriginatingCentre:    centre,
		OriginatingSubcentre: subcentre,
		UpdateSequenceNumber: updateSeq,
		OptionalSection:      optSection,
		DataCategory:         category,
		DataSubCategory:      subCategory,
		LocalSubCategory:     localSubCategory,
		MasterTableVersion:   masterVer,
		LocalTableVersion:    localVer,
		Year:                 year,
		Month:                month,
		Day:                  day,
		Hour:                 hour,
		Minute:               minute,
		Second:               second,
	}, nil
}

func readUintField(r *bitio.Reader, n int) (int, error) {
	v, err := r.ReadUint(n)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// Section2 holds §2's opaque payload, present iff §1.OptionalSection != 0.
type Section2 struct {
	Length int
	Data   []byte
}

// DecodeSection2 reads §2.
func DecodeSection2(r *bitio.Reader) (Section2, error) {
	length, err := readUintField(r, 3)
	if err != nil {
		return Section2{}, err
	}
	data, err := r.ReadBytes(length - 3)
	if err != nil {
		return Section2{}, err
	}
	return Section2{Length: length, Data: data}, nil
}

// Section3 holds §3's framing fields and its raw, unresolved descriptor
// codes.
type Section3 struct {
	Length   int
	NSubsets int
	Flags    int
	Codes    []fxy.Code
}

// DecodeSection3Codes reads §3's header and raw 2-byte descriptor codes,
// discarding the trailing odd pad byte. Resolving those codes against a
// table or a template is the caller's job (see bufr.Decode and
// bufr.DecodeTemplate), since a message gives no hint, on its own,
// which to use.
func DecodeSection3Codes(r *bitio.Reader) (Section3, error) {
	length, err := readUintField(r, 3)
	if err != nil {
		return Section3{}, err
	}
	if _, err := readUintField(r, 1); err != nil { // reserved
		return Section3{}, err
	}
	nSubsets, err := readUintField(r, 2)
	if err != nil {
		return Section3{}, err
	}
	flags, err := readUintField(r, 1)
	if err != nil {
		return Section3{}, err
	}

	remaining := length - 7
	nRead := 0
	var codes []fxy.Code
	for nRead+2 <= remaining {
		raw, err := r.ReadUint(2)
		if err != nil {
			return Section3{}, err
		}
		codes = append(codes, fxy.Code(raw))
		nRead += 2
	}
	if _, err := r.ReadBytes(remaining - nRead); err != nil {
		return Section3{}, err
	}

	return Section3{Length: length, NSubsets: nSubsets, Flags: flags, Codes: codes}, nil
}

// Section4 is the raw, still-packed §4 payload, ready for the value
// decoder to interpret against a resolved descriptor sequence.
type Section4 struct {
	Length  int
	Payload []byte
}

// DecodeSection4 reads §4's 3-byte length, 1 pad byte, and the
// length-4 bytes of packed payload that follow.
func DecodeSection4(r *bitio.Reader) (Section4, error) {
	length, err := readUintField(r, 3)
	if err != nil {
		return Section4{}, err
	}
	if _, err := readUintField(r, 1); err != nil { // pad
		return Section4{}, err
	}
	payload, err := r.ReadBytes(length - 4)
	if err != nil {
		return Section4{}, err
	}
	return Section4{Length: length, Payload: payload}, nil
}

// DecodeSection5 reads §5 and validates that it is exactly "7777".
func DecodeSection5(r *bitio.Reader) error {
	data, err := r.ReadStr(4)
	if err != nil {
		return err
	}
	const endToken = "7777"
	if data != endToken {
		return fmt.Errorf("%w: got %q, want %q", ErrBadEndToken, data, endToken)
	}
	return nil
}
