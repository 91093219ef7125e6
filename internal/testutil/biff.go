package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"maps"
	"math"
	"slices"
	"testing"
)

// BIFF8 record identifiers.
const (
	biffBOF        = 0x0809
	biffEOF        = 0x000A
	biffBoundSheet = 0x0085
	biffRow        = 0x0208
	biffNumber     = 0x0203
	biffLabel      = 0x0204
	biffLabelSST   = 0x00FD

	biffGlobals   = 0x0005
	biffWorksheet = 0x0010
)

// SSTIndex is a cell value pointing into the shared string table. The
// workbooks built here carry no table, so such cells are dangling.
type SSTIndex uint32

// LegacyCell is one cell of a LegacySheet. Value is a string (LABEL), a
// float64 (NUMBER) or an SSTIndex (LABELSST).
type LegacyCell struct {
	Row, Col uint16
	Value    any
}

// LegacySheet is one worksheet of a BIFF8 workbook stream.
type LegacySheet struct {
	Name  string
	Cells []LegacyCell
}

// LegacyWorkbook builds a BIFF8 "Workbook" stream: the globals substream
// with one BOUNDSHEET per sheet, then a worksheet substream per sheet with
// ROW records covering every row that has cells.
func LegacyWorkbook(sheets ...LegacySheet) string {
	bodies := make([][]byte, len(sheets))
	for i, s := range sheets {
		bodies[i] = legacySheetStream(s)
	}

	pos := len(biffBOFRecord(biffGlobals)) + len(biffRecord(biffEOF, nil))
	for _, s := range sheets {
		pos += 4 + 7 + len(biffString(s.Name))
	}

	var out bytes.Buffer
	out.Write(biffBOFRecord(biffGlobals))
	for i, s := range sheets {
		p := make([]byte, 7, 8+len(s.Name))
		binary.LittleEndian.PutUint32(p, uint32(pos))
		p[6] = byte(len(s.Name))
		out.Write(biffRecord(biffBoundSheet, append(p, biffString(s.Name)...)))
		pos += len(bodies[i])
	}
	out.Write(biffRecord(biffEOF, nil))
	for _, b := range bodies {
		out.Write(b)
	}
	return out.String()
}

func legacySheetStream(s LegacySheet) []byte {
	type extent struct{ first, last uint16 }
	rows := make(map[uint16]extent)
	for _, c := range s.Cells {
		e, ok := rows[c.Row]
		if !ok {
			e = extent{c.Col, c.Col + 1}
		}
		e.first = min(e.first, c.Col)
		e.last = max(e.last, c.Col+1)
		rows[c.Row] = e
	}

	var out bytes.Buffer
	out.Write(biffBOFRecord(biffWorksheet))
	for _, r := range slices.Sorted(maps.Keys(rows)) {
		p := make([]byte, 16)
		binary.LittleEndian.PutUint16(p, r)
		binary.LittleEndian.PutUint16(p[2:], rows[r].first)
		binary.LittleEndian.PutUint16(p[4:], rows[r].last) // one past the last cell
		binary.LittleEndian.PutUint16(p[6:], 0x00FF)
		out.Write(biffRecord(biffRow, p))
	}
	for _, c := range s.Cells {
		out.Write(biffCell(c))
	}
	out.Write(biffRecord(biffEOF, nil))
	return out.Bytes()
}

func biffCell(c LegacyCell) []byte {
	head := make([]byte, 6) // row, column, XF index
	binary.LittleEndian.PutUint16(head, c.Row)
	binary.LittleEndian.PutUint16(head[2:], c.Col)

	switch v := c.Value.(type) {
	case string:
		p := binary.LittleEndian.AppendUint16(head, uint16(len(v)))
		return biffRecord(biffLabel, append(p, biffString(v)...))
	case float64:
		return biffRecord(biffNumber, binary.LittleEndian.AppendUint64(head, math.Float64bits(v)))
	case SSTIndex:
		return biffRecord(biffLabelSST, binary.LittleEndian.AppendUint32(head, uint32(v)))
	}
	panic(fmt.Sprintf("testutil: unsupported legacy cell value %T", c.Value))
}

func biffRecord(id uint16, payload []byte) []byte {
	b := make([]byte, 4, 4+len(payload))
	binary.LittleEndian.PutUint16(b, id)
	binary.LittleEndian.PutUint16(b[2:], uint16(len(payload)))
	return append(b, payload...)
}

func biffBOFRecord(substream uint16) []byte {
	p := make([]byte, 16)
	binary.LittleEndian.PutUint16(p, 0x0600) // BIFF8
	binary.LittleEndian.PutUint16(p[2:], substream)
	return biffRecord(biffBOF, p)
}

// biffString is an 8-bit (compressed) unicode string body; the length
// prefix belongs to the enclosing record.
func biffString(s string) []byte {
	return append([]byte{0}, s...)
}

// summaryInformationFMTID is {F29F85E0-4FF9-1068-AB91-08002B27B3D9} in its
// on-disk byte order.
var summaryInformationFMTID = []byte{
	0xE0, 0x85, 0x9F, 0xF2, 0xF9, 0x4F, 0x68, 0x10,
	0xAB, 0x91, 0x08, 0x00, 0x2B, 0x27, 0xB3, 0xD9,
}

// SummaryInformationStream names the property set stream built by
// SummaryInformation.
const SummaryInformationStream = "\x05SummaryInformation"

// SummaryInformation builds a SummaryInformation property set stream holding
// a single Title property.
func SummaryInformation(title string) string {
	value := make([]byte, 8, 8+len(title)+4)
	binary.LittleEndian.PutUint16(value, 0x001E) // VT_LPSTR
	binary.LittleEndian.PutUint32(value[4:], uint32(len(title)+1))
	value = append(value, title...)
	value = append(value, 0)
	for len(value)%4 != 0 {
		value = append(value, 0)
	}

	header := make([]byte, 48)
	binary.LittleEndian.PutUint16(header, 0xFFFE)
	binary.LittleEndian.PutUint32(header[24:], 1)
	copy(header[28:], summaryInformationFMTID)
	binary.LittleEndian.PutUint32(header[44:], uint32(len(header)))

	set := make([]byte, 16)
	binary.LittleEndian.PutUint32(set, uint32(len(set)+len(value)))
	binary.LittleEndian.PutUint32(set[4:], 1)
	binary.LittleEndian.PutUint32(set[8:], 2) // PIDSI_TITLE
	binary.LittleEndian.PutUint32(set[12:], uint32(len(set)))

	return string(header) + string(set) + string(value)
}

// NewLegacyWorkbook writes an .xls compound file with a two-sheet BIFF8
// workbook and a SummaryInformation stream titled "Quarterly".
//
//	Data:  A1 "Name", B1 "Qty", B3 5 (row 2 has no record)
//	Empty: no cells
func NewLegacyWorkbook(t testing.TB, name string) string {
	t.Helper()
	return WriteCompoundFile(t, name, []Entry{
		{Name: "Workbook", Data: LegacyWorkbook(
			LegacySheet{Name: "Data", Cells: []LegacyCell{
				{Row: 0, Col: 0, Value: "Name"},
				{Row: 0, Col: 1, Value: "Qty"},
				{Row: 2, Col: 1, Value: 5.0},
			}},
			LegacySheet{Name: "Empty"},
		)},
		{Name: SummaryInformationStream, Data: SummaryInformation("Quarterly")},
	})
}
