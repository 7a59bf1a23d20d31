package importer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
)

// BIFF8 record types read by the legacy workbook reader.
const (
	recBOF        = 0x0809
	recEOF        = 0x000A
	recBoundSheet = 0x0085
	recSST        = 0x00FC
	recContinue   = 0x003C
	recLabelSST   = 0x00FD
	recLabel      = 0x0204
	recNumber     = 0x0203
	recRK         = 0x027E
	recMulRK      = 0x00BD
	recFormula    = 0x0006
	recString     = 0x0207
)

// BIFF8 worksheets hold at most 256 columns (A:IV).
const maxXLSColumns = 256

type biffRecord struct {
	typ  uint16
	data []byte
}

// readXLS reads the first worksheet of a legacy Excel 97-2003 workbook. Only
// cell values are read; formats, merges and styles are ignored.
func readXLS(data []byte) (*RawTable, error) {
	stream, err := workbookStream(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	records := splitRecords(stream)
	var (
		sst         []string
		sheetOffset = -1
		sheetName   string
	)
	for i := 0; i < len(records); i++ {
		rec := records[i]
		switch rec.typ {
		case recBoundSheet:
			if sheetOffset < 0 && len(rec.data) >= 8 && rec.data[5] == 0 {
				sheetOffset = int(binary.LittleEndian.Uint32(rec.data))
				sheetName = shortString(rec.data[6:])
			}
		case recSST:
			segs := [][]byte{rec.data}
			for i+1 < len(records) && records[i+1].typ == recContinue {
				i++
				segs = append(segs, records[i].data)
			}
			sst = readSST(segs)
		}
	}
	if sheetOffset < 0 || sheetOffset >= len(stream) {
		return nil, fmt.Errorf("%w: workbook has no worksheet", ErrUnreadableFile)
	}

	t := &RawTable{Sheet: sheetName}
	put := func(r, c int, cell Cell) {
		if c >= maxXLSColumns {
			return
		}
		for len(t.Rows) <= r {
			t.Rows = append(t.Rows, nil)
		}
		for len(t.Rows[r]) <= c {
			t.Rows[r] = append(t.Rows[r], Cell{})
		}
		t.Rows[r][c] = cell
	}

	sheet := splitRecords(stream[sheetOffset:])
	pendingRow, pendingCol := -1, -1
	for _, rec := range sheet {
		d := rec.data
		switch rec.typ {
		case recEOF:
			return t, nil
		case recLabelSST:
			if len(d) < 10 {
				continue
			}
			idx := int(binary.LittleEndian.Uint32(d[6:]))
			if idx < len(sst) {
				put(u16(d, 0), u16(d, 2), TextCell(sst[idx]))
			}
		case recLabel:
			if len(d) < 9 {
				continue
			}
			put(u16(d, 0), u16(d, 2), TextCell(unicodeString(d[6:])))
		case recNumber:
			if len(d) < 14 {
				continue
			}
			put(u16(d, 0), u16(d, 2), NumberCell(math.Float64frombits(binary.LittleEndian.Uint64(d[6:]))))
		case recRK:
			if len(d) < 10 {
				continue
			}
			put(u16(d, 0), u16(d, 2), NumberCell(decodeRK(binary.LittleEndian.Uint32(d[6:]))))
		case recMulRK:
			if len(d) < 6 {
				continue
			}
			r, c := u16(d, 0), u16(d, 2)
			for off := 4; off+6 <= len(d)-2; off += 6 {
				put(r, c, NumberCell(decodeRK(binary.LittleEndian.Uint32(d[off+2:]))))
				c++
			}
		case recFormula:
			if len(d) < 14 {
				continue
			}
			r, c := u16(d, 0), u16(d, 2)
			if d[12] == 0xFF && d[13] == 0xFF {
				// Non-numeric result; a string value follows in a STRING record.
				if d[6] == 0 {
					pendingRow, pendingCol = r, c
				}
				continue
			}
			put(r, c, NumberCell(math.Float64frombits(binary.LittleEndian.Uint64(d[6:]))))
		case recString:
			if pendingRow >= 0 {
				put(pendingRow, pendingCol, TextCell(unicodeString(d)))
				pendingRow, pendingCol = -1, -1
			}
		}
	}
	return t, nil
}

// workbookStream extracts the BIFF stream from the OLE2 container.
func workbookStream(data []byte) ([]byte, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open compound file: %w", err)
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != "Workbook" && entry.Name != "Book" {
			continue
		}
		buf, err := io.ReadAll(entry)
		if err != nil {
			return nil, fmt.Errorf("read %s stream: %w", entry.Name, err)
		}
		return buf, nil
	}
	return nil, fmt.Errorf("no Workbook stream")
}

func splitRecords(stream []byte) []biffRecord {
	var out []biffRecord
	for off := 0; off+4 <= len(stream); {
		typ := binary.LittleEndian.Uint16(stream[off:])
		size := int(binary.LittleEndian.Uint16(stream[off+2:]))
		off += 4
		if off+size > len(stream) {
			break
		}
		out = append(out, biffRecord{typ: typ, data: stream[off : off+size]})
		off += size
	}
	return out
}

func decodeRK(rk uint32) float64 {
	var v float64
	if rk&0x02 != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&0xFFFFFFFC) << 32)
	}
	if rk&0x01 != 0 {
		v /= 100
	}
	return v
}

func u16(d []byte, off int) int {
	return int(binary.LittleEndian.Uint16(d[off:]))
}

// shortString decodes a ShortXLUnicodeString (8-bit length).
func shortString(d []byte) string {
	if len(d) < 2 {
		return ""
	}
	return decodeChars(d[2:], int(d[0]), d[1]&0x01 != 0)
}

// unicodeString decodes an XLUnicodeString (16-bit length).
func unicodeString(d []byte) string {
	if len(d) < 3 {
		return ""
	}
	return decodeChars(d[3:], u16(d, 0), d[2]&0x01 != 0)
}

func decodeChars(d []byte, n int, wide bool) string {
	if wide {
		n = min(n, len(d)/2)
		units := make([]uint16, n)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(d[2*i:])
		}
		return string(utf16.Decode(units))
	}
	n = min(n, len(d))
	runes := make([]rune, n)
	for i := range runes {
		runes[i] = rune(d[i])
	}
	return string(runes)
}

// sstReader walks the shared string table across its CONTINUE records. When a
// string's characters cross a record boundary the next record starts with a
// fresh option byte saying whether the rest is compressed.
type sstReader struct {
	segs [][]byte
	seg  int
	pos  int
}

func (r *sstReader) ok() bool {
	for r.seg < len(r.segs) && r.pos >= len(r.segs[r.seg]) {
		r.seg++
		r.pos = 0
	}
	return r.seg < len(r.segs)
}

func (r *sstReader) byte() byte {
	if !r.ok() {
		return 0
	}
	b := r.segs[r.seg][r.pos]
	r.pos++
	return b
}

func (r *sstReader) uint16() uint16 {
	lo := r.byte()
	return uint16(lo) | uint16(r.byte())<<8
}

func (r *sstReader) uint32() uint32 {
	lo := r.uint16()
	return uint32(lo) | uint32(r.uint16())<<16
}

func (r *sstReader) skip(n int) {
	for n > 0 && r.ok() {
		step := min(n, len(r.segs[r.seg])-r.pos)
		r.pos += step
		n -= step
	}
}

func (r *sstReader) chars(n int, wide bool) string {
	units := make([]uint16, 0, n)
	for len(units) < n {
		if r.seg >= len(r.segs) {
			break
		}
		if r.pos >= len(r.segs[r.seg]) {
			r.seg++
			r.pos = 0
			if r.seg >= len(r.segs) || len(r.segs[r.seg]) == 0 {
				break
			}
			wide = r.segs[r.seg][0]&0x01 != 0
			r.pos = 1
			continue
		}
		if wide {
			units = append(units, r.uint16())
		} else {
			units = append(units, uint16(r.byte()))
		}
	}
	return string(utf16.Decode(units))
}

func readSST(segs [][]byte) []string {
	r := &sstReader{segs: segs}
	r.uint32() // total references
	unique := int(r.uint32())

	// Each entry takes at least three bytes, so the declared count cannot
	// exceed what the segments hold.
	total := 0
	for _, seg := range segs {
		total += len(seg)
	}
	out := make([]string, 0, min(unique, total/3))
	for i := 0; i < unique && r.ok(); i++ {
		n := int(r.uint16())
		flags := r.byte()
		var runs, ext int
		if flags&0x08 != 0 {
			runs = int(r.uint16())
		}
		if flags&0x04 != 0 {
			ext = int(r.uint32())
		}
		out = append(out, r.chars(n, flags&0x01 != 0))
		r.skip(4 * runs)
		r.skip(ext)
	}
	return out
}
