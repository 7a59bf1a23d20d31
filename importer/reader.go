package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	zipMagic = []byte("PK\x03\x04")
	cfbMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// ReadTable reads the first worksheet of an uploaded file into memory. The
// format is chosen from the file extension, except that workbook content is
// sniffed so a mislabelled .xls/.xlsx still opens.
func ReadTable(r io.Reader, fileName string) (*RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".xlsx", ".xlsm", ".xls":
	case ".csv", ".txt":
		return readCSV(data)
	default:
		return nil, ErrUnsupportedFormat
	}

	switch {
	case bytes.HasPrefix(data, zipMagic):
		return readXLSX(data)
	case bytes.HasPrefix(data, cfbMagic):
		return readXLS(data)
	}
	return nil, fmt.Errorf("%w: unrecognised workbook content", ErrUnreadableFile)
}

func readXLSX(data []byte) (*RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnreadableFile, sheet, err)
	}

	t := &RawTable{Sheet: sheet, Rows: make([]Row, len(rows))}
	for i, raw := range rows {
		row := make(Row, len(raw))
		for j, v := range raw {
			row[j] = InferCell(v)
		}
		t.Rows[i] = row
	}
	return t, nil
}

func readCSV(data []byte) (*RawTable, error) {
	// Excel "CSV UTF-8" and "Unicode Text" exports carry a BOM.
	decoded := transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	br := bufio.NewReader(decoded)

	first, _ := br.Peek(4096)
	reader := csv.NewReader(br)
	reader.Comma = detectDelimiter(first)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var t RawTable
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		row := make(Row, len(rec))
		for i, v := range rec {
			row[i] = InferCell(v)
		}
		t.Rows = append(t.Rows, row)
	}
	return &t, nil
}

// detectDelimiter picks the most frequent of comma, semicolon and tab on the
// first line, defaulting to comma.
func detectDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
