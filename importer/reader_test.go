package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func xlsxFixture(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadTable_XLSX(t *testing.T) {
	data := xlsxFixture(t, [][]any{
		{"Description", "Qty", "Rate"},
		{"Gypsum partition", 12, 95.5},
		{},
		{"Paint", nil, "AED 400"},
	})

	tbl, err := ReadTable(bytes.NewReader(data), "upload.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", tbl.Sheet)
	require.Len(t, tbl.Rows, 4)

	assert.Equal(t, TextCell("Description"), tbl.Rows[0].At(0))
	assert.Equal(t, NumberCell(12), tbl.Rows[1].At(1))
	assert.Equal(t, NumberCell(95.5), tbl.Rows[1].At(2))
	assert.Zero(t, tbl.Rows[2].NonEmpty())
	assert.True(t, tbl.Rows[3].At(1).IsEmpty())
	assert.Equal(t, "AED 400", tbl.Rows[3].At(2).Text)
}

func TestReadTable_MislabelledWorkbook(t *testing.T) {
	data := xlsxFixture(t, [][]any{{"Description", "Rate"}, {"Paint", 10}})
	tbl, err := ReadTable(bytes.NewReader(data), "legacy.xls")
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 2)
}

func TestReadTable_CSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"comma", "Description,Qty,Rate\nPaint walls,2,150\n"},
		{"semicolon with BOM", "\ufeffDescription;Qty;Rate\r\nPaint walls;2;150\r\n"},
		{"tab", "Description\tQty\tRate\nPaint walls\t2\t150\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ReadTable(strings.NewReader(tt.input), "boq.csv")
			require.NoError(t, err)
			require.Len(t, tbl.Rows, 2)
			assert.Equal(t, "Description", tbl.Rows[0].At(0).Text)
			assert.Equal(t, NumberCell(2), tbl.Rows[1].At(1))
			assert.Equal(t, NumberCell(150), tbl.Rows[1].At(2))
		})
	}
}

func TestReadTable_CSVRaggedAndQuoted(t *testing.T) {
	in := "Description,Rate\n\"Supply, install\",\"1,200\"\nShort\n"
	tbl, err := ReadTable(strings.NewReader(in), "boq.CSV")
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, "Supply, install", tbl.Rows[1].At(0).Text)
	assert.Equal(t, 1200.0, amount(tbl.Rows[1].At(1)))
	assert.Len(t, tbl.Rows[2], 1)
}

func TestReadTable_Errors(t *testing.T) {
	_, err := ReadTable(strings.NewReader("hello"), "notes.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadTable(strings.NewReader("not a workbook"), "boq.xlsx")
	assert.ErrorIs(t, err, ErrUnreadableFile)

	_, err = ReadTable(bytes.NewReader(append([]byte("PK\x03\x04"), "garbage"...)), "boq.xlsx")
	assert.ErrorIs(t, err, ErrUnreadableFile)

	_, err = ReadTable(bytes.NewReader(append(append([]byte{}, cfbMagic...), make([]byte, 64)...)), "boq.xls")
	assert.ErrorIs(t, err, ErrUnreadableFile)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ',', detectDelimiter([]byte("a,b,c\n1;2;3;4;5")))
	assert.Equal(t, ';', detectDelimiter([]byte("a;b;c")))
	assert.Equal(t, '\t', detectDelimiter([]byte("a\tb")))
	assert.Equal(t, ',', detectDelimiter(nil))
}
