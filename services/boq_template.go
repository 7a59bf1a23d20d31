package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// TemplateColumn describes one column of the BOQ import template.
type TemplateColumn struct {
	Header      string
	Required    bool
	Description string
	Example     string
	Width       float64
}

// BOQTemplateColumns are the columns of the downloadable template, in order.
// The headers are the ones the manual mapping recognises without help.
var BOQTemplateColumns = []TemplateColumn{
	{Header: "Category", Description: "Section the item belongs to. Blank rows go to Uncategorised.", Example: "Demolition", Width: 22},
	{Header: "Description", Required: true, Description: "Scope of work for the line item.", Example: "Remove existing floor tiles", Width: 50},
	{Header: "Quantity", Description: "Defaults to 1 when blank or not a positive number.", Example: "120", Width: 12},
	{Header: "Unit", Description: "Unit of measure. Defaults to item.", Example: "m2", Width: 10},
	{Header: "Rate", Required: true, Description: "Cost per unit before margin.", Example: "35.50", Width: 14},
}

// TemplateUnits are offered as a dropdown in the Unit column.
var TemplateUnits = []string{"item", "nr", "m", "m2", "m3", "lm", "kg", "sum", "lot"}

var templateSamples = [][]any{
	{"Demolition", "Remove existing floor tiles", 120, "m2", 35.5},
	{"Demolition", "Dispose of debris off site", 1, "lot", 2500},
	{"MEP", "Supply and install LED downlights", 24, "nr", 180},
	{"MEP", "Rewire kitchen power circuits", 1, "sum", 4200},
	{"Joinery", "Built-in wardrobe, 2.4m high", 3, "nr", 6800},
}

// GenerateBOQTemplate builds the example workbook users download before a
// manual import.
func GenerateBOQTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "BOQ"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	requiredHeaderStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	optionalHeaderStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#6B7280"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})

	columns := columnLetters(len(BOQTemplateColumns))
	for i, c := range BOQTemplateColumns {
		cell := columns[i] + "1"
		f.SetCellValue(sheetName, cell, c.Header)
		if c.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredHeaderStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, optionalHeaderStyle)
		}
		f.SetColWidth(sheetName, columns[i], columns[i], c.Width)
	}

	for i, sample := range templateSamples {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetName, cell, &sample); err != nil {
			return nil, fmt.Errorf("write sample row: %w", err)
		}
	}

	unitCol := columns[3]
	dv := excelize.NewDataValidation(true)
	dv.Sqref = fmt.Sprintf("%s2:%s1048576", unitCol, unitCol)
	dv.SetDropList(TemplateUnits)
	f.AddDataValidation(sheetName, dv)

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	addInstructionsSheet(f)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel template: %w", err)
	}
	return buf.Bytes(), nil
}

// addInstructionsSheet creates a hidden sheet with column descriptions.
func addInstructionsSheet(f *excelize.File) {
	instSheet := "Instructions"
	f.NewSheet(instSheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})

	f.SetCellValue(instSheet, "A1", "BOQ Import - Instructions")
	f.SetCellStyle(instSheet, "A1", "A1", titleStyle)

	cols := columnLetters(4)
	for i, h := range []string{"Column", "Required?", "Description", "Example"} {
		cell := cols[i] + "3"
		f.SetCellValue(instSheet, cell, h)
		f.SetCellStyle(instSheet, cell, cell, headerStyle)
	}

	for i, c := range BOQTemplateColumns {
		row := fmt.Sprintf("%d", i+4)
		req := "Optional"
		if c.Required {
			req = "Required"
		}
		f.SetCellValue(instSheet, cols[0]+row, c.Header)
		f.SetCellValue(instSheet, cols[1]+row, req)
		f.SetCellValue(instSheet, cols[2]+row, c.Description)
		f.SetCellValue(instSheet, cols[3]+row, c.Example)
	}

	for i, w := range []float64{16, 12, 60, 30} {
		f.SetColWidth(instSheet, cols[i], cols[i], w)
	}

	f.SetSheetVisible(instSheet, false)
}
