package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boqRow lays out one Bolsover line: code, description, remark, qty, unit,
// rate, amount. Zero numbers are left blank.
func boqRow(code, desc, remark string, qty float64, unit string, rate, total float64) Row {
	row := make(Row, 11)
	row[0] = TextCell(code)
	row[1] = TextCell(desc)
	row[4] = TextCell(remark)
	if qty != 0 {
		row[5] = NumberCell(qty)
	}
	row[6] = TextCell(unit)
	if rate != 0 {
		row[7] = NumberCell(rate)
	}
	if total != 0 {
		row[8] = NumberCell(total)
	}
	return row
}

func textRow(cells ...string) Row {
	row := make(Row, len(cells))
	for i, s := range cells {
		row[i] = TextCell(s)
	}
	return row
}

// bolsoverTable has three categories holding 2, 3 and 5 items, surrounded by
// title, subtotal and grand total rows.
func bolsoverTable() *RawTable {
	return &RawTable{Sheet: "BOQ", Rows: []Row{
		textRow("Bill of Quantities"),
		textRow("Project Name: Villa 12, Al Barsha"),
		textRow("Customer Name: Mr. Khan"),
		{},
		textRow("Item", "Work Description", "", "", "Remarks", "Qty", "Unit", "Rate", "Amount"),
		textRow("A. Demolition"),
		boqRow("A.1", "Strip out existing kitchen", "", 1, "LS", 5000, 5000),
		boqRow("A.2", "Remove floor tiles", "", 120, "m2", 25, 3000),
		boqRow("Sub-Total", "", "", 0, "", 0, 8000),
		{},
		textRow("B. MEP"),
		boqRow("B.1", "Relocate kitchen sink drainage", "", 1, "nos", 1800, 0),
		boqRow("B.2", "New power points", "", 12, "nos", 150, 1800),
		boqRow("B.3", "Replace water heater", "", 1, "", 2200, 2200),
		boqRow("Sub-Total", "", "", 0, "", 0, 5800),
		textRow("C. Joinery"),
		boqRow("C.1", "Kitchen base cabinets", "", 6, "lm", 1200, 7200),
		boqRow("C.2", "Kitchen wall cabinets", "", 6, "lm", 900, 5400),
		boqRow("C.3", "Wardrobe, master bedroom", "", 1, "nos", 0, 8500),
		boqRow("C.4", "Vanity unit", "", 2, "nos", 2750, 5500),
		boqRow("C.5", "Skirting", "", 0, "lm", 45, 0),
		boqRow("Total of Joinery", "", "", 0, "", 0, 27645),
		boqRow("Grand Total", "", "", 0, "", 0, 41445),
	}}
}

func TestParseBOQ_Bolsover(t *testing.T) {
	res := ParseBOQ(bolsoverTable(), BolsoverBOQv1)

	assert.Equal(t, 4, res.HeaderRow)
	assert.Equal(t, []string{"A. Demolition", "B. MEP", "C. Joinery"}, res.Categories)
	require.Len(t, res.Items, 10)

	perCategory := map[string]int{}
	for _, it := range res.Items {
		perCategory[it.Category]++
		assert.NotEmpty(t, it.Description)
		assert.Positive(t, it.Quantity)
		assert.True(t, it.CostEstimated)
		assert.InDelta(t, it.UnitPrice*0.77, it.UnitCost, 1e-9, it.Description)
	}
	assert.Equal(t, map[string]int{"A. Demolition": 2, "B. MEP": 3, "C. Joinery": 5}, perCategory)
}

func TestParseBOQ_DerivedAmounts(t *testing.T) {
	res := ParseBOQ(bolsoverTable(), BolsoverBOQv1)
	byCode := map[string]ParsedLineItem{}
	for _, it := range res.Items {
		byCode[it.ItemCode] = it
	}

	tests := []struct {
		code      string
		qty       float64
		unit      string
		unitPrice float64
		total     float64
	}{
		{"B.1", 1, "nos", 1800, 1800},      // total from qty x rate
		{"B.3", 1, "item", 2200, 2200},     // unit defaulted
		{"C.3", 1, "nos", 8500, 8500},      // rate from total / qty
		{"C.5", 1, "lm", 45, 45},           // qty defaulted
		{"A.2", 120, "m2", 25, 3000},       // taken verbatim
		{"C.4", 2, "nos", 2750, 5500},      // taken verbatim
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			it, ok := byCode[tt.code]
			require.True(t, ok)
			assert.Equal(t, tt.qty, it.Quantity)
			assert.Equal(t, tt.unit, it.Unit)
			assert.InDelta(t, tt.unitPrice, it.UnitPrice, 1e-9)
			assert.InDelta(t, tt.total, it.Total, 1e-9)
		})
	}
}

func TestParseBOQ_SupplierCostAndOptional(t *testing.T) {
	withCost := boqRow("A.1", "Chipping of wall plaster", "", 40, "m2", 30, 1200)
	withCost[10] = NumberCell(21)

	tbl := &RawTable{Rows: []Row{
		textRow("Item", "Work Description"),
		textRow("A. Civil"),
		withCost,
		boqRow("A.2", "Marble threshold upgrade", "Optional", 0, "nos", 0, 0),
		boqRow("A.3", "Unpriced line", "", 3, "nos", 0, 0),
	}}

	res := ParseBOQ(tbl, BolsoverBOQv1)
	require.Len(t, res.Items, 2)

	assert.Equal(t, 21.0, res.Items[0].UnitCost)
	assert.False(t, res.Items[0].CostEstimated)
	assert.Equal(t, 840.0, res.Items[0].Cost())

	opt := res.Items[1]
	assert.True(t, opt.Optional)
	assert.Zero(t, opt.Total)
	assert.Zero(t, opt.UnitCost)
	assert.Equal(t, 1, res.Skipped)
}

func TestParseBOQ_CategoryRowWithPriceIsItem(t *testing.T) {
	tbl := &RawTable{Rows: []Row{
		textRow("Item", "Work Description"),
		boqRow("B. Provisional sum", "Provisional sum for MEP", "", 1, "LS", 10000, 10000),
	}}
	res := ParseBOQ(tbl, BolsoverBOQv1)
	require.Len(t, res.Items, 1)
	assert.Equal(t, Uncategorised, res.Items[0].Category)
}

func TestParseBOQ_HeaderTermsAndFallback(t *testing.T) {
	t.Run("description and qty", func(t *testing.T) {
		tbl := &RawTable{Rows: []Row{
			textRow("Ref", "Description", "", "", "", "QTY"),
			boqRow("1", "Paint walls", "", 200, "m2", 12, 2400),
		}}
		res := ParseBOQ(tbl, BolsoverBOQv1)
		assert.Equal(t, 0, res.HeaderRow)
		assert.Len(t, res.Items, 1)
	})

	t.Run("no header uses fallback row", func(t *testing.T) {
		rows := make([]Row, 0, 24)
		for i := 0; i < 20; i++ {
			rows = append(rows, boqRow("0", "Row before data start", "", 1, "nos", 10, 10))
		}
		rows = append(rows,
			boqRow("1", "First data row", "", 2, "nos", 50, 100),
			boqRow("2", "Second data row", "", 1, "nos", 75, 75),
		)
		res := ParseBOQ(&RawTable{Rows: rows}, BolsoverBOQv1)
		assert.Equal(t, -1, res.HeaderRow)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "First data row", res.Items[0].Description)
	})

	t.Run("header beyond scan limit", func(t *testing.T) {
		p := BolsoverBOQv1
		p.HeaderScanRows = 2
		tbl := &RawTable{Rows: []Row{{}, {}, {}, textRow("Item", "Work Description")}}
		assert.Equal(t, -1, ParseBOQ(tbl, p).HeaderRow)
	})
}

func TestParseBOQ_Deterministic(t *testing.T) {
	first := ParseBOQ(bolsoverTable(), BolsoverBOQv1)
	for range 5 {
		assert.Equal(t, first, ParseBOQ(bolsoverTable(), BolsoverBOQv1))
	}
}

func TestParseBOQ_ShortDescriptionSkipped(t *testing.T) {
	tbl := &RawTable{Rows: []Row{
		textRow("Item", "Work Description"),
		boqRow("1", "ab", "", 1, "nos", 10, 10),
		boqRow("2", "abc", "", 1, "nos", 10, 10),
	}}
	res := ParseBOQ(tbl, BolsoverBOQv1)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "abc", res.Items[0].Description)
	assert.Equal(t, 1, res.Skipped)
}
