package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// GeneratePDF renders the client-facing BOQ: categories, items with their
// sell prices, category subtotals and the grand total. Costs stay internal.
func GeneratePDF(data ExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, data)
	addTableHeader(m)
	for _, r := range data.Rows {
		addTableRow(m, r)
	}
	addSummary(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addHeader(m core.Maroto, data ExportData) {
	grey := &props.Color{Red: 80, Green: 80, Blue: 80}

	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	ref := data.ReferenceNumber
	if ref == "" {
		ref = "-"
	}
	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Reference: %s (v%d)", ref, data.Version), props.Text{
					Size:  9,
					Align: align.Left,
					Color: grey,
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Date: %s", data.CreatedDate), props.Text{
					Size:  9,
					Align: align.Right,
					Color: grey,
				}),
			),
		),
	)

	m.AddRows(row.New(4))
}

func addTableHeader(m core.Maroto) {
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	headerCell := props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}

	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(text.New("#", headerText)).WithStyle(&headerCell),
			col.New(5).Add(text.New("Description", headerTextLeft)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Qty", headerText)).WithStyle(&headerCell),
			col.New(1).Add(text.New("Unit", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Rate", headerText)).WithStyle(&headerCell),
			col.New(2).Add(text.New("Amount", headerText)).WithStyle(&headerCell),
		),
	)
}

func addTableRow(m core.Maroto, r ExportRow) {
	if r.IsCategory {
		bold := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Left}
		boldRight := bold
		boldRight.Align = align.Right
		cell := &props.Cell{BackgroundColor: &props.Color{Red: 235, Green: 235, Blue: 235}}

		m.AddRows(
			row.New(7).Add(
				col.New(1).Add(text.New(r.Index, bold)).WithStyle(cell),
				col.New(9).Add(text.New(r.Description, bold)).WithStyle(cell),
				col.New(2).Add(text.New(FormatMoney(r.Price), boldRight)).WithStyle(cell),
			),
		)
		return
	}

	base := props.Text{Size: 7, Align: align.Center}
	if r.Optional {
		base.Style = fontstyle.Italic
		base.Color = &props.Color{Red: 110, Green: 110, Blue: 110}
	}
	left := base
	left.Align = align.Left
	right := base
	right.Align = align.Right

	desc := "  " + r.Description
	if r.Optional {
		desc += " (optional)"
	}

	m.AddRows(
		row.New(7).Add(
			col.New(1).Add(text.New(r.Index, base)),
			col.New(5).Add(text.New(desc, left)),
			col.New(1).Add(text.New(formatQty(r.Qty), right)),
			col.New(1).Add(text.New(r.Unit, base)),
			col.New(2).Add(text.New(FormatMoney(r.UnitPrice), right)),
			col.New(2).Add(text.New(FormatMoney(r.Price), right)),
		),
	)
}

func addSummary(m core.Maroto, data ExportData) {
	m.AddRows(row.New(6))

	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	style := props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Align: align.Right,
	}

	m.AddRows(
		row.New(8).Add(
			col.New(8).Add(text.New("Total", style)).WithStyle(summaryCell),
			col.New(4).Add(text.New(FormatMoney(data.ClientPrice), style)).WithStyle(summaryCell),
		),
	)

	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(12).Add(
				text.New(fmt.Sprintf("Generated on %s", data.CreatedDate), props.Text{
					Size:  7,
					Align: align.Left,
					Color: &props.Color{Red: 140, Green: 140, Blue: 140},
				}),
			),
		),
	)
}
