package importer

// Uncategorised is the category given to items that precede any category row
// or that have no category in a manual mapping.
const Uncategorised = "Uncategorised"

// DefaultUnit is used when a row carries no unit of measure.
const DefaultUnit = "item"

// FormatProfile describes one fixed-layout BOQ workbook. Column indices are
// zero based. Alternate supplier layouts are added as new profiles.
type FormatProfile struct {
	Name string

	// HeaderScanRows bounds the search for the header row.
	HeaderScanRows int
	// HeaderPhrase alone identifies the header row.
	HeaderPhrase string
	// HeaderTerms must all be present for a row to count as the header row.
	HeaderTerms []string
	// FallbackDataRow is where data is assumed to start when no header row
	// is found.
	FallbackDataRow int

	DescriptionCols []int
	QuantityCol     int
	UnitCol         int
	UnitPriceCol    int
	TotalCol        int
	// CostCols are tried in order; the first positive value is the supplier
	// unit cost.
	CostCols []int
	// OptionalCol holds the "optional" marker that keeps zero-priced items.
	OptionalCol int
	// PricedCols must all be empty or non-positive on a category row.
	PricedCols []int

	// MarkerSubstrings flag subtotal, total and sheet metadata rows.
	MarkerSubstrings []string
	MinDescriptionLen int

	// CostFactor estimates unit cost from unit price when the sheet has no
	// supplier cost (0.77 is the inverse of a 30% markup).
	CostFactor float64
}

// BolsoverBOQv1 is the layout of the Bolsover bill of quantities template.
// The constants are tuned to that one organisation's workbook.
var BolsoverBOQv1 = FormatProfile{
	Name:            "Bolsover BOQ v1",
	HeaderScanRows:  30,
	HeaderPhrase:    "work description",
	HeaderTerms:     []string{"description", "qty"},
	FallbackDataRow: 20,

	DescriptionCols: []int{1, 2},
	QuantityCol:     5,
	UnitCol:         6,
	UnitPriceCol:    7,
	TotalCol:        8,
	CostCols:        []int{9, 10},
	OptionalCol:     4,
	PricedCols:      []int{5, 6, 7, 8},

	MarkerSubstrings: []string{
		"sub-total",
		"subtotal",
		"total of",
		"grand total",
		"work description",
		"bill of quantities",
		"project name",
		"customer name",
	},
	MinDescriptionLen: 3,
	CostFactor:        0.77,
}

// PhaseNames maps Primavera activity code prefixes to phase display names.
var PhaseNames = map[string]string{
	"A": "Mobilization & Approvals",
	"B": "Demolition",
	"C": "Construction & Finishing",
	"D": "Electrical",
	"E": "Aluminum & Windows",
	"F": "Garage Works",
	"G": "External & Landscaping",
	"H": "HVAC",
	"I": "Interior Fit-out",
	"J": "Joinery",
	"K": "Kitchen",
	"L": "Lighting",
	"M": "MEP",
	"N": "Network & IT",
	"O": "Other",
	"P": "Plumbing",
	"Q": "Quality & Snagging",
	"R": "Roofing",
	"S": "Structural",
	"T": "Tiling",
	"U": "Utilities",
	"V": "Ventilation",
	"W": "Waterproofing",
	"X": "External Cladding",
	"Y": "Yard Works",
	"Z": "Final Handover",
}

// PhaseName returns the display name for a prefix.
func PhaseName(prefix string) string {
	if name, ok := PhaseNames[prefix]; ok {
		return name
	}
	return "Phase " + prefix
}
