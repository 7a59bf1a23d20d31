package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractReference(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"BBC-01-2026.xlsx", "BBC/01/2026"},
		{"bbc_01_2026 revised.xlsx", "BBC/01/2026"},
		{"/tmp/uploads/Quote VLA/12/2025.csv", ""},
		{"BOQ for VLA-12-2025 (final).xls", "VLA/12/2025"},
		{"Villa BOQ final.xlsx", ""},
		{"ABCD-01-2026.xlsx", ""},
		{"Quote_ABC-01-2026.xlsx", "ABC/01/2026"},
		{"2026ABC-01-2026.csv", "ABC/01/2026"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractReference(tt.file))
		})
	}
}
