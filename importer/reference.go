package importer

import (
	"path/filepath"
	"regexp"
	"strings"
)

var referencePattern = regexp.MustCompile(`(?:^|[^A-Za-z])([A-Za-z]{3})[/_-](\d+)[/_-](\d+)`)

// ExtractReference pulls a BOQ reference such as "BBC-01-2026" out of an
// uploaded file name and normalizes it to "BBC/01/2026". It returns "" when
// the name carries no reference.
func ExtractReference(fileName string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	m := referencePattern.FindStringSubmatch(base)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1]) + "/" + m[2] + "/" + m[3]
}
