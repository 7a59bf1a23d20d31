//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate

package templates

import (
	"net/url"
	"strings"
)

// mappingRoles lists the column roles offered by the manual mapping form.
var mappingRoles = []string{"description", "quantity", "unit", "rate", "category"}

// path joins escaped segments into an absolute URL path.
func path(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(escaped, "/")
}
