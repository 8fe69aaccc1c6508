package sanitize

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Text strips all markup from s and unescapes entities, so text sent by the
// server can be printed to a terminal or indexed as plain words. Control
// characters other than line breaks are dropped.
func Text(s string) string {
	s = strings.ReplaceAll(s, "<br>", "\n")
	s = strings.ReplaceAll(s, "<br/>", "\n")
	s = strings.ReplaceAll(s, "</p>", "\n")
	s = strings.ReplaceAll(s, "</div>", "\n")

	clean := html.UnescapeString(policy.Sanitize(s))
	clean = strings.Map(func(r rune) rune {
		if r != '\n' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, clean)

	lines := strings.Split(clean, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Line is Text folded onto a single line.
func Line(s string) string {
	return strings.Join(strings.Fields(Text(s)), " ")
}
