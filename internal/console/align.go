package console

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// DefaultTabWidth is the tab stop used when no configuration overrides it.
const DefaultTabWidth = 8

// ExpandTabs replaces every tab with spaces up to the next tab stop. A field
// that already ends on a stop still gets a full width of padding, so adjacent
// fields never touch.
func ExpandTabs(s string, width int) string {
	if width < 1 {
		width = 1
	}
	if !strings.ContainsRune(s, '\t') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + width*strings.Count(s, "\t"))
	col := 0
	for _, r := range s {
		if r == '\t' {
			pad := width - col%width
			b.WriteString(strings.Repeat(" ", pad))
			col += pad
			continue
		}
		b.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return b.String()
}

// FormatFields joins record fields on tab stops.
func FormatFields(fields []string, width int) string {
	return ExpandTabs(strings.Join(fields, "\t"), width)
}
