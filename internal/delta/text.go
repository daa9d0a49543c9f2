package delta

import (
	"html"
	"strings"
)

// PlainText concatenates the inserted text. Embeds contribute nothing.
func PlainText(d Delta) string {
	var b strings.Builder
	for _, op := range d.Ops {
		if !op.IsEmbed() {
			b.WriteString(op.Insert)
		}
	}
	return b.String()
}

// HTML renders the plain text as a single escaped paragraph with line breaks.
// It is the fallback markup stored alongside the delta.
func HTML(d Delta) string {
	escaped := html.EscapeString(PlainText(d))
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// Lines returns the number of lines in the document.
func Lines(d Delta) int {
	return strings.Count(PlainText(d), "\n")
}
