package delta

import "strings"

// OutlineEntry is a heading found in the document.
type OutlineEntry struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Offset int    `json:"offset"`
}

// BuildOutline walks the document line by line and returns its level 1 to 3
// headings in document order. Offset is the unit offset of the line start;
// embeds take one unit but add no text.
func BuildOutline(d Delta) []OutlineEntry {
	var entries []OutlineEntry
	var line strings.Builder
	lineStart, pos := 0, 0

	for _, op := range d.Ops {
		if op.IsEmbed() {
			pos++
			continue
		}

		for _, r := range op.Insert {
			pos++
			if r != '\n' {
				line.WriteRune(r)
				continue
			}

			if level := op.Attributes.HeadingLevel(); level >= 1 && level <= 3 {
				entries = append(entries, OutlineEntry{
					Level:  level,
					Text:   strings.TrimSpace(line.String()),
					Offset: lineStart,
				})
			}
			line.Reset()
			lineStart = pos
		}
	}

	return entries
}
