package delta

import "strings"

// Insert returns d with text inserted at offset at. The offset is clamped so
// the trailing newline always stays last.
func Insert(d Delta, at int, text string, attrs Attributes) Delta {
	if text == "" {
		return Sanitize(d)
	}
	at = clamp(at, 0, lastOffset(d))
	ops, i := splitAt(d.clone(), at)
	ops = insertOps(ops, i, Op{Insert: text, Attributes: attrs.clone()})
	return canonical(ops)
}

// InsertEmbed returns d with a single embed inserted at offset at.
func InsertEmbed(d Delta, at int, embed map[string]any, attrs Attributes) Delta {
	if len(embed) == 0 {
		return Sanitize(d)
	}
	at = clamp(at, 0, lastOffset(d))
	ops, i := splitAt(d.clone(), at)
	ops = insertOps(ops, i, Op{Embed: embed, Attributes: attrs.clone()})
	return canonical(ops)
}

// Delete removes n units starting at offset at. The trailing newline is never
// removed.
func Delete(d Delta, at, n int) Delta {
	return canonical(deleteRange(d.clone(), at, n, lastOffset(d)))
}

// Format applies attrs to the range [at, at+n). Inline keys apply to the text
// in range; block keys apply to every line the range touches. A nil value
// removes the key.
func Format(d Delta, at, n int, attrs Attributes) Delta {
	total := d.Len()
	at = clamp(at, 0, total)
	end := clamp(at+n, at, total)

	ops, i := splitAt(d.clone(), at)
	ops, j := splitAt(ops, end)
	for k := i; k < j; k++ {
		ops[k].Attributes = ops[k].Attributes.merge(attrs)
	}

	block := attrs.only(blockAttributes)
	if len(block) > 0 {
		// the line the range ends in is terminated by the next newline
		if nl := nextNewline(ops, end); nl >= 0 {
			var x int
			ops, x = splitAt(ops, nl)
			ops, _ = splitAt(ops, nl+1)
			ops[x].Attributes = ops[x].Attributes.merge(block)
		}
	}

	return canonical(ops)
}

func deleteRange(ops []Op, at, n, limit int) []Op {
	at = clamp(at, 0, limit)
	end := clamp(at+n, at, limit)
	if end == at {
		return ops
	}
	ops, i := splitAt(ops, at)
	ops, j := splitAt(ops, end)
	return append(ops[:i], ops[j:]...)
}

func insertOps(ops []Op, i int, op Op) []Op {
	out := make([]Op, 0, len(ops)+1)
	out = append(out, ops[:i]...)
	out = append(out, op)
	return append(out, ops[i:]...)
}

// lastOffset is the offset of the trailing newline.
func lastOffset(d Delta) int {
	n := d.Len()
	if n == 0 {
		return 0
	}
	return n - 1
}

// nextNewline returns the offset of the first newline at or after from, or -1.
func nextNewline(ops []Op, from int) int {
	pos := 0
	for _, op := range ops {
		n := op.Len()
		if op.IsEmbed() || pos+n <= from {
			pos += n
			continue
		}
		skip := 0
		if from > pos {
			skip = from - pos
		}
		k := 0
		for _, r := range op.Insert {
			if k >= skip && r == '\n' {
				return pos + k
			}
			k++
		}
		pos += n
	}
	return -1
}

// units projects the document onto one rune per unit, embeds included, so
// rune offsets in the projection equal document offsets.
func units(d Delta) string {
	var b strings.Builder
	for _, op := range d.Ops {
		if op.IsEmbed() {
			b.WriteRune(embedRune)
			continue
		}
		b.WriteString(op.Insert)
	}
	return b.String()
}

const embedRune = '￼'
