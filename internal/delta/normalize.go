package delta

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Normalize parses possibly malformed stored content into a canonical delta.
// It accepts either {"ops":[...]} or a bare op array and never fails: missing,
// empty or unreadable input yields the empty document.
func Normalize(raw []byte) Delta {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return Empty()
	}

	root := gjson.ParseBytes(raw)
	ops := root
	if !root.IsArray() {
		ops = root.Get("ops")
	}
	if !ops.IsArray() {
		return Empty()
	}

	var parsed []Op
	ops.ForEach(func(_, value gjson.Result) bool {
		var attrs Attributes
		if m, ok := value.Get("attributes").Value().(map[string]interface{}); ok {
			attrs = Attributes(m)
		}

		insert := value.Get("insert")
		switch {
		case insert.Type == gjson.String:
			parsed = append(parsed, Op{Insert: insert.String(), Attributes: attrs})
		case insert.IsObject():
			if embed, ok := insert.Value().(map[string]interface{}); ok {
				parsed = append(parsed, Op{Embed: embed, Attributes: attrs})
			}
		}
		return true
	})

	return canonical(parsed)
}

// Sanitize returns the canonical form of an in-memory delta.
func Sanitize(d Delta) Delta {
	return canonical(d.clone())
}

// canonical filters attributes through the allow-list, keeps block attributes
// on newline runs only, merges neighbours with equal attributes and makes
// sure the document ends with a newline.
func canonical(ops []Op) Delta {
	out := make([]Op, 0, len(ops)+1)
	for _, op := range ops {
		attrs := sanitize(op.Attributes)
		if op.IsEmbed() {
			if len(op.Embed) == 0 {
				continue
			}
			out = appendOp(out, Op{Embed: op.Embed, Attributes: attrs.only(inlineAttributes)})
			continue
		}

		text := strings.ToValidUTF8(op.Insert, "�")
		inline := attrs.only(inlineAttributes)
		block := attrs.only(blockAttributes)
		for text != "" {
			i := strings.IndexByte(text, '\n')
			switch {
			case i < 0:
				out = appendOp(out, Op{Insert: text, Attributes: inline.clone()})
				text = ""
			case i > 0:
				out = appendOp(out, Op{Insert: text[:i], Attributes: inline.clone()})
				text = text[i:]
			default:
				j := 0
				for j < len(text) && text[j] == '\n' {
					j++
				}
				out = appendOp(out, Op{Insert: text[:j], Attributes: block.clone()})
				text = text[j:]
			}
		}
	}

	if len(out) == 0 || !strings.HasSuffix(out[len(out)-1].Insert, "\n") || out[len(out)-1].IsEmbed() {
		out = appendOp(out, Op{Insert: "\n"})
	}

	return Delta{Ops: out}
}

func appendOp(ops []Op, op Op) []Op {
	if n := len(ops); n > 0 {
		last := ops[n-1]
		if !last.IsEmbed() && !op.IsEmbed() && last.Attributes.equal(op.Attributes) {
			ops[n-1].Insert = last.Insert + op.Insert
			return ops
		}
	}
	return append(ops, op)
}
