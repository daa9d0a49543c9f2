package delta

import (
	"encoding/json"
	"unicode/utf8"
)

// Delta is the structured content of a document: an ordered sequence of
// insert operations. A canonical delta always ends with a newline.
type Delta struct {
	Ops []Op
}

// Op inserts either text or a single embed, optionally with attributes.
type Op struct {
	Insert     string
	Embed      map[string]any
	Attributes Attributes
}

// Empty returns the canonical empty document, a single newline insert.
func Empty() Delta {
	return Delta{Ops: []Op{{Insert: "\n"}}}
}

// Text returns a canonical delta holding the given plain text.
func Text(text string) Delta {
	return canonical([]Op{{Insert: text}})
}

// IsEmbed reports whether the op inserts an embed rather than text.
func (o Op) IsEmbed() bool {
	return o.Embed != nil
}

// Len is the number of units the op occupies: runes for text, one for an embed.
func (o Op) Len() int {
	if o.IsEmbed() {
		return 1
	}
	return utf8.RuneCountInString(o.Insert)
}

func (o Op) clone() Op {
	c := Op{Insert: o.Insert, Attributes: o.Attributes.clone()}
	if o.Embed != nil {
		c.Embed = make(map[string]any, len(o.Embed))
		for k, v := range o.Embed {
			c.Embed[k] = v
		}
	}
	return c
}

func (o Op) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 2)
	if o.IsEmbed() {
		m["insert"] = o.Embed
	} else {
		m["insert"] = o.Insert
	}
	if len(o.Attributes) > 0 {
		m["attributes"] = o.Attributes
	}
	return json.Marshal(m)
}

// Len returns the document length in units.
func (d Delta) Len() int {
	n := 0
	for _, op := range d.Ops {
		n += op.Len()
	}
	return n
}

func (d Delta) clone() []Op {
	ops := make([]Op, len(d.Ops))
	for i, op := range d.Ops {
		ops[i] = op.clone()
	}
	return ops
}

func (d Delta) MarshalJSON() ([]byte, error) {
	ops := d.Ops
	if len(ops) == 0 {
		ops = Empty().Ops
	}
	return json.Marshal(struct {
		Ops []Op `json:"ops"`
	}{Ops: ops})
}

// UnmarshalJSON never fails: malformed content decodes to the empty document.
func (d *Delta) UnmarshalJSON(data []byte) error {
	*d = Normalize(data)
	return nil
}

// Bytes returns the JSON encoding of the delta.
func (d Delta) Bytes() []byte {
	data, err := json.Marshal(d)
	if err != nil {
		return []byte(`{"ops":[{"insert":"\n"}]}`)
	}
	return data
}

// splitAt makes sure an op boundary exists at offset at and returns the index
// of the first op starting there. ops must be owned by the caller.
func splitAt(ops []Op, at int) ([]Op, int) {
	pos := 0
	for i, op := range ops {
		if pos == at {
			return ops, i
		}
		n := op.Len()
		if at < pos+n {
			runes := []rune(op.Insert)
			k := at - pos
			left := Op{Insert: string(runes[:k]), Attributes: op.Attributes.clone()}
			right := Op{Insert: string(runes[k:]), Attributes: op.Attributes.clone()}

			out := make([]Op, 0, len(ops)+1)
			out = append(out, ops[:i]...)
			out = append(out, left, right)
			out = append(out, ops[i+1:]...)
			return out, i + 1
		}
		pos += n
	}

	return ops, len(ops)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
