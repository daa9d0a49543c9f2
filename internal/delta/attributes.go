package delta

import (
	"strconv"
	"strings"
)

// Attributes formats an insert. Only allow-listed keys survive normalization.
type Attributes map[string]any

const (
	AttrBold       = "bold"
	AttrItalic     = "italic"
	AttrUnderline  = "underline"
	AttrStrike     = "strike"
	AttrLink       = "link"
	AttrHeader     = "header"
	AttrList       = "list"
	AttrBlockquote = "blockquote"
	AttrCode       = "code"
	AttrCodeBlock  = "code-block"
)

var inlineAttributes = map[string]bool{
	AttrBold:      true,
	AttrItalic:    true,
	AttrUnderline: true,
	AttrStrike:    true,
	AttrLink:      true,
	AttrCode:      true,
}

// block attributes live on the newline that terminates a line
var blockAttributes = map[string]bool{
	AttrHeader:     true,
	AttrList:       true,
	AttrBlockquote: true,
	AttrCodeBlock:  true,
}

var listKinds = map[string]bool{
	"ordered":   true,
	"bullet":    true,
	"checked":   true,
	"unchecked": true,
}

// IsAllowed reports whether the attribute key is part of the supported mark set.
func IsAllowed(key string) bool {
	return inlineAttributes[key] || blockAttributes[key]
}

// IsBlock reports whether the attribute applies to a whole line.
func IsBlock(key string) bool {
	return blockAttributes[key]
}

func (a Attributes) clone() Attributes {
	if len(a) == 0 {
		return nil
	}
	c := make(Attributes, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

func (a Attributes) equal(b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || w != v {
			return false
		}
	}
	return true
}

// only keeps the keys accepted by keep.
func (a Attributes) only(keep map[string]bool) Attributes {
	var out Attributes
	for k, v := range a {
		if !keep[k] {
			continue
		}
		if out == nil {
			out = make(Attributes)
		}
		out[k] = v
	}
	return out
}

// merge applies patch on top of a; a nil value in patch removes the key.
func (a Attributes) merge(patch Attributes) Attributes {
	out := a.clone()
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		if out == nil {
			out = make(Attributes)
		}
		out[k] = v
	}
	return out
}

// HeadingLevel returns the header level carried by the attributes, or 0.
func (a Attributes) HeadingLevel() int {
	return toInt(a[AttrHeader])
}

// sanitize drops unknown keys and values of the wrong shape. It never fails.
func sanitize(a Attributes) Attributes {
	var out Attributes
	set := func(k string, v any) {
		if out == nil {
			out = make(Attributes)
		}
		out[k] = v
	}

	for k, v := range a {
		switch k {
		case AttrBold, AttrItalic, AttrUnderline, AttrStrike, AttrCode, AttrBlockquote, AttrCodeBlock:
			if truthy(v) {
				set(k, true)
			}
		case AttrLink:
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				set(k, s)
			}
		case AttrHeader:
			if level := toInt(v); level >= 1 && level <= 6 {
				set(k, level)
			}
		case AttrList:
			if s, ok := v.(string); ok && listKinds[s] {
				set(k, s)
			}
		}
	}

	return out
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && t != "false"
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return false
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		if t == float64(int(t)) {
			return int(t)
		}
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
	}
	return 0
}
