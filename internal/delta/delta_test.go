package delta

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		text string
	}{
		{name: "missing", raw: "", text: "\n"},
		{name: "not json", raw: "{ops:", text: "\n"},
		{name: "empty object", raw: "{}", text: "\n"},
		{name: "empty ops", raw: `{"ops":[]}`, text: "\n"},
		{name: "ops not an array", raw: `{"ops":"hello"}`, text: "\n"},
		{name: "missing trailing newline", raw: `{"ops":[{"insert":"Hi"}]}`, text: "Hi\n"},
		{name: "bare op array", raw: `[{"insert":"Hi\n"}]`, text: "Hi\n"},
		{name: "non string inserts skipped", raw: `{"ops":[{"insert":42},{"insert":"ok\n"}]}`, text: "ok\n"},
		{name: "embed kept", raw: `{"ops":[{"insert":{"image":"a.png"}},{"insert":"x\n"}]}`, text: "x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Normalize([]byte(tt.raw))
			assert.Equal(t, tt.text, PlainText(d))
			assert.GreaterOrEqual(t, Lines(d), 1)
			assert.True(t, strings.HasSuffix(PlainText(d), "\n"))
		})
	}
}

func TestNormalize_AttributeAllowList(t *testing.T) {
	raw := `{"ops":[
		{"insert":"x","attributes":{"bold":true,"color":"red","font":"serif"}},
		{"insert":"Title\n","attributes":{"header":1,"italic":true}},
		{"insert":"y","attributes":{"list":"nonsense","link":"https://example.com"}},
		{"insert":"\n"}
	]}`

	d := Normalize([]byte(raw))
	require.Len(t, d.Ops, 5)

	assert.Equal(t, Op{Insert: "x", Attributes: Attributes{AttrBold: true}}, d.Ops[0])
	assert.Equal(t, Op{Insert: "Title", Attributes: Attributes{AttrItalic: true}}, d.Ops[1])
	assert.Equal(t, Op{Insert: "\n", Attributes: Attributes{AttrHeader: 1}}, d.Ops[2])
	assert.Equal(t, Op{Insert: "y", Attributes: Attributes{AttrLink: "https://example.com"}}, d.Ops[3])
	assert.Equal(t, Op{Insert: "\n"}, d.Ops[4])
}

func TestDelta_JSON(t *testing.T) {
	d := Text("Hi")

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ops":[{"insert":"Hi\n"}]}`, string(data))

	var back Delta
	require.NoError(t, json.Unmarshal([]byte(`{"ops":[{"insert":"Hi\n"}]}`), &back))
	assert.Equal(t, d, back)

	var broken Delta
	require.NoError(t, json.Unmarshal([]byte(`null`), &broken))
	assert.Equal(t, Empty(), broken)
}

func TestInsertCitationToken(t *testing.T) {
	d := Text("Hello")

	got, cursor := InsertCitationToken(d, 5, "c1", "(source)")
	assert.Equal(t, "Hello(source) ⟦cite:c1⟧ \n", PlainText(got))
	assert.Equal(t, 5+len([]rune("(source) ⟦cite:c1⟧ ")), cursor)

	// the input is not modified
	assert.Equal(t, "Hello\n", PlainText(d))

	noLabel, cursor := InsertCitationToken(d, 0, "c1", "")
	assert.Equal(t, "⟦cite:c1⟧ Hello\n", PlainText(noLabel))
	assert.Equal(t, len([]rune("⟦cite:c1⟧ ")), cursor)

	// offsets past the end land before the trailing newline
	clamped, _ := InsertCitationToken(d, 99, "c1", "(x)")
	assert.Equal(t, "Hello(x) ⟦cite:c1⟧ \n", PlainText(clamped))
}

func TestRemoveCitationTokens_RoundTrip(t *testing.T) {
	base := Text("Hello world, this is a test.")

	tests := []struct {
		id    string
		at    int
		label string
	}{
		{id: "c1", at: 5, label: "(source)"},
		{id: "abc-123", at: 0, label: "(Smith, 2020)"},
		{id: "9f1c2d", at: 11, label: "(example.com)"},
		{id: "x_y", at: 28, label: ""},
		{id: "p", at: 3, label: "(Smith (ed.), 1999)"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			inserted, _ := InsertCitationToken(base, tt.at, tt.id, tt.label)
			assert.Equal(t, 1, CountCitationTokens(inserted, tt.id))

			removed := RemoveCitationTokens(inserted, tt.id, tt.label)
			assert.Equal(t, PlainText(base), PlainText(removed))
		})
	}
}

func TestRemoveCitationTokens_KeepsUserText(t *testing.T) {
	tests := []struct {
		name   string
		base   Delta
		at     int
		label  string
		labels []string
		want   string
	}{
		{name: "unlabelled after parenthetical", base: Text("See (fig. 2) "), at: 13, want: "See (fig. 2) \n"},
		{name: "other label before token", base: Text("See (fig. 2) "), at: 13, label: "(a.com)", labels: []string{"(b.com)"}, want: "See (fig. 2) (a.com) \n"},
		{name: "known label", base: Text("See (fig. 2) "), at: 13, label: "(a.com)", labels: []string{"(a.com)"}, want: "See (fig. 2) \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inserted, _ := InsertCitationToken(tt.base, tt.at, "c1", tt.label)
			got := RemoveCitationTokens(inserted, "c1", tt.labels...)
			assert.Equal(t, tt.want, PlainText(got))
		})
	}

	typed := Text("as argued (in part) ⟦cite:c1⟧ here")
	assert.Equal(t, "as argued (in part) here\n", PlainText(RemoveCitationTokens(typed, "c1")))
}

func TestRemoveCitationTokens_AllOccurrences(t *testing.T) {
	d := Text("Alpha beta gamma")
	d, _ = InsertCitationToken(d, 16, "c1", "(a.com)")
	d, _ = InsertCitationToken(d, 10, "c2", "(b.com)")
	d, _ = InsertCitationToken(d, 5, "c1", "(a.com)")
	d, _ = InsertCitationToken(d, 0, "c1", "(a.com)")
	require.Equal(t, 3, CountCitationTokens(d, "c1"))

	got := RemoveCitationTokens(d, "c1", "(a.com)")
	assert.Equal(t, "Alpha beta(b.com) ⟦cite:c2⟧  gamma\n", PlainText(got))
	assert.Equal(t, 0, CountCitationTokens(got, "c1"))
	assert.NotContains(t, PlainText(got), Token("c1"))
	assert.Equal(t, 1, CountCitationTokens(got, "c2"))
	assert.Equal(t, []string{"c2"}, TokenIDs(got))
}

func TestRemoveCitationTokens_NotPresent(t *testing.T) {
	d := Text("Nothing here")
	assert.Equal(t, d, RemoveCitationTokens(d, "c1"))
}

func TestTokenIDs(t *testing.T) {
	d := Text("a ⟦cite:one⟧ b ⟦cite:two⟧ c ⟦cite:one⟧")
	assert.Equal(t, []string{"one", "two"}, TokenIDs(d))
	assert.Empty(t, TokenIDs(Empty()))
}

func TestValidCitationID(t *testing.T) {
	assert.True(t, ValidCitationID("c1"))
	assert.False(t, ValidCitationID(""))
	assert.False(t, ValidCitationID("a b"))
	assert.False(t, ValidCitationID("a⟧"))
}

func TestBuildOutline(t *testing.T) {
	d := Sanitize(Delta{Ops: []Op{
		{Insert: "Intro"},
		{Insert: "\n", Attributes: Attributes{AttrHeader: 1}},
		{Insert: "Details"},
		{Insert: "\n", Attributes: Attributes{AttrHeader: 2}},
		{Insert: "Body text\n"},
	}})

	assert.Equal(t, []OutlineEntry{
		{Level: 1, Text: "Intro", Offset: 0},
		{Level: 2, Text: "Details", Offset: 6},
	}, BuildOutline(d))
}

func TestBuildOutline_DecodedHeaderLevels(t *testing.T) {
	d := Delta{Ops: []Op{
		{Insert: "Intro"},
		{Insert: "\n", Attributes: Attributes{AttrHeader: float64(1)}},
		{Insert: "Details"},
		{Insert: "\n", Attributes: Attributes{AttrHeader: float64(2)}},
		{Insert: "Body\n"},
	}}

	assert.Equal(t, []OutlineEntry{
		{Level: 1, Text: "Intro", Offset: 0},
		{Level: 2, Text: "Details", Offset: 6},
	}, BuildOutline(d))
	assert.Equal(t, 0, Attributes{AttrHeader: 1.5}.HeadingLevel())
}

func TestBuildOutline_Embeds(t *testing.T) {
	d := Sanitize(Delta{Ops: []Op{
		{Insert: "a"},
		{Embed: map[string]any{"image": "x.png"}},
		{Insert: "b\n"},
		{Embed: map[string]any{"formula": "e=mc^2"}},
		{Insert: "  Head  "},
		{Insert: "\n", Attributes: Attributes{AttrHeader: 3}},
		{Insert: "Deep"},
		{Insert: "\n", Attributes: Attributes{AttrHeader: 4}},
	}})

	assert.Equal(t, []OutlineEntry{
		{Level: 3, Text: "Head", Offset: 4},
	}, BuildOutline(d))
}

func TestBuildOutline_Idempotent(t *testing.T) {
	d := Format(Text("One\nTwo\nThree"), 4, 3, Attributes{AttrHeader: 2})
	first := BuildOutline(d)
	assert.Equal(t, first, BuildOutline(d))
	assert.Equal(t, []OutlineEntry{{Level: 2, Text: "Two", Offset: 4}}, first)
}

func TestDelete(t *testing.T) {
	d := Text("abcdef")

	assert.Equal(t, "adef\n", PlainText(Delete(d, 1, 2)))
	assert.Equal(t, "a\n", PlainText(Delete(d, 1, 100)))
	assert.Equal(t, "\n", PlainText(Delete(d, 0, 100)))
	assert.Equal(t, "abcdef\n", PlainText(Delete(d, 3, 0)))
}

func TestFormat(t *testing.T) {
	d := Format(Text("abc"), 0, 1, Attributes{AttrBold: true, "color": "red"})
	require.Len(t, d.Ops, 2)
	assert.Equal(t, Op{Insert: "a", Attributes: Attributes{AttrBold: true}}, d.Ops[0])
	assert.Equal(t, Op{Insert: "bc\n"}, d.Ops[1])

	cleared := Format(d, 0, 3, Attributes{AttrBold: nil})
	assert.Equal(t, Text("abc"), cleared)
}

func TestInsert_SplitsAndMerges(t *testing.T) {
	d := Format(Text("abcd"), 1, 2, Attributes{AttrItalic: true})
	d = Insert(d, 2, "X", Attributes{AttrItalic: true})

	require.Len(t, d.Ops, 3)
	assert.Equal(t, "a", d.Ops[0].Insert)
	assert.Equal(t, Op{Insert: "bXc", Attributes: Attributes{AttrItalic: true}}, d.Ops[1])
	assert.Equal(t, "d\n", d.Ops[2].Insert)
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name   string
		author string
		year   string
		url    string
		want   string
	}{
		{name: "author and year", author: "Smith", year: "2020", url: "https://example.com", want: "(Smith, 2020)"},
		{name: "author only", author: "Smith", url: "https://www.example.com/a", want: "(example.com)"},
		{name: "domain", url: "https://news.example.org/story?id=1", want: "(news.example.org)"},
		{name: "unparsable url", url: "not a url", want: "(not a url)"},
		{name: "bad escape", url: "http://%zz", want: "(http://%zz)"},
		{name: "no url", want: "(source)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.author, tt.year, tt.url))
		})
	}
}

func TestHTML(t *testing.T) {
	assert.Equal(t, "<p>a &lt;b&gt;<br>c<br></p>", HTML(Text("a <b>\nc")))
}

func TestBuffer_NotifiesChanges(t *testing.T) {
	b := NewBuffer(Text("Hello"))

	var events []ChangeEvent
	b.OnChange(func(ev ChangeEvent) {
		events = append(events, ev)
	})

	cursor := b.InsertCitation(5, "c1", "(source)")
	assert.Equal(t, "Hello(source) ⟦cite:c1⟧ \n", PlainText(b.Snapshot()))
	assert.Equal(t, 24, cursor)

	b.Insert(0, "> ", nil)
	b.InsertEmbed(0, map[string]any{"image": "a.png"}, nil)
	b.Format(0, 3, Attributes{AttrBold: true})
	removed := b.RemoveCitation("c1", "(source)")
	b.Delete(0, 1)
	b.Replace(Text("fresh"))

	assert.Equal(t, 19, removed)
	assert.Equal(t, []ChangeEvent{
		{Kind: ChangeInsert, At: 5, Units: 19},
		{Kind: ChangeInsert, At: 0, Units: 2},
		{Kind: ChangeInsert, At: 0, Units: 1},
		{Kind: ChangeFormat, At: 0, Units: 3},
		{Kind: ChangeDelete, Units: 19},
		{Kind: ChangeDelete, At: 0, Units: 1},
		{Kind: ChangeReplace, Units: 6},
	}, events)
	assert.Equal(t, "fresh\n", PlainText(b.Snapshot()))
}

func TestBuffer_NoEventForNoop(t *testing.T) {
	b := NewBuffer(Empty())
	calls := 0
	b.OnChange(func(ChangeEvent) { calls++ })

	b.Insert(0, "", nil)
	b.Delete(0, 5)
	b.RemoveCitation("missing")
	b.Format(0, 0, Attributes{AttrBold: true})

	assert.Equal(t, 0, calls)
}
