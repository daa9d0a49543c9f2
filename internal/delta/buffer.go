package delta

import (
	"sync"
	"unicode/utf8"
)

type ChangeKind int

const (
	ChangeInsert ChangeKind = iota
	ChangeDelete
	ChangeFormat
	ChangeReplace
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInsert:
		return "insert"
	case ChangeDelete:
		return "delete"
	case ChangeFormat:
		return "format"
	case ChangeReplace:
		return "replace"
	}
	return "unknown"
}

// ChangeEvent describes one mutation of a Buffer. Units is the inserted
// length for inserts and the affected length for deletes and formats.
type ChangeEvent struct {
	Kind  ChangeKind
	At    int
	Units int
}

// Buffer is the live, mutable content of an open document. After every
// mutation it calls the registered change hook synchronously, outside of its
// own lock.
type Buffer struct {
	mu       sync.RWMutex
	content  Delta
	onChange func(ChangeEvent)
}

// NewBuffer creates a buffer holding the canonical form of d.
func NewBuffer(d Delta) *Buffer {
	return &Buffer{content: Sanitize(d)}
}

// OnChange registers the change hook, replacing any previous one.
func (b *Buffer) OnChange(fn func(ChangeEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// Snapshot returns the current content. The returned delta is not shared
// with the buffer.
func (b *Buffer) Snapshot() Delta {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Delta{Ops: b.content.clone()}
}

// Len returns the content length in units.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.content.Len()
}

// Insert inserts text at offset at and returns the cursor after it.
func (b *Buffer) Insert(at int, text string, attrs Attributes) int {
	if text == "" {
		return at
	}
	b.mu.Lock()
	at = clamp(at, 0, lastOffset(b.content))
	b.content = Insert(b.content, at, text, attrs)
	fn := b.onChange
	b.mu.Unlock()

	n := utf8.RuneCountInString(text)
	notify(fn, ChangeEvent{Kind: ChangeInsert, At: at, Units: n})
	return at + n
}

// InsertEmbed inserts an embed at offset at and returns the cursor after it.
func (b *Buffer) InsertEmbed(at int, embed map[string]any, attrs Attributes) int {
	if len(embed) == 0 {
		return at
	}
	b.mu.Lock()
	at = clamp(at, 0, lastOffset(b.content))
	b.content = InsertEmbed(b.content, at, embed, attrs)
	fn := b.onChange
	b.mu.Unlock()

	notify(fn, ChangeEvent{Kind: ChangeInsert, At: at, Units: 1})
	return at + 1
}

// InsertCitation inserts a labelled citation token and returns the cursor
// after it.
func (b *Buffer) InsertCitation(at int, citationID, label string) int {
	b.mu.Lock()
	before := b.content.Len()
	var cursor int
	b.content, cursor = InsertCitationToken(b.content, at, citationID, label)
	inserted := b.content.Len() - before
	fn := b.onChange
	b.mu.Unlock()

	notify(fn, ChangeEvent{Kind: ChangeInsert, At: cursor - inserted, Units: inserted})
	return cursor
}

// RemoveCitation removes every token of the citation, and the given labels
// right before them, and returns the number of units removed.
func (b *Buffer) RemoveCitation(citationID string, labels ...string) int {
	b.mu.Lock()
	before := b.content.Len()
	b.content = RemoveCitationTokens(b.content, citationID, labels...)
	removed := before - b.content.Len()
	fn := b.onChange
	b.mu.Unlock()

	if removed > 0 {
		notify(fn, ChangeEvent{Kind: ChangeDelete, Units: removed})
	}
	return removed
}

// Delete removes up to n units at offset at and returns how many were removed.
func (b *Buffer) Delete(at, n int) int {
	b.mu.Lock()
	before := b.content.Len()
	b.content = Delete(b.content, at, n)
	removed := before - b.content.Len()
	fn := b.onChange
	b.mu.Unlock()

	if removed > 0 {
		notify(fn, ChangeEvent{Kind: ChangeDelete, At: at, Units: removed})
	}
	return removed
}

// Format applies attrs to n units at offset at.
func (b *Buffer) Format(at, n int, attrs Attributes) {
	if n <= 0 || len(attrs) == 0 {
		return
	}
	b.mu.Lock()
	b.content = Format(b.content, at, n, attrs)
	fn := b.onChange
	b.mu.Unlock()

	notify(fn, ChangeEvent{Kind: ChangeFormat, At: at, Units: n})
}

// Replace swaps the whole content, as done when a document is opened or
// restored.
func (b *Buffer) Replace(d Delta) {
	b.mu.Lock()
	b.content = Sanitize(d)
	n := b.content.Len()
	fn := b.onChange
	b.mu.Unlock()

	notify(fn, ChangeEvent{Kind: ChangeReplace, Units: n})
}

func notify(fn func(ChangeEvent), ev ChangeEvent) {
	if fn != nil {
		fn(ev)
	}
}
