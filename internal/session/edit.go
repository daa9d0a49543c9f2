package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
)

// Insert inserts text at offset at and returns the cursor after it.
func (s *Session) Insert(at int, text string, attrs delta.Attributes) (int, error) {
	if _, _, err := s.current(); err != nil {
		return at, err
	}
	return s.buffer.Insert(at, text, attrs), nil
}

// InsertEmbed inserts an embed such as an image at offset at.
func (s *Session) InsertEmbed(at int, embed map[string]any, attrs delta.Attributes) (int, error) {
	if _, _, err := s.current(); err != nil {
		return at, err
	}
	return s.buffer.InsertEmbed(at, embed, attrs), nil
}

// Delete removes n units at offset at and returns how many were removed. The
// final newline is never removed.
func (s *Session) Delete(at, n int) (int, error) {
	if _, _, err := s.current(); err != nil {
		return 0, err
	}
	return s.buffer.Delete(at, n), nil
}

// Format applies allow-listed attributes to n units at offset at. A nil
// attribute value removes the attribute.
func (s *Session) Format(at, n int, attrs delta.Attributes) error {
	if _, _, err := s.current(); err != nil {
		return err
	}
	s.buffer.Format(at, n, attrs)
	return nil
}

// SetTitle renames the open document.
func (s *Session) SetTitle(title string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.doc == nil {
		s.mu.Unlock()
		return ErrNoDocument
	}
	if s.doc.Title == title {
		s.mu.Unlock()
		return nil
	}
	s.doc.Title = title
	s.mu.Unlock()

	s.autosave.MarkDirty()
	return nil
}

// AttachCitation adds a citation to the document without inserting a token.
// Attaching an attached citation does nothing.
func (s *Session) AttachCitation(id string) error {
	if !delta.ValidCitationID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidCitationID, id)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.doc == nil {
		s.mu.Unlock()
		return ErrNoDocument
	}
	if slices.Contains(s.citationIDs, id) {
		s.mu.Unlock()
		return nil
	}
	s.citationIDs = append(s.citationIDs, id)
	docID := s.doc.ID
	s.mu.Unlock()

	s.autosave.MarkDirty()
	s.observer.CitationAttached(docID, id)
	return nil
}

// DetachCitation removes a citation and every one of its tokens, along with
// labels in front of them that this session inserted or derives from the
// citation metadata.
func (s *Session) DetachCitation(id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.doc == nil {
		s.mu.Unlock()
		return ErrNoDocument
	}
	i := slices.Index(s.citationIDs, id)
	if i >= 0 {
		s.citationIDs = slices.Delete(s.citationIDs, i, i+1)
	}
	labels := slices.Clone(s.labels[id])
	delete(s.labels, id)
	docID := s.doc.ID
	s.mu.Unlock()

	if citation, ok := s.citations.lookup(id); ok {
		labels = append(labels, delta.Label(citation.Metadata.Author, citation.Metadata.Year, citation.URL))
	}
	removed := s.buffer.RemoveCitation(id, labels...)
	if i < 0 && removed == 0 {
		return nil
	}

	s.autosave.MarkDirty()
	s.observer.CitationDetached(docID, id)
	return nil
}

// InsertCitation attaches a citation and inserts its token, labelled from
// the citation metadata, at offset at. It returns the cursor after the
// inserted text.
func (s *Session) InsertCitation(ctx context.Context, at int, id string) (int, error) {
	if _, _, err := s.current(); err != nil {
		return at, err
	}
	citation, err := s.citations.get(ctx, id)
	if err != nil {
		return at, fmt.Errorf("citation %s: %w", id, err)
	}
	label := delta.Label(citation.Metadata.Author, citation.Metadata.Year, citation.URL)
	return s.InsertCitationWithLabel(at, id, label)
}

// InsertCitationWithLabel attaches a citation and inserts its token after
// label at offset at.
func (s *Session) InsertCitationWithLabel(at int, id, label string) (int, error) {
	if err := s.AttachCitation(id); err != nil {
		return at, err
	}
	if label != "" {
		s.mu.Lock()
		if s.labels == nil {
			s.labels = make(map[string][]string)
		}
		if !slices.Contains(s.labels[id], label) {
			s.labels[id] = append(s.labels[id], label)
		}
		s.mu.Unlock()
	}
	return s.buffer.InsertCitation(at, id, label), nil
}

// SelectionChanged is called when the editor selection changes. Losing the
// selection entirely, as when the editor loses focus, flushes unsaved
// changes.
func (s *Session) SelectionChanged(ctx context.Context, hasSelection bool) error {
	s.mu.Lock()
	if s.doc == nil || s.closed {
		s.mu.Unlock()
		return nil
	}
	had := s.hasSelection
	s.hasSelection = hasSelection
	s.mu.Unlock()

	if had && !hasSelection {
		return s.autosave.Flush(ctx)
	}
	return nil
}
