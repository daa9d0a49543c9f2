// Package session drives one editor: the open document, its autosave and
// checkpoints, restores, and the citations referenced from its content.
package session

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/autosave"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/checkpoint"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
	"github.com/sirupsen/logrus"
)

// Session is the single editor of one user. At most one document is open at
// a time. Results of saves, checkpoints and fetches issued for a document
// that is no longer open are dropped.
type Session struct {
	backend  Backend
	cfg      Config
	observer Observer

	buffer    *delta.Buffer
	autosave  *autosave.Controller
	scheduler *checkpoint.Scheduler
	citations *citationCache
	documents *documentList

	// opMu serializes open, restore and close.
	opMu sync.Mutex

	// mu guards the fields below. It is never held while calling into the
	// autosave controller, the scheduler or the observer.
	mu           sync.Mutex
	generation   uint64
	doc          *v1.Document
	citationIDs  []string
	labels       map[string][]string
	outline      []delta.OutlineEntry
	checkpoints  []v1.Checkpoint
	hasSelection bool
	closed       bool
}

// New checks the access gate once and returns a session with no document
// open.
func New(ctx context.Context, backend Backend, cfg Config) (*Session, error) {
	access, err := backend.EditorAccess(ctx)
	if err != nil {
		return nil, fmt.Errorf("check editor access: %w", err)
	}
	if !access.Allowed {
		logrus.Infof("editor access denied: %s", access.Reason)
		if access.Reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrEditorAccessDenied, access.Reason)
		}
		return nil, ErrEditorAccessDenied
	}

	cfg = cfg.withDefaults()
	s := &Session{
		backend:   backend,
		cfg:       cfg,
		observer:  cfg.Observer,
		buffer:    delta.NewBuffer(delta.Empty()),
		citations: newCitationCache(backend),
		documents: &documentList{store: backend},
	}
	s.buffer.OnChange(s.contentChanged)
	s.autosave = autosave.NewController(cfg.Clock, cfg.Debounce, s.save, s.saveStatusChanged)
	s.scheduler = checkpoint.NewScheduler(checkpoint.Config{
		Interval:   cfg.CheckpointInterval,
		Threshold:  cfg.CheckpointThreshold,
		AlertAfter: cfg.CheckpointAlertAfter,
		Clock:      cfg.Clock,
		OnFailed:   s.checkpointFailed,
	}, s.createCheckpoint)

	return s, nil
}

// Open flushes unsaved changes of the current document, then fetches and
// shows the document id. A failed flush does not stop the switch; it is
// reported through the save status and Observer.SwitchFlushFailed.
func (s *Session) Open(ctx context.Context, id string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	var prev string
	if s.doc != nil {
		prev = s.doc.ID
	}
	gen := s.generation
	s.mu.Unlock()

	if prev != "" && s.autosave.IsDirty() {
		if err := s.autosave.Flush(ctx); err != nil {
			logrus.Warnf("flush of %s before opening %s failed: %v", prev, id, err)
			s.observer.SwitchFlushFailed(prev, id, err)
		}
	}

	doc, err := s.backend.GetDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("open document %s: %w", id, err)
	}
	content := delta.Normalize(doc.ContentDelta)

	s.mu.Lock()
	if gen != s.generation || s.closed {
		s.mu.Unlock()
		return ErrStaleResponse
	}
	s.generation++
	doc.ContentDelta = nil
	doc.ContentHTML = ""
	s.doc = doc
	var repaired bool
	s.citationIDs, repaired = withTokenIDs(uniqueIDs(doc.CitationIDs), content)
	s.labels = nil
	s.buffer.Replace(content)
	s.outline = delta.BuildOutline(content)
	s.checkpoints = nil
	s.hasSelection = false
	outline := slices.Clone(s.outline)
	referenced := slices.Clone(s.citationIDs)
	s.mu.Unlock()

	s.autosave.Reset()
	s.scheduler.Reset()
	s.scheduler.SetEnabled(true)
	if repaired {
		s.autosave.MarkDirty()
	}

	logrus.Infof("opened document %s", id)
	s.observer.DocumentOpened(s.Document())
	s.observer.OutlineChanged(id, outline)

	if err := s.citations.prefetch(ctx, referenced); err != nil {
		logrus.Warnf("fetch citations of %s: %v", id, err)
	}
	if err := s.RefreshCheckpoints(ctx); err != nil {
		logrus.Warnf("list checkpoints of %s: %v", id, err)
	}

	return nil
}

// Create creates an empty document and opens it.
func (s *Session) Create(ctx context.Context, title string) (*v1.Document, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	doc, err := s.backend.CreateDocument(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.documents.upsert(doc)

	if err := s.Open(ctx, doc.ID); err != nil {
		return nil, err
	}
	opened := s.Document()
	return &opened, nil
}

// Flush saves unsaved changes right away.
func (s *Session) Flush(ctx context.Context) error {
	if _, _, err := s.current(); err != nil {
		return err
	}
	return s.autosave.Flush(ctx)
}

// Close flushes unsaved changes and releases the document. The session
// cannot be used afterwards.
func (s *Session) Close(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	open := s.doc != nil
	s.mu.Unlock()

	var err error
	if open {
		err = s.autosave.Flush(ctx)
	}
	s.autosave.Cancel()

	s.mu.Lock()
	s.closed = true
	s.generation++
	s.doc = nil
	s.mu.Unlock()

	s.scheduler.Reset()
	s.scheduler.Wait()
	return err
}

// Document returns the open document with its live content, or a zero
// document when none is open.
func (s *Session) Document() v1.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return v1.Document{}
	}

	content := s.buffer.Snapshot()
	doc := *s.doc
	doc.ContentDelta = content.Bytes()
	doc.ContentHTML = delta.HTML(content)
	doc.CitationIDs = slices.Clone(s.citationIDs)
	return doc
}

// Content returns a copy of the live content.
func (s *Session) Content() delta.Delta {
	return s.buffer.Snapshot()
}

func (s *Session) PlainText() string {
	return delta.PlainText(s.buffer.Snapshot())
}

func (s *Session) Outline() []delta.OutlineEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.outline)
}

func (s *Session) CitationIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.citationIDs)
}

// Checkpoints returns the last fetched checkpoint list, newest first.
func (s *Session) Checkpoints() []v1.Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.checkpoints)
}

// SaveState returns the autosave state and the last reported status.
func (s *Session) SaveState() (autosave.State, autosave.Status, error) {
	status, err := s.autosave.Status()
	return s.autosave.State(), status, err
}

// ChangedSinceCheckpoint returns the units edited since the last checkpoint.
func (s *Session) ChangedSinceCheckpoint() int {
	return s.scheduler.Changed()
}

func (s *Session) LastCheckpointAt() time.Time {
	return s.scheduler.LastCheckpointAt()
}

// CheckpointsEnabled reports whether scheduled checkpoints run for the open
// document.
func (s *Session) CheckpointsEnabled() bool {
	return s.scheduler.Enabled()
}

// ListDocuments returns the cached document list, fetching it once.
func (s *Session) ListDocuments(ctx context.Context) ([]v1.DocumentSummary, error) {
	return s.documents.list(ctx, false)
}

// RefreshDocuments refetches the document list.
func (s *Session) RefreshDocuments(ctx context.Context) ([]v1.DocumentSummary, error) {
	return s.documents.list(ctx, true)
}

// Citation returns citation metadata, from the cache when possible.
func (s *Session) Citation(ctx context.Context, id string) (v1.Citation, error) {
	return s.citations.get(ctx, id)
}

// SearchCitations searches the user's citations and caches the results.
func (s *Session) SearchCitations(ctx context.Context, query string, limit int) ([]v1.Citation, error) {
	citations, err := s.backend.SearchCitations(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search citations: %w", err)
	}
	s.citations.put(citations...)
	return citations, nil
}

func (s *Session) current() (string, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", 0, ErrSessionClosed
	}
	if s.doc == nil {
		return "", 0, ErrNoDocument
	}
	return s.doc.ID, s.generation, nil
}

func (s *Session) docID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ""
	}
	return s.doc.ID
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// contentChanged runs after every buffer mutation. Replacements come from
// open and restore, which reset the counters themselves.
func (s *Session) contentChanged(ev delta.ChangeEvent) {
	if ev.Kind == delta.ChangeReplace {
		return
	}
	docID, gen, err := s.current()
	if err != nil {
		return
	}

	s.attachTokenIDs(docID, gen)
	s.autosave.MarkDirty()
	s.scheduler.Observe(ev.Units)
	s.refreshOutline(docID, gen)
}

// attachTokenIDs attaches the citations of tokens that were typed, pasted or
// joined by a deletion.
func (s *Session) attachTokenIDs(docID string, gen uint64) {
	content := s.buffer.Snapshot()

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	before := len(s.citationIDs)
	s.citationIDs, _ = withTokenIDs(s.citationIDs, content)
	added := slices.Clone(s.citationIDs[before:])
	s.mu.Unlock()

	for _, id := range added {
		s.observer.CitationAttached(docID, id)
	}
}

func (s *Session) refreshOutline(docID string, gen uint64) {
	outline := delta.BuildOutline(s.buffer.Snapshot())

	s.mu.Lock()
	if gen != s.generation || slices.Equal(outline, s.outline) {
		s.mu.Unlock()
		return
	}
	s.outline = outline
	s.mu.Unlock()

	s.observer.OutlineChanged(docID, slices.Clone(outline))
}

// save is the autosave SaveFunc.
func (s *Session) save(ctx context.Context) error {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return nil
	}
	gen := s.generation
	docID := s.doc.ID
	title := s.doc.Title
	content := s.buffer.Snapshot()
	s.citationIDs, _ = withTokenIDs(s.citationIDs, content)
	ids := append([]string{}, s.citationIDs...)
	s.mu.Unlock()

	html := delta.HTML(content)
	saved, err := s.backend.UpdateDocument(ctx, docID, &v1.UpdateDocumentRequest{
		Title:        &title,
		ContentDelta: content.Bytes(),
		ContentHTML:  &html,
		CitationIDs:  ids,
	})
	if err != nil {
		return fmt.Errorf("save document %s: %w", docID, err)
	}
	s.documents.upsert(saved)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		logrus.Debugf("dropping save response of %s", docID)
		return nil
	}
	s.doc.UpdatedAt = saved.UpdatedAt
	return nil
}

func (s *Session) saveStatusChanged(status autosave.Status, err error) {
	s.observer.SaveStatusChanged(s.docID(), status, err)
}

func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// withTokenIDs appends the ids of tokens in content that are missing from
// ids, and reports whether any were added.
func withTokenIDs(ids []string, content delta.Delta) ([]string, bool) {
	repaired := false
	for _, id := range delta.TokenIDs(content) {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
			repaired = true
		}
	}
	return ids, repaired
}
