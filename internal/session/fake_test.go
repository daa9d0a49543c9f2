package session

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/autosave"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/client"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory Backend recording every call in order.
type fakeBackend struct {
	mu sync.Mutex

	denied        bool
	docs          map[string]*v1.Document
	checkpoints   map[string][]v1.Checkpoint
	citations     map[string]v1.Citation
	calls         []string
	updates       []v1.UpdateDocumentRequest
	updateErr     error
	checkpointErr error
	restoreErr    error
	byIDsCalls    int
	byIDsGate     chan struct{}
	nextID        int
}

var _ Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		docs:        make(map[string]*v1.Document),
		checkpoints: make(map[string][]v1.Checkpoint),
		citations:   make(map[string]v1.Citation),
	}
}

func (f *fakeBackend) addDocument(id, title, text string, citationIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[id] = &v1.Document{
		ID:           id,
		Title:        title,
		ContentDelta: delta.Text(text).Bytes(),
		CitationIDs:  citationIDs,
	}
}

func (f *fakeBackend) addCitation(c v1.Citation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.citations[c.ID] = c
}

func (f *fakeBackend) record(call string) {
	f.calls = append(f.calls, call)
}

// callsMatching returns the recorded calls with one of the given prefixes.
func (f *fakeBackend) callsMatching(prefixes ...string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, call := range f.calls {
		for _, p := range prefixes {
			if len(call) >= len(p) && call[:len(p)] == p {
				out = append(out, call)
				break
			}
		}
	}
	return out
}

func (f *fakeBackend) lastUpdate() v1.UpdateDocumentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return v1.UpdateDocumentRequest{}
	}
	return f.updates[len(f.updates)-1]
}

func (f *fakeBackend) EditorAccess(ctx context.Context) (*v1.AccessResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("access")
	if f.denied {
		return &v1.AccessResponse{Allowed: false, Reason: "upgrade required"}, nil
	}
	return &v1.AccessResponse{Allowed: true}, nil
}

func (f *fakeBackend) GetDocument(ctx context.Context, id string) (*v1.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get:" + id)
	doc, ok := f.docs[id]
	if !ok {
		return nil, &client.ServerError{Method: "GET", Path: "/documents/" + id, StatusCode: 404, Detail: "Document not found"}
	}
	copied := *doc
	copied.CitationIDs = slices.Clone(doc.CitationIDs)
	return &copied, nil
}

func (f *fakeBackend) ListDocuments(ctx context.Context) ([]v1.DocumentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list")
	var out []v1.DocumentSummary
	for _, doc := range f.docs {
		out = append(out, v1.DocumentSummary{ID: doc.ID, Title: doc.Title, UpdatedAt: doc.UpdatedAt})
	}
	slices.SortFunc(out, func(a, b v1.DocumentSummary) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

func (f *fakeBackend) CreateDocument(ctx context.Context, title string) (*v1.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("doc-%d", f.nextID)
	f.record("create:" + id)
	if title == "" {
		title = "Untitled"
	}
	doc := &v1.Document{ID: id, Title: title, ContentDelta: delta.Empty().Bytes(), CitationIDs: []string{}}
	f.docs[id] = doc
	copied := *doc
	return &copied, nil
}

func (f *fakeBackend) UpdateDocument(ctx context.Context, id string, req *v1.UpdateDocumentRequest) (*v1.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update:" + id)
	f.updates = append(f.updates, *req)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, &client.ServerError{Method: "PUT", StatusCode: 404, Detail: "Document not found"}
	}
	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.ContentDelta != nil {
		doc.ContentDelta = req.ContentDelta
	}
	if req.CitationIDs != nil {
		doc.CitationIDs = slices.Clone(req.CitationIDs)
	}
	doc.UpdatedAt = time.Now()
	copied := *doc
	return &copied, nil
}

func (f *fakeBackend) ListCheckpoints(ctx context.Context, docID string, limit int) ([]v1.Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("checkpoints:" + docID)
	list := f.checkpoints[docID]
	if len(list) > limit {
		list = list[:limit]
	}
	return slices.Clone(list), nil
}

func (f *fakeBackend) CreateCheckpoint(ctx context.Context, docID string, req *v1.CreateCheckpointRequest) (*v1.Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("checkpoint:" + docID)
	if f.checkpointErr != nil {
		return nil, f.checkpointErr
	}
	f.nextID++
	cp := v1.Checkpoint{
		ID:           fmt.Sprintf("cp-%d", f.nextID),
		DocID:        docID,
		ContentDelta: req.ContentDelta,
		CreatedAt:    time.Now(),
	}
	f.checkpoints[docID] = append([]v1.Checkpoint{cp}, f.checkpoints[docID]...)
	return &cp, nil
}

func (f *fakeBackend) RestoreCheckpoint(ctx context.Context, docID, checkpointID string) (*v1.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("restore:" + docID + ":" + checkpointID)
	if f.restoreErr != nil {
		return nil, f.restoreErr
	}
	for _, cp := range f.checkpoints[docID] {
		if cp.ID == checkpointID {
			doc := f.docs[docID]
			doc.ContentDelta = cp.ContentDelta
			doc.UpdatedAt = time.Now()
			copied := *doc
			copied.CitationIDs = slices.Clone(doc.CitationIDs)
			return &copied, nil
		}
	}
	return nil, &client.ServerError{Method: "POST", StatusCode: 404, Detail: "Checkpoint not found"}
}

func (f *fakeBackend) SearchCitations(ctx context.Context, query string, limit int) ([]v1.Citation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("search")
	var out []v1.Citation
	for _, c := range f.citations {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeBackend) GetCitationsByIDs(ctx context.Context, ids []string) ([]v1.Citation, error) {
	f.mu.Lock()
	f.byIDsCalls++
	gate := f.byIDsGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []v1.Citation
	for _, id := range ids {
		if c, ok := f.citations[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// recorder is an Observer keeping the notifications it saw.
type recorder struct {
	NopObserver

	mu       sync.Mutex
	statuses []autosave.Status
	outlines [][]delta.OutlineEntry
	failures []error
	attached []string
	detached []string
	switches []string
}

func (r *recorder) SwitchFlushFailed(docID, nextDocID string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.switches = append(r.switches, docID+"->"+nextDocID)
}

func (r *recorder) SaveStatusChanged(_ string, status autosave.Status, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recorder) OutlineChanged(_ string, outline []delta.OutlineEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outlines = append(r.outlines, outline)
}

func (r *recorder) CheckpointFailed(_ string, err error, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

func (r *recorder) CitationAttached(_, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attached = append(r.attached, id)
}

func (r *recorder) CitationDetached(_, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detached = append(r.detached, id)
}

func (r *recorder) lastOutline() []delta.OutlineEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.outlines) == 0 {
		return nil
	}
	return r.outlines[len(r.outlines)-1]
}

func (r *recorder) failureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}

func newTestSession(t *testing.T, backend *fakeBackend, cfg Config) (*Session, clockwork.FakeClock, *recorder) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	rec := &recorder{}
	cfg.Clock = clock
	cfg.Observer = rec

	s, err := New(context.Background(), backend, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, clock, rec
}

func plainText(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	return delta.PlainText(delta.Normalize(raw))
}
