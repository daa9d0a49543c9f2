package session

import (
	"context"
	"sync"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
)

// documentList caches the document list. Saves overwrite entries by id, the
// last write wins.
type documentList struct {
	store DocumentStore

	mu      sync.Mutex
	loaded  bool
	entries []v1.DocumentSummary
}

func (l *documentList) list(ctx context.Context, refresh bool) ([]v1.DocumentSummary, error) {
	l.mu.Lock()
	if l.loaded && !refresh {
		entries := append([]v1.DocumentSummary(nil), l.entries...)
		l.mu.Unlock()
		return entries, nil
	}
	l.mu.Unlock()

	docs, err := l.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = true
	l.entries = append(l.entries[:0], docs...)
	return append([]v1.DocumentSummary(nil), l.entries...), nil
}

// upsert moves the document to the front, as the most recently updated.
func (l *documentList) upsert(doc *v1.Document) {
	if doc == nil || doc.ID == "" {
		return
	}
	entry := v1.DocumentSummary{
		ID:        doc.ID,
		Title:     doc.Title,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]v1.DocumentSummary, 0, len(l.entries)+1)
	entries = append(entries, entry)
	for _, e := range l.entries {
		if e.ID != doc.ID {
			entries = append(entries, e)
		}
	}
	l.entries = entries
}
