package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/compress"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/queue"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/tester"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	mu     sync.Mutex
	events []queue.Event
}

func (q *recordingQueue) Publish(_ context.Context, event queue.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, event)
	return nil
}

func (q *recordingQueue) Close() error { return nil }

func (q *recordingQueue) types() []queue.EventType {
	q.mu.Lock()
	defer q.mu.Unlock()
	types := make([]queue.EventType, 0, len(q.events))
	for _, e := range q.events {
		types = append(types, e.Type)
	}
	return types
}

type services struct {
	documents   *DocumentService
	checkpoints *CheckpointService
	citations   *CitationService
	events      *recordingQueue
	owner       string
}

func newServices(t *testing.T, codec compress.Compress, checkpoints bool) *services {
	t.Helper()
	s := tester.Store()
	c := tester.Cache()
	events := &recordingQueue{}
	return &services{
		documents:   NewDocumentService(codec, s, c, events),
		checkpoints: NewCheckpointService(codec, s, c, events, checkpoints),
		citations:   NewCitationService(s),
		events:      events,
		owner:       tester.Owner(),
	}
}

func (s *services) createDocument(t *testing.T, title string) *v1.Document {
	t.Helper()
	doc, err := s.documents.CreateDocument(context.Background(), s.owner, &v1.CreateDocumentRequest{Title: title})
	require.NoError(t, err)
	return doc
}

func (s *services) createCitation(t *testing.T, owner, fullText string) *v1.Citation {
	t.Helper()
	c, err := s.citations.CreateCitation(context.Background(), owner, &v1.CreateCitationRequest{
		URL:      "https://example.com/" + uuid.NewString(),
		FullText: fullText,
		Metadata: v1.CitationMetadata{Author: "Doe", Year: "2020"},
	})
	require.NoError(t, err)
	return c
}

func textDelta(text string) json.RawMessage {
	return delta.Text(text).Bytes()
}

func plain(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	return delta.PlainText(delta.Normalize(raw))
}
