package service

import (
	"context"
	"testing"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/compress"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/queue"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointService_CreateAndList(t *testing.T) {
	s := newServices(t, compress.NewLZ4(), true)
	ctx := context.Background()
	doc := s.createDocument(t, "Draft")

	for _, text := range []string{"one\n", "two\n", "three\n"} {
		_, err := s.checkpoints.CreateCheckpoint(ctx, s.owner, doc.ID, &v1.CreateCheckpointRequest{ContentDelta: textDelta(text)})
		require.NoError(t, err)
	}

	list, err := s.checkpoints.ListCheckpoints(ctx, s.owner, doc.ID, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, doc.ID, list[0].DocID)
	assert.False(t, list[0].CreatedAt.Before(list[1].CreatedAt))

	all, err := s.checkpoints.ListCheckpoints(ctx, s.owner, doc.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "<p>one<br></p>", all[2].ContentHTML)

	_, err = s.checkpoints.ListCheckpoints(ctx, "someone-else", doc.ID, 10)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestCheckpointService_CreateValidates(t *testing.T) {
	s := newServices(t, compress.Nop{}, true)
	doc := s.createDocument(t, "Draft")

	_, err := s.checkpoints.CreateCheckpoint(context.Background(), s.owner, doc.ID, &v1.CreateCheckpointRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCheckpointService_NotConfigured(t *testing.T) {
	s := newServices(t, compress.Nop{}, false)
	ctx := context.Background()
	doc := s.createDocument(t, "Draft")

	_, err := s.checkpoints.CreateCheckpoint(ctx, s.owner, doc.ID, &v1.CreateCheckpointRequest{ContentDelta: textDelta("x\n")})
	assert.ErrorIs(t, err, ErrCheckpointsNotConfigured)

	list, err := s.checkpoints.ListCheckpoints(ctx, s.owner, doc.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCheckpointService_Restore(t *testing.T) {
	s := newServices(t, compress.NewGZip(compress.DefaultGZipLevel), true)
	ctx := context.Background()
	doc := s.createDocument(t, "Draft")
	c1 := s.createCitation(t, s.owner, "")

	cp, err := s.checkpoints.CreateCheckpoint(ctx, s.owner, doc.ID, &v1.CreateCheckpointRequest{ContentDelta: textDelta("old text\n")})
	require.NoError(t, err)

	title := "Renamed"
	_, err = s.documents.UpdateDocument(ctx, s.owner, doc.ID, &v1.UpdateDocumentRequest{
		Title:        &title,
		ContentDelta: textDelta("new text\n"),
		CitationIDs:  []string{c1.ID},
	})
	require.NoError(t, err)

	// warm the cache so the restore has to invalidate it
	_, err = s.documents.GetDocument(ctx, s.owner, doc.ID)
	require.NoError(t, err)

	restored, err := s.checkpoints.RestoreCheckpoint(ctx, s.owner, doc.ID, &v1.RestoreRequest{CheckpointID: cp.ID})
	require.NoError(t, err)
	assert.Equal(t, "old text\n", plain(t, restored.ContentDelta))
	assert.Equal(t, "Renamed", restored.Title)
	assert.Equal(t, []string{c1.ID}, restored.CitationIDs)

	got, err := s.documents.GetDocument(ctx, s.owner, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "old text\n", plain(t, got.ContentDelta))

	assert.Equal(t, queue.EventDocumentRestored, s.events.types()[len(s.events.types())-1])
}

func TestCheckpointService_RestoreNotFound(t *testing.T) {
	s := newServices(t, compress.Nop{}, true)
	ctx := context.Background()
	doc := s.createDocument(t, "A")
	other := s.createDocument(t, "B")

	cp, err := s.checkpoints.CreateCheckpoint(ctx, s.owner, other.ID, &v1.CreateCheckpointRequest{ContentDelta: textDelta("b\n")})
	require.NoError(t, err)

	tests := []struct {
		name   string
		owner  string
		docID  string
		cpID   string
		expect error
	}{
		{name: "unknown checkpoint", owner: s.owner, docID: doc.ID, cpID: uuid.NewString(), expect: ErrCheckpointNotFound},
		{name: "checkpoint of another document", owner: s.owner, docID: doc.ID, cpID: cp.ID, expect: ErrCheckpointNotFound},
		{name: "document of another owner", owner: "someone-else", docID: other.ID, cpID: cp.ID, expect: ErrDocumentNotFound},
		{name: "missing checkpoint id", owner: s.owner, docID: doc.ID, cpID: "", expect: ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.checkpoints.RestoreCheckpoint(ctx, tt.owner, tt.docID, &v1.RestoreRequest{CheckpointID: tt.cpID})
			assert.ErrorIs(t, err, tt.expect)
		})
	}
}
