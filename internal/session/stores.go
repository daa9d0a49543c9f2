package session

import (
	"context"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/client"
)

var _ Backend = (*client.Client)(nil)

type DocumentStore interface {
	GetDocument(ctx context.Context, id string) (*v1.Document, error)
	ListDocuments(ctx context.Context) ([]v1.DocumentSummary, error)
	CreateDocument(ctx context.Context, title string) (*v1.Document, error)
	UpdateDocument(ctx context.Context, id string, req *v1.UpdateDocumentRequest) (*v1.Document, error)
}

type CheckpointStore interface {
	ListCheckpoints(ctx context.Context, docID string, limit int) ([]v1.Checkpoint, error)
	// CreateCheckpoint returns client.ErrCheckpointsNotConfigured when the
	// backend keeps no history.
	CreateCheckpoint(ctx context.Context, docID string, req *v1.CreateCheckpointRequest) (*v1.Checkpoint, error)
	RestoreCheckpoint(ctx context.Context, docID, checkpointID string) (*v1.Document, error)
}

type CitationStore interface {
	SearchCitations(ctx context.Context, query string, limit int) ([]v1.Citation, error)
	GetCitationsByIDs(ctx context.Context, ids []string) ([]v1.Citation, error)
}

type AccessGate interface {
	EditorAccess(ctx context.Context) (*v1.AccessResponse, error)
}

// Backend is everything a session talks to.
type Backend interface {
	DocumentStore
	CheckpointStore
	CitationStore
	AccessGate
}
