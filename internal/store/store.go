package store

import (
	"context"
	"time"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/model"
	"github.com/google/uuid"
)

type Store interface {
	DocumentStore
	CheckpointStore
	CitationStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type DocumentStore interface {
	// CreateDocument creates a new document.
	CreateDocument(ctx context.Context, doc *model.Document) error
	// GetDocument retrieves a document of owner by ID.
	GetDocument(ctx context.Context, owner string, id uuid.UUID) (*model.Document, error)
	// ListDocuments retrieves the documents of owner without content, most
	// recently updated first.
	ListDocuments(ctx context.Context, owner string) ([]*model.Document, error)
	// UpdateDocument saves title, content and citation ids of a document.
	UpdateDocument(ctx context.Context, doc *model.Document) error
}

type CheckpointStore interface {
	// CreateCheckpoint creates a new checkpoint.
	CreateCheckpoint(ctx context.Context, checkpoint *model.Checkpoint) error
	// GetCheckpoint retrieves a checkpoint of a document.
	GetCheckpoint(ctx context.Context, docID, id uuid.UUID) (*model.Checkpoint, error)
	// ListCheckpoints retrieves up to limit checkpoints of a document, newest
	// first.
	ListCheckpoints(ctx context.Context, docID uuid.UUID, limit int) ([]*model.Checkpoint, error)
	// ListCheckpointsSince retrieves every checkpoint created after since,
	// without content, grouped by document and newest first.
	ListCheckpointsSince(ctx context.Context, since time.Time) ([]*model.Checkpoint, error)
	// DeleteCheckpoints deletes checkpoints by ID.
	DeleteCheckpoints(ctx context.Context, ids []string) (int64, error)
	// RestoreDocument overwrites the document content with the checkpoint.
	RestoreDocument(ctx context.Context, doc *model.Document, checkpoint *model.Checkpoint) error
}

type CitationStore interface {
	// CreateCitation creates a new citation.
	CreateCitation(ctx context.Context, citation *model.Citation) error
	// ListCitations retrieves up to limit citations of owner matching search,
	// newest first.
	ListCitations(ctx context.Context, owner, search string, limit int) ([]*model.Citation, error)
	// ListCitationsFromIDs retrieves the citations of owner among ids.
	ListCitationsFromIDs(ctx context.Context, owner string, ids []string) ([]*model.Citation, error)
}
