package service

import (
	"context"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/cache"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/compress"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/metrics"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/model"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/queue"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NewCheckpointService creates a new CheckpointService. When enabled is false
// the service keeps no history and refuses to create checkpoints.
func NewCheckpointService(compress compress.Compress, store store.Store, cache cache.DocumentCache, events queue.EventQueue, enabled bool) *CheckpointService {
	if events == nil {
		events = queue.NopQueue{}
	}
	return &CheckpointService{
		compress: compress,
		store:    store,
		cache:    cache,
		events:   events,
		enabled:  enabled,
	}
}

// CheckpointService manages the snapshots of documents.
type CheckpointService struct {
	compress compress.Compress
	store    store.Store
	cache    cache.DocumentCache
	events   queue.EventQueue
	enabled  bool
}

// Enabled reports whether checkpoints are kept.
func (c *CheckpointService) Enabled() bool {
	return c.enabled
}

// ListCheckpoints lists the newest checkpoints of a document. The limit
// defaults to DefaultCheckpointLimit and is clamped to MaxCheckpointLimit.
func (c *CheckpointService) ListCheckpoints(ctx context.Context, owner, docID string, limit int) ([]v1.Checkpoint, error) {
	doc, err := c.document(ctx, owner, docID)
	if err != nil {
		return nil, err
	}

	checkpoints := make([]v1.Checkpoint, 0)
	if !c.enabled {
		return checkpoints, nil
	}

	rows, err := c.store.ListCheckpoints(ctx, uuid.MustParse(doc.ID), clamp(limit, DefaultCheckpointLimit, MaxCheckpointLimit))
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		cp, err := toAPICheckpoint(row)
		if err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, *cp)
	}

	return checkpoints, nil
}

// CreateCheckpoint stores a snapshot of the given content.
func (c *CheckpointService) CreateCheckpoint(ctx context.Context, owner, docID string, req *v1.CreateCheckpointRequest) (*v1.Checkpoint, error) {
	if !c.enabled {
		metrics.Checkpoints.WithLabelValues("refused").Inc()
		return nil, ErrCheckpointsNotConfigured
	}
	if err := validateCreateCheckpoint(req); err != nil {
		return nil, err
	}

	doc, err := c.document(ctx, owner, docID)
	if err != nil {
		return nil, err
	}

	content := delta.Normalize(req.ContentDelta)
	html := req.ContentHTML
	if html == "" {
		html = delta.HTML(content)
	}
	data, htmlData, err := encodeContent(c.compress, content, html)
	if err != nil {
		return nil, err
	}

	row := &model.Checkpoint{
		ID:          uuid.New().String(),
		DocumentID:  doc.ID,
		Owner:       owner,
		Content:     data,
		ContentHTML: htmlData,
		Compression: c.compress.Name(),
	}
	if err := c.store.CreateCheckpoint(ctx, row); err != nil {
		return nil, err
	}

	metrics.Checkpoints.WithLabelValues("created").Inc()
	publish(ctx, c.events, queue.Event{
		Type:         queue.EventCheckpointCreated,
		DocumentID:   doc.ID,
		Owner:        owner,
		CheckpointID: row.ID,
		At:           row.CreatedAt,
	})

	return toAPICheckpoint(row)
}

// RestoreCheckpoint overwrites the document content with a checkpoint. Title
// and citation ids are kept.
func (c *CheckpointService) RestoreCheckpoint(ctx context.Context, owner, docID string, req *v1.RestoreRequest) (*v1.Document, error) {
	if err := validateRestore(req); err != nil {
		return nil, err
	}
	if !c.enabled {
		return nil, ErrCheckpointsNotConfigured
	}

	id, err := parseID(docID, ErrDocumentNotFound)
	if err != nil {
		return nil, err
	}
	cpID, err := parseID(req.CheckpointID, ErrCheckpointNotFound)
	if err != nil {
		return nil, err
	}

	var doc *model.Document
	err = c.store.Transaction(ctx, func(tx store.Store) error {
		doc, err = tx.GetDocument(ctx, owner, id)
		if err != nil {
			return notFound(err, ErrDocumentNotFound)
		}

		cp, err := tx.GetCheckpoint(ctx, id, cpID)
		if err != nil {
			return notFound(err, ErrCheckpointNotFound)
		}
		if cp.Owner != owner {
			return ErrCheckpointNotFound
		}

		return tx.RestoreDocument(ctx, doc, cp)
	})
	if err != nil {
		return nil, err
	}

	if err := c.cache.DeleteDocument(ctx, id); err != nil {
		logrus.Warnf("document cache invalidation failed: %v", err)
	}
	metrics.Restores.Inc()
	publish(ctx, c.events, queue.Event{
		Type:         queue.EventDocumentRestored,
		DocumentID:   doc.ID,
		Owner:        owner,
		CheckpointID: req.CheckpointID,
		At:           doc.UpdatedAt,
	})

	return toAPIDocument(doc)
}

func (c *CheckpointService) document(ctx context.Context, owner, docID string) (*model.Document, error) {
	id, err := parseID(docID, ErrDocumentNotFound)
	if err != nil {
		return nil, err
	}
	doc, err := c.store.GetDocument(ctx, owner, id)
	if err != nil {
		return nil, notFound(err, ErrDocumentNotFound)
	}
	return doc, nil
}
