package cache

import (
	"context"
	"errors"
	"time"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultDocumentTTL keeps a cached document for an hour after it was read.
const DefaultDocumentTTL = time.Hour

func documentKey(id string) string {
	return "document:" + id
}

// DocumentCache is a read cache for stored documents.
type DocumentCache interface {
	// GetDocument gets a document from the cache. A miss returns nil, nil.
	GetDocument(ctx context.Context, id uuid.UUID) (*model.Document, error)
	// SetDocument sets a document in the cache.
	SetDocument(ctx context.Context, doc *model.Document) error
	// DeleteDocument drops a document from the cache.
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

var _ DocumentCache = (*KVDocumentCache)(nil)

type KVDocumentCache struct {
	kv  KV
	ttl time.Duration
}

func NewDocumentCache(kv KV, ttl time.Duration) *KVDocumentCache {
	if ttl <= 0 {
		ttl = DefaultDocumentTTL
	}
	return &KVDocumentCache{kv: kv, ttl: ttl}
}

func (c *KVDocumentCache) GetDocument(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	buf, err := c.kv.Get(ctx, documentKey(id.String()))
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, nil
		}
		return nil, err
	}

	doc := &model.Document{}
	if err := doc.UnmarshalBinary(buf); err != nil {
		// a corrupt entry is treated as a miss and dropped
		logrus.Warnf("dropping cached document %s: %v", id, err)
		_ = c.kv.Del(ctx, documentKey(id.String()))
		return nil, nil
	}

	return doc, nil
}

func (c *KVDocumentCache) SetDocument(ctx context.Context, doc *model.Document) error {
	buf, err := doc.MarshalBinary()
	if err != nil {
		return err
	}

	return c.kv.Set(ctx, documentKey(doc.ID), buf, c.ttl)
}

func (c *KVDocumentCache) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	return c.kv.Del(ctx, documentKey(id.String()))
}
