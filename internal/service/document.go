package service

import (
	"context"
	"strings"
	"time"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/cache"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/compress"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/metrics"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/model"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/queue"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/store"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NewDocumentService creates a new DocumentService. A nil queue drops events.
func NewDocumentService(compress compress.Compress, store store.Store, cache cache.DocumentCache, events queue.EventQueue) *DocumentService {
	if events == nil {
		events = queue.NopQueue{}
	}
	return &DocumentService{
		compress: compress,
		store:    store,
		cache:    cache,
		events:   events,
	}
}

// DocumentService is a service for managing documents.
type DocumentService struct {
	compress compress.Compress
	store    store.Store
	cache    cache.DocumentCache
	events   queue.EventQueue
}

// CreateDocument creates an empty document.
func (d *DocumentService) CreateDocument(ctx context.Context, owner string, req *v1.CreateDocumentRequest) (*v1.Document, error) {
	if err := validateCreateDocument(req); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultTitle
	}

	content := delta.Empty()
	data, html, err := encodeContent(d.compress, content, delta.HTML(content))
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		ID:          uuid.New().String(),
		Owner:       owner,
		Title:       title,
		Content:     data,
		ContentHTML: html,
		Compression: d.compress.Name(),
	}
	doc.SetCitations(nil)

	if err := d.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	publish(ctx, d.events, queue.Event{
		Type:       queue.EventDocumentCreated,
		DocumentID: doc.ID,
		Owner:      owner,
		At:         doc.CreatedAt,
	})

	return toAPIDocument(doc)
}

// GetDocument retrieves a document, from the cache when possible.
func (d *DocumentService) GetDocument(ctx context.Context, owner, id string) (*v1.Document, error) {
	doc, err := d.getDocument(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return toAPIDocument(doc)
}

func (d *DocumentService) getDocument(ctx context.Context, owner, id string) (*model.Document, error) {
	docID, err := parseID(id, ErrDocumentNotFound)
	if err != nil {
		return nil, err
	}

	cached, err := d.cache.GetDocument(ctx, docID)
	if err != nil {
		logrus.Warnf("document cache read failed: %v", err)
	}
	if cached != nil && cached.Owner == owner {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	doc, err := d.store.GetDocument(ctx, owner, docID)
	if err != nil {
		return nil, notFound(err, ErrDocumentNotFound)
	}

	if err := d.cache.SetDocument(ctx, doc); err != nil {
		logrus.Warnf("document cache write failed: %v", err)
	}

	return doc, nil
}

// ListDocuments lists the documents of owner, most recently updated first.
func (d *DocumentService) ListDocuments(ctx context.Context, owner string) ([]v1.DocumentSummary, error) {
	docs, err := d.store.ListDocuments(ctx, owner)
	if err != nil {
		return nil, err
	}

	summaries := make([]v1.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, v1.DocumentSummary{
			ID:        doc.ID,
			Title:     doc.Title,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}

	return summaries, nil
}

// UpdateDocument saves the fields set in req.
func (d *DocumentService) UpdateDocument(ctx context.Context, owner, id string, req *v1.UpdateDocumentRequest) (*v1.Document, error) {
	if err := validateUpdateDocument(req); err != nil {
		return nil, err
	}
	docID, err := parseID(id, ErrDocumentNotFound)
	if err != nil {
		return nil, err
	}

	var doc *model.Document
	err = d.store.Transaction(ctx, func(tx store.Store) error {
		doc, err = tx.GetDocument(ctx, owner, docID)
		if err != nil {
			return notFound(err, ErrDocumentNotFound)
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				title = DefaultTitle
			}
			doc.Title = title
		}

		if req.ContentDelta != nil || req.ContentHTML != nil {
			content, html, err := documentContent(doc)
			if err != nil {
				return err
			}
			if req.ContentDelta != nil {
				content = delta.Normalize(req.ContentDelta)
				html = delta.HTML(content)
			}
			if req.ContentHTML != nil {
				html = *req.ContentHTML
			}

			doc.Content, doc.ContentHTML, err = encodeContent(d.compress, content, html)
			if err != nil {
				return err
			}
			doc.Compression = d.compress.Name()
		}

		if req.CitationIDs != nil {
			ids, err := validateCitationIDs(ctx, tx, owner, req.CitationIDs)
			if err != nil {
				return err
			}
			doc.SetCitations(ids)
		}

		doc.UpdatedAt = time.Now()
		return tx.UpdateDocument(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	if err := d.cache.DeleteDocument(ctx, docID); err != nil {
		logrus.Warnf("document cache invalidation failed: %v", err)
	}
	metrics.DocumentSaves.Inc()
	publish(ctx, d.events, queue.Event{
		Type:       queue.EventDocumentSaved,
		DocumentID: doc.ID,
		Owner:      owner,
		At:         doc.UpdatedAt,
	})

	return toAPIDocument(doc)
}

// validateCitationIDs deduplicates ids keeping their first-seen order and
// checks that owner has every one of them.
func validateCitationIDs(ctx context.Context, tx store.CitationStore, owner string, ids []string) ([]string, error) {
	seen := mapset.NewThreadUnsafeSet[string]()
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" && seen.Add(id) {
			unique = append(unique, id)
		}
	}

	if len(unique) > MaxCitationsPerDocument {
		return nil, ErrTooManyCitations
	}
	if len(unique) == 0 {
		return unique, nil
	}

	found, err := tx.ListCitationsFromIDs(ctx, owner, unique)
	if err != nil {
		return nil, err
	}
	owned := mapset.NewThreadUnsafeSet[string]()
	for _, c := range found {
		owned.Add(c.ID)
	}
	if !owned.Contains(unique...) {
		return nil, ErrInvalidCitationReferences
	}

	return unique, nil
}
