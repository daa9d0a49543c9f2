package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/compress"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/model"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/queue"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// decode returns the plain bytes of stored content.
func decode(name string, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	codec, err := compress.ByName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentCorrupted, err)
	}
	plain, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentCorrupted, err)
	}
	return plain, nil
}

// documentContent decodes the delta and html of a document.
func documentContent(doc *model.Document) (delta.Delta, string, error) {
	content, err := decode(doc.Compression, doc.Content)
	if err != nil {
		return delta.Delta{}, "", err
	}
	html, err := decode(doc.Compression, doc.ContentHTML)
	if err != nil {
		return delta.Delta{}, "", err
	}
	return delta.Normalize(content), string(html), nil
}

// encodeContent stores content and html with codec, replacing whatever codec
// the row used before.
func encodeContent(codec compress.Compress, content delta.Delta, html string) (data, htmlData []byte, err error) {
	if data, err = codec.Encode(content.Bytes()); err != nil {
		return nil, nil, err
	}
	if htmlData, err = codec.Encode([]byte(html)); err != nil {
		return nil, nil, err
	}
	return data, htmlData, nil
}

func toAPIDocument(doc *model.Document) (*v1.Document, error) {
	content, html, err := documentContent(doc)
	if err != nil {
		return nil, err
	}

	return &v1.Document{
		ID:           doc.ID,
		Owner:        doc.Owner,
		Title:        doc.Title,
		ContentDelta: json.RawMessage(content.Bytes()),
		ContentHTML:  html,
		CitationIDs:  doc.Citations(),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func toAPICheckpoint(cp *model.Checkpoint) (*v1.Checkpoint, error) {
	content, err := decode(cp.Compression, cp.Content)
	if err != nil {
		return nil, err
	}
	html, err := decode(cp.Compression, cp.ContentHTML)
	if err != nil {
		return nil, err
	}

	return &v1.Checkpoint{
		ID:           cp.ID,
		DocID:        cp.DocumentID,
		Owner:        cp.Owner,
		ContentDelta: json.RawMessage(delta.Normalize(content).Bytes()),
		ContentHTML:  string(html),
		CreatedAt:    cp.CreatedAt,
	}, nil
}

func toAPICitation(c *model.Citation) v1.Citation {
	return v1.Citation{
		ID:       c.ID,
		Owner:    c.Owner,
		URL:      c.URL,
		Excerpt:  c.Excerpt,
		FullText: c.FullText,
		Format:   c.Format,
		Metadata: v1.CitationMetadata{
			Author: c.Author,
			Year:   c.Year,
			Title:  c.Title,
		},
		CreatedAt: c.CreatedAt,
	}
}

// parseID parses a path id. Malformed ids cannot name an existing row.
func parseID(id string, notFound error) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, notFound
	}
	return parsed, nil
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// publish sends an event without failing the request that caused it.
func publish(ctx context.Context, q queue.EventQueue, event queue.Event) {
	if err := q.Publish(ctx, event); err != nil {
		logrus.Warnf("failed to publish %s for document %s: %v", event.Type, event.DocumentID, err)
	}
}
