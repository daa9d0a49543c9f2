package store

import (
	"context"
	"strings"
	"time"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(NewGormStore(tx))
	})
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	return g.db.WithContext(ctx).Create(doc).Error
}

func (g *GormStore) GetDocument(ctx context.Context, owner string, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	err := g.db.WithContext(ctx).Where("id = ? AND owner = ?", id.String(), owner).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (g *GormStore) ListDocuments(ctx context.Context, owner string) ([]*model.Document, error) {
	var docs []*model.Document
	err := g.db.WithContext(ctx).
		Select("id", "owner", "title", "citation_ids", "created_at", "updated_at").
		Where("owner = ?", owner).
		Order("updated_at desc").
		Find(&docs).Error
	return docs, err
}

func (g *GormStore) UpdateDocument(ctx context.Context, doc *model.Document) error {
	return g.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND owner = ?", doc.ID, doc.Owner).
		Select("title", "content", "content_html", "citation_ids", "compression", "updated_at").
		Updates(doc).Error
}

func (g *GormStore) CreateCheckpoint(ctx context.Context, checkpoint *model.Checkpoint) error {
	return g.db.WithContext(ctx).Create(checkpoint).Error
}

func (g *GormStore) GetCheckpoint(ctx context.Context, docID, id uuid.UUID) (*model.Checkpoint, error) {
	var checkpoint model.Checkpoint
	err := g.db.WithContext(ctx).Where("id = ? AND document_id = ?", id.String(), docID.String()).First(&checkpoint).Error
	if err != nil {
		return nil, err
	}
	return &checkpoint, nil
}

func (g *GormStore) ListCheckpoints(ctx context.Context, docID uuid.UUID, limit int) ([]*model.Checkpoint, error) {
	var checkpoints []*model.Checkpoint
	err := g.db.WithContext(ctx).
		Where("document_id = ?", docID.String()).
		Order("created_at desc").
		Limit(limit).
		Find(&checkpoints).Error
	return checkpoints, err
}

func (g *GormStore) ListCheckpointsSince(ctx context.Context, since time.Time) ([]*model.Checkpoint, error) {
	var checkpoints []*model.Checkpoint
	err := g.db.WithContext(ctx).
		Select("id", "document_id", "owner", "created_at").
		Where("created_at >= ?", since).
		Order("document_id, created_at desc").
		Find(&checkpoints).Error
	return checkpoints, err
}

func (g *GormStore) DeleteCheckpoints(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := g.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Checkpoint{})
	return res.RowsAffected, res.Error
}

// RestoreDocument copies the checkpoint content into the document. The
// stored bytes keep their codec, so nothing is re-encoded.
func (g *GormStore) RestoreDocument(ctx context.Context, doc *model.Document, checkpoint *model.Checkpoint) error {
	logrus.Infof("restoring document %s from checkpoint %s", doc.ID, checkpoint.ID)

	doc.Content = checkpoint.Content
	doc.ContentHTML = checkpoint.ContentHTML
	doc.Compression = checkpoint.Compression
	doc.UpdatedAt = time.Now()

	return g.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ? AND owner = ?", doc.ID, doc.Owner).
		Select("content", "content_html", "compression", "updated_at").
		Updates(doc).Error
}

func (g *GormStore) CreateCitation(ctx context.Context, citation *model.Citation) error {
	return g.db.WithContext(ctx).Create(citation).Error
}

func (g *GormStore) ListCitations(ctx context.Context, owner, search string, limit int) ([]*model.Citation, error) {
	query := g.db.WithContext(ctx).Where("owner = ?", owner)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(url) LIKE ? OR LOWER(excerpt) LIKE ? OR LOWER(title) LIKE ? OR LOWER(author) LIKE ?",
			like, like, like, like,
		)
	}

	var citations []*model.Citation
	err := query.Order("created_at desc").Limit(limit).Find(&citations).Error
	return citations, err
}

func (g *GormStore) ListCitationsFromIDs(ctx context.Context, owner string, ids []string) ([]*model.Citation, error) {
	var citations []*model.Citation
	if len(ids) == 0 {
		return citations, nil
	}
	err := g.db.WithContext(ctx).Where("owner = ? AND id IN ?", owner, ids).Find(&citations).Error
	return citations, err
}
