package model

import "time"

// Checkpoint is an immutable snapshot of a document's content. Checkpoints
// are taken by the editor while a document is edited and before every
// restore; old ones are thinned out by the retention job.
type Checkpoint struct {
	ID          string `gorm:"primaryKey;uuid;not null"`
	DocumentID  string `gorm:"index:idx_checkpoint_document_created,priority:1;not null"`
	Owner       string `gorm:"index;not null"`
	Content     []byte
	ContentHTML []byte
	Compression string
	CreatedAt   time.Time `gorm:"index:idx_checkpoint_document_created,priority:2"`
}

func (Checkpoint) TableName() string {
	return "document_checkpoints"
}
