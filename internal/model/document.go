package model

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Document is a user's document. Content holds the delta JSON encoded with
// the codec named by Compression.
type Document struct {
	ID          string `gorm:"primaryKey;uuid;not null;"`
	Owner       string `gorm:"index;not null"`
	Title       string `gorm:"not null"`
	Content     []byte
	ContentHTML []byte
	CitationIDs string `gorm:"not null;default:'[]'"` // json array
	Compression string // the compression algorithm used to compress the document content
	CreatedAt   time.Time
	UpdatedAt   time.Time      `gorm:"index"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// Citations decodes the citation id list.
func (d *Document) Citations() []string {
	ids := make([]string, 0)
	if d.CitationIDs == "" {
		return ids
	}
	if err := json.Unmarshal([]byte(d.CitationIDs), &ids); err != nil {
		return make([]string, 0)
	}
	return ids
}

// SetCitations encodes the citation id list.
func (d *Document) SetCitations(ids []string) {
	if ids == nil {
		ids = make([]string, 0)
	}
	data, _ := json.Marshal(ids)
	d.CitationIDs = string(data)
}

func (d *Document) MarshalBinary() ([]byte, error) {
	return json.Marshal(d)
}

func (d *Document) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, d)
}
