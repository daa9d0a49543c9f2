package model

import "time"

// Citation is a source captured by a user.
type Citation struct {
	ID        string `gorm:"primaryKey;uuid;not null"`
	Owner     string `gorm:"index;not null"`
	URL       string
	Excerpt   string
	FullText  string
	Format    string
	Author    string
	Year      string
	Title     string
	CreatedAt time.Time `gorm:"index"`
}
