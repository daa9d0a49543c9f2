package v1

import "time"

// CitationMetadata is the bibliographic data used for in-text labels.
type CitationMetadata struct {
	Author string `json:"author,omitempty"`
	Year   string `json:"year,omitempty"`
	Title  string `json:"title,omitempty"`
}

// Citation is a captured source.
type Citation struct {
	ID        string           `json:"id"`
	Owner     string           `json:"owner,omitempty"`
	URL       string           `json:"url,omitempty"`
	Excerpt   string           `json:"excerpt,omitempty"`
	FullText  string           `json:"full_text,omitempty"`
	Format    string           `json:"format,omitempty"`
	Metadata  CitationMetadata `json:"metadata"`
	CreatedAt time.Time        `json:"created_at"`
}

type CreateCitationRequest struct {
	URL      string           `json:"url"`
	Excerpt  string           `json:"excerpt,omitempty"`
	FullText string           `json:"full_text,omitempty"`
	Format   string           `json:"format,omitempty"`
	Metadata CitationMetadata `json:"metadata"`
}
