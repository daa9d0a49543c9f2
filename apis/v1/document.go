// Package v1 holds the JSON bodies exchanged with the document backend.
package v1

import (
	"encoding/json"
	"time"
)

// Document is a user-owned document record.
type Document struct {
	ID           string          `json:"id"`
	Owner        string          `json:"owner,omitempty"`
	Title        string          `json:"title"`
	ContentDelta json.RawMessage `json:"content_delta,omitempty"`
	ContentHTML  string          `json:"content_html,omitempty"`
	CitationIDs  []string        `json:"citation_ids"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// DocumentSummary is a list entry without content.
type DocumentSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateDocumentRequest struct {
	Title string `json:"title,omitempty"`
}

// UpdateDocumentRequest replaces the mutable fields of a document. Nil
// fields, and citation_ids when absent or null, are left untouched.
type UpdateDocumentRequest struct {
	Title        *string         `json:"title,omitempty"`
	ContentDelta json.RawMessage `json:"content_delta,omitempty"`
	ContentHTML  *string         `json:"content_html,omitempty"`
	CitationIDs  []string        `json:"citation_ids"`
}

type ExportRequest struct {
	Format string `json:"format"`
}

// ExportResponse carries the exported file, base64 encoded.
type ExportResponse struct {
	Format      string `json:"format"`
	Title       string `json:"title"`
	Filename    string `json:"filename"`
	MediaType   string `json:"media_type"`
	FileContent string `json:"file_content"`
}

// AccessResponse answers whether the caller may use the editor.
type AccessResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
