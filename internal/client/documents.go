package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/tidwall/gjson"
)

// GetDocument fetches one document with its content.
func (c *Client) GetDocument(ctx context.Context, id string) (*v1.Document, error) {
	var doc v1.Document
	if err := c.call(ctx, http.MethodGet, "/documents/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments lists the caller's documents, newest update first.
func (c *Client) ListDocuments(ctx context.Context) ([]v1.DocumentSummary, error) {
	var docs []v1.DocumentSummary
	if err := c.call(ctx, http.MethodGet, "/documents", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// CreateDocument creates an empty document. An empty title becomes
// "Untitled" on the server.
func (c *Client) CreateDocument(ctx context.Context, title string) (*v1.Document, error) {
	var doc v1.Document
	if err := c.call(ctx, http.MethodPost, "/documents", &v1.CreateDocumentRequest{Title: title}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument saves title, content and citation ids.
func (c *Client) UpdateDocument(ctx context.Context, id string, req *v1.UpdateDocumentRequest) (*v1.Document, error) {
	var doc v1.Document
	if err := c.call(ctx, http.MethodPut, "/documents/"+url.PathEscape(id), req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListCheckpoints lists up to limit checkpoints, newest first.
func (c *Client) ListCheckpoints(ctx context.Context, docID string, limit int) ([]v1.Checkpoint, error) {
	path := fmt.Sprintf("/documents/%s/checkpoints", url.PathEscape(docID))
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var checkpoints []v1.Checkpoint
	if err := c.call(ctx, http.MethodGet, path, nil, &checkpoints); err != nil {
		return nil, err
	}
	return checkpoints, nil
}

// CreateCheckpoint snapshots content. It returns ErrCheckpointsNotConfigured
// when the server refuses to keep checkpoints.
func (c *Client) CreateCheckpoint(ctx context.Context, docID string, req *v1.CreateCheckpointRequest) (*v1.Checkpoint, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/documents/%s/checkpoints", url.PathEscape(docID))
	if err := c.call(ctx, http.MethodPost, path, req, &raw); err != nil {
		return nil, err
	}

	if created := gjson.GetBytes(raw, "created"); created.Exists() && !created.Bool() {
		reason := gjson.GetBytes(raw, "reason").String()
		if reason == v1.ReasonCheckpointsNotConfigured {
			return nil, ErrCheckpointsNotConfigured
		}
		return nil, &ServerError{Method: http.MethodPost, Path: path, StatusCode: http.StatusOK, Detail: reason}
	}

	var checkpoint v1.Checkpoint
	if err := json.Unmarshal(raw, &checkpoint); err != nil {
		return nil, &ServerError{
			Method:     http.MethodPost,
			Path:       path,
			StatusCode: http.StatusOK,
			Detail:     fmt.Sprintf("failed to decode response: %v", err),
		}
	}
	return &checkpoint, nil
}

// RestoreCheckpoint overwrites the document content with the checkpoint and
// returns the updated document.
func (c *Client) RestoreCheckpoint(ctx context.Context, docID, checkpointID string) (*v1.Document, error) {
	var doc v1.Document
	path := fmt.Sprintf("/documents/%s/restore", url.PathEscape(docID))
	if err := c.call(ctx, http.MethodPost, path, &v1.RestoreRequest{CheckpointID: checkpointID}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ExportDocument renders the document in format (txt or html).
func (c *Client) ExportDocument(ctx context.Context, docID, format string) (*v1.ExportResponse, error) {
	var export v1.ExportResponse
	path := fmt.Sprintf("/documents/%s/export", url.PathEscape(docID))
	if err := c.call(ctx, http.MethodPost, path, &v1.ExportRequest{Format: format}, &export); err != nil {
		return nil, err
	}
	return &export, nil
}

// EditorAccess asks the access gate whether the caller may use the editor.
func (c *Client) EditorAccess(ctx context.Context) (*v1.AccessResponse, error) {
	var access v1.AccessResponse
	if err := c.call(ctx, http.MethodGet, "/editor/access", nil, &access); err != nil {
		return nil, err
	}
	return &access, nil
}
