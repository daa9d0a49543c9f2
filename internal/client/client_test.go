package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", WithToken("user-1"), WithRetry(3, time.Millisecond, 5*time.Millisecond))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_GetDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/documents/doc-1", r.URL.Path)
		assert.Equal(t, "Bearer user-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, v1.Document{
			ID:           "doc-1",
			Title:        "Notes",
			ContentDelta: json.RawMessage(`{"ops":[{"insert":"Hi\n"}]}`),
			CitationIDs:  []string{"c1"},
		})
	})

	doc, err := c.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Notes", doc.Title)
	assert.Equal(t, []string{"c1"}, doc.CitationIDs)
	assert.JSONEq(t, `{"ops":[{"insert":"Hi\n"}]}`, string(doc.ContentDelta))
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", v1.ProblemContentType)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"title":"Forbidden","status":403,"detail":"Invalid citation references"}`))
	})

	_, err := c.UpdateDocument(context.Background(), "doc-1", &v1.UpdateDocumentRequest{CitationIDs: []string{"x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejectedByServer)
	assert.NotErrorIs(t, err, ErrNetworkFailure)
	assert.Equal(t, http.StatusForbidden, StatusCode(err))
	assert.Contains(t, err.Error(), "Invalid citation references")

	offline := NewClient("http://127.0.0.1:1/api", WithRetry(1, 0, 0))
	_, err = offline.GetDocument(context.Background(), "doc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkFailure)
	assert.NotErrorIs(t, err, ErrRejectedByServer)
	assert.Equal(t, 0, StatusCode(err))
}

func TestClient_RetriesTransientReads(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, v1.AccessResponse{Allowed: true})
	})

	access, err := c.EditorAccess(context.Background())
	require.NoError(t, err)
	assert.True(t, access.Allowed)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetry(t *testing.T) {
	tests := []struct {
		name   string
		status int
		call   func(c *Client) error
	}{
		{
			name:   "writes are sent once",
			status: http.StatusServiceUnavailable,
			call: func(c *Client) error {
				_, err := c.UpdateDocument(context.Background(), "doc-1", &v1.UpdateDocumentRequest{})
				return err
			},
		},
		{
			name:   "client errors are final",
			status: http.StatusNotFound,
			call: func(c *Client) error {
				_, err := c.GetDocument(context.Background(), "doc-1")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			})

			err := tt.call(c)
			assert.ErrorIs(t, err, ErrRejectedByServer)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestClient_CreateCheckpoint(t *testing.T) {
	var configured atomic.Bool
	configured.Store(true)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/doc-1/checkpoints", r.URL.Path)
		var req v1.CreateCheckpointRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.JSONEq(t, `{"ops":[{"insert":"A\n"}]}`, string(req.ContentDelta))

		if !configured.Load() {
			writeJSON(w, http.StatusOK, v1.CheckpointRefusal{Reason: v1.ReasonCheckpointsNotConfigured})
			return
		}
		writeJSON(w, http.StatusCreated, v1.Checkpoint{ID: "cp-1", DocID: "doc-1", ContentDelta: req.ContentDelta})
	})

	req := &v1.CreateCheckpointRequest{ContentDelta: json.RawMessage(`{"ops":[{"insert":"A\n"}]}`)}
	checkpoint, err := c.CreateCheckpoint(context.Background(), "doc-1", req)
	require.NoError(t, err)
	assert.Equal(t, "cp-1", checkpoint.ID)

	configured.Store(false)
	_, err = c.CreateCheckpoint(context.Background(), "doc-1", req)
	assert.True(t, errors.Is(err, ErrCheckpointsNotConfigured))
}

func TestClient_ListCheckpointsLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, []v1.Checkpoint{{ID: "b"}, {ID: "a"}})
	})

	checkpoints, err := c.ListCheckpoints(context.Background(), "doc-1", 5)
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	assert.Equal(t, "b", checkpoints[0].ID)
}

func TestClient_GetCitationsByIDsChunks(t *testing.T) {
	var mu sync.Mutex
	var batches [][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/citations/by_ids", r.URL.Path)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		mu.Lock()
		batches = append(batches, ids)
		mu.Unlock()

		citations := make([]v1.Citation, 0, len(ids))
		for _, id := range ids {
			citations = append(citations, v1.Citation{ID: id})
		}
		writeJSON(w, http.StatusOK, citations)
	})

	ids := make([]string, 0, 230)
	for i := 0; i < 230; i++ {
		ids = append(ids, "c"+strings.Repeat("x", i%3)+string(rune('a'+i%26)))
	}

	citations, err := c.GetCitationsByIDs(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, citations, 230)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 100)
	assert.Len(t, batches[1], 100)
	assert.Len(t, batches[2], 30)
}

func TestClient_SearchCitations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "smith", r.URL.Query().Get("search"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, []v1.Citation{{
			ID:       "c1",
			URL:      "https://www.example.com/a",
			Metadata: v1.CitationMetadata{Author: "Smith", Year: "2020"},
		}})
	})

	citations, err := c.SearchCitations(context.Background(), "smith", 5)
	require.NoError(t, err)
	require.Len(t, citations, 1)
	assert.Equal(t, "Smith", citations[0].Metadata.Author)
}
