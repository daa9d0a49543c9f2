package v1

import (
	"encoding/json"
	"time"
)

const (
	// ReasonCheckpointsNotConfigured is sent when the backend keeps no
	// checkpoint history.
	ReasonCheckpointsNotConfigured = "checkpoints_not_configured"
)

// Checkpoint is an immutable snapshot of a document's content.
type Checkpoint struct {
	ID           string          `json:"id"`
	DocID        string          `json:"doc_id"`
	Owner        string          `json:"owner,omitempty"`
	ContentDelta json.RawMessage `json:"content_delta,omitempty"`
	ContentHTML  string          `json:"content_html,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type CreateCheckpointRequest struct {
	ContentDelta json.RawMessage `json:"content_delta"`
	ContentHTML  string          `json:"content_html,omitempty"`
}

// CheckpointRefusal is answered instead of a checkpoint when none was
// created.
type CheckpointRefusal struct {
	Created bool   `json:"created"`
	Reason  string `json:"reason"`
}

type RestoreRequest struct {
	CheckpointID string `json:"checkpoint_id"`
}
