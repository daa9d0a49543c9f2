package session

import (
	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/autosave"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
)

// Observer receives session notifications. Callbacks run on the goroutine
// that caused them, never with a session lock held.
type Observer interface {
	DocumentOpened(doc v1.Document)
	SaveStatusChanged(docID string, status autosave.Status, err error)
	// SwitchFlushFailed reports that the unsaved changes of docID could not
	// be saved before nextDocID was opened. They stay unsaved.
	SwitchFlushFailed(docID, nextDocID string, err error)
	OutlineChanged(docID string, outline []delta.OutlineEntry)
	CheckpointsChanged(docID string, checkpoints []v1.Checkpoint)
	// CheckpointFailed reports a failed checkpoint. alert is set once
	// scheduled checkpoints failed repeatedly, and for the checkpoint taken
	// before a restore.
	CheckpointFailed(docID string, err error, alert bool)
	CitationAttached(docID, citationID string)
	CitationDetached(docID, citationID string)
}

// NopObserver ignores every notification. Embed it to implement only some
// callbacks.
type NopObserver struct{}

var _ Observer = NopObserver{}

func (NopObserver) DocumentOpened(v1.Document) {}
func (NopObserver) SaveStatusChanged(string, autosave.Status, error) {}
func (NopObserver) SwitchFlushFailed(string, string, error) {}
func (NopObserver) OutlineChanged(string, []delta.OutlineEntry) {}
func (NopObserver) CheckpointsChanged(string, []v1.Checkpoint) {}
func (NopObserver) CheckpointFailed(string, error, bool) {}
func (NopObserver) CitationAttached(string, string) {}
func (NopObserver) CitationDetached(string, string) {}
