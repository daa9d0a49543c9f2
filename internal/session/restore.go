package session

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
	"github.com/sirupsen/logrus"
)

// ConfirmFunc asks the user to confirm a destructive action.
type ConfirmFunc func() bool

// Restore replaces the live content with a checkpoint. The current content
// is checkpointed first, so a restore can always be undone by restoring
// that checkpoint. No save runs while a restore is in progress.
func (s *Session) Restore(ctx context.Context, checkpointID string, confirm ConfirmFunc) error {
	if confirm == nil || !confirm() {
		return ErrRestoreNotConfirmed
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	docID, gen, err := s.current()
	if err != nil {
		return err
	}

	release, err := s.autosave.Suspend(ctx)
	if err != nil {
		return fmt.Errorf("restore %s: %w", checkpointID, err)
	}
	defer release()

	if err := s.scheduler.Force(ctx); err != nil {
		logrus.Warnf("checkpoint of %s before restore failed: %v", docID, err)
		s.observer.CheckpointFailed(docID, err, true)
		if s.cfg.AbortRestoreOnCheckpointFailure {
			release()
			s.autosave.Resume()
			return fmt.Errorf("restore %s: checkpoint current content: %w", checkpointID, err)
		}
	}

	restored, err := s.backend.RestoreCheckpoint(ctx, docID, checkpointID)
	if err != nil {
		release()
		s.autosave.Resume()
		return fmt.Errorf("restore %s: %w", checkpointID, err)
	}
	content := delta.Normalize(restored.ContentDelta)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return ErrStaleResponse
	}
	if restored.Title != "" {
		s.doc.Title = restored.Title
	}
	if !restored.UpdatedAt.IsZero() {
		s.doc.UpdatedAt = restored.UpdatedAt
	}
	if restored.CitationIDs != nil {
		s.citationIDs = uniqueIDs(restored.CitationIDs)
	}
	var repaired bool
	s.citationIDs, repaired = withTokenIDs(s.citationIDs, content)
	s.buffer.Replace(content)
	s.outline = delta.BuildOutline(content)
	outline := slices.Clone(s.outline)
	s.mu.Unlock()

	s.autosave.Reset()
	s.scheduler.Reset()
	release()
	if repaired {
		s.autosave.MarkDirty()
	}

	logrus.Infof("restored document %s from checkpoint %s", docID, checkpointID)
	s.observer.OutlineChanged(docID, outline)

	if err := s.citations.prefetch(ctx, delta.TokenIDs(content)); err != nil {
		logrus.Warnf("fetch citations of %s: %v", docID, err)
	}
	if err := s.refreshCheckpoints(ctx, docID, gen); err != nil && !errors.Is(err, ErrStaleResponse) {
		logrus.Warnf("list checkpoints of %s: %v", docID, err)
	}
	return nil
}
