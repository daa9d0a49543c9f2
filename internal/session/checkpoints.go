package session

import (
	"context"
	"errors"
	"fmt"
	"slices"

	v1 "github.com/c4rrotJuice/web-unlocker-tool/apis/v1"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/client"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/delta"
	"github.com/sirupsen/logrus"
)

// RefreshCheckpoints refetches the newest checkpoints of the open document.
func (s *Session) RefreshCheckpoints(ctx context.Context) error {
	docID, gen, err := s.current()
	if err != nil {
		return err
	}
	return s.refreshCheckpoints(ctx, docID, gen)
}

func (s *Session) refreshCheckpoints(ctx context.Context, docID string, gen uint64) error {
	checkpoints, err := s.backend.ListCheckpoints(ctx, docID, s.cfg.CheckpointListLimit)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return ErrStaleResponse
	}
	s.checkpoints = checkpoints
	s.mu.Unlock()

	s.observer.CheckpointsChanged(docID, slices.Clone(checkpoints))
	return nil
}

// createCheckpoint is the scheduler CreateFunc. It snapshots the live
// content of the open document.
func (s *Session) createCheckpoint(ctx context.Context) error {
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return ErrNoDocument
	}
	gen := s.generation
	docID := s.doc.ID
	content := s.buffer.Snapshot()
	s.mu.Unlock()

	_, err := s.backend.CreateCheckpoint(ctx, docID, &v1.CreateCheckpointRequest{
		ContentDelta: content.Bytes(),
		ContentHTML:  delta.HTML(content),
	})
	if errors.Is(err, client.ErrCheckpointsNotConfigured) {
		if s.isCurrent(gen) {
			logrus.Infof("checkpoints are not configured, scheduled checkpoints of %s disabled", docID)
			s.scheduler.SetEnabled(false)
		}
		return err
	}
	if err != nil {
		return fmt.Errorf("create checkpoint of %s: %w", docID, err)
	}

	if err := s.refreshCheckpoints(ctx, docID, gen); err != nil && !errors.Is(err, ErrStaleResponse) {
		logrus.Warnf("list checkpoints of %s: %v", docID, err)
	}
	return nil
}

func (s *Session) checkpointFailed(err error, consecutive int, alert bool) {
	if !alert {
		return
	}
	s.observer.CheckpointFailed(s.docID(), err, true)
}

func (s *Session) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}
