package jobs

import (
	"time"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/model"
	mapset "github.com/deckarep/golang-set/v2"
)

// RetentionPolicy picks the checkpoints of one document to delete. The
// checkpoints are ordered newest first.
type RetentionPolicy interface {
	Prune(checkpoints []*model.Checkpoint, now time.Time) []string
}

// KeepNewest keeps the N newest checkpoints of every document.
type KeepNewest struct {
	N int
}

func (k KeepNewest) Prune(checkpoints []*model.Checkpoint, _ time.Time) []string {
	if k.N <= 0 || len(checkpoints) <= k.N {
		return nil
	}
	ids := make([]string, 0, len(checkpoints)-k.N)
	for _, cp := range checkpoints[k.N:] {
		ids = append(ids, cp.ID)
	}
	return ids
}

// WindowThinning keeps checkpoints younger than After and, among older ones,
// only the newest in every Window long bucket.
type WindowThinning struct {
	Window time.Duration
	After  time.Duration
}

func (w WindowThinning) Prune(checkpoints []*model.Checkpoint, now time.Time) []string {
	if w.Window <= 0 {
		return nil
	}

	var ids []string
	var lastBucket time.Time
	for _, cp := range checkpoints {
		if now.Sub(cp.CreatedAt) < w.After {
			continue
		}
		bucket := cp.CreatedAt.Truncate(w.Window)
		if !lastBucket.IsZero() && bucket.Equal(lastBucket) {
			ids = append(ids, cp.ID)
			continue
		}
		lastBucket = bucket
	}
	return ids
}

// AllOf deletes what any of its policies deletes.
type AllOf []RetentionPolicy

func (a AllOf) Prune(checkpoints []*model.Checkpoint, now time.Time) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	var ids []string
	for _, policy := range a {
		for _, id := range policy.Prune(checkpoints, now) {
			if seen.Add(id) {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
