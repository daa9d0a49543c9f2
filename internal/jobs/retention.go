package jobs

import (
	"context"
	"time"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/metrics"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/model"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/store"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// deleteBatch bounds the ids of one delete statement.
const deleteBatch = 500

var _ CronJob = (*CheckpointRetentionTask)(nil)

// CheckpointRetentionTask deletes the checkpoints a RetentionPolicy gives up.
type CheckpointRetentionTask struct {
	store    store.CheckpointStore
	policy   RetentionPolicy
	schedule string
	clock    clockwork.Clock
}

func NewCheckpointRetentionTask(schedule string, store store.CheckpointStore, policy RetentionPolicy, clock clockwork.Clock) *CheckpointRetentionTask {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CheckpointRetentionTask{
		store:    store,
		policy:   policy,
		schedule: schedule,
		clock:    clock,
	}
}

func (c *CheckpointRetentionTask) Schedule() string {
	return c.schedule
}

func (c *CheckpointRetentionTask) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := c.Prune(ctx); err != nil {
		logrus.Errorf("checkpoint retention failed: %v", err)
	}
}

// Prune applies the policy to every document and returns the number of
// deleted checkpoints.
func (c *CheckpointRetentionTask) Prune(ctx context.Context) (int64, error) {
	checkpoints, err := c.store.ListCheckpointsSince(ctx, time.Time{})
	if err != nil {
		return 0, err
	}

	now := c.clock.Now()
	var remove []string
	for _, group := range groupByDocument(checkpoints) {
		remove = append(remove, c.policy.Prune(group, now)...)
	}

	var deleted int64
	for start := 0; start < len(remove); start += deleteBatch {
		end := min(start+deleteBatch, len(remove))
		n, err := c.store.DeleteCheckpoints(ctx, remove[start:end])
		deleted += n
		if err != nil {
			return deleted, err
		}
	}

	if deleted > 0 {
		metrics.CheckpointsPruned.Add(float64(deleted))
		logrus.Infof("removed %d checkpoints", deleted)
	}
	return deleted, nil
}

// groupByDocument splits checkpoints ordered by document into one slice per
// document.
func groupByDocument(checkpoints []*model.Checkpoint) [][]*model.Checkpoint {
	var groups [][]*model.Checkpoint
	for i, cp := range checkpoints {
		if i == 0 || cp.DocumentID != checkpoints[i-1].DocumentID {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], cp)
	}
	return groups
}
