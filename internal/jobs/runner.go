package jobs

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	cron "github.com/robfig/cron"
	"github.com/sirupsen/logrus"
)

type Job interface {
	Run()
}

type CronJob interface {
	Schedule() string
	Job
}

// TaskExecutor runs cron jobs, never more than one instance of a job at a time.
type TaskExecutor struct {
	cron            *cron.Cron
	cronJobs        []CronJob
	runningCronJobs mapset.Set[CronJob]
	muCronJobs      sync.Mutex
	wg              sync.WaitGroup
}

func NewTaskExecutor(cronJobs ...CronJob) *TaskExecutor {
	return &TaskExecutor{
		cron:            cron.New(),
		cronJobs:        cronJobs,
		runningCronJobs: mapset.NewThreadUnsafeSet[CronJob](),
	}
}

// Run schedules the jobs and starts the cron. Each job runs in its own
// goroutine inside the cron.
func (t *TaskExecutor) Run() error {
	for _, job := range t.cronJobs {
		err := t.cron.AddFunc(job.Schedule(), func() {
			t.runJob(job)
		})
		if err != nil {
			logrus.Errorf("failed to add task to cron: %v", err)
			return err
		}
	}

	t.cron.Start()
	return nil
}

func (t *TaskExecutor) runJob(job CronJob) {
	t.muCronJobs.Lock()
	if t.runningCronJobs.Contains(job) {
		t.muCronJobs.Unlock()
		logrus.Warn("task is already running")
		return
	}
	t.runningCronJobs.Add(job)
	t.wg.Add(1)
	t.muCronJobs.Unlock()

	defer func() {
		t.muCronJobs.Lock()
		defer t.muCronJobs.Unlock()
		t.runningCronJobs.Remove(job)
		t.wg.Done()
	}()

	job.Run()
}

// Stop stops scheduling and waits for running jobs.
func (t *TaskExecutor) Stop() {
	logrus.Infof("stopping all tasks")
	t.cron.Stop()
	t.wg.Wait()
}
