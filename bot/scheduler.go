package bot

import (
	"fmt"

	"github.com/tenchan000517/zeroone-support-sub001/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a periodic maintenance task.
type Job struct {
	Name string
	Spec string // cron spec, e.g. "@every 15m" or "@daily"
	Run  func()
}

var c *cron.Cron

func newScheduler(jobs []Job) (*cron.Cron, error) {
	sched := cron.New()
	for _, job := range jobs {
		_, err := sched.AddFunc(job.Spec, func() {
			utils.Logger().Info("Running scheduled job", zap.String("job", job.Name))
			job.Run()
		})
		if err != nil {
			return nil, fmt.Errorf("could not set up cron job %s (%q): %w", job.Name, job.Spec, err)
		}
	}
	return sched, nil
}

// startScheduler starts the cron jobs.
func startScheduler(jobs []Job) error {
	utils.Logger().Info("Initializing scheduler")
	sched, err := newScheduler(jobs)
	if err != nil {
		return err
	}
	c = sched
	c.Start()
	utils.Logger().Info("Scheduler started", zap.Int("jobs", len(jobs)))
	return nil
}

// stopScheduler stops the cron jobs and waits for running ones to finish.
func stopScheduler() {
	if c != nil {
		<-c.Stop().Done()
		c = nil
		utils.Logger().Info("Scheduler stopped")
	}
}
