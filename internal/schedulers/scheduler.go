package schedulers

import (
	"context"
	"time"

	"taskhub/internal/config"

	"github.com/robfig/cron/v3"
)

var log = config.InitLogger()

const jobTimeout = 2 * time.Minute

type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context)
}

// NewScheduler registers jobs on a UTC cron with five-field specs. Jobs with an
// empty spec are skipped, bad specs are logged and skipped.
func NewScheduler(jobs ...Job) *cron.Cron {
	c := cron.New(cron.WithLocation(time.UTC))
	for _, job := range jobs {
		addJob(c, job)
	}
	return c
}

func addJob(c *cron.Cron, job Job) {
	if job.Spec == "" || job.Run == nil {
		log.Infof("Scheduler job %s disabled", job.Name)
		return
	}
	if _, err := c.AddFunc(job.Spec, func() {
		defer recoverJobPanic(job.Name)
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		job.Run(ctx)
		log.Debugf("Scheduler job %s finished in %v", job.Name, time.Since(start))
	}); err != nil {
		log.Errorf("Failed to register scheduler job %s (%s): %v", job.Name, job.Spec, err)
	}
}

func recoverJobPanic(name string) {
	if recovered := recover(); recovered != nil {
		log.Errorf("Scheduler job %s panic recovered: %v", name, recovered)
	}
}

// Stop waits a little for running jobs.
func Stop(c *cron.Cron) {
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(2 * time.Second):
	}
}
