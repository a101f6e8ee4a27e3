package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// CronScheduler runs background jobs on cron specs. A job still running
// when its next tick fires is skipped, never doubled up.
type CronScheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{cron: cron.New(cron.WithParser(parser))}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	if _, err := c.cron.AddFunc(spec, c.wrap(job)); err != nil {
		log.Error().Err(err).Str("job", job.Name()).Str("spec", spec).Msg("schedule job failed")
		return err
	}
	log.Info().Str("job", job.Name()).Str("spec", spec).Msg("job scheduled")
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) wrap(job Job) func() {
	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			log.Info().Str("job", job.Name()).Msg("job skipped: still running")
			return
		}
		defer running.Store(false)

		ctx := c.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		start := time.Now()
		log.Info().Str("job", job.Name()).Msg("job started")
		if err := job.Run(ctx); err != nil {
			log.Error().Err(err).Str("job", job.Name()).Dur("duration", time.Since(start)).Msg("job finished")
			return
		}
		log.Info().Str("job", job.Name()).Dur("duration", time.Since(start)).Msg("job finished")
	}
}
